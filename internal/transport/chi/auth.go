package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

type ctxKey int

const userIDKey ctxKey = iota

const minPasswordLen = 8

// issueToken signs an HS256 JWT carrying the user ID as subject.
func issueToken(secret []byte, userID string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseToken validates a signed token and returns the user ID.
func parseToken(secret []byte, raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// requireAuth validates the Bearer token and stores the user ID in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(auth, bearerPrefix) {
			writeMessage(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
			return
		}

		userID, err := parseToken(s.jwtSecret, auth[len(bearerPrefix):])
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// register handles POST /auth/register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Username == "":
		writeMessage(w, http.StatusBadRequest, "username is required")
		return
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		writeMessage(w, http.StatusBadRequest, "a valid email is required")
		return
	case len(req.Password) < minPasswordLen:
		writeMessage(w, http.StatusBadRequest,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}

	user, err := s.accounts.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// login handles POST /auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.accounts.UserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same response as a wrong password: no account enumeration.
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := issueToken(s.jwtSecret, user.ID, s.tokenTTL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"user_id":    user.ID,
	})
}
