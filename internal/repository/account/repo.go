// Package account persists users, ratings, and favorites in the
// key-value store. The recommendation core reads from it; durable
// writes are issued by the transport layer.
package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/cinedex/internal/db"
	"github.com/kailas-cloud/cinedex/internal/domain"
)

const keyPrefix = "cinedex:"

// store is the consumer interface for the account repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// Repo stores accounts and their rating/favorite state.
//
// Layout:
//
//	cinedex:user:name:{username}  -> user ID (uniqueness claim)
//	cinedex:user:email:{email}    -> user ID (uniqueness claim)
//	cinedex:user:{id}             -> hash: username, email, password, created_at
//	cinedex:user:{id}:ratings     -> hash: movie ID -> rating
//	cinedex:user:{id}:favorites   -> hash: movie ID -> unix timestamp
//	cinedex:movie:{id}:raters     -> hash: user ID -> rating (peer lookup index)
type Repo struct {
	store store
}

// New creates an account repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// CreateUser registers a user. Username and email must be unique.
func (r *Repo) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (domain.User, error) {
	id := uuid.NewString()

	claimed, err := r.store.SetNX(ctx, keyPrefix+"user:name:"+username, []byte(id))
	if err != nil {
		return domain.User{}, fmt.Errorf("claim username: %w", err)
	}
	if !claimed {
		return domain.User{}, fmt.Errorf("username %q: %w", username, domain.ErrAlreadyExists)
	}

	claimed, err = r.store.SetNX(ctx, keyPrefix+"user:email:"+email, []byte(id))
	if err != nil {
		return domain.User{}, fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		// Release the username claim so the name stays available.
		_ = r.store.Del(ctx, keyPrefix+"user:name:"+username)
		return domain.User{}, fmt.Errorf("email %q: %w", email, domain.ErrAlreadyExists)
	}

	now := time.Now().UTC()
	err = r.store.HSet(ctx, keyPrefix+"user:"+id, map[string]string{
		"username":   username,
		"email":      email,
		"password":   string(passwordHash),
		"created_at": strconv.FormatInt(now.Unix(), 10),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("store user: %w", err)
	}

	return domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// UserByUsername resolves a username to the full account record.
func (r *Repo) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	idBytes, err := r.store.Get(ctx, keyPrefix+"user:name:"+username)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("resolve username: %w", err)
	}
	return r.UserByID(ctx, string(idBytes))
}

// UserByID loads an account record.
func (r *Repo) UserByID(ctx context.Context, id string) (domain.User, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+"user:"+id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	return domain.User{
		ID:           id,
		Username:     fields["username"],
		Email:        fields["email"],
		PasswordHash: []byte(fields["password"]),
		CreatedAt:    time.Unix(createdAt, 0).UTC(),
	}, nil
}

// SaveRating upserts a rating: a new rating for the same (user, movie)
// pair replaces the prior one in both the per-user hash and the
// per-movie raters index.
func (r *Repo) SaveRating(ctx context.Context, ev domain.RatingEvent) error {
	movieField := strconv.FormatInt(ev.MovieID, 10)
	ratingVal := strconv.FormatFloat(ev.Rating, 'f', -1, 64)

	if err := r.store.HSet(ctx, keyPrefix+"user:"+ev.UserID+":ratings",
		map[string]string{movieField: ratingVal}); err != nil {
		return fmt.Errorf("store user rating: %w", err)
	}
	if err := r.store.HSet(ctx, keyPrefix+"movie:"+movieField+":raters",
		map[string]string{ev.UserID: ratingVal}); err != nil {
		return fmt.Errorf("store rater index: %w", err)
	}
	return nil
}

// SaveFavorite upserts a favorite mark. A repeat favorite overwrites the
// timestamp and is otherwise a no-op.
func (r *Repo) SaveFavorite(ctx context.Context, mark domain.FavoriteMark) error {
	err := r.store.HSet(ctx, keyPrefix+"user:"+mark.UserID+":favorites", map[string]string{
		strconv.FormatInt(mark.MovieID, 10): strconv.FormatInt(mark.CreatedAt.Unix(), 10),
	})
	if err != nil {
		return fmt.Errorf("store favorite: %w", err)
	}
	return nil
}

// RatingsFor returns all current (movie, rating) pairs for a user.
// A user with no ratings yields an empty map, not an error.
func (r *Repo) RatingsFor(ctx context.Context, userID string) (map[int64]float64, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+"user:"+userID+":ratings")
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	out := make(map[int64]float64, len(fields))
	for k, v := range fields {
		movieID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt rating key %q: %w", k, err)
		}
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt rating value %q: %w", v, err)
		}
		out[movieID] = rating
	}
	return out, nil
}

// FavoritesFor returns the IDs of a user's favorited movies.
func (r *Repo) FavoritesFor(ctx context.Context, userID string) ([]int64, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+"user:"+userID+":favorites")
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	out := make([]int64, 0, len(fields))
	for k := range fields {
		movieID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt favorite key %q: %w", k, err)
		}
		out = append(out, movieID)
	}
	return out, nil
}

// RatersOf returns every (user, rating) pair recorded for a movie.
func (r *Repo) RatersOf(ctx context.Context, movieID int64) (map[string]float64, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+"movie:"+strconv.FormatInt(movieID, 10)+":raters")
	if err != nil {
		return nil, fmt.Errorf("load raters: %w", err)
	}

	out := make(map[string]float64, len(fields))
	for userID, v := range fields {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt rater value %q: %w", v, err)
		}
		out[userID] = rating
	}
	return out, nil
}
