// Package chi exposes the HTTP API: movie browsing, search, hybrid
// recommendations, favorites/ratings, and account auth. Responses use
// a uniform envelope: {"status": "success", "data": ...} on success
// and {"status": "error", "message": ...} on failure.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinedex/internal/domain"
	logpkg "github.com/kailas-cloud/cinedex/internal/logger"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
	"github.com/kailas-cloud/cinedex/internal/transport/tmdb"
	healthuc "github.com/kailas-cloud/cinedex/internal/usecase/health"
)

const (
	defaultPageSize     = 20
	maxPageSize         = 100
	recommendationsSize = 20
	featuredShelfSize   = 12
)

// recommender is the consumer interface over the recommendation core.
type recommender interface {
	GetRecommendations(ctx context.Context, userID string, n int) ([]domain.Movie, error)
	Search(query string) []domain.Movie
	Popular(n int) []domain.Movie
	AddToFavorites(ctx context.Context, userID string, movieID int64) error
	Rate(ctx context.Context, userID string, movieID int64, rating float64) error
}

// accountWriter is the consumer interface over the durable account store.
type accountWriter interface {
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	SaveRating(ctx context.Context, ev domain.RatingEvent) error
	SaveFavorite(ctx context.Context, mark domain.FavoriteMark) error
}

// healthChecker aggregates component health.
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// metadataSource decorates movies with external poster art and details.
type metadataSource interface {
	PosterURL(ctx context.Context, m domain.Movie) string
	Details(ctx context.Context, m domain.Movie) *tmdb.Movie
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	recs     recommender
	accounts accountWriter
	table    *catalog.Table
	health   healthChecker
	metadata metadataSource
	logger   *zap.Logger

	jwtSecret []byte
	tokenTTL  time.Duration

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. metadata can be nil.
func NewServer(
	recs recommender,
	accounts accountWriter,
	table *catalog.Table,
	health healthChecker,
	metadata metadataSource,
	jwtSecret []byte,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recs:      recs,
		accounts:  accounts,
		table:     table,
		health:    health,
		metadata:  metadata,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMovieNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict),
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized),
		sentinelHandler(domain.ErrInvalidRating, http.StatusBadRequest),
	}
	return s
}

// Routes builds the API router. Global middleware (request ID,
// recovery, metrics) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)

	r.Get("/movies", s.listMovies)
	r.Get("/movies/search", s.searchMovies)
	r.Get("/movies/featured", s.featuredMovies)
	r.Get("/api/movies/{movieID}/details", s.movieDetails)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)
		pr.Get("/movies/recommendations", s.recommendations)
		pr.Post("/movies/favorite", s.favorite)
		pr.Post("/movies/rate", s.rate)
	})

	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// listMovies handles GET /movies: the catalog ordered by rating,
// paginated with ?page= and ?page_size=.
func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if page < 1 || pageSize < 1 {
		writeMessage(w, http.StatusBadRequest, "page and page_size must be positive")
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	all := append([]domain.Movie(nil), s.table.All()...)
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].MeanRating != all[b].MeanRating {
			return all[a].MeanRating > all[b].MeanRating
		}
		return all[a].RatingCount > all[b].RatingCount
	})

	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	writeData(w, http.StatusOK, map[string]any{
		"movies":    s.moviesPayload(r.Context(), all[start:end]),
		"page":      page,
		"page_size": pageSize,
		"total":     len(all),
	})
}

// searchMovies handles GET /movies/search?q=.
func (s *Server) searchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"movies": s.moviesPayload(r.Context(), s.recs.Search(query)),
	})
}

// featuredMovies handles GET /movies/featured: the popularity shelf.
func (s *Server) featuredMovies(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"movies": s.moviesPayload(r.Context(), s.recs.Popular(featuredShelfSize)),
	})
}

// recommendations handles GET /movies/recommendations (auth).
func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	recs, err := s.recs.GetRecommendations(r.Context(), userID, recommendationsSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"movies": s.moviesPayload(r.Context(), recs),
	})
}

type favoriteRequest struct {
	MovieID int64 `json:"movie_id"`
}

// favorite handles POST /movies/favorite (auth). The durable write
// lands first; the in-process preference cache is updated after.
func (s *Server) favorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if _, ok := s.table.Get(req.MovieID); !ok {
		writeMessage(w, http.StatusNotFound, "movie not found")
		return
	}

	userID := userIDFromContext(r.Context())
	mark := domain.FavoriteMark{UserID: userID, MovieID: req.MovieID, CreatedAt: time.Now()}
	if err := s.accounts.SaveFavorite(r.Context(), mark); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.recs.AddToFavorites(r.Context(), userID, req.MovieID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"movie_id": req.MovieID})
}

type rateRequest struct {
	MovieID int64   `json:"movie_id"`
	Rating  float64 `json:"rating"`
}

// rate handles POST /movies/rate (auth). Upsert semantics: a repeat
// rating for the same movie replaces the previous one.
func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !domain.ValidRating(req.Rating) {
		writeMessage(w, http.StatusBadRequest, "rating must be between 0.5 and 5.0")
		return
	}
	if _, ok := s.table.Get(req.MovieID); !ok {
		writeMessage(w, http.StatusNotFound, "movie not found")
		return
	}

	userID := userIDFromContext(r.Context())
	ev := domain.RatingEvent{UserID: userID, MovieID: req.MovieID, Rating: req.Rating, CreatedAt: time.Now()}
	if err := s.accounts.SaveRating(r.Context(), ev); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.recs.Rate(r.Context(), userID, req.MovieID, req.Rating); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"movie_id": req.MovieID, "rating": req.Rating})
}

// movieDetails handles GET /api/movies/{movieID}/details.
func (s *Server) movieDetails(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "movieID must be an integer")
		return
	}

	m, ok := s.table.Get(movieID)
	if !ok {
		writeMessage(w, http.StatusNotFound, "movie not found")
		return
	}

	payload := s.moviePayload(r.Context(), m)
	if s.metadata != nil {
		if d := s.metadata.Details(r.Context(), m); d != nil {
			payload["overview"] = d.Overview
			payload["release_date"] = d.ReleaseDate
			payload["tmdb_id"] = d.ID
			payload["tmdb_vote_average"] = d.VoteAverage
		}
	}

	writeData(w, http.StatusOK, payload)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) moviesPayload(ctx context.Context, movies []domain.Movie) []map[string]any {
	out := make([]map[string]any, len(movies))
	for i, m := range movies {
		out[i] = s.moviePayload(ctx, m)
	}
	return out
}

func (s *Server) moviePayload(ctx context.Context, m domain.Movie) map[string]any {
	payload := map[string]any{
		"id":           m.ID,
		"title":        m.Title,
		"genres":       m.Genres,
		"mean_rating":  m.MeanRating,
		"rating_count": m.RatingCount,
	}
	if year := m.Year(); year > 0 {
		payload["year"] = year
	}
	if s.metadata != nil {
		if poster := s.metadata.PosterURL(ctx, m); poster != "" {
			payload["poster_url"] = poster
		}
	}
	return payload
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"status": "success", "data": data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMovieNotFound,
		domain.ErrUserNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidCredentials,
		domain.ErrInvalidRating,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeMessage(w, status, msg)
		return true
	}
}

// handleDomainError logs with the request-scoped logger when the
// middleware installed one, falling back to the server logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
