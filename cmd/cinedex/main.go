package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinedex/internal/config"
	dbRedis "github.com/kailas-cloud/cinedex/internal/db/redis"
	logpkg "github.com/kailas-cloud/cinedex/internal/logger"
	"github.com/kailas-cloud/cinedex/internal/metrics"
	accountrepo "github.com/kailas-cloud/cinedex/internal/repository/account"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
	modelrepo "github.com/kailas-cloud/cinedex/internal/repository/model"
	chiTransport "github.com/kailas-cloud/cinedex/internal/transport/chi"
	"github.com/kailas-cloud/cinedex/internal/transport/tmdb"
	"github.com/kailas-cloud/cinedex/internal/usecase/features"
	healthuc "github.com/kailas-cloud/cinedex/internal/usecase/health"
	"github.com/kailas-cloud/cinedex/internal/usecase/recommend"
	"github.com/kailas-cloud/cinedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cinedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register recommendation metrics explicitly (no init())
	metrics.RegisterRecommendationMetrics()

	// Catalog load is fatal on any error: serving without the full
	// catalog would silently skew every tier.
	loadStart := time.Now()
	table, err := catalog.Load(cfg.Catalog.MoviesPath, cfg.Catalog.RatingsPath, cfg.Catalog.ChunkSize)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.Int("movies", table.Len()),
		zap.String("hash", table.Hash()),
		zap.Duration("took", time.Since(loadStart)),
	)

	// Feature build blocks startup; a persisted model for the same
	// catalog is reapplied instead of refit.
	modelStore := modelrepo.New(cfg.Model.Dir)
	builder := features.NewBuilder(modelStore, cfg.Model.MaxComponents, logger)

	buildStart := time.Now()
	matrix, err := builder.Build(table)
	if err != nil {
		logger.Fatal("Failed to build feature matrix", zap.Error(err))
	}
	logger.Info("Feature matrix ready",
		zap.Int("movies", matrix.Len()),
		zap.Int("dimensions", matrix.Dim()),
		zap.Duration("took", time.Since(buildStart)),
	)

	// Repositories and tiers
	accounts := accountrepo.New(store)
	content := recommend.NewContentRecommender(table, matrix)
	peers := recommend.NewPeerRecommender(accounts, table)
	popular := recommend.NewPopularityRecommender(table)
	prefs := recommend.NewPrefsCache(cfg.Cache.MaxUserProfiles)

	recSvc := recommend.New(content, peers, popular, accounts, table, prefs, logger).
		WithMetrics(metrics.RecommendationCandidatesTotal, metrics.RecommendationRequestDuration)

	tmdbClient := tmdb.NewClient(
		cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.ImageBaseURL,
		time.Duration(cfg.TMDB.TimeoutSec)*time.Second, cfg.Cache.MaxPosters, logger,
	)
	if !tmdbClient.Enabled() {
		logger.Warn("TMDB API key not set, poster decoration disabled")
	}

	healthSvc := healthuc.New(store, newModelHealthChecker(matrix))

	server := chiTransport.NewServer(
		recSvc, accounts, table, healthSvc, tmdbClient,
		[]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLHrs)*time.Hour,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// modelHealthChecker wraps the feature matrix to implement health.ModelChecker.
type modelHealthChecker struct {
	matrix *features.Matrix
}

func newModelHealthChecker(matrix *features.Matrix) *modelHealthChecker {
	return &modelHealthChecker{matrix: matrix}
}

func (h *modelHealthChecker) Ready() error {
	if h.matrix == nil || h.matrix.Len() == 0 {
		return errors.New("feature matrix is empty")
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"status":  "error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
