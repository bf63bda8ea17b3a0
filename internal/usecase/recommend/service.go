package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
)

// Tier labels for metrics and logs.
const (
	tierContent  = "content"
	tierPeers    = "peers"
	tierPopular  = "popular"
	tierTerminal = "terminal_fallback"
)

// Service is the hybrid recommendation engine: it orchestrates the
// content, collaborative, and popularity tiers and merges their output.
type Service struct {
	content  contentRecommender
	peers    peerRecommender
	popular  popularityRecommender
	accounts AccountStore
	table    *catalog.Table
	prefs    *PrefsCache
	logger   *zap.Logger

	tierCandidates  *prometheus.CounterVec   // label: tier; optional
	requestDuration *prometheus.HistogramVec // label: outcome; optional
}

// New creates the recommendation service.
func New(
	content contentRecommender,
	peers peerRecommender,
	popular popularityRecommender,
	accounts AccountStore,
	table *catalog.Table,
	prefs *PrefsCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		content:  content,
		peers:    peers,
		popular:  popular,
		accounts: accounts,
		table:    table,
		prefs:    prefs,
		logger:   logger,
	}
}

// WithMetrics attaches a counter vec with label "tier" counting
// candidates contributed per tier and a histogram with label "outcome"
// timing the full assembly.
func (s *Service) WithMetrics(tierCandidates *prometheus.CounterVec, requestDuration *prometheus.HistogramVec) *Service {
	s.tierCandidates = tierCandidates
	s.requestDuration = requestDuration
	return s
}

// GetRecommendations assembles up to n recommendations for a user.
//
// Tier order is priority order: content candidates (seeded by the
// user's favorites) land in the pool before collaborative ones, and the
// popularity tier is appended only when the pool is still under-sized.
// A failure inside any tier is logged and contributes nothing; it never
// aborts the merge.
func (s *Service) GetRecommendations(ctx context.Context, userID string, n int) ([]domain.Movie, error) {
	if n <= 0 {
		return nil, nil
	}
	start := time.Now()

	favorites := s.loadFavorites(ctx, userID)

	var pool []domain.Movie

	if len(favorites) > 0 {
		recs, err := s.content.RecommendBySimilarity(ctx, favorites, 2*n)
		if err != nil {
			s.tierFailed(tierContent, userID, err)
		} else {
			s.tierContributed(tierContent, recs)
			pool = append(pool, recs...)
		}
	}

	recs, err := s.peers.RecommendByPeers(ctx, userID, 2*n)
	if err != nil {
		s.tierFailed(tierPeers, userID, err)
	} else {
		s.tierContributed(tierPeers, recs)
		pool = append(pool, recs...)
	}

	if len(pool) < n {
		popular := s.popular.RecommendPopular(2 * n)
		s.tierContributed(tierPopular, popular)
		pool = append(pool, popular...)
	}

	pool = dedupe(pool)
	pool = s.excludeSeen(ctx, userID, favorites, pool)

	sort.SliceStable(pool, func(a, b int) bool {
		if pool[a].MeanRating != pool[b].MeanRating {
			return pool[a].MeanRating > pool[b].MeanRating
		}
		return pool[a].RatingCount > pool[b].RatingCount
	})

	if len(pool) > n {
		pool = pool[:n]
	}

	// Terminal fallback: reachable when the user has no favorites, no
	// qualifying peers, and nothing clears the popularity thresholds
	// after exclusion.
	outcome := "ok"
	if len(pool) == 0 {
		pool = s.popular.RecommendPopular(n)
		s.tierContributed(tierTerminal, pool)
		outcome = "fallback"
	}

	if s.requestDuration != nil {
		s.requestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}

	return pool, nil
}

// Search returns catalog movies whose title contains the query,
// case-insensitive, in catalog order.
func (s *Service) Search(query string) []domain.Movie {
	return s.table.Search(query)
}

// Popular returns up to n globally well-rated movies.
func (s *Service) Popular(n int) []domain.Movie {
	return s.popular.RecommendPopular(n)
}

// AddToFavorites records a favorite in the ephemeral preference cache.
// The caller persists the durable copy to the account store.
func (s *Service) AddToFavorites(_ context.Context, userID string, movieID int64) error {
	m, ok := s.table.Get(movieID)
	if !ok {
		return fmt.Errorf("movie %d: %w", movieID, domain.ErrMovieNotFound)
	}
	s.prefs.AddFavorite(userID, movieID, m.Genres)
	return nil
}

// Rate records a rating in the ephemeral preference cache. The caller
// persists the durable copy to the account store.
func (s *Service) Rate(_ context.Context, userID string, movieID int64, rating float64) error {
	if !domain.ValidRating(rating) {
		return fmt.Errorf("rating %v: %w", rating, domain.ErrInvalidRating)
	}
	if _, ok := s.table.Get(movieID); !ok {
		return fmt.Errorf("movie %d: %w", movieID, domain.ErrMovieNotFound)
	}
	s.prefs.AddRating(userID, movieID, rating)
	return nil
}

// loadFavorites treats an account-store failure as "no favorites" so
// the content tier degrades instead of aborting the merge.
func (s *Service) loadFavorites(ctx context.Context, userID string) []int64 {
	favorites, err := s.accounts.FavoritesFor(ctx, userID)
	if err != nil {
		s.tierFailed(tierContent, userID, fmt.Errorf("load favorites: %w", err))
		return nil
	}
	return favorites
}

// excludeSeen drops movies the user already rated or favorited. An
// unreadable rating set degrades to no rating exclusions.
func (s *Service) excludeSeen(ctx context.Context, userID string, favorites []int64, pool []domain.Movie) []domain.Movie {
	rated, err := s.accounts.RatingsFor(ctx, userID)
	if err != nil {
		s.logger.Warn("load ratings for exclusion failed",
			zap.String("user_id", userID), zap.Error(err))
		rated = nil
	}

	favSet := make(map[int64]struct{}, len(favorites))
	for _, id := range favorites {
		favSet[id] = struct{}{}
	}

	out := pool[:0]
	for _, m := range pool {
		if _, ok := rated[m.ID]; ok {
			continue
		}
		if _, ok := favSet[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// dedupe keeps the first occurrence per movie ID, then runs a second
// defensive pass on titles: two distinct IDs can carry the same display
// title.
func dedupe(pool []domain.Movie) []domain.Movie {
	seenIDs := make(map[int64]struct{}, len(pool))
	seenTitles := make(map[string]struct{}, len(pool))

	out := pool[:0]
	for _, m := range pool {
		if _, ok := seenIDs[m.ID]; ok {
			continue
		}
		if _, ok := seenTitles[m.Title]; ok {
			continue
		}
		seenIDs[m.ID] = struct{}{}
		seenTitles[m.Title] = struct{}{}
		out = append(out, m)
	}
	return out
}

func (s *Service) tierFailed(tier, userID string, err error) {
	s.logger.Warn("recommendation tier failed",
		zap.String("tier", tier),
		zap.String("user_id", userID),
		zap.Error(err),
	)
}

func (s *Service) tierContributed(tier string, recs []domain.Movie) {
	if s.tierCandidates != nil {
		s.tierCandidates.WithLabelValues(tier).Add(float64(len(recs)))
	}
}
