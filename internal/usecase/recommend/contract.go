package recommend

import (
	"context"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// AccountStore is the read surface of the durable account store the
// core consumes. Writes go through the transport layer.
type AccountStore interface {
	RatingsFor(ctx context.Context, userID string) (map[int64]float64, error)
	FavoritesFor(ctx context.Context, userID string) ([]int64, error)
	RatersOf(ctx context.Context, movieID int64) (map[string]float64, error)
}

// contentRecommender is the seed-similarity tier.
type contentRecommender interface {
	RecommendBySimilarity(ctx context.Context, seedIDs []int64, n int) ([]domain.Movie, error)
}

// peerRecommender is the rating-overlap tier.
type peerRecommender interface {
	RecommendByPeers(ctx context.Context, userID string, n int) ([]domain.Movie, error)
}

// popularityRecommender is the global fallback tier.
type popularityRecommender interface {
	RecommendPopular(n int) []domain.Movie
}
