package recommend

import (
	"context"
	"sort"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
	"github.com/kailas-cloud/cinedex/internal/usecase/features"
)

// ContentRecommender scores catalog movies by cosine similarity to the
// centroid of a set of seed movies.
type ContentRecommender struct {
	table *catalog.Table
	feats *features.Matrix
}

// NewContentRecommender creates the content tier. The feature matrix
// must be positionally aligned with the table.
func NewContentRecommender(table *catalog.Table, feats *features.Matrix) *ContentRecommender {
	return &ContentRecommender{table: table, feats: feats}
}

// RecommendBySimilarity returns up to n movies similar to the seeds.
// Empty seeds, or seeds entirely absent from the catalog, yield an empty
// result rather than an error. Seeds themselves are never returned.
//
// Candidate selection oversamples 2n by similarity so the seed exclusion
// that follows cannot starve the result. Similarity ties break toward
// the earlier catalog position (stable sort over catalog order).
func (c *ContentRecommender) RecommendBySimilarity(
	_ context.Context, seedIDs []int64, n int,
) ([]domain.Movie, error) {
	if len(seedIDs) == 0 || n <= 0 {
		return nil, nil
	}

	seeds := make(map[int64]struct{}, len(seedIDs))
	var positions []int
	for _, id := range seedIDs {
		seeds[id] = struct{}{}
		if p, ok := c.table.Position(id); ok {
			positions = append(positions, p)
		}
	}
	if len(positions) == 0 {
		return nil, nil
	}

	centroid := c.feats.Centroid(positions)

	scores := make([]float64, c.feats.Len())
	order := make([]int, c.feats.Len())
	for i := range scores {
		scores[i] = features.Cosine(centroid, c.feats.Row(i))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	limit := 2 * n
	if limit > len(order) {
		limit = len(order)
	}

	var candidates []domain.Movie
	for _, pos := range order[:limit] {
		m := c.table.At(pos)
		if _, isSeed := seeds[m.ID]; isSeed {
			continue
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].MeanRating > candidates[b].MeanRating
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}
