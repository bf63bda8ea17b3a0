package recommend

import (
	"sort"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
)

// Policy constants for the popularity fallback. Both must hold; the
// tier never relaxes them to pad a short result.
const (
	minPopularCount = 100
	minPopularMean  = 3.5
)

// PopularityRecommender returns globally well-rated movies.
type PopularityRecommender struct {
	table *catalog.Table
}

// NewPopularityRecommender creates the fallback tier.
func NewPopularityRecommender(table *catalog.Table) *PopularityRecommender {
	return &PopularityRecommender{table: table}
}

// RecommendPopular returns up to n movies with rating count >= 100 and
// mean >= 3.5, ordered by (mean desc, count desc). May return fewer
// than n when the catalog has fewer qualifying movies.
func (p *PopularityRecommender) RecommendPopular(n int) []domain.Movie {
	if n <= 0 {
		return nil
	}

	var out []domain.Movie
	for _, m := range p.table.All() {
		if m.RatingCount >= minPopularCount && m.MeanRating >= minPopularMean {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].MeanRating != out[b].MeanRating {
			return out[a].MeanRating > out[b].MeanRating
		}
		return out[a].RatingCount > out[b].RatingCount
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
