package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
)

const (
	// minPeerOverlap is how many movies two users must both have rated
	// before one counts as the other's peer.
	minPeerOverlap = 3
	// minSupport is how many distinct peers must have rated a candidate
	// movie before it qualifies.
	minSupport = 2
)

// PeerRecommender surfaces movies liked by users with overlapping
// rating history. Peer qualification is binary on the overlap count;
// this is a neighborhood heuristic, not latent-factor filtering.
type PeerRecommender struct {
	accounts AccountStore
	table    *catalog.Table
}

// NewPeerRecommender creates the collaborative tier.
func NewPeerRecommender(accounts AccountStore, table *catalog.Table) *PeerRecommender {
	return &PeerRecommender{accounts: accounts, table: table}
}

// RecommendByPeers returns up to n movies rated highly by the target
// user's peers. A user with no ratings (cold user) or no qualifying
// peers yields an empty result, not an error.
func (p *PeerRecommender) RecommendByPeers(
	ctx context.Context, userID string, n int,
) ([]domain.Movie, error) {
	if n <= 0 {
		return nil, nil
	}

	own, err := p.accounts.RatingsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load target ratings: %w", err)
	}
	if len(own) == 0 {
		return nil, nil
	}

	// Count rated-movie overlap per other user.
	overlap := make(map[string]int)
	for movieID := range own {
		raters, err := p.accounts.RatersOf(ctx, movieID)
		if err != nil {
			return nil, fmt.Errorf("load raters of %d: %w", movieID, err)
		}
		for uid := range raters {
			if uid != userID {
				overlap[uid]++
			}
		}
	}

	var peers []string
	for uid, c := range overlap {
		if c >= minPeerOverlap {
			peers = append(peers, uid)
		}
	}
	if len(peers) == 0 {
		return nil, nil
	}
	sort.Strings(peers) // deterministic aggregation order

	// Aggregate peer ratings per candidate movie. Each peer holds one
	// current rating per movie, so the count doubles as the support.
	type tally struct {
		sum   float64
		count int
	}
	candidates := make(map[int64]tally)
	for _, uid := range peers {
		ratings, err := p.accounts.RatingsFor(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("load ratings of peer %s: %w", uid, err)
		}
		for movieID, rating := range ratings {
			if _, rated := own[movieID]; rated {
				continue
			}
			t := candidates[movieID]
			t.sum += rating
			t.count++
			candidates[movieID] = t
		}
	}

	type ranked struct {
		movie domain.Movie
		avg   float64
		count int
	}
	var out []ranked
	for movieID, t := range candidates {
		if t.count < minSupport {
			continue
		}
		m, ok := p.table.Get(movieID)
		if !ok {
			continue
		}
		out = append(out, ranked{movie: m, avg: t.sum / float64(t.count), count: t.count})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].avg != out[b].avg {
			return out[a].avg > out[b].avg
		}
		if out[a].count != out[b].count {
			return out[a].count > out[b].count
		}
		return out[a].movie.ID < out[b].movie.ID
	})

	if len(out) > n {
		out = out[:n]
	}
	movies := make([]domain.Movie, len(out))
	for i, r := range out {
		movies[i] = r.movie
	}
	return movies, nil
}
