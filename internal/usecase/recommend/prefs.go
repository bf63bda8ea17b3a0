package recommend

import (
	"container/list"
	"sync"
	"time"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// maxRecentInteractions caps each profile's recent-interaction log.
const maxRecentInteractions = 50

// PrefsCache is the in-process user-preference accumulator: favorite
// genre tallies, favorite movie sets, ratings, and a recent-interaction
// log per user. Keyed by user ID with LRU eviction at maxUsers; entries
// live at most for the process lifetime and are never persisted — the
// durable copy is the account store's.
type PrefsCache struct {
	mu       sync.Mutex
	maxUsers int
	order    *list.List // front = most recently touched
	users    map[string]*list.Element
}

type prefsEntry struct {
	userID  string
	profile *domain.UserProfile
}

// NewPrefsCache creates a cache holding at most maxUsers profiles.
func NewPrefsCache(maxUsers int) *PrefsCache {
	if maxUsers <= 0 {
		maxUsers = 1
	}
	return &PrefsCache{
		maxUsers: maxUsers,
		order:    list.New(),
		users:    make(map[string]*list.Element),
	}
}

// AddFavorite records a favorite and tallies its genres. A repeat
// favorite only refreshes the interaction log.
func (c *PrefsCache) AddFavorite(userID string, movieID int64, genres []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.touch(userID)
	if _, ok := p.FavoriteMovies[movieID]; !ok {
		p.FavoriteMovies[movieID] = struct{}{}
		for _, g := range genres {
			p.FavoriteGenres[g]++
		}
	}
	c.logInteraction(p, domain.Interaction{Kind: "favorite", MovieID: movieID, At: time.Now()})
}

// AddRating records (or replaces) a rating.
func (c *PrefsCache) AddRating(userID string, movieID int64, rating float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.touch(userID)
	p.Ratings[movieID] = rating
	c.logInteraction(p, domain.Interaction{Kind: "rating", MovieID: movieID, Rating: rating, At: time.Now()})
}

// Profile returns a snapshot of a user's accumulated preferences.
func (c *PrefsCache) Profile(userID string) (domain.UserProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.users[userID]
	if !ok {
		return domain.UserProfile{}, false
	}

	p := el.Value.(*prefsEntry).profile
	snap := domain.UserProfile{
		FavoriteGenres: make(map[string]int, len(p.FavoriteGenres)),
		FavoriteMovies: make(map[int64]struct{}, len(p.FavoriteMovies)),
		Ratings:        make(map[int64]float64, len(p.Ratings)),
		Recent:         append([]domain.Interaction(nil), p.Recent...),
	}
	for k, v := range p.FavoriteGenres {
		snap.FavoriteGenres[k] = v
	}
	for k := range p.FavoriteMovies {
		snap.FavoriteMovies[k] = struct{}{}
	}
	for k, v := range p.Ratings {
		snap.Ratings[k] = v
	}
	return snap, true
}

// Len returns the number of cached profiles.
func (c *PrefsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// touch returns the profile for userID, creating it lazily and evicting
// the least-recently-touched profile when the cache is full.
func (c *PrefsCache) touch(userID string) *domain.UserProfile {
	if el, ok := c.users[userID]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*prefsEntry).profile
	}

	if c.order.Len() >= c.maxUsers {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.users, oldest.Value.(*prefsEntry).userID)
		}
	}

	p := domain.NewUserProfile()
	c.users[userID] = c.order.PushFront(&prefsEntry{userID: userID, profile: p})
	return p
}

func (c *PrefsCache) logInteraction(p *domain.UserProfile, it domain.Interaction) {
	p.Recent = append(p.Recent, it)
	if len(p.Recent) > maxRecentInteractions {
		p.Recent = p.Recent[len(p.Recent)-maxRecentInteractions:]
	}
}
