package domain

import "time"

// Interaction is a single entry in a profile's recent-interaction log.
type Interaction struct {
	Kind    string // "favorite" or "rating"
	MovieID int64
	Rating  float64 // 0 for favorites
	At      time.Time
}

// UserProfile is the in-process, ephemeral preference accumulator for a
// single user. The durable copy of favorites and ratings lives in the
// account store; this cache is never persisted by the core.
type UserProfile struct {
	FavoriteGenres map[string]int
	FavoriteMovies map[int64]struct{}
	Ratings        map[int64]float64
	Recent         []Interaction
}

// NewUserProfile creates an empty profile.
func NewUserProfile() *UserProfile {
	return &UserProfile{
		FavoriteGenres: make(map[string]int),
		FavoriteMovies: make(map[int64]struct{}),
		Ratings:        make(map[int64]float64),
	}
}
