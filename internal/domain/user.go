package domain

import "time"

// User is a registered account. The password hash never leaves the
// repository layer unhashed.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// RatingEvent records a user rating a movie. At most one current rating
// exists per (user, movie) pair; a new rating replaces the prior one.
type RatingEvent struct {
	UserID    string
	MovieID   int64
	Rating    float64
	CreatedAt time.Time
}

// FavoriteMark records a user favoriting a movie. A repeat favorite is
// a no-op overwrite.
type FavoriteMark struct {
	UserID    string
	MovieID   int64
	CreatedAt time.Time
}

// MinRating and MaxRating bound the accepted rating scale.
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// ValidRating reports whether r falls on the accepted scale.
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}
