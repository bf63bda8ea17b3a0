package domain

import "errors"

var (
	// ErrMovieNotFound signals a movie ID absent from the catalog.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrUserNotFound signals an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyExists signals a duplicate username or email.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials signals a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRating signals a rating outside the accepted scale.
	ErrInvalidRating = errors.New("invalid rating")
	// ErrModelNotFitted signals use of a transform before fitting.
	ErrModelNotFitted = errors.New("model not fitted")
	// ErrModelStale signals a persisted model fitted on a different catalog.
	ErrModelStale = errors.New("persisted model does not match catalog")
)
