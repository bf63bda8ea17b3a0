package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports whether the recommendation model is serving.
type ModelChecker interface {
	Ready() error
}
