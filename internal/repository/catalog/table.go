// Package catalog loads the movie catalog and rating log from CSV files
// and exposes them as an immutable in-memory table.
package catalog

import (
	"strings"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// Table is the enriched movie table. Immutable after Load; safe for
// concurrent readers.
type Table struct {
	movies []domain.Movie
	byID   map[int64]int
	hash   string
}

// Reconstruct assembles a table from already-aggregated movies,
// bypassing the CSV load path. Intended for tests and tooling.
func Reconstruct(movies []domain.Movie, hash string) *Table {
	byID := make(map[int64]int, len(movies))
	for i := range movies {
		byID[movies[i].ID] = i
	}
	return &Table{movies: movies, byID: byID, hash: hash}
}

// Len returns the number of catalog movies.
func (t *Table) Len() int { return len(t.movies) }

// Hash returns the sha256 content hash of the movies file, hex-encoded.
// Used to decide whether a persisted feature model can be reapplied.
func (t *Table) Hash() string { return t.hash }

// At returns the movie at a catalog position.
func (t *Table) At(i int) domain.Movie { return t.movies[i] }

// Get returns the movie with the given ID.
func (t *Table) Get(id int64) (domain.Movie, bool) {
	i, ok := t.byID[id]
	if !ok {
		return domain.Movie{}, false
	}
	return t.movies[i], true
}

// Position returns the catalog position of a movie ID.
func (t *Table) Position(id int64) (int, bool) {
	i, ok := t.byID[id]
	return i, ok
}

// Search returns movies whose title contains the query, case-insensitive,
// in catalog order.
func (t *Table) Search(query string) []domain.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []domain.Movie
	for _, m := range t.movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	return out
}

// All returns the movie slice in catalog order. Callers must not mutate it.
func (t *Table) All() []domain.Movie { return t.movies }
