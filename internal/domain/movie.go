package domain

import (
	"strconv"
	"strings"
)

// Movie is a single catalog entry. Immutable after catalog load except
// for the rating aggregates, which are recomputed wholesale on each load.
type Movie struct {
	ID          int64
	Title       string
	Genres      []string
	MeanRating  float64 // 0 when the movie has no ratings
	RatingCount int     // 0 when the movie has no ratings
}

// Year extracts the release year from a trailing "(YYYY)" in the title.
// Returns 0 when the title carries no year.
func (m Movie) Year() int {
	title := strings.TrimSpace(m.Title)
	if len(title) < 6 || !strings.HasSuffix(title, ")") {
		return 0
	}
	year, err := strconv.Atoi(title[len(title)-5 : len(title)-1])
	if err != nil {
		return 0
	}
	return year
}

// CleanTitle strips the trailing year parenthetical, for external lookups.
func (m Movie) CleanTitle() string {
	if i := strings.LastIndex(m.Title, "("); i > 0 {
		return strings.TrimSpace(m.Title[:i])
	}
	return strings.TrimSpace(m.Title)
}

// GenreString joins genre tags back into pipe-delimited raw form.
func (m Movie) GenreString() string {
	return strings.Join(m.Genres, "|")
}
