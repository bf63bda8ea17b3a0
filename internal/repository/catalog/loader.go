package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// aggregate is a partial (sum, count) pair for one movie within a chunk.
type aggregate struct {
	sum   float64
	count int
}

// Load reads the movies file and the rating log, computes per-movie
// rating aggregates, and returns the merged table. chunkSize bounds how
// many rating rows are aggregated before the partial is flushed.
//
// Any parse or I/O failure is returned as an error; callers treat it as
// fatal since a partial catalog is unusable.
func Load(moviesPath, ratingsPath string, chunkSize int) (*Table, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	movies, hash, err := loadMovies(moviesPath)
	if err != nil {
		return nil, fmt.Errorf("load movies %s: %w", moviesPath, err)
	}

	agg, err := loadRatingAggregates(ratingsPath, chunkSize)
	if err != nil {
		return nil, fmt.Errorf("load ratings %s: %w", ratingsPath, err)
	}

	byID := make(map[int64]int, len(movies))
	for i := range movies {
		if a, ok := agg[movies[i].ID]; ok && a.count > 0 {
			movies[i].MeanRating = a.sum / float64(a.count)
			movies[i].RatingCount = a.count
		}
		byID[movies[i].ID] = i
	}

	return &Table{movies: movies, byID: byID, hash: hash}, nil
}

// loadMovies streams the movies CSV (movieId,title,genres) while hashing
// its raw content.
func loadMovies(path string) ([]domain.Movie, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	h := sha256.New()
	r := csv.NewReader(io.TeeReader(f, h))
	r.FieldsPerRecord = 3

	// Header row
	if _, err := r.Read(); err != nil {
		return nil, "", fmt.Errorf("read header: %w", err)
	}

	var movies []domain.Movie
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("read row: %w", err)
		}

		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("parse movie id %q: %w", rec[0], err)
		}

		movies = append(movies, domain.Movie{
			ID:     id,
			Title:  rec[1],
			Genres: splitGenres(rec[2]),
		})
	}

	return movies, hex.EncodeToString(h.Sum(nil)), nil
}

// loadRatingAggregates streams the rating log (userId,movieId,rating,timestamp)
// in bounded chunks. Each chunk yields a partial (sum, count) per movie;
// the partials are re-aggregated by movie ID after the stream ends, so the
// result carries exactly one aggregate row per movie regardless of how
// chunk boundaries fell.
func loadRatingAggregates(path string, chunkSize int) (map[int64]aggregate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var partials []map[int64]aggregate
	chunk := make(map[int64]aggregate)
	rows := 0

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		movieID, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse movie id %q: %w", rec[1], err)
		}
		rating, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse rating %q: %w", rec[2], err)
		}

		a := chunk[movieID]
		a.sum += rating
		a.count++
		chunk[movieID] = a

		rows++
		if rows >= chunkSize {
			partials = append(partials, chunk)
			chunk = make(map[int64]aggregate)
			rows = 0
		}
	}
	if len(chunk) > 0 {
		partials = append(partials, chunk)
	}

	// Second aggregation pass: a movie may appear in several partials
	// when its ratings straddle a chunk boundary.
	merged := make(map[int64]aggregate)
	for _, p := range partials {
		for id, a := range p {
			m := merged[id]
			m.sum += a.sum
			m.count += a.count
			merged[id] = m
		}
	}

	return merged, nil
}

func splitGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "|")
}
