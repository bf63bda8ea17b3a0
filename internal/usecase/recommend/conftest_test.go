package recommend

import (
	"context"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
	"github.com/kailas-cloud/cinedex/internal/usecase/features"
)

// mockAccounts is an in-memory AccountStore.
type mockAccounts struct {
	ratings   map[string]map[int64]float64 // user -> movie -> rating
	favorites map[string][]int64

	ratingsErr   error
	favoritesErr error
	ratersErr    error
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{
		ratings:   make(map[string]map[int64]float64),
		favorites: make(map[string][]int64),
	}
}

func (m *mockAccounts) rate(userID string, movieID int64, rating float64) {
	if m.ratings[userID] == nil {
		m.ratings[userID] = make(map[int64]float64)
	}
	m.ratings[userID][movieID] = rating
}

func (m *mockAccounts) RatingsFor(_ context.Context, userID string) (map[int64]float64, error) {
	if m.ratingsErr != nil {
		return nil, m.ratingsErr
	}
	out := make(map[int64]float64, len(m.ratings[userID]))
	for k, v := range m.ratings[userID] {
		out[k] = v
	}
	return out, nil
}

func (m *mockAccounts) FavoritesFor(_ context.Context, userID string) ([]int64, error) {
	if m.favoritesErr != nil {
		return nil, m.favoritesErr
	}
	return m.favorites[userID], nil
}

func (m *mockAccounts) RatersOf(_ context.Context, movieID int64) (map[string]float64, error) {
	if m.ratersErr != nil {
		return nil, m.ratersErr
	}
	out := make(map[string]float64)
	for uid, ratings := range m.ratings {
		if r, ok := ratings[movieID]; ok {
			out[uid] = r
		}
	}
	return out, nil
}

// testTable builds the catalog used across these tests. Movies 1-3
// mirror the popularity threshold scenario; 4-6 pad the genre space.
func testTable() *catalog.Table {
	return catalog.Reconstruct([]domain.Movie{
		{ID: 1, Title: "A (2001)", Genres: []string{"Action", "Sci-Fi"}, MeanRating: 4.5, RatingCount: 200},
		{ID: 2, Title: "B (1999)", Genres: []string{"Action", "Sci-Fi"}, MeanRating: 4.8, RatingCount: 50},
		{ID: 3, Title: "C (2010)", Genres: []string{"Comedy"}, MeanRating: 3.0, RatingCount: 500},
		{ID: 4, Title: "D (2015)", Genres: []string{"Action"}, MeanRating: 4.0, RatingCount: 150},
		{ID: 5, Title: "E (2018)", Genres: []string{"Comedy", "Romance"}, MeanRating: 3.9, RatingCount: 120},
		{ID: 6, Title: "F (2020)", Genres: []string{"Documentary"}, MeanRating: 4.9, RatingCount: 10},
	}, "test-hash")
}

// wideTable extends testTable with candidate movies used by the
// collaborative tests.
func wideTable() *catalog.Table {
	return catalog.Reconstruct([]domain.Movie{
		{ID: 1, Title: "A (2001)", Genres: []string{"Action", "Sci-Fi"}, MeanRating: 4.5, RatingCount: 200},
		{ID: 2, Title: "B (1999)", Genres: []string{"Action", "Sci-Fi"}, MeanRating: 4.8, RatingCount: 50},
		{ID: 3, Title: "C (2010)", Genres: []string{"Comedy"}, MeanRating: 3.0, RatingCount: 500},
		{ID: 10, Title: "G (2005)", Genres: []string{"Thriller"}, MeanRating: 4.2, RatingCount: 300},
		{ID: 11, Title: "H (2007)", Genres: []string{"Horror"}, MeanRating: 3.8, RatingCount: 250},
		{ID: 12, Title: "I (2012)", Genres: []string{"Drama"}, MeanRating: 4.4, RatingCount: 180},
	}, "wide-hash")
}

// testMatrix gives each movie a feature vector aligned with testTable:
// axis 0 = action/sci-fi, axis 1 = comedy/romance, axis 2 = documentary.
func testMatrix() *features.Matrix {
	return features.NewMatrix([][]float64{
		{1, 0, 0},       // 1: A
		{0.9, 0.1, 0},   // 2: B
		{0, 1, 0},       // 3: C
		{0.8, 0, 0},     // 4: D
		{0.1, 0.95, 0},  // 5: E
		{0, 0, 1},       // 6: F
	})
}
