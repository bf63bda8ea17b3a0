package features

import (
	"errors"
	"math"
	"os"
	"testing"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// fakeCatalog implements the Catalog consumer interface.
type fakeCatalog struct {
	movies []domain.Movie
	hash   string
}

func (f *fakeCatalog) Len() int             { return len(f.movies) }
func (f *fakeCatalog) At(i int) domain.Movie { return f.movies[i] }
func (f *fakeCatalog) Hash() string          { return f.hash }

// fakeModelStore keeps blobs in memory.
type fakeModelStore struct {
	saved     map[string]fittedState
	savedHash string
	saveErr   error
	loadCount int
	saveCount int
}

func (f *fakeModelStore) Save(_, catalogHash string, v any) error {
	f.saveCount++
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]fittedState)
	}
	f.saved[catalogHash] = *(v.(*fittedState))
	return nil
}

func (f *fakeModelStore) Load(_, catalogHash string, v any) error {
	f.loadCount++
	state, ok := f.saved[catalogHash]
	if !ok {
		return os.ErrNotExist
	}
	*(v.(*fittedState)) = state
	return nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		hash: "hash-a",
		movies: []domain.Movie{
			{ID: 1, Title: "A", Genres: []string{"Action", "Sci-Fi"}},
			{ID: 2, Title: "B", Genres: []string{"Action", "Thriller"}},
			{ID: 3, Title: "C", Genres: []string{"Comedy", "Romance"}},
			{ID: 4, Title: "D", Genres: []string{"Comedy"}},
			{ID: 5, Title: "E", Genres: []string{"Drama", "Romance"}},
		},
	}
}

func TestBuild_DimensionsAndAlignment(t *testing.T) {
	b := NewBuilder(nil, 100, zap.NewNop())

	m, err := b.Build(testCatalog())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if m.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", m.Len())
	}
	// Vocabulary: action, sci, fi, thriller, comedy, romance, drama = 7;
	// rank-capped at min(100, 7, 5) = 5.
	if m.Dim() != 5 {
		t.Errorf("expected 5 components, got %d", m.Dim())
	}
	for i := 0; i < m.Len(); i++ {
		if len(m.Row(i)) != m.Dim() {
			t.Fatalf("row %d width %d != dim %d", i, len(m.Row(i)), m.Dim())
		}
	}
}

func TestBuild_MaxComponentsCap(t *testing.T) {
	b := NewBuilder(nil, 2, zap.NewNop())

	m, err := b.Build(testCatalog())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Dim() != 2 {
		t.Errorf("expected cap of 2 components, got %d", m.Dim())
	}
}

func TestBuild_SimilarMoviesLandNearby(t *testing.T) {
	b := NewBuilder(nil, 100, zap.NewNop())

	m, err := b.Build(testCatalog())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Movies 1 and 2 share Action; movies 3 and 1 share nothing.
	sameGenre := Cosine(m.Row(0), m.Row(1))
	crossGenre := Cosine(m.Row(0), m.Row(2))
	if sameGenre <= crossGenre {
		t.Errorf("shared-genre similarity %v should exceed disjoint similarity %v",
			sameGenre, crossGenre)
	}
}

func TestBuild_ReappliesPersistedModel(t *testing.T) {
	store := &fakeModelStore{}
	cat := testCatalog()

	first, err := NewBuilder(store, 100, zap.NewNop()).Build(cat)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if store.saveCount != 1 {
		t.Fatalf("expected one save, got %d", store.saveCount)
	}

	second, err := NewBuilder(store, 100, zap.NewNop()).Build(cat)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if store.saveCount != 1 {
		t.Errorf("matching catalog hash should not refit, saves=%d", store.saveCount)
	}

	if first.Dim() != second.Dim() || first.Len() != second.Len() {
		t.Fatalf("reapplied model shape differs: %dx%d vs %dx%d",
			first.Len(), first.Dim(), second.Len(), second.Dim())
	}
	for i := 0; i < first.Len(); i++ {
		for j := 0; j < first.Dim(); j++ {
			if math.Abs(first.Row(i)[j]-second.Row(i)[j]) > 1e-9 {
				t.Fatalf("row %d differs between fit and reapply", i)
			}
		}
	}
}

func TestBuild_RefitsOnCatalogChange(t *testing.T) {
	store := &fakeModelStore{}
	cat := testCatalog()

	if _, err := NewBuilder(store, 100, zap.NewNop()).Build(cat); err != nil {
		t.Fatal(err)
	}

	changed := testCatalog()
	changed.hash = "hash-b"
	if _, err := NewBuilder(store, 100, zap.NewNop()).Build(changed); err != nil {
		t.Fatal(err)
	}
	if store.saveCount != 2 {
		t.Errorf("changed catalog hash should refit, saves=%d", store.saveCount)
	}
}

func TestBuild_PersistFailureIsNotFatal(t *testing.T) {
	store := &fakeModelStore{saveErr: errors.New("disk full")}
	b := NewBuilder(store, 100, zap.NewNop())

	m, err := b.Build(testCatalog())
	if err != nil {
		t.Fatalf("Build should survive a persistence failure: %v", err)
	}
	if m.Len() != 5 {
		t.Errorf("expected usable in-memory matrix, got %d rows", m.Len())
	}
}

func TestBuild_EmptyCatalog(t *testing.T) {
	b := NewBuilder(nil, 100, zap.NewNop())
	if _, err := b.Build(&fakeCatalog{}); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestFitReducer_ProjectionMatchesTraining(t *testing.T) {
	x := mat.NewDense(3, 4, []float64{
		1, 0, 0, 0,
		0, 1, 1, 0,
		0, 0, 1, 1,
	})

	red, rows, err := FitReducer(x, 2)
	if err != nil {
		t.Fatalf("FitReducer: %v", err)
	}
	if red.Cols != 2 {
		t.Fatalf("expected 2 components, got %d", red.Cols)
	}

	for i := 0; i < 3; i++ {
		raw := make([]float64, 4)
		mat.Row(raw, i, x)
		proj, err := red.Transform(raw)
		if err != nil {
			t.Fatal(err)
		}
		for j := range proj {
			if math.Abs(proj[j]-rows[i][j]) > 1e-9 {
				t.Errorf("row %d: Transform %v != training projection %v", i, proj, rows[i])
			}
		}
	}
}

func TestReducer_WidthMismatch(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 0, 0, 0, 1, 0})
	red, _, err := FitReducer(x, 2)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := red.Transform([]float64{1, 2}); err == nil {
		t.Fatal("expected error for mismatched row width")
	}
}
