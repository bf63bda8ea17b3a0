package chi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinedex/internal/domain"
	"github.com/kailas-cloud/cinedex/internal/repository/catalog"
	"github.com/kailas-cloud/cinedex/internal/transport/tmdb"
	healthuc "github.com/kailas-cloud/cinedex/internal/usecase/health"
)

var testSecret = []byte("test-secret")

type mockRecommender struct {
	recommendations []domain.Movie
	recommendErr    error
	searchResult    []domain.Movie
	popularResult   []domain.Movie

	favoriteCalls []int64
	rateCalls     []float64
	favoriteErr   error
	rateErr       error
}

func (m *mockRecommender) GetRecommendations(_ context.Context, _ string, _ int) ([]domain.Movie, error) {
	return m.recommendations, m.recommendErr
}

func (m *mockRecommender) Search(_ string) []domain.Movie { return m.searchResult }

func (m *mockRecommender) Popular(n int) []domain.Movie {
	out := m.popularResult
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (m *mockRecommender) AddToFavorites(_ context.Context, _ string, movieID int64) error {
	if m.favoriteErr != nil {
		return m.favoriteErr
	}
	m.favoriteCalls = append(m.favoriteCalls, movieID)
	return nil
}

func (m *mockRecommender) Rate(_ context.Context, _ string, _ int64, rating float64) error {
	if m.rateErr != nil {
		return m.rateErr
	}
	m.rateCalls = append(m.rateCalls, rating)
	return nil
}

type mockAccounts struct {
	users map[string]domain.User // by username

	createErr error
	ratings   []domain.RatingEvent
	favorites []domain.FavoriteMark
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{users: make(map[string]domain.User)}
}

func (m *mockAccounts) CreateUser(_ context.Context, username, email string, hash []byte) (domain.User, error) {
	if m.createErr != nil {
		return domain.User{}, m.createErr
	}
	if _, ok := m.users[username]; ok {
		return domain.User{}, domain.ErrAlreadyExists
	}
	u := domain.User{ID: "uid-" + username, Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[username] = u
	return u, nil
}

func (m *mockAccounts) UserByUsername(_ context.Context, username string) (domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockAccounts) SaveRating(_ context.Context, ev domain.RatingEvent) error {
	m.ratings = append(m.ratings, ev)
	return nil
}

func (m *mockAccounts) SaveFavorite(_ context.Context, mark domain.FavoriteMark) error {
	m.favorites = append(m.favorites, mark)
	return nil
}

type stubHealth struct {
	report healthuc.Report
}

func (s *stubHealth) Check(_ context.Context) healthuc.Report { return s.report }

type stubMetadata struct {
	poster  string
	details *tmdb.Movie
}

func (s *stubMetadata) PosterURL(_ context.Context, _ domain.Movie) string { return s.poster }

func (s *stubMetadata) Details(_ context.Context, _ domain.Movie) *tmdb.Movie { return s.details }

func testTable() *catalog.Table {
	return catalog.Reconstruct([]domain.Movie{
		{ID: 1, Title: "A (2001)", Genres: []string{"Action"}, MeanRating: 4.5, RatingCount: 200},
		{ID: 2, Title: "B (1999)", Genres: []string{"Sci-Fi"}, MeanRating: 4.8, RatingCount: 50},
		{ID: 3, Title: "C (2010)", Genres: []string{"Comedy"}, MeanRating: 3.0, RatingCount: 500},
	}, "test-hash")
}

type fixture struct {
	recs     *mockRecommender
	accounts *mockAccounts
	health   *stubHealth
	metadata *stubMetadata
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		recs:     &mockRecommender{},
		accounts: newMockAccounts(),
		health:   &stubHealth{report: healthuc.Report{Status: healthuc.Healthy}},
	}
	srv := NewServer(f.recs, f.accounts, testTable(), f.health, metadataOrNil(f.metadata),
		testSecret, time.Hour, zap.NewNop())
	f.server = httptest.NewServer(srv.Routes())
	t.Cleanup(f.server.Close)
	return f
}

func newFixtureWithMetadata(t *testing.T, md *stubMetadata) *fixture {
	t.Helper()
	f := &fixture{
		recs:     &mockRecommender{},
		accounts: newMockAccounts(),
		health:   &stubHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		metadata: md,
	}
	srv := NewServer(f.recs, f.accounts, testTable(), f.health, md,
		testSecret, time.Hour, zap.NewNop())
	f.server = httptest.NewServer(srv.Routes())
	t.Cleanup(f.server.Close)
	return f
}

// metadataOrNil keeps the nil interface nil instead of wrapping a nil pointer.
func metadataOrNil(md *stubMetadata) metadataSource {
	if md == nil {
		return nil
	}
	return md
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := issueToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}
