package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"randomchallenge/api/internal/auth"
	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/repositories/sqldb"
	"randomchallenge/api/internal/routers"
	"randomchallenge/api/internal/selection"
	"randomchallenge/api/internal/services"
	"randomchallenge/api/internal/sessions"
	"randomchallenge/api/internal/testhelpers"
	"randomchallenge/api/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func passThrough(next http.Handler) http.Handler { return next }

type testEnv struct {
	store    *sqldb.Store
	router   *chi.Mux
	issuer   *auth.Issuer
	sessions *sessions.MemoryStore
	hasher   auth.Hasher
}

// failingChallenges reports the store as unavailable for reads.
type failingChallenges struct {
	repositories.ChallengeRepository
}

func (failingChallenges) Count(context.Context, models.ChallengeFilter) (int64, error) {
	return 0, models.StoreError("count challenges", context.DeadlineExceeded)
}

func (failingChallenges) List(context.Context, models.ChallengeFilter, models.ListOptions) ([]models.Challenge, int64, error) {
	return nil, 0, models.StoreError("list challenges", context.DeadlineExceeded)
}

type envOption func(*envConfig)

type envConfig struct {
	challenges func(repositories.ChallengeRepository) repositories.ChallengeRepository
}

func withBrokenChallenges() envOption {
	return func(c *envConfig) {
		c.challenges = func(r repositories.ChallengeRepository) repositories.ChallengeRepository {
			return failingChallenges{r}
		}
	}
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{challenges: func(r repositories.ChallengeRepository) repositories.ChallengeRepository { return r }}
	for _, opt := range opts {
		opt(&cfg)
	}

	store, err := sqldb.NewStore(testhelpers.SetupTestDB(t))
	require.NoError(t, err)
	logger := zap.NewNop()

	challenges := cfg.challenges(store.Challenges())
	cache, err := services.NewCategoryCache(store.Categories(), 16)
	require.NoError(t, err)
	engine := selection.NewEngine(challenges, selection.WithRandom(func(int64) int64 { return 0 }))
	tr := tracker.New(store.Users(), challenges, tracker.WithLocation(time.UTC))
	issuer := auth.NewIssuer("test-secret", time.Hour)
	sess := sessions.NewMemoryStore()
	hasher := auth.Hasher{Cost: bcrypt.MinCost}
	authn := middleware.NewAuthenticator(issuer, sess, store.Users(), logger)

	r := chi.NewRouter()
	routers.HealthRoutes(r, handlers.NewHealthHandler(store))
	routers.AuthRoutes(r, handlers.NewAuthHandler(store.Users(), hasher, issuer, sess, logger), authn, passThrough)
	routers.CategoryRoutes(r, handlers.NewCategoryHandler(store.Categories(), challenges, cache, logger), authn)
	routers.ChallengeRoutes(r, handlers.NewChallengeHandler(challenges, cache, engine, tr, logger), authn, passThrough)
	routers.StatsRoutes(r, handlers.NewStatsHandler(services.NewStatsService(store, cache), time.UTC, logger), authn)

	return &testEnv{store: store, router: r, issuer: issuer, sessions: sess, hasher: hasher}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// login creates a user with role and returns it with a live token.
func (e *testEnv) login(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := e.hasher.Hash("Secret123")
	require.NoError(t, err)
	u := &models.User{
		ID: uuid.NewString(), Username: name, Email: name + "@example.com", PasswordHash: hash,
		Role: role, IsActive: true, Preferences: models.DefaultPreferences(),
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	token, claims, err := e.issuer.Issue(u)
	require.NoError(t, err)
	require.NoError(t, e.sessions.Add(context.Background(), u.ID, claims.ID, claims.ExpiresAt.Time))
	return u, token
}

func (e *testEnv) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{ID: uuid.NewString(), Name: name, Emoji: "🎯", Color: "#ff6b6b", IsActive: true}
	require.NoError(t, e.store.Categories().Create(context.Background(), c))
	return c
}

func (e *testEnv) challenge(t *testing.T, categoryID string, d models.Difficulty, tags ...string) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		ID: uuid.NewString(), Text: "Take a 15 minute walk outside", CategoryID: categoryID,
		Difficulty: d, TimeEstimate: 15, Tags: tags, IsActive: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Challenges().Create(context.Background(), c))
	return c
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad JSON: %v\nbody=%s", err, rr.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func expectCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	if got := decode[models.ErrorResponse](t, rr); got.Code != code {
		t.Fatalf("expected error code %q, got %+v", code, got)
	}
}
