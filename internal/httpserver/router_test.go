package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	"github.com/Skotchmaster/baseball_stats/internal/jobs"
	"github.com/Skotchmaster/baseball_stats/internal/middleware"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	pkgdb "github.com/Skotchmaster/baseball_stats/pkg/db"
	"github.com/Skotchmaster/baseball_stats/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "http-test-secret-that-is-long-enough"

type stubGenerator struct {
	err error
}

func (g *stubGenerator) Generate(_ context.Context, _, prompt string) (*service.Generation, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &service.Generation{Content: "A fine hitter.\n\n" + prompt[:10], Model: "stub", TokensUsed: 120}, nil
}

type testServer struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	imports *service.ImportService
	gen     *stubGenerator
	ready   error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), "sqlite::memory:", pkgdb.DefaultPool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })
	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.AutoMigrate())

	codec, err := tokens.NewCodec([]byte(testSecret), "HS256", 30*time.Minute)
	require.NoError(t, err)

	authSvc := &service.AuthService{Repo: r, Tokens: codec}
	playerSvc := &service.PlayerService{Repo: r}
	norm, err := ingest.NewNormalizer(nil)
	require.NoError(t, err)
	fetcher := ingest.NewFetcher(time.Second)
	fetcher.BaseDelay = time.Millisecond

	ts := &testServer{e: echo.New(), repo: r, gen: &stubGenerator{}}
	ts.imports = &service.ImportService{
		Pipeline: &ingest.Pipeline{Normalizer: norm, Sink: playerSvc},
		Fetcher:  fetcher,
		Jobs:     jobs.NewRunner(jobs.NewMemoryStore(time.Hour)),
	}

	Register(ts.e, &Deps{
		AppName: "Baseball Stats API",
		Guard:   &middleware.SessionGuard{Auth: authSvc},
		Auth:    &AuthHTTP{Svc: authSvc},
		Players: &PlayerHTTP{Svc: playerSvc},
		Imports: &ImportHTTP{Svc: ts.imports},
		AI:      &AIHTTP{Svc: &service.DescriptionService{Repo: r, Generator: ts.gen}},
		Ready:   func(context.Context) error { return ts.ready },
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, target, nil)
	case url.Values:
		req = httptest.NewRequest(method, target, strings.NewReader(b.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(t *testing.T, target, filename, content, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// login registers a user and returns its access and refresh tokens.
func (ts *testServer) login(t *testing.T, email, username string) (string, string) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": email, "username": username, "password": "Password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", url.Values{
		"username": {email}, "password": {"Password123"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[map[string]string](t, rec)
	return tok["access_token"], tok["refresh_token"]
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "Babe@Example.com", "username": "babe", "password": "Password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[map[string]any](t, rec)
	assert.Equal(t, "babe@example.com", user["email"])
	assert.Equal(t, true, user["is_active"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "babe@example.com", "username": "other", "password": "Password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "not-an-email", "username": "x", "password": "short",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[map[string]any](t, rec)
	fields, ok := verr["fields"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", url.Values{
		"username": {"babe@example.com"}, "password": {"wrong-Password1"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect email or password")

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", url.Values{
		"username": {"babe@example.com"}, "password": {"Password123"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[map[string]string](t, rec)
	assert.Equal(t, "bearer", pair["token_type"])
	require.NotEmpty(t, pair["access_token"])
	require.NotEmpty(t, pair["refresh_token"])

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, pair["access_token"])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "babe", decode[map[string]any](t, rec)["username"])

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, pair["refresh_token"])
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh tokens do not open sessions")
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh?refresh_token="+url.QueryEscape(pair["refresh_token"]), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]string](t, rec)["access_token"])

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", url.Values{"refresh_token": {pair["access_token"]}}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InactiveUser(t *testing.T) {
	ts := newTestServer(t)
	access, _ := ts.login(t, "gehrig@example.com", "gehrig")

	u, err := ts.repo.GetUserByEmail(context.Background(), "gehrig@example.com")
	require.NoError(t, err)
	require.NoError(t, ts.repo.SetUserActive(context.Background(), u.ID, false))

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", url.Values{
		"username": {"gehrig@example.com"}, "password": {"Password123"},
	}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlayersCRUD(t *testing.T) {
	ts := newTestServer(t)
	access, _ := ts.login(t, "scorer@example.com", "scorer")

	body := map[string]any{"player_name": "Babe Ruth", "position": "rf", "games": 100, "hits": 150, "batting_average": "0.342"}

	rec := ts.do(t, http.MethodPost, "/api/v1/players", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/players", body, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	id := created["id"].(string)
	assert.Equal(t, "RF", created["position"])
	assert.Equal(t, "1.5", created["hits_per_game"])

	rec = ts.do(t, http.MethodPost, "/api/v1/players", map[string]any{"player_name": "Bad", "batting_average": "1.5"}, access)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/players/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Babe Ruth", decode[map[string]any](t, rec)["player_name"])

	rec = ts.do(t, http.MethodPut, "/api/v1/players/"+id, map[string]any{"hits": 200}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", decode[map[string]any](t, rec)["hits_per_game"])

	rec = ts.do(t, http.MethodGet, "/api/v1/players?sort_by=hits&sort_order=desc&page_size=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 5, list["page_size"])
	assert.EqualValues(t, 1, list["pages"])

	rec = ts.do(t, http.MethodGet, "/api/v1/players?sort_by=shoe_size", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/players?page=0", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/players/search?q=ruth", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/players/"+id, nil, access)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/players/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/players/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportCSV(t *testing.T) {
	ts := newTestServer(t)
	access, _ := ts.login(t, "importer@example.com", "importer")

	csv := "player_name,position,games,hits\nBabe Ruth,RF,2503,2873\nLou Gehrig,1B,2164,2721\n,C,1,1\n"

	rec := ts.upload(t, "/api/v1/players/import", "players.csv", csv, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sum := decode[ingest.Summary](t, rec)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Errors)
	require.Len(t, sum.ErrorDetails, 1)
	assert.Equal(t, 4, sum.ErrorDetails[0].Row)

	rec = ts.upload(t, "/api/v1/players/import", "players.txt", csv, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSV")

	rec = ts.upload(t, "/api/v1/players/import", "players.csv", "name,games\nX,1\n", access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "player_name")

	rec = ts.upload(t, "/api/v1/players/import", "players.csv", "player_name\n\xff\n", access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.upload(t, "/api/v1/players/import", "players.csv", csv, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestImportFromAPI(t *testing.T) {
	ts := newTestServer(t)
	access, _ := ts.login(t, "feeds@example.com", "feeds")

	rec := ts.do(t, http.MethodPost, "/api/v1/players/import-from-api", nil, access)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no feed configured")

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"players":[{"Player":"Tony Gwynn","H":3141,"G":2440},{"Player":"--"}]}`))
	}))
	t.Cleanup(feed.Close)
	var elsewhere atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		elsewhere.Add(1)
		_, _ = w.Write([]byte(`{"players":[{"Player":"Not From The Feed"}]}`))
	}))
	t.Cleanup(other.Close)
	ts.imports.FeedURL = feed.URL

	rec = ts.do(t, http.MethodPost, "/api/v1/players/import-from-api?url="+url.QueryEscape(other.URL),
		map[string]string{"url": other.URL}, access)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[map[string]any](t, rec)
	jobID := accepted["job_id"].(string)
	assert.Equal(t, "pending", accepted["status"])

	ts.imports.Jobs.Wait()

	rec = ts.do(t, http.MethodGet, "/api/v1/players/import-jobs/"+jobID, nil, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	job := decode[jobs.Job](t, rec)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, 1, job.Result.Created)
	assert.Equal(t, 1, job.Result.Errors)

	assert.Zero(t, elsewhere.Load(), "caller supplied url is ignored")

	rec = ts.do(t, http.MethodGet, "/api/v1/players/import-jobs/"+uuid.NewString(), nil, access)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDescriptions(t *testing.T) {
	ts := newTestServer(t)
	access, _ := ts.login(t, "writer@example.com", "writer")

	rec := ts.do(t, http.MethodPost, "/api/v1/players", map[string]any{"player_name": "Cy Young", "games": 906}, access)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"].(string)

	rec = ts.do(t, http.MethodPost, "/api/v1/ai/players/"+id+"/description", nil, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	desc := decode[map[string]any](t, rec)
	assert.Equal(t, "stub", desc["model_used"])

	rec = ts.do(t, http.MethodGet, "/api/v1/ai/players/"+id+"/descriptions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/ai/players/%s/description", uuid.NewString()), nil, access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.gen.err = errors.New("rate limited")
	rec = ts.do(t, http.MethodPost, "/api/v1/ai/players/"+id+"/description", nil, access)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "ops@example.com", "ops_user")

	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "healthy", "service": "Baseball Stats API", "version": Version}, decode[map[string]string](t, rec))

	rec = ts.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.ready = errors.New("db down")
	rec = ts.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "baseball_auth_events_total")
}
