package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"github.com/suPer8Hu/pneuma-api/internal/auth"
	"github.com/suPer8Hu/pneuma-api/internal/config"
	"github.com/suPer8Hu/pneuma-api/internal/discovery"
	"github.com/suPer8Hu/pneuma-api/internal/httpapi/handlers"
	"github.com/suPer8Hu/pneuma-api/internal/metrics"
	"github.com/suPer8Hu/pneuma-api/internal/querylog"
	"github.com/suPer8Hu/pneuma-api/internal/session"
	"github.com/suPer8Hu/pneuma-api/internal/store/redisstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingEngine struct {
	calls atomic.Int32
	out   string
}

func (e *countingEngine) Setup(ctx context.Context) error { return nil }

func (e *countingEngine) QueryIndex(ctx context.Context, index, query string, k, n int, alpha float64) (string, error) {
	e.calls.Add(1)
	return e.out, nil
}

const twoRecords = `{"data":{"response":[
	{"table_id":"t1","table_name":"traffic_counts","relevance_score":0.9},
	{"table_id":"t2","table_name":"traffic_crashes"}
]}}`

type testEnv struct {
	router http.Handler
	engine *countingEngine
	mr     *miniredis.Miniredis
	repo   *querylog.Repo
	cfg    config.Config
}

func testConfig() config.Config {
	return config.Config{
		APIPrefix:          "/api/v1",
		APIVersion:         "0.1.0",
		SessionExpireHours: 24,
		PneumaDefaultIndex: "default",
		SecretKey:          "test-secret",
		AdminTokenTTLHours: 1,
		EnableMetrics:      true,
	}
}

func newTestEnv(t *testing.T, cfg config.Config, ready bool) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gdb, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&querylog.Entry{}))
	repo := querylog.NewRepo(gdb)

	eng := &countingEngine{out: twoRecords}
	pool := discovery.NewPool(2)
	t.Cleanup(pool.Close)
	disc := discovery.NewService(eng, pool, cfg.PneumaDefaultIndex)
	if ready {
		require.NoError(t, disc.Initialize(context.Background()))
	}

	m := metrics.New()
	h := handlers.NewHandler(cfg, disc, session.NewManager(redisstore.NewFromClient(rdb), cfg.SessionTTL(), m))
	h.Recorder = querylog.NewDirectRecorder(repo)
	h.QueryLog = repo
	h.Metrics = m

	return &testEnv{router: NewRouter(h), engine: eng, mr: mr, repo: repo, cfg: cfg}
}

func (e *testEnv) do(method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestQuery_EndToEndWithHistory(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"traffic data","k":3,"session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.EqualValues(t, 2, gjson.Get(body, "total_results").Int())
	assert.Len(t, gjson.Get(body, "results").Array(), 2)
	assert.Equal(t, "s1", gjson.Get(body, "session_id").String())
	assert.Equal(t, "traffic_counts", gjson.Get(body, "results.0.table_name").String())
	assert.True(t, gjson.Get(body, "results.1.description").Type == gjson.Null)
	assert.GreaterOrEqual(t, gjson.Get(body, "search_time_ms").Float(), 0.0)

	rec = env.do(http.MethodGet, "/api/v1/query/session/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := rec.Body.String()
	assert.Equal(t, "s1", gjson.Get(hist, "session_id").String())
	require.Len(t, gjson.Get(hist, "queries").Array(), 1)
	assert.EqualValues(t, 2, gjson.Get(hist, "queries.0.response_summary.results_count").Int())
	assert.Equal(t, "traffic data", gjson.Get(hist, "queries.0.query").String())

	n, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestQuery_WithoutSessionLeavesNoHistory(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"traffic data"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "session_id").Type == gjson.Null)
	assert.Empty(t, env.mr.Keys())
}

func TestQuery_ValidationRejectsBeforeEngine(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	cases := []string{
		`{"query":"traffic data","k":25}`,
		`{"query":"traffic data","k":0}`,
		`{"query":"traffic data","n":21}`,
		`{"query":"traffic data","alpha":1.5}`,
		`{"query":"traffic data","alpha":-0.1}`,
		`{"query":""}`,
		`{"query":"   "}`,
		`{"k":3}`,
		`{not json`,
	}
	for _, body := range cases {
		rec := env.do(http.MethodPost, "/api/v1/query", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.EqualValues(t, 10001, gjson.Get(rec.Body.String(), "code").Int(), body)
	}
	assert.Zero(t, env.engine.calls.Load())
}

func TestQuery_BoundaryValuesAccepted(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	for _, body := range []string{
		`{"query":"q","k":1,"n":1,"alpha":0}`,
		`{"query":"q","k":20,"n":20,"alpha":1}`,
	} {
		rec := env.do(http.MethodPost, "/api/v1/query", body)
		assert.Equal(t, http.StatusOK, rec.Code, body)
	}
	assert.EqualValues(t, 2, env.engine.calls.Load())
}

func TestQuery_EngineNotReady(t *testing.T) {
	env := newTestEnv(t, testConfig(), false)

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"traffic data","session_id":"s1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.EqualValues(t, 50301, gjson.Get(rec.Body.String(), "code").Int())
	assert.Zero(t, env.engine.calls.Load())
	assert.False(t, env.mr.Exists("session:s1"))
}

func TestQuery_EngineFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)
	env.engine.out = "<<<secret internal output"

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"q","session_id":"s1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.False(t, env.mr.Exists("session:s1"))
}

func TestHistory_UnknownSession(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodGet, "/api/v1/query/session/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"nobody","queries":[]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "healthy", gjson.Get(body, "status").String())
	assert.Equal(t, "healthy", gjson.Get(body, "pneuma_status").String())
	assert.Equal(t, "healthy", gjson.Get(body, "redis_status").String())
	assert.Equal(t, "0.1.0", gjson.Get(body, "version").String())

	env.mr.SetError("server down")
	rec = env.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, "unhealthy", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "unhealthy", gjson.Get(rec.Body.String(), "redis_status").String())
}

func TestHealth_PneumaNotReady(t *testing.T) {
	env := newTestEnv(t, testConfig(), false)

	rec := env.do(http.MethodGet, "/api/v1/health/pneuma", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unhealthy", gjson.Get(rec.Body.String(), "status").String())
	assert.False(t, gjson.Get(rec.Body.String(), "initialized").Bool())
}

func TestQuery_SessionStoreDownStillAnswers(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)
	env.mr.SetError("server down")

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"q","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, gjson.Get(rec.Body.String(), "total_results").Int())
}

func TestIndexesAndTables(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodGet, "/api/v1/indexes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", gjson.Get(rec.Body.String(), "default_index").String())
	assert.Len(t, gjson.Get(rec.Body.String(), "indexes").Array(), 3)

	rec = env.do(http.MethodGet, "/api/v1/table/t1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 40402, gjson.Get(rec.Body.String(), "code").Int())

	rec = env.do(http.MethodGet, "/api/v1/table/t1?sample_size=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootAndFallbacks(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/health", gjson.Get(rec.Body.String(), "health").String())

	rec = env.do(http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 40400, gjson.Get(rec.Body.String(), "code").Int())

	rec = env.do(http.MethodGet, "/api/v1/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pneuma_http_requests_total")
}

func TestAdmin_OpenWithoutPasswordHash(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodGet, "/api/v1/admin/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "pneuma_initialized").Bool())
	assert.Equal(t, "healthy", gjson.Get(rec.Body.String(), "services.redis").String())

	rec = env.do(http.MethodPost, "/api/v1/admin/token", `{"password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_RequiresToken(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.AdminPasswordHash = hash
	env := newTestEnv(t, cfg, true)

	rec := env.do(http.MethodGet, "/api/v1/admin/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/admin/status", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/admin/token", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/admin/token", `{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	tok := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, tok)
	exp := gjson.Get(rec.Body.String(), "expires_at").Time()
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	rec = env.do(http.MethodGet, "/api/v1/admin/indexes", "", "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", gjson.Get(rec.Body.String(), "indexes.0.status").String())
}

func TestAdmin_DeleteSessionAndMetrics(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	rec := env.do(http.MethodPost, "/api/v1/query", `{"query":"q","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.mr.Exists("session:s1"))

	rec = env.do(http.MethodGet, "/api/v1/admin/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "total_queries").Int())
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "active_sessions").Int())
	assert.True(t, gjson.Get(rec.Body.String(), "uptime_seconds").Exists())

	rec = env.do(http.MethodDelete, "/api/v1/admin/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "deleted").Bool())
	assert.False(t, env.mr.Exists("session:s1"))
}

func TestAdmin_Reload(t *testing.T) {
	env := newTestEnv(t, testConfig(), false)

	rec := env.do(http.MethodPost, "/api/v1/admin/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/query", `{"query":"q"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
