package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/config"
	"github.com/wawengkz/INVENT/internal/secrets"
)

func testConfig(dsn string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.HTTPPort = "0"
	cfg.Logging.Level = "error"
	cfg.Logging.SlowRequest = time.Second
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = dsn
	cfg.Limits.MaxBatchSize = 100
	cfg.LogsRetention.Days = 365
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a := &App{}
	require.NoError(t, a.Initialize(cfg))
	t.Cleanup(a.Close)
	return a
}

func get(a *App, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndOpenAPI(t *testing.T) {
	a := newApp(t, testConfig("file:server_open?mode=memory&cache=shared"))

	assert.Equal(t, http.StatusOK, get(a, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(a, "/readyz", "").Code)

	rec := get(a, "/api/stations/mouse", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestTokenAuthAndRateLimit(t *testing.T) {
	cfg := testConfig("file:server_auth?mode=memory&cache=shared")
	cfg.Auth.Tokens = []secrets.Token{{Name: "kiosk", Token: "s3cret"}}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Backend = "memory"
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.Max = 3
	a := newApp(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(a, "/api/bays/mouse", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(a, "/api/bays/mouse", "nope").Code)
	rec := get(a, "/api/bays/mouse", "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = get(a, "/api/bays/mouse", "s3cret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// health вне /api не ограничивается
	assert.Equal(t, http.StatusOK, get(a, "/healthz", "").Code)
}
