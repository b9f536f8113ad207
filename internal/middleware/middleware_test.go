package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/ratelimit"
	"github.com/wawengkz/INVENT/internal/secrets"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logs.Logger
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	logs.Logger = l
	t.Cleanup(func() { logs.Logger = prev })
	return &buf
}

func ok(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserFrom(r.Context())))
}

func TestRequestIDPropagates(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetRequestID(r)))
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Body.String())
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Body.String(), 36)
}

func TestRecovererWritesProblem(t *testing.T) {
	captureLogs(t)
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "r-1")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body struct {
		Extra map[string]string `json:"extra"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "r-1", body.Extra["reqid"])
}

func TestRequestLoggerMarksSlowRequests(t *testing.T) {
	buf := captureLogs(t)
	h := RequestLogger(time.Nanosecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/stations", nil)
	req.RemoteAddr = "10.1.1.1:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, true, line["slow"])
	assert.EqualValues(t, 201, line["status"])
	assert.Equal(t, "10.1.1.1", line["ip"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))
	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}

func TestTokenAuth(t *testing.T) {
	set, err := secrets.NewTokenSet([]secrets.Token{{Name: "ops", Token: "s3cret"}})
	require.NoError(t, err)
	h := TokenAuth(set)(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req.Header.Set("Authorization", "Bearer s3cret")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", rec.Body.String())

	// без токенов API открыт
	rec = httptest.NewRecorder()
	TokenAuth(nil)(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := mux.NewRouter()
	r.Use(RateLimit(RateLimitOptions{
		Store:  ratelimit.NewMemoryStore(),
		Max:    2,
		Window: time.Minute,
		Now:    func() time.Time { return now },
	}))
	r.HandleFunc("/api/ping", ok)

	call := func(ip string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.RemoteAddr = ip + ":1000"
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("1.1.1.1").Code)
	rec := call("1.1.1.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	var body struct {
		Extra map[string]int `json:"extra"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 60, body.Extra["retryAfter"])

	assert.Equal(t, http.StatusOK, call("2.2.2.2").Code)
}
