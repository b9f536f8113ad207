package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/db"
)

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadiness(t *testing.T) {
	d, err := db.Open(db.Options{DSN: "file:health_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	r := mux.NewRouter()
	RegisterRoutesWithChecks(r, map[string]Check{"db": DB(d), "redis": Redis(rc)})

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)

	rec := get(r, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"db": "ok", "redis": "ok"}, body.Checks)

	mr.Close()
	rec = get(r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "redis unreachable", body.Checks["redis"])
}

func TestReadinessFailingCheck(t *testing.T) {
	r := mux.NewRouter()
	RegisterRoutesWithChecks(r, map[string]Check{
		"db": DB(nil),
		"x":  func(context.Context) error { return errors.New("down") },
	})
	rec := get(r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
