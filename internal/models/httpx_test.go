package models

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProblemDefaultsTitle(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteProblem(rr, http.StatusConflict, "", "bay busy", map[string]any{"bays": []string{"A"}})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p struct {
		Title  string              `json:"title"`
		Status int                 `json:"status"`
		Detail string              `json:"detail"`
		Extra  map[string][]string `json:"extra"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Conflict", p.Title)
	assert.Equal(t, 409, p.Status)
	assert.Equal(t, "bay busy", p.Detail)
	assert.Equal(t, []string{"A"}, p.Extra["bays"])
}

func TestNewProblemAndWriteJSON(t *testing.T) {
	p := NewProblem(http.StatusUnauthorized, "invalid token")
	assert.Equal(t, "Unauthorized", p.Title)

	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rr.Body.String())
}
