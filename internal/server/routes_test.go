package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/bobmcallan/rulecheck/internal/pool"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p, err := pool.New(pool.Options{
		MaxCurrentJobs: 2,
		MaxQueuedJobs:  8,
		Strategy:       pool.DocumentPerCategoryStrategy,
		CheckTimeout:   time.Second,
		Logger:         common.NewSilentLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	cfg := common.NewDefaultConfig()
	s := NewServer(p, cfg, common.NewSilentLogger())
	return s
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCheck_RejectsMissingSetID(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(map[string]interface{}{
		"blocks": []map[string]interface{}{{"id": "b0", "text": "hello", "from": 0, "to": 5}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/check", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheck_RejectsUnknownCategory(t *testing.T) {
	s := newTestServer(t)
	check := model.Check{
		SetID:       "s0",
		CategoryIDs: []string{"does-not-exist"},
		Blocks:      []model.TextBlock{{ID: "b0", Text: "hello", From: 0, To: 5}},
	}
	body, _ := json.Marshal(check)
	req := httptest.NewRequest(http.MethodPost, "/api/check", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleCheck_RejectsNonPost(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCategories_EmptyWithNoMatchers(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]model.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body["categories"])
}

func TestHandleMatchers_EmptyWithNoMatchers(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/matchers", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
