package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/internal/service/costs"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTracker(t *testing.T) *costs.Tracker {
	t.Helper()
	return costs.NewTracker(costs.NewLog(filepath.Join(t.TempDir(), "costs.json")))
}

func TestRouter_Healthz(t *testing.T) {
	h := NewRouter(fakePinger{}, newTracker(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Healthz_DBDown(t *testing.T) {
	h := NewRouter(fakePinger{err: errors.New("refused")}, newTracker(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Costs(t *testing.T) {
	tracker := newTracker(t)
	tracker.Record(domain.CostLogEntry{
		PredictionID:      "pred-1",
		SearchAPICalls:    2,
		TotalInputTokens:  100,
		TotalOutputTokens: 40,
		Outcome:           domain.OutcomeMaturedTrue,
	})
	tracker.MarkWorker(1, "Validating", true)
	h := NewRouter(fakePinger{}, tracker)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/costs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap costs.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Session.Validated)
	assert.Equal(t, int64(2), snap.Session.SearchCalls)
	assert.Equal(t, "Validating", snap.Workers[1].Activity)
}

func TestRouter_Metrics(t *testing.T) {
	h := NewRouter(fakePinger{}, newTracker(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
