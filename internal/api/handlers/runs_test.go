package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/api/dto"
	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/ports"
)

func seededRepo() *memoryRepo {
	return &memoryRepo{runs: []*ports.SolveRun{
		{
			ID:            "run-1",
			CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Variant:       "edge-infinite",
			Backend:       "classic",
			Vehicles:      1,
			Locations:     3,
			Variables:     11,
			Constraints:   8,
			Objective:     7,
			TotalDistance: 7,
			DurationMS:    2,
			Routes:        []domain.Route{{Vehicle: 0, Stops: []int{0, 1, 2, 0}, Distance: 7}},
		},
		{ID: "run-2", Backend: "milp"},
	}}
}

func TestRunsList(t *testing.T) {
	h := &RunHandler{Repo: seededRepo()}

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Runs, 2)
	require.Equal(t, "run-1", res.Runs[0].ID)
	require.Equal(t, []int{0, 1, 2, 0}, res.Runs[0].Routes[0].Stops)
}

func TestRunsListLimit(t *testing.T) {
	h := &RunHandler{Repo: seededRepo()}

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Runs, 1)
}

func TestRunsListBadLimit(t *testing.T) {
	h := &RunHandler{Repo: seededRepo()}

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=0", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsGet(t *testing.T) {
	h := &RunHandler{Repo: seededRepo()}

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "run-1", res.ID)
	require.Equal(t, "classic", res.Backend)
}

func TestRunsGetNotFound(t *testing.T) {
	h := &RunHandler{Repo: seededRepo()}

	req := httptest.NewRequest(http.MethodGet, "/runs/ghost", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
