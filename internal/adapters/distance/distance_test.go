package distance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/ports"
)

func TestLocalProviderManhattan(t *testing.T) {
	p, err := NewLocalProvider(MetricManhattan)
	require.NoError(t, err)

	m, err := p.Matrix(context.Background(), []ports.Point{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 3, Y: 0}})
	require.NoError(t, err)

	require.Equal(t, 3, m.Size())
	require.InDelta(t, 3, m.Between(0, 1), 1e-9)
	require.InDelta(t, 3, m.Between(0, 2), 1e-9)
	require.InDelta(t, 4, m.Between(1, 2), 1e-9)
	for i := 0; i < 3; i++ {
		require.Zero(t, m.Between(i, i))
	}
}

func TestLocalProviderEuclidean(t *testing.T) {
	p, err := NewLocalProvider(MetricEuclidean)
	require.NoError(t, err)

	m, err := p.Matrix(context.Background(), []ports.Point{{X: 0, Y: 0}, {X: 3, Y: 4}})
	require.NoError(t, err)
	require.InDelta(t, 5, m.Between(0, 1), 1e-9)
	require.InDelta(t, 5, m.Between(1, 0), 1e-9)
}

func TestLocalProviderHaversine(t *testing.T) {
	p, err := NewLocalProvider(MetricHaversine)
	require.NoError(t, err)

	// Berlin to Munich, roughly 504 km great-circle.
	berlin := ports.Point{X: 13.405, Y: 52.52}
	munich := ports.Point{X: 11.582, Y: 48.135}
	m, err := p.Matrix(context.Background(), []ports.Point{berlin, munich})
	require.NoError(t, err)
	require.InDelta(t, 504000, m.Between(0, 1), 2000)
}

func TestLocalProviderUnknownMetric(t *testing.T) {
	_, err := NewLocalProvider("chebyshev")
	require.Error(t, err)
}

func TestRemoteProviderMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/matrix/driving-car", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req matrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Locations, 2)

		json.NewEncoder(w).Encode(map[string]any{
			"distances": [][]float64{{0, 1200}, {1300, 0}},
		})
	}))
	defer srv.Close()

	p, err := NewRemoteProvider("test-key", srv.URL)
	require.NoError(t, err)

	m, err := p.Matrix(context.Background(), []ports.Point{{X: 13.4, Y: 52.5}, {X: 13.5, Y: 52.4}})
	require.NoError(t, err)
	require.InDelta(t, 1200, m.Between(0, 1), 1e-9)
	require.InDelta(t, 1300, m.Between(1, 0), 1e-9)
}

func TestRemoteProviderRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"distances": [][]float64{{0, 5}, {5, 0}},
		})
	}))
	defer srv.Close()

	p, err := NewRemoteProvider("test-key", srv.URL)
	require.NoError(t, err)

	m, err := p.Matrix(context.Background(), []ports.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.InDelta(t, 5, m.Between(0, 1), 1e-9)
}

func TestRemoteProviderBadRowCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"distances": [][]float64{{0, 5}},
		})
	}))
	defer srv.Close()

	p, err := NewRemoteProvider("test-key", srv.URL)
	require.NoError(t, err)

	_, err = p.Matrix(context.Background(), []ports.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.Error(t, err)
}
