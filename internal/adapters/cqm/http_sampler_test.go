package cqm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPSamplerOrdersSamplesByEnergy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sample", r.URL.Path)

		var req sampleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Variables, 1)
		require.Equal(t, "BINARY", req.Variables[0].Type)

		json.NewEncoder(w).Encode(map[string]any{
			"samples": []map[string]any{
				{"assignment": map[string]float64{"x_0_1": 1}, "energy": 7, "feasible": true},
				{"assignment": map[string]float64{"x_0_1": 0}, "energy": 3, "feasible": false},
			},
		})
	}))
	defer srv.Close()

	sampler, err := NewHTTPSampler(srv.URL, "")
	require.NoError(t, err)

	m := NewModel()
	m.AddVariable(Variable{Name: "x_0_1", Type: BinaryVar, Lower: 0, Upper: 1})

	set, err := sampler.Sample(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, set.Samples, 2)
	require.InDelta(t, 3, set.Samples[0].Energy, 1e-9)
	require.False(t, set.Samples[0].Feasible)
	require.InDelta(t, 7, set.Samples[1].Energy, 1e-9)
	require.True(t, set.Samples[1].Feasible)
}
