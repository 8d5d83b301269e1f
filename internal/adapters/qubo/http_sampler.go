package qubo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// HTTPSampler submits a program to a remote annealing service and reads
// back a ranked sample set. One synchronous round trip per Sample call.
type HTTPSampler struct {
	session *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPSampler(baseURL, apiKey string) (*HTTPSampler, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("sampler base url is empty")
	}
	return &HTTPSampler{
		session: &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

type quadEntry struct {
	A    string  `json:"a"`
	B    string  `json:"b"`
	Coef float64 `json:"coef"`
}

type sampleRequest struct {
	Vars      []string           `json:"vars"`
	Linear    map[string]float64 `json:"linear"`
	Quadratic []quadEntry        `json:"quadratic"`
	Offset    float64            `json:"offset"`
}

type sampleResponse struct {
	Samples []struct {
		Assignment map[string]float64 `json:"assignment"`
		Energy     float64            `json:"energy"`
	} `json:"samples"`
}

func (s *HTTPSampler) Sample(ctx context.Context, p *Program) (*SampleSet, error) {
	reqBody := sampleRequest{
		Vars:      p.Vars,
		Linear:    p.Linear,
		Quadratic: make([]quadEntry, 0, len(p.Quadratic)),
		Offset:    p.Offset,
	}
	for pair, coef := range p.Quadratic {
		reqBody.Quadratic = append(reqBody.Quadratic, quadEntry{A: pair.A, B: pair.B, Coef: coef})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal sample request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sample", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create sample request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", s.apiKey)
	}

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sample request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sampler returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded sampleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode sample response: %w", err)
	}

	set := &SampleSet{Samples: make([]Sample, 0, len(decoded.Samples))}
	for _, s := range decoded.Samples {
		set.Samples = append(set.Samples, Sample{Assignment: s.Assignment, Energy: s.Energy})
	}
	// Remote services do not promise an ordering.
	sort.SliceStable(set.Samples, func(i, j int) bool {
		return set.Samples[i].Energy < set.Samples[j].Energy
	})
	return set, nil
}
