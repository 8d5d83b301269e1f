package cqm

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

// HTTPSampler submits a constrained quadratic model to a remote sampler
// service and reads back a ranked sample set.
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

type quadraticPayload struct {
	Constant  float64            `json:"constant"`
	Linear    map[string]float64 `json:"linear"`
	Quadratic []quadEntry        `json:"quadratic"`
}

type variablePayload struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type constraintPayload struct {
	Label string           `json:"label"`
	Expr  quadraticPayload `json:"expr"`
	Sense string           `json:"sense"`
	RHS   float64          `json:"rhs"`
}

type sampleRequest struct {
	Variables   []variablePayload   `json:"variables"`
	Objective   quadraticPayload    `json:"objective"`
	Constraints []constraintPayload `json:"constraints"`
}

type sampleResponse struct {
	Samples []struct {
		Assignment map[string]float64 `json:"assignment"`
		Energy     float64            `json:"energy"`
		Feasible   bool               `json:"feasible"`
	} `json:"samples"`
}

func quadraticToPayload(q Quadratic) quadraticPayload {
	p := quadraticPayload{
		Constant:  q.Constant,
		Linear:    q.Linear,
		Quadratic: make([]quadEntry, 0, len(q.Quadratic)),
	}
	for pair, coef := range q.Quadratic {
		p.Quadratic = append(p.Quadratic, quadEntry{A: pair.A, B: pair.B, Coef: coef})
	}
	return p
}

func (s *HTTPSampler) Sample(ctx context.Context, m *Model) (*SampleSet, error) {
	reqBody := sampleRequest{
		Variables:   make([]variablePayload, 0, len(m.Variables)),
		Objective:   quadraticToPayload(m.Objective),
		Constraints: make([]constraintPayload, 0, len(m.Constraints)),
	}
	for _, v := range m.Variables {
		reqBody.Variables = append(reqBody.Variables, variablePayload{
			Name:  v.Name,
			Type:  string(v.Type),
			Lower: v.Lower,
			Upper: v.Upper,
		})
	}
	for _, c := range m.Constraints {
		reqBody.Constraints = append(reqBody.Constraints, constraintPayload{
			Label: c.Label,
			Expr:  quadraticToPayload(c.Expr),
			Sense: c.Sense.String(),
			RHS:   c.RHS,
		})
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
		set.Samples = append(set.Samples, Sample{
			Assignment: s.Assignment,
			Energy:     s.Energy,
			Feasible:   s.Feasible,
		})
	}
	// Remote services do not promise an ordering.
	sort.SliceStable(set.Samples, func(i, j int) bool {
		return set.Samples[i].Energy < set.Samples[j].Energy
	})
	return set, nil
}
