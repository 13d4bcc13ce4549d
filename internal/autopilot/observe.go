// Package autopilot implements the out-of-process board member.
// It observes the company via the API, decides whether to veto or confirm
// the CEO's pending decision, and acts via the decision endpoints.
package autopilot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/ceo-sim/internal/engine"
)

// Observation holds all data collected during an observation cycle.
type Observation struct {
	State   engine.Snapshot    `json:"state"`
	History []engine.DayReport `json:"history"`
}

// Observer fetches company state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the state and recent history.
func (o *Observer) Observe(ctx context.Context) (*Observation, error) {
	obs := &Observation{}

	if err := o.fetchJSON(ctx, "/api/v1/state", &obs.State); err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/history?limit=5", &obs.History); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	return obs, nil
}

// Ready reports whether the health endpoint answers.
func (o *Observer) Ready(ctx context.Context) bool {
	var body map[string]any
	return o.fetchJSON(ctx, "/api/v1/health", &body) == nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
