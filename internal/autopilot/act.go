package autopilot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor posts verdicts via the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Act sends a veto or confirm. VerdictNone is a no-op.
func (a *Actor) Act(ctx context.Context, v Verdict) error {
	var path string
	switch v.Action {
	case VerdictNone:
		return nil
	case VerdictVeto:
		path = "/api/v1/decision/veto"
	case VerdictConfirm:
		path = "/api/v1/decision/confirm"
	default:
		return fmt.Errorf("unknown verdict %q", v.Action)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if a.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.AdminKey)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed (%d): %s", v.Action, resp.StatusCode, string(body))
	}
	return nil
}
