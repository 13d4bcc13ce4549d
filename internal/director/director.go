// Package director supplies the AI CEO: services that look at a company
// snapshot and propose one strategic decision for the day.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/ceo-sim/internal/decision"
)

// Service proposes a decision for the given company snapshot.
type Service interface {
	Decide(ctx context.Context, c decision.Context) (decision.Decision, error)
}

// Func adapts a plain function to Service.
type Func func(ctx context.Context, c decision.Context) (decision.Decision, error)

func (f Func) Decide(ctx context.Context, c decision.Context) (decision.Decision, error) {
	return f(ctx, c)
}

// Offline is used when no decision backend is configured.
type Offline struct{}

func (Offline) Decide(context.Context, decision.Context) (decision.Decision, error) {
	d := decision.Fallback("No API key configured. Playing safe.")
	return d, nil
}

// FailClosed wraps svc so that every failure becomes the fallback decision.
// The returned service never returns an error.
func FailClosed(svc Service) Service {
	return &failClosed{svc: svc}
}

type failClosed struct {
	svc Service
}

func (f *failClosed) Decide(ctx context.Context, c decision.Context) (d decision.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("decision service panicked", "day", c.Day, "panic", r)
			d, err = decision.Fallback(""), nil
		}
	}()

	d, err = f.svc.Decide(ctx, c)
	if err != nil {
		reason := "Decision service unavailable. Playing safe."
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = "Decision service timed out. Playing safe."
		case errors.Is(err, decision.ErrInvalidDecision):
			reason = "Decision service returned an unusable answer. Playing safe."
		}
		slog.Warn("decision service failed, using fallback", "day", c.Day, "error", err)
		return decision.Fallback(reason), nil
	}
	if !d.Action.Valid() || d.Params == nil {
		slog.Warn("decision service returned invalid decision", "day", c.Day, "action", d.Action)
		return decision.Fallback(""), nil
	}
	return d, nil
}

// ErrEmptyResponse is returned when a backend answers with no JSON object.
var ErrEmptyResponse = fmt.Errorf("%w: no JSON object in response", decision.ErrInvalidDecision)
