package autopilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/ceo-sim/internal/economy"
)

// Pilot runs observe → triage → decide → act cycles.
type Pilot struct {
	Observer *Observer
	Actor    *Actor
	Rules    Rules
	Memory   *CycleMemory
}

// New wires a pilot against one API.
func New(baseURL, adminKey string, rules Rules, mem *CycleMemory) *Pilot {
	if mem == nil {
		mem = &CycleMemory{}
	}
	return &Pilot{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Rules:    rules,
		Memory:   mem,
	}
}

// RunCycle executes one cycle and returns the verdict it reached.
func (p *Pilot) RunCycle(ctx context.Context) (Verdict, error) {
	obs, err := p.Observer.Observe(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("observe: %w", err)
	}
	h := Triage(obs)
	slog.Debug("observation complete",
		"day", obs.State.Day,
		"tick", obs.State.Tick,
		"cash", economy.FormatMoney(h.Cash),
		"runway", h.RunwayDays,
		"crisis", h.CrisisLevel,
	)

	v := Decide(obs, h, p.Rules)
	if v.Action == VerdictNone {
		return v, nil
	}
	if p.Memory.Handled(v) {
		return Verdict{Action: VerdictNone, GameID: v.GameID, Day: v.Day, Title: v.Title, Rationale: "already handled"}, nil
	}

	if err := p.Actor.Act(ctx, v); err != nil {
		return v, fmt.Errorf("act: %w", err)
	}
	p.Memory.Record(v)
	p.Memory.Save()
	slog.Info("verdict delivered", "day", v.Day, "action", v.Action, "title", v.Title, "rationale", v.Rationale)
	return v, nil
}

// Run cycles every interval until ctx is done.
func (p *Pilot) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("autopilot cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WaitReady polls the health endpoint with exponential backoff until it
// answers or ctx is done.
func (p *Pilot) WaitReady(ctx context.Context, maxWait time.Duration) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(maxWait)

	for {
		if p.Observer.Ready(ctx) {
			slog.Info("API is ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("API did not become ready within %s", maxWait)
		}
		slog.Info("API not ready, retrying", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
