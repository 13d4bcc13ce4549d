package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/director"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/events"
)

// Advance moves the clock by one tick. Paused, it does nothing. Each call
// applies at most one economy tick or one day rollover, never both. While
// a decision request is in flight the window does not advance.
func (s *Simulation) Advance() {
	s.mu.Lock()
	job, report := s.advanceLocked()
	hook := s.onDayEnd
	s.mu.Unlock()

	if job != nil {
		s.dispatch(job)
	}
	if report != nil && hook != nil {
		hook(*report)
	}
}

func (s *Simulation) advanceLocked() (func(), *DayReport) {
	if s.paused {
		return nil, nil
	}

	switch s.clock.Phase {
	case PhaseOperating:
		if s.clock.Tick+1 >= WindowOpensAt {
			s.clock.Tick++
			s.clock.Phase = PhaseDecisionWindow
			s.version++
			return s.openWindowLocked(), nil
		}
		s.operateLocked()
		s.clock.Tick++
		s.version++
		return nil, nil

	case PhaseDecisionWindow:
		if s.lifecycle == LifecycleAwaiting {
			return nil, nil
		}
		if s.clock.Tick >= DecisionDeadline || s.closeEarly {
			report := s.rolloverLocked()
			s.version++
			return nil, &report
		}
		s.clock.Tick++
		s.version++
		return nil, nil
	}

	slog.Error("unknown phase, ignoring tick", "phase", s.clock.Phase)
	return nil, nil
}

// operateLocked runs one tick of the economy plus the minor event roll.
func (s *Simulation) operateLocked() {
	cond := economy.Conditions{
		Mood:         s.mood,
		OfficeLevel:  s.officeLevel,
		Productivity: s.productivity,
		ProductLevel: s.productLevel,
		Demand:       s.dayDemand,
		Multiplier:   s.effectMultiplierLocked(),
	}
	delta := economy.ComputeTickDelta(s.balance, s.workforce.Staffing(s.balance), cond)
	s.treasury.Apply(delta.Net)
	s.dayRevenue = s.dayRevenue.Add(delta.Revenue)
	s.dayCost = s.dayCost.Add(delta.Cost)
	s.tickEffectsLocked()

	if ev := events.RollMinor(s.rng, s.odds); ev != nil {
		ev.Day, ev.Tick = s.clock.Day, s.clock.Tick
		s.treasury.Debit(ev.Cost)
		s.dayEventCost = s.dayEventCost.Add(ev.Cost)
		s.dayEvents = append(s.dayEvents, *ev)
		s.log(fmt.Sprintf("> EXPENSE: %s -%s", ev.Name, economy.FormatMoney(ev.Cost)))
		slog.Debug("minor event", "day", s.clock.Day, "tick", s.clock.Tick, "name", ev.Name, "cost", ev.Cost)
	}
}

func (s *Simulation) effectMultiplierLocked() decimal.Decimal {
	m := decimal.NewFromInt(1)
	for _, e := range s.effects {
		m = m.Mul(e.Multiplier)
	}
	return m
}

func (s *Simulation) tickEffectsLocked() {
	kept := s.effects[:0]
	for _, e := range s.effects {
		e.Remaining--
		if e.Remaining > 0 {
			kept = append(kept, e)
			continue
		}
		s.log(fmt.Sprintf("> %s WORE OFF.", e.Name))
	}
	s.effects = kept
}

// openWindowLocked rolls the day's crisis, opens a new window id and
// returns the decision request to dispatch once the lock is released.
func (s *Simulation) openWindowLocked() func() {
	if ev := events.RollCrisis(s.rng, s.odds, events.CrisisInput{
		Mood:            s.mood,
		OutageProtected: s.ownsLocked(decision.ItemServerRack),
	}); ev != nil {
		ev.Day, ev.Tick = s.clock.Day, s.clock.Tick
		s.activeEvents = append(s.activeEvents, *ev)
		s.log(fmt.Sprintf("> ALERT: %s (%s)", ev.Name, ev.Severity))
		slog.Info("crisis", "day", s.clock.Day, "kind", ev.Kind, "severity", ev.Severity)
	}

	s.windowID++
	s.lifecycle = LifecycleAwaiting
	s.pending = nil
	s.proposed = nil
	s.outcome = OutcomeNone
	s.closeEarly = false
	s.log(MsgCrunchMode)

	slog.Info("decision window opened", "day", s.clock.Day, "window", s.windowID)
	return s.requestJob(s.windowID, s.director, s.decisionContextLocked())
}

// requestJob calls the director with a deadline and reports back under
// the window id it was issued for.
func (s *Simulation) requestJob(id uint64, svc director.Service, dctx decision.Context) func() {
	timeout := s.timeout
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		type result struct {
			d   decision.Decision
			err error
		}
		done := make(chan result, 1)
		go func() {
			d, err := svc.Decide(ctx, dctx)
			done <- result{d, err}
		}()

		select {
		case r := <-done:
			s.completeDecision(id, r.d, r.err)
		case <-ctx.Done():
			s.completeDecision(id, decision.Decision{}, ctx.Err())
		}
	}
}

// completeDecision records the director's answer if it still belongs to
// the open window. Late answers are dropped.
func (s *Simulation) completeDecision(id uint64, d decision.Decision, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.windowID || s.lifecycle != LifecycleAwaiting || s.clock.Phase != PhaseDecisionWindow {
		slog.Info("discarding stale decision", "window", id, "current", s.windowID, "lifecycle", s.lifecycle)
		return
	}

	if err == nil && (!d.Action.Valid() || d.Params == nil) {
		err = fmt.Errorf("%w: empty decision", decision.ErrInvalidDecision)
	}
	if err != nil {
		slog.Warn("decision request failed, using fallback", "day", s.clock.Day, "error", err)
		s.log(MsgConnectionFailed)
		d = decision.Fallback("")
	}

	s.pending = &d
	s.proposed = &d
	s.lifecycle = LifecyclePending
	s.log(fmt.Sprintf("> CEO PROPOSES: %s", d.Title))
	s.version++
	slog.Info("decision pending", "day", s.clock.Day, "action", d.Action, "risk", d.Risk)
}

// rolloverLocked ends the day: executes any pending decision, then resets
// the clock and day bookkeeping.
func (s *Simulation) rolloverLocked() DayReport {
	if s.lifecycle == LifecyclePending && s.pending != nil {
		s.log(fmt.Sprintf("> AUTO-EXECUTING: %s", s.pending.Title))
		s.resolveLocked(OutcomeApplied)
	}

	report := DayReport{
		Day:         s.clock.Day,
		ClosingCash: s.treasury.Cash,
		Revenue:     s.dayRevenue,
		Cost:        s.dayCost,
		EventCost:   s.dayEventCost,
		Events:      len(s.dayEvents) + len(s.activeEvents),
		Headcount:   s.workforce.Len(),
		Action:      decision.ActionNone,
		Outcome:     s.outcome,
	}
	if s.proposed != nil {
		report.Action = s.proposed.Action
		report.Title = s.proposed.Title
	}

	s.yesterdayEvents = append(append([]events.Event(nil), s.activeEvents...), s.dayEvents...)
	s.activeEvents = nil
	s.dayEvents = nil

	s.clock.Day++
	s.clock.Tick = 0
	s.clock.Phase = PhaseOperating
	s.pending = nil
	s.proposed = nil
	s.lifecycle = LifecycleIdle
	s.outcome = OutcomeNone
	s.closeEarly = false

	s.officeLevel = economy.OfficeLevelFor(s.balance, s.workforce.Len())
	s.dayDemand = s.demand.Factor(s.clock.Day)
	s.startOfDayCash = s.treasury.Cash
	s.resetDayTotals()

	s.terminal.Clear()
	s.log(fmt.Sprintf("> DAY %d. CASH %s.", s.clock.Day, economy.FormatMoney(s.treasury.Cash)))

	slog.Info("day rolled over",
		"day", report.Day,
		"cash", economy.FormatMoney(report.ClosingCash),
		"headcount", report.Headcount,
		"action", report.Action,
		"outcome", report.Outcome,
	)
	return report
}
