package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/events"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// TogglePause flips between paused and playing and returns the new state.
func (s *Simulation) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	s.version++
	return s.paused
}

// SetPaused sets the pause state explicitly.
func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused != paused {
		s.paused = paused
		s.version++
	}
}

// Hire adds one employee of the given role. Unknown or empty roles hire a
// developer. It validates funds like a decision-driven hire.
func (s *Simulation) Hire(role string) (workforce.HireResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, _ := workforce.ParseRole(role)
	res, err := s.ledger.Hire(r, 1, "")
	if err != nil {
		s.logLedgerError(err)
		s.version++
		return res, err
	}
	s.logHire(res)
	s.version++
	slog.Info("manual hire", "role", r, "traits", res.Traits, "cash", economy.FormatMoney(s.treasury.Cash))
	return res, nil
}

// Fire lets one employee of the given role go. With an empty role the most
// recent hire is let go. Severance and the mood hit apply.
func (s *Simulation) Fire(role string) (workforce.FireResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r workforce.Role
	if strings.TrimSpace(role) == "" {
		newest, ok := s.workforce.Newest()
		if !ok {
			s.log(MsgNoMatchingWorkers)
			s.version++
			return workforce.FireResult{}, fmt.Errorf("fire newest: %w", workforce.ErrNoMatchingWorkers)
		}
		r = newest.Role
	} else {
		r, _ = workforce.ParseRole(role)
	}

	res, err := s.ledger.Fire(r, 1)
	if err != nil {
		s.logLedgerError(err)
		s.version++
		return res, err
	}
	s.adjustMoodLocked(-FireMoodPenalty)
	s.log(fmt.Sprintf("> FIRED 1 %s. -%s", r, economy.FormatMoney(res.Cost)))
	s.version++
	slog.Info("manual fire", "role", r, "cash", economy.FormatMoney(s.treasury.Cash))
	return res, nil
}

// SetPersona changes the CEO persona used from the next window on.
func (s *Simulation) SetPersona(name string) (decision.Persona, bool) {
	p, ok := decision.ParsePersona(name)
	if !ok {
		return s.Persona(), false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = p
	s.version++
	return p, true
}

// Persona returns the active CEO persona.
func (s *Simulation) Persona() decision.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona
}

// Clock returns the current in-game time.
func (s *Simulation) Clock() Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Version increases on every state change.
func (s *Simulation) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot is a read-only copy of the simulation state for renderers.
type Snapshot struct {
	Version uint64 `json:"version"`
	GameID  string `json:"game_id"` // new on every reset
	Day     int    `json:"day"`
	Tick    int    `json:"tick"`
	Phase   Phase  `json:"phase"`
	Paused  bool   `json:"paused"`

	Cash           decimal.Decimal `json:"cash"`
	FinancialTrend decimal.Decimal `json:"financial_trend"`

	Workers   int                  `json:"workers"`
	Roster    workforce.Roster     `json:"roster"`
	Employees []workforce.Employee `json:"employees"`

	Mood         float64         `json:"mood"`
	Productivity decimal.Decimal `json:"productivity"`
	ProductLevel int             `json:"product_level"`
	OfficeLevel  int             `json:"office_level"`
	Inventory    []string        `json:"inventory"`
	Effects      []Effect        `json:"effects"`

	ActiveEvents    []events.Event `json:"active_events"`
	YesterdayEvents []events.Event `json:"yesterday_events"`

	Pending    *decision.Decision `json:"pending_decision"`
	Lifecycle  Lifecycle          `json:"lifecycle"`
	Outcome    Outcome            `json:"outcome"`
	AIThinking bool               `json:"is_ai_thinking"`
	Persona    decision.Persona   `json:"persona"`

	Terminal []string `json:"terminal"`
}

// Snapshot copies the current state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Version:         s.version,
		GameID:          s.gameID,
		Day:             s.clock.Day,
		Tick:            s.clock.Tick,
		Phase:           s.clock.Phase,
		Paused:          s.paused,
		Cash:            s.treasury.Cash,
		FinancialTrend:  s.treasury.Cash.Sub(s.startOfDayCash),
		Workers:         s.workforce.Len(),
		Roster:          s.workforce.Roster(),
		Employees:       s.workforce.Employees(),
		Mood:            s.mood,
		Productivity:    s.productivity,
		ProductLevel:    s.productLevel,
		OfficeLevel:     s.officeLevel,
		Inventory:       append([]string{}, s.inventory...),
		Effects:         append([]Effect{}, s.effects...),
		ActiveEvents:    append([]events.Event{}, s.activeEvents...),
		YesterdayEvents: append([]events.Event{}, s.yesterdayEvents...),
		Lifecycle:       s.lifecycle,
		Outcome:         s.outcome,
		AIThinking:      s.lifecycle == LifecycleAwaiting,
		Persona:         s.persona,
		Terminal:        s.terminal.Lines(),
	}
	if s.pending != nil {
		d := *s.pending
		snap.Pending = &d
	}
	return snap
}
