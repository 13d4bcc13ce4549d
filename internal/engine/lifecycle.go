package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// Command errors. None of them leaves partial state behind.
var (
	ErrNoPendingDecision = errors.New("no pending decision")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")
	ErrAlreadyOwned      = errors.New("upgrade already owned")
	ErrUnknownAction     = errors.New("unknown action")
)

// Effect names.
const (
	EffectMarketing = "MARKETING PUSH"
	EffectPivot     = "PIVOT SLUMP"
)

// Mood changes from decisions.
const (
	FireMoodPenalty  = 20.0
	PivotMoodPenalty = 30.0
	PlantsMoodBoost  = 15.0
	CoffeeBoost      = 2.0
)

// Veto discards the pending decision and charges the veto penalty. The
// window keeps running until the deadline. Vetoing twice is the same as
// vetoing once: the second call returns ErrNoPendingDecision.
func (s *Simulation) Veto() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != LifecyclePending || s.pending == nil {
		return ErrNoPendingDecision
	}

	title := s.pending.Title
	s.pending = nil
	s.lifecycle = LifecycleResolved
	s.outcome = OutcomeVetoed

	penalty := decimal.NewFromFloat(s.balance.VetoPenalty)
	s.treasury.Debit(penalty)
	s.log(fmt.Sprintf("> VETOED: %s. PENALTY -%s", title, economy.FormatMoney(penalty)))
	s.version++
	slog.Info("decision vetoed", "day", s.clock.Day, "title", title)
	return nil
}

// Confirm applies the pending decision now. The day rolls over on the
// next Advance.
func (s *Simulation) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != LifecyclePending || s.pending == nil {
		return ErrNoPendingDecision
	}
	s.log(fmt.Sprintf("> CONFIRMED: %s", s.pending.Title))
	s.resolveLocked(OutcomeApplied)
	s.closeEarly = true
	s.version++
	return nil
}

// resolveLocked consumes the pending decision exactly once.
func (s *Simulation) resolveLocked(outcome Outcome) {
	d := *s.pending
	s.pending = nil
	s.lifecycle = LifecycleResolved
	s.outcome = outcome

	if outcome != OutcomeApplied {
		return
	}
	if err := s.applyLocked(d); err != nil {
		s.outcome = OutcomeRejected
		slog.Warn("decision rejected", "day", s.clock.Day, "action", d.Action, "error", err)
		return
	}
	slog.Info("decision applied", "day", s.clock.Day, "action", d.Action, "amount", d.Amount)
}

// applyLocked dispatches a decision by its parameter type. Failures are
// logged to the terminal and leave state unchanged.
func (s *Simulation) applyLocked(d decision.Decision) error {
	switch p := d.Params.(type) {
	case decision.HireParams:
		res, err := s.ledger.Hire(p.Role, p.Count, p.Trait)
		if err != nil {
			s.logLedgerError(err)
			return err
		}
		s.logHire(res)

	case decision.FireParams:
		res, err := s.ledger.Fire(p.Role, p.Count)
		if err != nil {
			s.logLedgerError(err)
			return err
		}
		s.adjustMoodLocked(-FireMoodPenalty)
		s.log(fmt.Sprintf("> FIRED %d %s. -%s", res.Count, res.Role, economy.FormatMoney(res.Cost)))

	case decision.UpgradeParams:
		return s.buyUpgradeLocked(p.ItemID)

	case decision.MarketingParams:
		cost := decimal.NewFromFloat(s.balance.MarketingCost)
		if !s.treasury.CanAfford(cost) {
			s.log(MsgInsufficientFunds)
			return fmt.Errorf("marketing push for %s: %w", cost, workforce.ErrInsufficientFunds)
		}
		s.treasury.Debit(cost)
		s.effects = append(s.effects, Effect{
			Name:       EffectMarketing,
			Multiplier: decimal.NewFromFloat(s.balance.MarketingMultiplier),
			Remaining:  s.balance.MarketingTicks,
		})
		s.log(fmt.Sprintf("> MARKETING PUSH LAUNCHED. -%s", economy.FormatMoney(cost)))

	case decision.PivotParams:
		s.effects = append(s.effects, Effect{
			Name:       EffectPivot,
			Multiplier: decimal.NewFromFloat(s.balance.PivotMultiplier),
			Remaining:  s.balance.PivotTicks,
		})
		s.adjustMoodLocked(-PivotMoodPenalty)
		s.productLevel++
		sector := p.NewSector
		if sector == "" {
			sector = "A NEW MARKET"
		}
		s.log(fmt.Sprintf("> PIVOT TO %s. PRODUCT V%d.", sector, s.productLevel))

	case decision.NoParams:
		s.log("> CEO HOLDS POSITION.")

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, d.Params)
	}
	return nil
}

func (s *Simulation) buyUpgradeLocked(item string) error {
	switch item {
	case decision.ItemCoffeeMachine, decision.ItemServerRack, decision.ItemPlants:
	default:
		s.log(fmt.Sprintf("> ERROR: UNKNOWN UPGRADE %q.", item))
		return fmt.Errorf("%w: %q", ErrUnknownUpgrade, item)
	}
	if s.ownsLocked(item) {
		s.log("> ERROR: UPGRADE ALREADY OWNED.")
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, item)
	}
	cost := decimal.NewFromFloat(s.balance.UpgradeCost)
	if !s.treasury.CanAfford(cost) {
		s.log(MsgInsufficientFunds)
		return fmt.Errorf("upgrade %s for %s: %w", item, cost, workforce.ErrInsufficientFunds)
	}

	s.treasury.Debit(cost)
	s.inventory = append(s.inventory, item)
	switch item {
	case decision.ItemCoffeeMachine:
		s.productivity = s.productivity.Add(decimal.NewFromFloat(CoffeeBoost))
	case decision.ItemPlants:
		s.adjustMoodLocked(PlantsMoodBoost)
	}
	// server_rack_v2 is checked when the crisis is rolled.
	s.log(fmt.Sprintf("> INSTALLED %s. -%s", item, economy.FormatMoney(cost)))
	return nil
}

func (s *Simulation) ownsLocked(item string) bool {
	for _, it := range s.inventory {
		if it == item {
			return true
		}
	}
	return false
}

func (s *Simulation) adjustMoodLocked(delta float64) {
	s.mood += delta
	if s.mood < 0 {
		s.mood = 0
	}
	if s.mood > 100 {
		s.mood = 100
	}
}

// logHire writes the hire line, calling out any hire that is not NORMAL.
func (s *Simulation) logHire(res workforce.HireResult) {
	line := fmt.Sprintf("> HIRED %d %s. -%s", res.Count, res.Role, economy.FormatMoney(res.Cost))
	var notable []string
	for _, t := range res.Traits {
		if t != workforce.TraitNormal {
			notable = append(notable, string(t))
		}
	}
	if len(notable) > 0 {
		line += " " + strings.Join(notable, ", ") + "!"
	}
	s.log(line)
}

// logLedgerError maps ledger failures onto terminal lines.
func (s *Simulation) logLedgerError(err error) {
	switch {
	case errors.Is(err, workforce.ErrInvalidCount):
		s.log(MsgInvalidCount)
	case errors.Is(err, workforce.ErrInsufficientFunds):
		s.log(MsgInsufficientFunds)
	case errors.Is(err, workforce.ErrNoMatchingWorkers):
		s.log(MsgNoMatchingWorkers)
	case errors.Is(err, workforce.ErrCannotAffordSeverance):
		s.log(MsgCannotAffordSeverance)
	default:
		s.log("> ERROR: " + err.Error())
	}
}
