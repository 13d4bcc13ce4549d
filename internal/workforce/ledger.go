package workforce

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/economy"
)

// Ledger validation errors. Every failed operation leaves state untouched.
var (
	ErrInvalidCount          = errors.New("invalid worker count")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrNoMatchingWorkers     = errors.New("no matching workers to fire")
	ErrCannotAffordSeverance = errors.New("cannot afford severance")
)

// Ledger applies hire and fire operations to a workforce and treasury.
type Ledger struct {
	Balance   economy.Balance
	Workforce *Workforce
	Treasury  *economy.Treasury

	// RollTrait picks the trait of each employee hired without one. Nil
	// hires NORMAL.
	RollTrait func() Trait
}

// HireResult describes a completed hire.
type HireResult struct {
	Role   Role
	Count  int
	Cost   decimal.Decimal
	Traits []Trait
}

// FireResult describes a completed fire. Count may be lower than requested.
type FireResult struct {
	Role      Role
	Requested int
	Count     int
	Cost      decimal.Decimal
}

// Hire adds count employees of role and debits the hiring cost. An empty
// trait is rolled per employee. The role must already be normalized (see
// ParseRole).
func (l *Ledger) Hire(role Role, count int, trait Trait) (HireResult, error) {
	if count < 1 {
		return HireResult{}, fmt.Errorf("hire %d %s: %w", count, role, ErrInvalidCount)
	}
	cost := l.Balance.HirePrice(count)
	if !l.Treasury.CanAfford(cost) {
		return HireResult{}, fmt.Errorf("hire %d %s for %s: %w", count, role, cost, ErrInsufficientFunds)
	}

	traits := make([]Trait, count)
	for i := range traits {
		switch {
		case trait != "":
			traits[i] = trait
		case l.RollTrait != nil:
			traits[i] = l.RollTrait()
		default:
			traits[i] = TraitNormal
		}
	}
	l.Workforce.add(role, traits)
	l.Treasury.Debit(cost)
	return HireResult{Role: role, Count: count, Cost: cost, Traits: traits}, nil
}

// Fire removes up to count employees of role, newest first, and debits
// severance for those actually let go. Requests above the available
// head count are capped silently.
func (l *Ledger) Fire(role Role, count int) (FireResult, error) {
	if count < 1 {
		return FireResult{}, fmt.Errorf("fire %d %s: %w", count, role, ErrInvalidCount)
	}
	available := l.Workforce.CountRole(role)
	if available == 0 {
		return FireResult{}, fmt.Errorf("fire %s: %w", role, ErrNoMatchingWorkers)
	}
	actual := count
	if actual > available {
		actual = available
	}
	cost := l.Balance.SeverancePrice(actual)
	if !l.Treasury.CanAfford(cost) {
		return FireResult{}, fmt.Errorf("fire %d %s for %s: %w", actual, role, cost, ErrCannotAffordSeverance)
	}

	l.Workforce.removeRole(role, actual)
	l.Treasury.Debit(cost)
	return FireResult{Role: role, Requested: count, Count: actual, Cost: cost}, nil
}
