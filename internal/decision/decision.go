// Package decision defines the strategic decision record exchanged between
// the decision service and the engine.
package decision

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// Action is the kind of strategic move.
type Action string

const (
	ActionHire      Action = "HIRE_WORKER"
	ActionFire      Action = "FIRE_WORKER"
	ActionUpgrade   Action = "BUY_UPGRADE"
	ActionMarketing Action = "MARKETING_PUSH"
	ActionPivot     Action = "PIVOT"
	ActionNone      Action = "NONE"
)

// Actions lists every recognized action.
var Actions = []Action{ActionHire, ActionFire, ActionUpgrade, ActionMarketing, ActionPivot, ActionNone}

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Risk is the service's own risk label.
type Risk string

const (
	RiskLow  Risk = "LOW"
	RiskHigh Risk = "HIGH"
)

// Upgrade item ids.
const (
	ItemCoffeeMachine = "coffee_machine"
	ItemServerRack    = "server_rack_v2"
	ItemPlants        = "plants"
)

// Params is the action-specific payload. Exactly one concrete type exists
// per Action; the unexported method seals the set.
type Params interface {
	action() Action
}

// HireParams is the payload of HIRE_WORKER. An empty Trait leaves the
// pick to the hiring roll.
type HireParams struct {
	Role  workforce.Role  `json:"role"`
	Count int             `json:"count"`
	Trait workforce.Trait `json:"trait,omitempty"`
}

// FireParams is the payload of FIRE_WORKER.
type FireParams struct {
	Role  workforce.Role `json:"role"`
	Count int            `json:"count"`
}

// UpgradeParams is the payload of BUY_UPGRADE.
type UpgradeParams struct {
	ItemID string `json:"item_id"`
}

// MarketingParams is the payload of MARKETING_PUSH.
type MarketingParams struct {
	Budget  string `json:"budget"`
	Channel string `json:"channel,omitempty"`
}

// PivotParams is the payload of PIVOT.
type PivotParams struct {
	NewSector string `json:"new_sector,omitempty"`
}

// NoParams is the payload of NONE.
type NoParams struct{}

func (HireParams) action() Action      { return ActionHire }
func (FireParams) action() Action      { return ActionFire }
func (UpgradeParams) action() Action   { return ActionUpgrade }
func (MarketingParams) action() Action { return ActionMarketing }
func (PivotParams) action() Action     { return ActionPivot }
func (NoParams) action() Action        { return ActionNone }

// Decision is one proposed strategic move.
type Decision struct {
	Action    Action
	Params    Params
	Amount    decimal.Decimal
	Reasoning string
	Risk      Risk
	Title     string
}

// Fallback is the safe decision substituted for any service failure.
func Fallback(reason string) Decision {
	if reason == "" {
		reason = "Decision service unavailable. The day ends without a strategic move."
	}
	return Decision{
		Action:    ActionNone,
		Params:    NoParams{},
		Amount:    decimal.Zero,
		Reasoning: reason,
		Risk:      RiskLow,
		Title:     "No action",
	}
}

// New builds a priced decision from typed params.
func New(p Params, reasoning string, risk Risk, b economy.Balance) Decision {
	if p == nil {
		p = NoParams{}
	}
	d := Decision{
		Action:    p.action(),
		Params:    p,
		Reasoning: reasoning,
		Risk:      risk,
	}
	d.Amount, d.Title = price(p, b)
	return d
}

// price derives the up-front cost and a display title.
func price(p Params, b economy.Balance) (decimal.Decimal, string) {
	switch v := p.(type) {
	case HireParams:
		return b.HirePrice(v.Count), fmt.Sprintf("Hire %d %s(s)", v.Count, v.Role)
	case FireParams:
		return b.SeverancePrice(v.Count), fmt.Sprintf("Fire %d %s(s)", v.Count, v.Role)
	case UpgradeParams:
		return decimal.NewFromFloat(b.UpgradeCost), "Buy Upgrade: " + v.ItemID
	case MarketingParams:
		return decimal.NewFromFloat(b.MarketingCost), "Launch Marketing Push"
	case PivotParams:
		return decimal.Zero, "Pivot Strategy"
	default:
		return decimal.Zero, "No action"
	}
}
