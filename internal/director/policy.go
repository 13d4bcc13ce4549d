package director

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/entropy"
	"github.com/talgya/ceo-sim/internal/events"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// Policy is a rule-based director driven by the persona policy table.
// It needs no network access and is deterministic for a seeded source.
type Policy struct {
	Balance economy.Balance

	mu  sync.Mutex
	rng entropy.Source
}

// NewPolicy creates a policy director drawing from rng.
func NewPolicy(b economy.Balance, rng entropy.Source) *Policy {
	return &Policy{Balance: b, rng: rng}
}

type candidate struct {
	params decision.Params
	weight float64
	reason string
}

// Decide picks one affordable action, weighted by the persona's preferences
// and nudged by the company's situation.
func (p *Policy) Decide(ctx context.Context, c decision.Context) (decision.Decision, error) {
	if err := ctx.Err(); err != nil {
		return decision.Decision{}, err
	}

	pol := decision.PolicyFor(c.Persona)
	cands := p.candidates(pol, c)

	var total float64
	for _, cd := range cands {
		total += cd.weight
	}

	p.mu.Lock()
	roll := p.rng.Float64() * total
	p.mu.Unlock()

	chosen := cands[len(cands)-1]
	for _, cd := range cands {
		if roll < cd.weight {
			chosen = cd
			break
		}
		roll -= cd.weight
	}

	d := decision.New(chosen.params, chosen.reason, decision.RiskLow, p.Balance)
	d.Risk = assessRisk(d, c)
	return d, nil
}

func (p *Policy) candidates(pol decision.Policy, c decision.Context) []candidate {
	spendable := c.Cash.Mul(decimal.NewFromFloat(1 - pol.CashReserve))
	affordable := func(cost decimal.Decimal) bool {
		return cost.LessThanOrEqual(spendable)
	}
	losing := c.FinancialTrend.IsNegative()
	crisis := crisisKinds(c.ActiveEvents)

	// NONE is always available so the slice is never empty.
	cands := []candidate{{
		params: decision.NoParams{},
		weight: pol.Weights[decision.ActionNone],
		reason: "Holding steady. The numbers do not call for a move today.",
	}}

	if w := pol.Weights[decision.ActionHire]; w > 0 && affordable(p.Balance.HirePrice(1)) {
		role := hireRole(pol.Persona, c.Roster)
		if crisis[events.KindStaffAttrition] {
			w *= 2
		}
		if losing {
			w *= 0.5
		}
		cands = append(cands, candidate{
			params: decision.HireParams{Role: role, Count: 1},
			weight: w,
			reason: fmt.Sprintf("We need another %s to keep momentum.", role),
		})
	}

	if w := pol.Weights[decision.ActionFire]; w > 0 && c.Workers > 1 {
		role := fireRole(c.Roster)
		if c.Cash.GreaterThanOrEqual(p.Balance.SeverancePrice(1)) {
			if losing {
				w *= 2
			}
			cands = append(cands, candidate{
				params: decision.FireParams{Role: role, Count: 1},
				weight: w,
				reason: fmt.Sprintf("Burn is too high. One %s has to go.", role),
			})
		}
	}

	if w := pol.Weights[decision.ActionUpgrade]; w > 0 && affordable(decimal.NewFromFloat(p.Balance.UpgradeCost)) {
		for _, item := range pol.Upgrades {
			if c.Owns(item) {
				continue
			}
			if item == decision.ItemServerRack && crisis[events.KindOutage] {
				w *= 2
			}
			if item == decision.ItemPlants && c.Mood < 40 {
				w *= 2
			}
			cands = append(cands, candidate{
				params: decision.UpgradeParams{ItemID: item},
				weight: w,
				reason: fmt.Sprintf("Investing in %s pays for itself.", item),
			})
			break
		}
	}

	if w := pol.Weights[decision.ActionMarketing]; w > 0 && c.Roster.Dev > 0 &&
		affordable(decimal.NewFromFloat(p.Balance.MarketingCost)) {
		if crisis[events.KindMarketShock] {
			w *= 0.5
		}
		cands = append(cands, candidate{
			params: decision.MarketingParams{Budget: "HIGH", Channel: "SOCIAL"},
			weight: w,
			reason: "The product is ready. Time to make some noise.",
		})
	}

	if w := pol.Weights[decision.ActionPivot]; w > 0 && c.Day > 1 {
		if !losing {
			w *= 0.25
		}
		cands = append(cands, candidate{
			params: decision.PivotParams{NewSector: nextSector(c.ProductLevel)},
			weight: w,
			reason: "The market moved. We move with it.",
		})
	}

	return cands
}

// hireRole picks the most useful next hire for the persona.
func hireRole(persona decision.Persona, r workforce.Roster) workforce.Role {
	switch {
	case r.Dev == 0:
		return workforce.RoleDev
	case persona == decision.PersonaGrowthHacker && r.Sales <= r.Dev:
		return workforce.RoleSales
	case r.Sales*2 < r.Dev:
		return workforce.RoleSales
	case r.Support*4 < r.Dev+r.Sales && r.Dev > 2:
		return workforce.RoleSupport
	default:
		return workforce.RoleDev
	}
}

// fireRole picks the role that can best absorb a cut. The last developer
// is never targeted.
func fireRole(r workforce.Roster) workforce.Role {
	switch {
	case r.Support > 0 && r.Support >= r.Sales:
		return workforce.RoleSupport
	case r.Sales > 0:
		return workforce.RoleSales
	default:
		return workforce.RoleDev
	}
}

var sectors = []string{"AI-SaaS", "FinTech", "Developer Tools", "HealthTech", "Climate"}

func nextSector(level int) string {
	if level < 1 {
		level = 1
	}
	return sectors[(level-1)%len(sectors)]
}

// assessRisk labels a decision HIGH when it is irreversible or spends more
// than a fifth of the cash on hand.
func assessRisk(d decision.Decision, c decision.Context) decision.Risk {
	switch d.Action {
	case decision.ActionPivot, decision.ActionFire:
		return decision.RiskHigh
	}
	if c.Cash.IsPositive() && d.Amount.GreaterThan(c.Cash.Div(decimal.NewFromInt(5))) {
		return decision.RiskHigh
	}
	return decision.RiskLow
}

func crisisKinds(evs []events.Event) map[events.Kind]bool {
	m := make(map[events.Kind]bool, len(evs))
	for _, e := range evs {
		m[e.Kind] = true
	}
	return m
}
