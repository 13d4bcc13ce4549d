// Package events rolls the random disruptions that hit the company: small
// per-tick expenses and rarer daily crises that the CEO has to reason about.
package events

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/entropy"
)

// Kind identifies an event family.
type Kind string

const (
	KindExpense          Kind = "EXPENSE"
	KindOutage           Kind = "OUTAGE"
	KindSecurityIncident Kind = "SECURITY_INCIDENT"
	KindMarketShock      Kind = "MARKET_SHOCK"
	KindStaffAttrition   Kind = "STAFF_ATTRITION"
)

// Severity grades a crisis.
type Severity string

const (
	SeverityLow  Severity = "LOW"
	SeverityHigh Severity = "HIGH"
)

// Event is a single disruption. Cost is only set for minor expenses; crises
// are context for the decision service and carry no automatic cost.
type Event struct {
	Kind        Kind            `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	Cost        decimal.Decimal `json:"cost"`
	Day         int             `json:"day"`
	Tick        int             `json:"tick"`
}

// Odds holds the event probabilities and magnitudes.
type Odds struct {
	MinorChance  float64 `yaml:"minor_chance" json:"minor_chance"`
	MinorMinCost int     `yaml:"minor_min_cost" json:"minor_min_cost"`
	MinorMaxCost int     `yaml:"minor_max_cost" json:"minor_max_cost"`

	CrisisChance       float64 `yaml:"crisis_chance" json:"crisis_chance"`
	LowMoodCrisisBonus float64 `yaml:"low_mood_crisis_bonus" json:"low_mood_crisis_bonus"`
	LowMoodThreshold   float64 `yaml:"low_mood_threshold" json:"low_mood_threshold"`
	HighSeverityChance float64 `yaml:"high_severity_chance" json:"high_severity_chance"`
}

// DefaultOdds returns the stock probabilities.
func DefaultOdds() Odds {
	return Odds{
		MinorChance:        0.05,
		MinorMinCost:       20,
		MinorMaxCost:       200,
		CrisisChance:       0.25,
		LowMoodCrisisBonus: 0.20,
		LowMoodThreshold:   30,
		HighSeverityChance: 0.3,
	}
}

var minorCatalog = []string{
	"SERVER BILL SPIKE",
	"LICENSE RENEWAL",
	"COFFEE MACHINE REPAIR",
	"CLOUD EGRESS OVERAGE",
	"OFFICE SUPPLIES",
}

type crisisSpec struct {
	kind        Kind
	name        string
	description string
}

var crisisCatalog = []crisisSpec{
	{KindOutage, "PRODUCTION OUTAGE", "The main service is down and customers are noticing."},
	{KindSecurityIncident, "SECURITY INCIDENT", "Suspicious access detected on an admin account."},
	{KindMarketShock, "MARKET SHOCK", "A competitor launched a cheaper clone of the product."},
	{KindStaffAttrition, "STAFF ATTRITION", "Recruiters are circling and key people are interviewing elsewhere."},
}

// RollMinor rolls the per-tick expense event. Returns nil most ticks.
// Each call is independent: there is no cooldown and at most one event.
func RollMinor(rng entropy.Source, o Odds) *Event {
	if rng.Float64() >= o.MinorChance {
		return nil
	}
	name := minorCatalog[rng.Intn(len(minorCatalog))]
	span := o.MinorMaxCost - o.MinorMinCost
	cost := o.MinorMinCost
	if span > 0 {
		cost += rng.Intn(span + 1)
	}
	return &Event{
		Kind:     KindExpense,
		Name:     name,
		Severity: SeverityLow,
		Cost:     decimal.NewFromInt(int64(cost)),
	}
}

// CrisisInput is the company state that shifts crisis odds.
type CrisisInput struct {
	Mood            float64
	OutageProtected bool // owns redundant servers
}

// RollCrisis rolls the once-per-day crisis. Returns nil when the day is calm.
func RollCrisis(rng entropy.Source, o Odds, in CrisisInput) *Event {
	chance := o.CrisisChance
	if in.Mood < o.LowMoodThreshold {
		chance += o.LowMoodCrisisBonus
	}
	if rng.Float64() >= chance {
		return nil
	}

	pool := crisisCatalog
	if in.OutageProtected {
		pool = pool[1:]
	}
	pick := pool[rng.Intn(len(pool))]

	sev := SeverityLow
	if rng.Float64() < o.HighSeverityChance {
		sev = SeverityHigh
	}
	return &Event{
		Kind:        pick.kind,
		Name:        pick.name,
		Description: pick.description,
		Severity:    sev,
		Cost:        decimal.Zero,
	}
}
