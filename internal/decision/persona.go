package decision

import (
	"strings"
)

// Persona names a CEO behavioural policy.
type Persona string

const (
	PersonaVisionary    Persona = "VISIONARY"
	PersonaBeanCounter  Persona = "BEAN_COUNTER"
	PersonaGrowthHacker Persona = "GROWTH_HACKER"
	PersonaEngineer     Persona = "ENGINEER"
)

// Policy is a persona's bias over actions. Weights need not sum to 1.
type Policy struct {
	Persona     Persona            `json:"persona"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Weights     map[Action]float64 `json:"weights"`
	// CashReserve is the share of cash the persona refuses to spend.
	CashReserve float64 `json:"cash_reserve"`
	// Upgrades in order of preference.
	Upgrades []string `json:"upgrades"`
}

var policies = map[Persona]Policy{
	PersonaVisionary: {
		Persona:     PersonaVisionary,
		Title:       "Visionary",
		Description: "Bets on the long game. Loves bold pivots and big launches, tolerates burn.",
		Weights: map[Action]float64{
			ActionHire: 3, ActionFire: 0.5, ActionUpgrade: 1, ActionMarketing: 2.5, ActionPivot: 1.5, ActionNone: 1,
		},
		CashReserve: 0.1,
		Upgrades:    []string{ItemServerRack, ItemCoffeeMachine, ItemPlants},
	},
	PersonaBeanCounter: {
		Persona:     PersonaBeanCounter,
		Title:       "Bean Counter",
		Description: "Protects runway above all. Cuts costs early, rarely spends on hype.",
		Weights: map[Action]float64{
			ActionHire: 0.5, ActionFire: 2, ActionUpgrade: 1, ActionMarketing: 0.25, ActionPivot: 0.1, ActionNone: 4,
		},
		CashReserve: 0.5,
		Upgrades:    []string{ItemCoffeeMachine, ItemPlants, ItemServerRack},
	},
	PersonaGrowthHacker: {
		Persona:     PersonaGrowthHacker,
		Title:       "Growth Hacker",
		Description: "Optimizes for revenue this week. Hires sales and pushes marketing hard.",
		Weights: map[Action]float64{
			ActionHire: 3, ActionFire: 0.5, ActionUpgrade: 0.5, ActionMarketing: 4, ActionPivot: 0.5, ActionNone: 0.5,
		},
		CashReserve: 0.2,
		Upgrades:    []string{ItemCoffeeMachine, ItemServerRack, ItemPlants},
	},
	PersonaEngineer: {
		Persona:     PersonaEngineer,
		Title:       "Engineer",
		Description: "Builds a stable product with a happy dev team. Prefers tooling to marketing.",
		Weights: map[Action]float64{
			ActionHire: 2, ActionFire: 0.5, ActionUpgrade: 3, ActionMarketing: 0.5, ActionPivot: 0.25, ActionNone: 1.5,
		},
		CashReserve: 0.3,
		Upgrades:    []string{ItemServerRack, ItemCoffeeMachine, ItemPlants},
	},
}

// ParsePersona resolves a persona name case-insensitively, accepting
// spaces and dashes. Unknown names fall back to the Visionary.
func ParsePersona(s string) (Persona, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if _, ok := policies[Persona(norm)]; ok {
		return Persona(norm), true
	}
	return PersonaVisionary, false
}

// PolicyFor returns the policy table entry for a persona.
func PolicyFor(p Persona) Policy {
	if pol, ok := policies[p]; ok {
		return pol
	}
	return policies[PersonaVisionary]
}

// Personas lists all personas in a stable order.
func Personas() []Persona {
	return []Persona{PersonaVisionary, PersonaBeanCounter, PersonaGrowthHacker, PersonaEngineer}
}
