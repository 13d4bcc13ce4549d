package autopilot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/engine"
)

// Verdict actions.
const (
	VerdictNone    = "none"
	VerdictVeto    = "veto"
	VerdictConfirm = "confirm"
)

// Rules bound what the board lets the CEO do.
type Rules struct {
	// MaxCashShare is the largest fraction of cash a HIGH risk decision may
	// commit before it is vetoed.
	MaxCashShare float64
	// MoodFloor: firing below this mood is vetoed.
	MoodFloor float64
	// Confirm approves anything not vetoed instead of waiting for the
	// deadline.
	Confirm bool
}

// DefaultRules returns the stock board rules.
func DefaultRules() Rules {
	return Rules{MaxCashShare: 0.2, MoodFloor: 40}
}

// Verdict is the board's answer to one pending decision.
type Verdict struct {
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
	GameID    string `json:"game_id"`
	Day       int    `json:"day"`
	Title     string `json:"title"`
}

// Decide looks at the pending decision, if any, and returns a verdict.
func Decide(obs *Observation, h *Health, r Rules) Verdict {
	st := obs.State
	v := Verdict{Action: VerdictNone, GameID: st.GameID, Day: st.Day}
	if st.Lifecycle != engine.LifecyclePending || st.Pending == nil {
		v.Rationale = "nothing pending"
		return v
	}
	d := st.Pending
	v.Title = d.Title

	limit := st.Cash.Mul(decimal.NewFromFloat(r.MaxCashShare))
	switch {
	case d.Risk == decision.RiskHigh && d.Amount.GreaterThan(limit):
		v.Action = VerdictVeto
		v.Rationale = fmt.Sprintf("high risk spend %s exceeds %s", economy.FormatMoney(d.Amount), economy.FormatMoney(limit))
	case d.Action == decision.ActionFire && st.Mood < r.MoodFloor:
		v.Action = VerdictVeto
		v.Rationale = fmt.Sprintf("mood %.0f below floor %.0f, no layoffs", st.Mood, r.MoodFloor)
	case h.CrisisLevel == LevelCritical && d.Action != decision.ActionFire && d.Amount.IsPositive():
		v.Action = VerdictVeto
		v.Rationale = fmt.Sprintf("runway %d days, freezing spend", h.RunwayDays)
	case r.Confirm:
		v.Action = VerdictConfirm
		v.Rationale = "within board limits"
	default:
		v.Rationale = "within board limits, letting the deadline apply it"
	}
	return v
}
