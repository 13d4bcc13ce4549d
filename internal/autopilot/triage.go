package autopilot

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/events"
)

// Crisis levels, most severe first.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
	LevelWatch    = "WATCH"
	LevelHealthy  = "HEALTHY"
)

// Health holds derived signals computed from an Observation.
// Runs before Decide: deterministic and free.
type Health struct {
	Cash        decimal.Decimal
	DailyNet    decimal.Decimal // average closing-cash change over recent days
	RunwayDays  int             // -1 when not burning
	LosingDays  int             // consecutive recent days with falling cash
	Mood        float64
	OpenCrises  int
	CrisisLevel string
}

// Triage computes Health from the observation.
func Triage(obs *Observation) *Health {
	h := &Health{
		Cash:       obs.State.Cash,
		DailyNet:   decimal.Zero,
		RunwayDays: -1,
		Mood:       obs.State.Mood,
	}
	for _, e := range obs.State.ActiveEvents {
		if e.Kind != events.KindExpense {
			h.OpenCrises++
		}
	}

	// History is newest first. Use consecutive pairs for the daily delta.
	if n := len(obs.History); n >= 2 {
		total := decimal.Zero
		streak := true
		for i := 0; i < n-1; i++ {
			delta := obs.History[i].ClosingCash.Sub(obs.History[i+1].ClosingCash)
			total = total.Add(delta)
			if streak && delta.IsNegative() {
				h.LosingDays++
			} else {
				streak = false
			}
		}
		h.DailyNet = total.Div(decimal.NewFromInt(int64(n - 1)))
	} else if obs.State.FinancialTrend.IsNegative() {
		h.DailyNet = obs.State.FinancialTrend
	}

	if h.DailyNet.IsNegative() {
		h.RunwayDays = int(h.Cash.Div(h.DailyNet.Neg()).IntPart())
	}

	h.CrisisLevel = LevelHealthy
	switch {
	case h.Cash.IsNegative(), h.RunwayDays >= 0 && h.RunwayDays < 3:
		h.CrisisLevel = LevelCritical
	case h.RunwayDays >= 0 && h.RunwayDays < 10, h.Mood < 30:
		h.CrisisLevel = LevelWarning
	case h.LosingDays >= 2, h.OpenCrises > 0:
		h.CrisisLevel = LevelWatch
	}
	return h
}
