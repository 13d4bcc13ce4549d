package events

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ceo-sim/internal/entropy"
)

func TestRollMinor_QuietAboveChance(t *testing.T) {
	rng := &entropy.Sequence{Values: []float64{0.05}}
	assert.Nil(t, RollMinor(rng, DefaultOdds()))
}

func TestRollMinor_CostWithinBounds(t *testing.T) {
	o := DefaultOdds()
	// trigger, catalog pick, cost pick
	rng := &entropy.Sequence{Values: []float64{0.01, 0.0, 0.999}}
	ev := RollMinor(rng, o)
	require.NotNil(t, ev)
	assert.Equal(t, KindExpense, ev.Kind)
	assert.Equal(t, "SERVER BILL SPIKE", ev.Name)
	assert.True(t, ev.Cost.Equal(decimal.NewFromInt(200)), "cost %s", ev.Cost)

	rng = &entropy.Sequence{Values: []float64{0.01, 0.5, 0.0}}
	ev = RollMinor(rng, o)
	require.NotNil(t, ev)
	assert.True(t, ev.Cost.Equal(decimal.NewFromInt(20)), "cost %s", ev.Cost)
}

func TestRollMinor_FrequencyNearFivePercent(t *testing.T) {
	rng := entropy.NewSeeded(1)
	o := DefaultOdds()
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if ev := RollMinor(rng, o); ev != nil {
			hits++
			assert.True(t, ev.Cost.GreaterThanOrEqual(decimal.NewFromInt(20)))
			assert.True(t, ev.Cost.LessThanOrEqual(decimal.NewFromInt(200)))
		}
	}
	rate := float64(hits) / n
	assert.InDelta(t, 0.05, rate, 0.01)
}

func TestRollCrisis_LowMoodRaisesOdds(t *testing.T) {
	o := DefaultOdds()
	// 0.3 misses the 25% base chance but hits the 45% low-mood chance.
	calm := RollCrisis(&entropy.Sequence{Values: []float64{0.3}}, o, CrisisInput{Mood: 80})
	assert.Nil(t, calm)

	rng := &entropy.Sequence{Values: []float64{0.3, 0.0, 0.9}}
	ev := RollCrisis(rng, o, CrisisInput{Mood: 10})
	require.NotNil(t, ev)
	assert.Equal(t, KindOutage, ev.Kind)
	assert.Equal(t, SeverityLow, ev.Severity)
	assert.True(t, ev.Cost.IsZero())
}

func TestRollCrisis_ServerRackSuppressesOutages(t *testing.T) {
	o := DefaultOdds()
	for i := 0; i < 200; i++ {
		ev := RollCrisis(entropy.NewSeeded(int64(i)), o, CrisisInput{Mood: 100, OutageProtected: true})
		if ev != nil {
			assert.NotEqual(t, KindOutage, ev.Kind)
		}
	}
}

func TestRollCrisis_HighSeverity(t *testing.T) {
	rng := &entropy.Sequence{Values: []float64{0.0, 0.99, 0.1}}
	ev := RollCrisis(rng, DefaultOdds(), CrisisInput{Mood: 100})
	require.NotNil(t, ev)
	assert.Equal(t, KindStaffAttrition, ev.Kind)
	assert.Equal(t, SeverityHigh, ev.Severity)
}
