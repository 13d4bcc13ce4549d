package economy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// neutralConditions leaves revenue unscaled: full mood, first office, no
// demand swing or effects.
func neutralConditions(b Balance) Conditions {
	return Conditions{
		Mood:         100,
		OfficeLevel:  1,
		Productivity: decimal.NewFromFloat(b.Productivity),
		ProductLevel: 1,
		Demand:       decimal.NewFromInt(1),
		Multiplier:   decimal.NewFromInt(1),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func oneDev() Staffing {
	return Staffing{Dev: 1, DevWeight: decimal.NewFromInt(1), SalesWeight: decimal.Zero}
}

func TestComputeTickDelta_SingleDevAtFullMood(t *testing.T) {
	b := DefaultBalance()
	c := neutralConditions(b)

	d := ComputeTickDelta(b, oneDev(), c)

	assert.True(t, d.Revenue.Equal(dec("3")), "revenue = %s", d.Revenue)
	assert.True(t, d.Cost.Equal(dec("2.5")), "cost = %s", d.Cost)
	assert.True(t, d.Net.Equal(dec("0.5")), "net = %s", d.Net)
}

func TestComputeTickDelta_ZeroWorkforcePaysRentOnly(t *testing.T) {
	b := DefaultBalance()
	c := neutralConditions(b)

	d := ComputeTickDelta(b, Staffing{}, c)

	assert.True(t, d.Revenue.IsZero())
	expectedCost := dec("100").Div(dec("60"))
	assert.True(t, d.Cost.Equal(expectedCost), "cost = %s", d.Cost)
	assert.True(t, d.Net.Equal(expectedCost.Neg()))
}

func TestComputeTickDelta_ZeroValueConditionsDoNotZeroRevenue(t *testing.T) {
	b := DefaultBalance()
	c := Conditions{Mood: 100, OfficeLevel: 1, Productivity: dec("10")}

	d := ComputeTickDelta(b, oneDev(), c)
	assert.True(t, d.Revenue.Equal(dec("3")), "revenue = %s", d.Revenue)
}

func TestMoodFactor_LinearFromFloor(t *testing.T) {
	b := DefaultBalance()
	tests := []struct {
		mood float64
		want string
	}{
		{0, "0.5"},
		{50, "0.75"},
		{100, "1"},
		{-10, "0.5"},
		{250, "1"},
	}
	for _, tc := range tests {
		got := MoodFactor(b, tc.mood)
		assert.True(t, got.Equal(dec(tc.want)), "mood %v: got %s want %s", tc.mood, got, tc.want)
	}
}

func TestComputeTickDelta_SalesAndSupportLiftRevenue(t *testing.T) {
	b := DefaultBalance()
	c := neutralConditions(b)

	base := ComputeTickDelta(b, oneDev(), c)

	withSales := oneDev()
	withSales.Sales = 2
	withSales.SalesWeight = dec("2")
	sales := ComputeTickDelta(b, withSales, c)
	// conversion 0.3 + 2*0.05 = 0.4
	assert.True(t, sales.Revenue.Equal(dec("4")), "revenue = %s", sales.Revenue)
	assert.True(t, sales.Revenue.GreaterThan(base.Revenue))

	withSupport := oneDev()
	withSupport.Support = 50 // bonus capped at 0.25
	support := ComputeTickDelta(b, withSupport, c)
	assert.True(t, support.Revenue.Equal(dec("3.75")), "revenue = %s", support.Revenue)
}

func TestComputeTickDelta_ModifiersScaleRevenue(t *testing.T) {
	b := DefaultBalance()
	c := neutralConditions(b)
	c.Multiplier = dec("2")
	c.ProductLevel = 3
	c.Demand = dec("0.5")

	d := ComputeTickDelta(b, oneDev(), c)
	// 3 * 2 * 1.2 * 0.5
	assert.True(t, d.Revenue.Equal(dec("3.6")), "revenue = %s", d.Revenue)
}

func TestOfficeLevelFor(t *testing.T) {
	b := DefaultBalance()
	tests := []struct {
		headcount int
		want      int
	}{
		{0, 1}, {4, 1}, {5, 2}, {15, 2}, {16, 3}, {40, 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, OfficeLevelFor(b, tc.headcount), "headcount %d", tc.headcount)
	}
}

func TestDailyRent_ClampsLevels(t *testing.T) {
	b := DefaultBalance()
	assert.True(t, DailyRent(b, 0).Equal(dec("100")))
	assert.True(t, DailyRent(b, 2).Equal(dec("300")))
	assert.True(t, DailyRent(b, 9).Equal(dec("800")))
}

func TestTreasury(t *testing.T) {
	tr := NewTreasury(dec("1000"))
	require.True(t, tr.CanAfford(dec("1000")))
	tr.Debit(dec("1200"))
	assert.True(t, tr.Cash.Equal(dec("-200")))
	assert.False(t, tr.CanAfford(dec("1")))
	tr.Apply(dec("250.5"))
	assert.True(t, tr.Cash.Equal(dec("50.5")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$50,000", FormatMoney(dec("50000")))
	assert.Equal(t, "$1,000.5", FormatMoney(dec("1000.5")))
	assert.Equal(t, "-$600", FormatMoney(dec("-600")))
}

func TestDemandCurve(t *testing.T) {
	flat := NewDemandCurve(7, 0)
	assert.True(t, flat.Factor(3).Equal(dec("1")))

	var nilCurve *DemandCurve
	assert.True(t, nilCurve.Factor(1).Equal(dec("1")))

	c := NewDemandCurve(7, 0.2)
	for day := 1; day <= 30; day++ {
		f := c.Factor(day)
		assert.True(t, f.GreaterThanOrEqual(dec("0.8")) && f.LessThanOrEqual(dec("1.2")), "day %d factor %s", day, f)
	}
	assert.True(t, c.Factor(5).Equal(NewDemandCurve(7, 0.2).Factor(5)), "curve must be deterministic per seed")
}
