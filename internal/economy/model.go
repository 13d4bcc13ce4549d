package economy

import (
	"github.com/shopspring/decimal"
)

// Staffing is the workforce as the economy sees it: head counts per role
// plus trait-weighted output for the producing roles.
type Staffing struct {
	Dev     int
	Sales   int
	Support int

	DevWeight   decimal.Decimal // Σ trait weight over DEV employees
	SalesWeight decimal.Decimal // Σ trait weight over SALES employees
}

// Headcount returns the total number of employees.
func (s Staffing) Headcount() int {
	return s.Dev + s.Sales + s.Support
}

// Conditions are the non-workforce inputs to one tick of the economy.
type Conditions struct {
	Mood         float64         // 0–100
	OfficeLevel  int             // 1–3
	Productivity decimal.Decimal // output per weighted developer
	ProductLevel int             // ≥1
	Demand       decimal.Decimal // market demand factor, 1 = neutral
	Multiplier   decimal.Decimal // product of active revenue effects
}

// Delta is the money movement of one operating tick.
type Delta struct {
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Net     decimal.Decimal `json:"net"`
}

// OfficeLevelFor derives the office tier from headcount.
func OfficeLevelFor(b Balance, headcount int) int {
	switch {
	case headcount >= b.OfficeLevel3At:
		return 3
	case headcount >= b.OfficeLevel2At:
		return 2
	default:
		return 1
	}
}

// DailyRent returns the rent for an office level. Out-of-range levels clamp.
func DailyRent(b Balance, level int) decimal.Decimal {
	switch {
	case level >= 3:
		return decimal.NewFromFloat(b.Rent.Level3)
	case level == 2:
		return decimal.NewFromFloat(b.Rent.Level2)
	default:
		return decimal.NewFromFloat(b.Rent.Level1)
	}
}

// DailyPayroll returns the summed daily salaries.
func DailyPayroll(b Balance, s Staffing) decimal.Decimal {
	dev := decimal.NewFromFloat(b.Salaries.Dev).Mul(decimal.NewFromInt(int64(s.Dev)))
	sales := decimal.NewFromFloat(b.Salaries.Sales).Mul(decimal.NewFromInt(int64(s.Sales)))
	support := decimal.NewFromFloat(b.Salaries.Support).Mul(decimal.NewFromInt(int64(s.Support)))
	return dev.Add(sales).Add(support)
}

// MoodFactor scales linearly from the floor at mood 0 to 1.0 at mood 100.
func MoodFactor(b Balance, mood float64) decimal.Decimal {
	if mood < 0 {
		mood = 0
	}
	if mood > 100 {
		mood = 100
	}
	floor := decimal.NewFromFloat(b.MoodFloor)
	span := decimal.NewFromInt(1).Sub(floor)
	return floor.Add(span.Mul(decimal.NewFromFloat(mood)).Div(decimal.NewFromInt(100)))
}

// ComputeTickDelta returns revenue, cost and net for one operating tick.
// Pure: the caller applies Net to the treasury.
func ComputeTickDelta(b Balance, s Staffing, c Conditions) Delta {
	ticks := decimal.NewFromInt(TicksPerDay)
	cost := DailyPayroll(b, s).Add(DailyRent(b, c.OfficeLevel)).Div(ticks)

	revenue := decimal.Zero
	if s.Dev > 0 {
		output := s.DevWeight.Mul(c.Productivity).Mul(MoodFactor(b, c.Mood))

		conversion := decimal.NewFromFloat(b.BaseConversion).
			Add(s.SalesWeight.Mul(decimal.NewFromFloat(b.SalesConversion)))

		bonus := decimal.NewFromFloat(b.SupportRetention).Mul(decimal.NewFromInt(int64(s.Support)))
		if limit := decimal.NewFromFloat(b.RetentionCap); bonus.GreaterThan(limit) {
			bonus = limit
		}
		retention := decimal.NewFromInt(1).Add(bonus)

		level := c.ProductLevel
		if level < 1 {
			level = 1
		}
		product := decimal.NewFromInt(1).Add(
			decimal.NewFromFloat(b.ProductLevelStep).Mul(decimal.NewFromInt(int64(level - 1))))

		revenue = output.Mul(conversion).Mul(retention).Mul(product).
			Mul(orOne(c.Demand)).Mul(orOne(c.Multiplier))
	}

	return Delta{
		Revenue: revenue,
		Cost:    cost,
		Net:     revenue.Sub(cost),
	}
}

// orOne treats an unset decimal as a neutral factor.
func orOne(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}
