// Package economy computes per-tick revenue and burn for the company.
// All money is decimal; the coefficients below are game-balance knobs.
package economy

import "github.com/shopspring/decimal"

// TicksPerDay is the number of simulation ticks in one in-game day.
const TicksPerDay = 60

// Default balance constants.
const (
	DefaultDevSalary     = 50.0
	DefaultSalesSalary   = 40.0
	DefaultSupportSalary = 30.0

	DefaultRentLevel1 = 100.0
	DefaultRentLevel2 = 300.0
	DefaultRentLevel3 = 800.0

	DefaultOfficeLevel2At = 5
	DefaultOfficeLevel3At = 16

	DefaultHireCost    = 500.0
	DefaultSeverance   = 200.0
	DefaultVetoPenalty = 100.0

	DefaultBaseConversion   = 0.3
	DefaultSalesConversion  = 0.05
	DefaultSupportRetention = 0.02
	DefaultRetentionCap     = 0.25
	DefaultMoodFloor        = 0.5
	DefaultProductLevelStep = 0.1

	DefaultProductivity = 10.0

	Default10XOdds    = 0.05
	DefaultToxicOdds  = 0.10
	DefaultJuniorOdds = 0.15

	DefaultUpgradeCost         = 2000.0
	DefaultMarketingCost       = 5000.0
	DefaultMarketingMultiplier = 2.0
	DefaultMarketingTicks      = TicksPerDay
	DefaultPivotMultiplier     = 0.5
	DefaultPivotTicks          = 2 * TicksPerDay

	DefaultStartingCash = 50000.0
)

// Balance holds every tunable economy coefficient. Zero values are not
// meaningful; start from DefaultBalance and override.
type Balance struct {
	Salaries struct {
		Dev     float64 `yaml:"dev" json:"dev"`
		Sales   float64 `yaml:"sales" json:"sales"`
		Support float64 `yaml:"support" json:"support"`
	} `yaml:"salaries" json:"salaries"`

	Rent struct {
		Level1 float64 `yaml:"level_1" json:"level_1"`
		Level2 float64 `yaml:"level_2" json:"level_2"`
		Level3 float64 `yaml:"level_3" json:"level_3"`
	} `yaml:"rent" json:"rent"`

	OfficeLevel2At int `yaml:"office_level_2_at" json:"office_level_2_at"`
	OfficeLevel3At int `yaml:"office_level_3_at" json:"office_level_3_at"`

	HireCost    float64 `yaml:"hire_cost" json:"hire_cost"`
	Severance   float64 `yaml:"severance" json:"severance"`
	VetoPenalty float64 `yaml:"veto_penalty" json:"veto_penalty"`

	BaseConversion   float64 `yaml:"base_conversion" json:"base_conversion"`
	SalesConversion  float64 `yaml:"sales_conversion" json:"sales_conversion"`
	SupportRetention float64 `yaml:"support_retention" json:"support_retention"`
	RetentionCap     float64 `yaml:"retention_cap" json:"retention_cap"`
	MoodFloor        float64 `yaml:"mood_floor" json:"mood_floor"`
	ProductLevelStep float64 `yaml:"product_level_step" json:"product_level_step"`

	// TraitWeights scales an employee's contribution by trait name.
	TraitWeights map[string]float64 `yaml:"trait_weights" json:"trait_weights"`
	// TraitOdds is the chance a new hire without a requested trait gets
	// each one. The remainder hires NORMAL.
	TraitOdds map[string]float64 `yaml:"trait_odds" json:"trait_odds"`

	Productivity float64 `yaml:"productivity" json:"productivity"`
	StartingCash float64 `yaml:"starting_cash" json:"starting_cash"`

	UpgradeCost         float64 `yaml:"upgrade_cost" json:"upgrade_cost"`
	MarketingCost       float64 `yaml:"marketing_cost" json:"marketing_cost"`
	MarketingMultiplier float64 `yaml:"marketing_multiplier" json:"marketing_multiplier"`
	MarketingTicks      int     `yaml:"marketing_ticks" json:"marketing_ticks"`
	PivotMultiplier     float64 `yaml:"pivot_multiplier" json:"pivot_multiplier"`
	PivotTicks          int     `yaml:"pivot_ticks" json:"pivot_ticks"`

	// DemandAmplitude > 0 enables the noise-driven demand curve.
	DemandAmplitude float64 `yaml:"demand_amplitude" json:"demand_amplitude"`
}

// DefaultBalance returns the stock game balance.
func DefaultBalance() Balance {
	var b Balance
	b.Salaries.Dev = DefaultDevSalary
	b.Salaries.Sales = DefaultSalesSalary
	b.Salaries.Support = DefaultSupportSalary
	b.Rent.Level1 = DefaultRentLevel1
	b.Rent.Level2 = DefaultRentLevel2
	b.Rent.Level3 = DefaultRentLevel3
	b.OfficeLevel2At = DefaultOfficeLevel2At
	b.OfficeLevel3At = DefaultOfficeLevel3At
	b.HireCost = DefaultHireCost
	b.Severance = DefaultSeverance
	b.VetoPenalty = DefaultVetoPenalty
	b.BaseConversion = DefaultBaseConversion
	b.SalesConversion = DefaultSalesConversion
	b.SupportRetention = DefaultSupportRetention
	b.RetentionCap = DefaultRetentionCap
	b.MoodFloor = DefaultMoodFloor
	b.ProductLevelStep = DefaultProductLevelStep
	b.TraitWeights = map[string]float64{
		"NORMAL":       1,
		"10X_ENGINEER": 3,
		"TOXIC":        0.8,
		"JUNIOR":       0.5,
	}
	b.TraitOdds = map[string]float64{
		"10X_ENGINEER": Default10XOdds,
		"TOXIC":        DefaultToxicOdds,
		"JUNIOR":       DefaultJuniorOdds,
	}
	b.Productivity = DefaultProductivity
	b.StartingCash = DefaultStartingCash
	b.UpgradeCost = DefaultUpgradeCost
	b.MarketingCost = DefaultMarketingCost
	b.MarketingMultiplier = DefaultMarketingMultiplier
	b.MarketingTicks = DefaultMarketingTicks
	b.PivotMultiplier = DefaultPivotMultiplier
	b.PivotTicks = DefaultPivotTicks
	return b
}

// TraitWeight returns the output weight for a trait. Unknown traits weigh 1.
func (b Balance) TraitWeight(trait string) decimal.Decimal {
	if w, ok := b.TraitWeights[trait]; ok {
		return decimal.NewFromFloat(w)
	}
	return decimal.NewFromInt(1)
}

// HirePrice is the one-off cost of hiring count employees.
func (b Balance) HirePrice(count int) decimal.Decimal {
	return decimal.NewFromFloat(b.HireCost).Mul(decimal.NewFromInt(int64(count)))
}

// SeverancePrice is the cost of letting count employees go.
func (b Balance) SeverancePrice(count int) decimal.Decimal {
	return decimal.NewFromFloat(b.Severance).Mul(decimal.NewFromInt(int64(count)))
}
