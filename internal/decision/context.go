package decision

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/events"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// Context is the company snapshot handed to the decision service.
type Context struct {
	Cash            decimal.Decimal         `json:"cash"`
	FinancialTrend  decimal.Decimal         `json:"financial_trend"`
	Workers         int                     `json:"workers"`
	Roster          workforce.Roster        `json:"roster"`
	EmployeeTraits  map[workforce.Trait]int `json:"employee_traits"`
	Day             int                     `json:"day"`
	Tick            int                     `json:"tick"`
	Mood            float64                 `json:"mood"`
	Productivity    decimal.Decimal         `json:"productivity"`
	ProductLevel    int                     `json:"product_level"`
	OfficeLevel     int                     `json:"office_level"`
	ActiveEvents    []events.Event          `json:"active_events"`
	YesterdayEvents []events.Event          `json:"yesterday_events"`
	Inventory       []string                `json:"inventory"`
	Persona         Persona                 `json:"persona"`
}

// Owns reports whether the company already has an upgrade.
func (c Context) Owns(item string) bool {
	for _, it := range c.Inventory {
		if it == item {
			return true
		}
	}
	return false
}
