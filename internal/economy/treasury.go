package economy

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Treasury is the company's cash position. Cash may go negative.
type Treasury struct {
	Cash decimal.Decimal `json:"cash"`
}

// NewTreasury opens a treasury with the given starting cash.
func NewTreasury(cash decimal.Decimal) *Treasury {
	return &Treasury{Cash: cash}
}

// Apply adds a signed amount.
func (t *Treasury) Apply(amount decimal.Decimal) {
	t.Cash = t.Cash.Add(amount)
}

// Debit subtracts a cost.
func (t *Treasury) Debit(amount decimal.Decimal) {
	t.Cash = t.Cash.Sub(amount)
}

// CanAfford reports whether cash covers amount.
func (t *Treasury) CanAfford(amount decimal.Decimal) bool {
	return t.Cash.GreaterThanOrEqual(amount)
}

// FormatMoney renders an amount like "$50,000.50" for terminal and log lines.
func FormatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	if f < 0 {
		return "-$" + humanize.CommafWithDigits(-f, 2)
	}
	return "$" + humanize.CommafWithDigits(f, 2)
}
