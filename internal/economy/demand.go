package economy

import (
	"github.com/shopspring/decimal"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// DemandCurve produces a smooth day-over-day market demand factor.
// Successive days sample nearby points of the same noise field, so demand
// drifts instead of jumping.
type DemandCurve struct {
	noise     opensimplex.Noise
	amplitude float64
	frequency float64
}

// NewDemandCurve builds a seeded curve. amplitude is the maximum deviation
// from 1.0 and is clamped to [0, 0.9].
func NewDemandCurve(seed int64, amplitude float64) *DemandCurve {
	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > 0.9 {
		amplitude = 0.9
	}
	return &DemandCurve{
		noise:     opensimplex.NewNormalized(seed),
		amplitude: amplitude,
		frequency: 0.15,
	}
}

// Factor returns the demand factor for a day, in [1-amplitude, 1+amplitude].
func (c *DemandCurve) Factor(day int) decimal.Decimal {
	if c == nil || c.amplitude == 0 {
		return decimal.NewFromInt(1)
	}
	// Two octaves; NewNormalized yields [0, 1).
	v := 0.0
	amp, freq, total := 1.0, c.frequency, 0.0
	for i := 0; i < 2; i++ {
		v += c.noise.Eval2(float64(day)*freq, 0.5) * amp
		total += amp
		amp *= 0.5
		freq *= 2
	}
	v /= total
	f := 1 + (v*2-1)*c.amplitude
	return decimal.NewFromFloat(f).Round(4)
}
