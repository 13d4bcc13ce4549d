package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingStepper struct {
	n atomic.Int64
}

func (c *countingStepper) Advance() { c.n.Add(1) }

func TestDriver_RunsUntilCancelled(t *testing.T) {
	st := &countingStepper{}
	d := NewDriver(st)
	d.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	assert.Positive(t, st.n.Load())
	assert.Equal(t, uint64(st.n.Load()), d.Ticks())
}

func TestDriver_SpeedZeroHolds(t *testing.T) {
	st := &countingStepper{}
	d := NewDriver(st)
	d.Interval = time.Millisecond
	d.SetSpeed(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	assert.Zero(t, st.n.Load())
}

func TestDriver_NegativeSpeedClamps(t *testing.T) {
	d := NewDriver(&countingStepper{})
	d.SetSpeed(-3)
	assert.Equal(t, 0.0, d.Speed())
}

func TestDriver_AdvancesSimulation(t *testing.T) {
	s, _ := newTestSim(t)
	d := NewDriver(s)
	d.Interval = time.Millisecond
	d.SetSpeed(4)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	assert.Positive(t, s.Clock().Tick+60*(s.Clock().Day-1))
}
