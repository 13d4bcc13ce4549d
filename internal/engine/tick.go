package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Stepper is what the driver advances.
type Stepper interface {
	Advance()
}

// Driver calls Advance on a wall-clock schedule.
type Driver struct {
	Sim      Stepper
	Interval time.Duration // Base tick interval (default 1 second)

	mu    sync.Mutex
	speed float64 // Multiplier: 1.0 = real-time, 0 = paused
	ticks uint64
}

// NewDriver creates a driver with default settings.
func NewDriver(sim Stepper) *Driver {
	return &Driver{
		Sim:      sim,
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (d *Driver) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// SetSpeed changes the multiplier. 0 stops ticking without stopping Run.
func (d *Driver) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	d.mu.Lock()
	d.speed = speed
	d.mu.Unlock()
	slog.Info("driver speed changed", "speed", speed)
}

// Ticks returns how many times the driver has called Advance.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Run starts the loop. Blocks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	slog.Info("driver started", "interval", d.Interval, "speed", d.Speed())

	for {
		speed := d.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			if !sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()

		d.Sim.Advance()
		d.mu.Lock()
		d.ticks++
		d.mu.Unlock()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(d.Interval) / speed)
		wait := time.Duration(0)
		if elapsed < target {
			wait = target - elapsed
		}
		if !sleep(ctx, wait) {
			break
		}
	}

	slog.Info("driver stopped", "ticks", d.Ticks())
}

// sleep waits for dur or until ctx is done. It reports whether the loop
// should continue.
func sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
