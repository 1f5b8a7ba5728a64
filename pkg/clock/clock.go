// Package clock provides the waits the report cycle is built from.
//
// Real waits on the wall clock, Scaled compresses waits for demos, and Virtual
// advances instantly so tests can check the cadence without sleeping.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock blocks the caller for a duration.
type Clock interface {
	// Sleep returns after d has elapsed or with ctx.Err() when ctx is done first.
	Sleep(ctx context.Context, d time.Duration) error
	Now() time.Time
}

var (
	_ Clock = Real{}
	_ Clock = Scaled{}
	_ Clock = (*Virtual)(nil)
)

// Real waits on the wall clock.
type Real struct{}

// Sleep indirects time.NewTimer.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Now indirects time.Now.
func (Real) Now() time.Time {
	return time.Now()
}

// Scaled waits on the wall clock for d divided by Factor.
// A Factor below 1 waits the full duration.
type Scaled struct {
	Factor float64
}

func (s Scaled) Sleep(ctx context.Context, d time.Duration) error {
	if s.Factor > 1 {
		d = time.Duration(float64(d) / s.Factor)
	}
	return Real{}.Sleep(ctx, d)
}

func (Scaled) Now() time.Time {
	return time.Now()
}

// Virtual is a clock that never blocks. Each Sleep advances its time by d.
type Virtual struct {
	mu      sync.Mutex
	start   time.Time
	elapsed time.Duration
	waits   []time.Duration
}

// NewVirtual returns a virtual clock whose time begins at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{start: start}
}

func (v *Virtual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if d > 0 {
		v.elapsed += d
	}
	v.waits = append(v.waits, d)
	return nil
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.start.Add(v.elapsed)
}

// Elapsed returns the total time slept so far.
func (v *Virtual) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.elapsed
}

// Waits returns a copy of every requested wait in order.
func (v *Virtual) Waits() []time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]time.Duration, len(v.waits))
	copy(out, v.waits)
	return out
}
