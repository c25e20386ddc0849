package audio

import (
	"context"
	"math"
	"time"
)

// Fader raises the volume from Start to full in Step increments, one step per
// Interval.
type Fader struct {
	Start    float64
	Step     float64
	Interval time.Duration
}

// DefaultFader goes from 10% to 100% in 10-point steps every 2 seconds.
func DefaultFader() Fader {
	return Fader{Start: 0.1, Step: 0.1, Interval: 2 * time.Second}
}

// Levels returns every volume the fade passes through, ending at 1.
func (f Fader) Levels() []float64 {
	start := math.Max(0, math.Min(f.Start, 1))
	if f.Step <= 0 || start >= 1 {
		return []float64{1}
	}
	n := int(math.Ceil((1-start)/f.Step - 1e-9))
	levels := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		// Round to avoid 0.30000000000000004 and friends.
		levels = append(levels, math.Round((start+float64(i)*f.Step)*1000)/1000)
	}
	return append(levels, 1)
}

// Run calls set with each level in turn, waiting Interval between calls. The
// first level is set immediately. Run returns early if ctx is canceled.
func (f Fader) Run(ctx context.Context, set func(level float64)) {
	levels := f.Levels()
	set(levels[0])
	if len(levels) == 1 {
		return
	}

	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()
	for _, level := range levels[1:] {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			set(level)
		}
	}
}

// gain converts a linear volume fraction to an effects.Volume exponent with
// base 2.
func gain(level float64) (volume float64, silent bool) {
	if level <= 0 {
		return 0, true
	}
	return math.Log2(level), false
}
