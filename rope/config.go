package rope

import (
	"errors"
	"fmt"
	"math"
)

// Defaults used when a rope prefab leaves a field unset.
const (
	DefaultBaseInterval        = 10.0
	DefaultIntervalScaleFactor = 0.03
	DefaultEndTolerance        = 1.0
	DefaultBias                = 0.99
	DefaultSoftness            = 0.003
)

var (
	ErrDegenerateRope = errors.New("rope: start and end anchors coincide or are not finite")
	ErrInvalidScale   = errors.New("rope: interval scale factor must be finite and non-negative")
	ErrInvalidConfig  = errors.New("rope: invalid config")
)

// Config holds the tunables for laying out a rope.
type Config struct {
	StaticEnd           bool
	IntervalScaleFactor float64
	BaseInterval        float64
	// EndTolerance scales the early-exit radius around the end anchor, in
	// intervals. Zero disables the early exit.
	EndTolerance float64
	Bias         float64
	Softness     float64
}

// DefaultConfig returns a free-ended rope with every tunable at its default.
func DefaultConfig() Config {
	return Config{
		IntervalScaleFactor: DefaultIntervalScaleFactor,
		BaseInterval:        DefaultBaseInterval,
		EndTolerance:        DefaultEndTolerance,
		Bias:                DefaultBias,
		Softness:            DefaultSoftness,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if !finite(c.IntervalScaleFactor) || c.IntervalScaleFactor < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidScale, c.IntervalScaleFactor)
	}
	if !finite(c.BaseInterval) || c.BaseInterval <= 0 {
		return fmt.Errorf("%w: base interval %v", ErrInvalidConfig, c.BaseInterval)
	}
	if !finite(c.EndTolerance) || c.EndTolerance < 0 {
		return fmt.Errorf("%w: end tolerance %v", ErrInvalidConfig, c.EndTolerance)
	}
	if !finite(c.Bias) || c.Bias < 0 || c.Bias > 1 {
		return fmt.Errorf("%w: bias %v", ErrInvalidConfig, c.Bias)
	}
	if !finite(c.Softness) || c.Softness < 0 {
		return fmt.Errorf("%w: softness %v", ErrInvalidConfig, c.Softness)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
