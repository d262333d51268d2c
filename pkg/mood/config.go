package mood

import "time"

// Config holds all tunable parameters for mood estimation
type Config struct {
	// Smoothing
	Window         time.Duration // Sliding window for activity samples
	SamplingPeriod time.Duration // Expected interval between sensor samples
	Curve          float64       // Concave response exponent applied to normalized energy

	// Hysteresis
	HysteresisMargin float64       // Boundary must be cleared by this much to flip level
	HysteresisTime   time.Duration // Minimum dwell time between level flips
	MinEnergyChange  float64       // Updates smaller than this are dropped entirely

	// Trend
	TrendBufferSize int     // Energy readings kept for trend detection
	TrendDelta      float64 // Half-mean difference that counts as rising/falling

	// Watchdog
	StaleTimeout time.Duration // No samples for this long → signal fallback
}

// DefaultConfig returns the recommended configuration for a house-party room
func DefaultConfig() Config {
	return Config{
		Window:         5000 * time.Millisecond,
		SamplingPeriod: 1000 * time.Millisecond,
		Curve:          0.8,

		HysteresisMargin: 0.05,
		HysteresisTime:   3000 * time.Millisecond,
		MinEnergyChange:  0.05,

		TrendBufferSize: 5,
		TrendDelta:      0.05,

		StaleTimeout: 10000 * time.Millisecond,
	}
}

// normalize clamps out-of-range tunables back to safe defaults.
// Bad configuration degrades to defaults, it never errors.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.SamplingPeriod <= 0 {
		c.SamplingPeriod = def.SamplingPeriod
	}
	if c.Curve <= 0 || c.Curve > 1 {
		c.Curve = def.Curve
	}
	if c.HysteresisMargin < 0 || c.HysteresisMargin > 0.2 {
		c.HysteresisMargin = def.HysteresisMargin
	}
	if c.HysteresisTime < 0 {
		c.HysteresisTime = def.HysteresisTime
	}
	if c.MinEnergyChange < 0 || c.MinEnergyChange > 0.5 {
		c.MinEnergyChange = def.MinEnergyChange
	}
	if c.TrendBufferSize <= 0 {
		c.TrendBufferSize = def.TrendBufferSize
	}
	if c.TrendDelta <= 0 {
		c.TrendDelta = def.TrendDelta
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = def.StaleTimeout
	}
	return c
}
