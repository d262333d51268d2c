package mood

import (
	"math"
	"time"
)

// Smoother maintains a sliding window of activity samples and produces a
// recency-weighted, curved energy value in 0..1.
type Smoother struct {
	window time.Duration
	curve  float64

	samples []Sample

	now func() time.Time
}

// NewSmoother creates a smoother with the given window and response curve.
func NewSmoother(window time.Duration, curve float64) *Smoother {
	if window <= 0 {
		window = DefaultConfig().Window
	}
	if curve <= 0 || curve > 1 {
		curve = DefaultConfig().Curve
	}
	return &Smoother{
		window: window,
		curve:  curve,
		now:    time.Now,
	}
}

// Add appends a sample and discards everything older than the window.
func (s *Smoother) Add(sample Sample) {
	sample.Value = clamp(sample.Value, 0, 100)
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}
	s.samples = append(s.samples, sample)
	s.prune()
}

// prune drops samples older than now - window.
func (s *Smoother) prune() {
	cutoff := s.now().Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

// Energy computes the smoothed energy from the current window.
// Sample weight decays linearly with age, reaching zero at the window edge;
// the weighted 0-100 average is normalized and passed through a concave
// curve so mid-range activity reads hotter than a linear map.
func (s *Smoother) Energy() float64 {
	s.prune()
	if len(s.samples) == 0 {
		return 0
	}

	now := s.now()
	var weighted, total float64
	for _, sample := range s.samples {
		age := now.Sub(sample.Timestamp)
		weight := 1 - float64(age)/float64(s.window)
		if weight <= 0 {
			continue
		}
		weighted += sample.Value * weight
		total += weight
	}
	if total == 0 {
		return 0
	}

	normalized := clamp(weighted/total/100, 0, 1)
	return math.Pow(normalized, s.curve)
}

// Values returns the raw sample values currently in the window.
func (s *Smoother) Values() []float64 {
	s.prune()
	values := make([]float64, len(s.samples))
	for i, sample := range s.samples {
		values[i] = sample.Value
	}
	return values
}

// Len returns the number of samples currently in the window.
func (s *Smoother) Len() int {
	s.prune()
	return len(s.samples)
}
