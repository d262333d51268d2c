package mood

import (
	"math"
	"testing"
	"time"
)

func TestSmootherSteadyRoom(t *testing.T) {
	// Five samples of 20% activity, one per second over a 5s window.
	// Equal values average to 20 regardless of decay, normalize to 0.2,
	// and the 0.8 curve lifts that to ~0.276.
	base := time.Now()
	s := NewSmoother(5*time.Second, 0.8)
	s.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		s.Add(Sample{Value: 20, Timestamp: base.Add(time.Duration(i-4) * time.Second)})
	}

	got := s.Energy()
	want := math.Pow(0.2, 0.8)
	if math.Abs(got-want) > 0.001 {
		t.Errorf("Energy() = %.4f, want %.4f", got, want)
	}
}

func TestSmootherRecencyWeighting(t *testing.T) {
	base := time.Now()
	s := NewSmoother(5*time.Second, 1.0) // linear curve to isolate weighting
	s.now = func() time.Time { return base }

	// Old quiet reading, fresh loud reading: the fresh one should dominate.
	s.Add(Sample{Value: 0, Timestamp: base.Add(-4 * time.Second)})
	s.Add(Sample{Value: 100, Timestamp: base})

	got := s.Energy()
	// Weights: old 0.2, new 1.0 → (100*1.0)/(1.2) = 83.3 → 0.833
	if math.Abs(got-0.833) > 0.01 {
		t.Errorf("Energy() = %.4f, want ~0.833", got)
	}
}

func TestSmootherPrunesOldSamples(t *testing.T) {
	base := time.Now()
	s := NewSmoother(5*time.Second, 0.8)
	s.now = func() time.Time { return base }

	s.Add(Sample{Value: 80, Timestamp: base.Add(-10 * time.Second)})
	s.Add(Sample{Value: 80, Timestamp: base.Add(-6 * time.Second)})
	s.Add(Sample{Value: 20, Timestamp: base})

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (old samples pruned)", s.Len())
	}
}

func TestSmootherEmptyWindow(t *testing.T) {
	s := NewSmoother(5*time.Second, 0.8)
	if got := s.Energy(); got != 0 {
		t.Errorf("Energy() on empty window = %.4f, want 0", got)
	}
}

func TestSmootherEnergyBounds(t *testing.T) {
	base := time.Now()
	s := NewSmoother(5*time.Second, 0.8)
	s.now = func() time.Time { return base }

	// Out-of-range and extreme values must still land in [0,1].
	values := []float64{-50, 0, 13, 99, 100, 250}
	for i, v := range values {
		s.Add(Sample{Value: v, Timestamp: base.Add(time.Duration(i-5) * 500 * time.Millisecond)})
		got := s.Energy()
		if got < 0 || got > 1 {
			t.Fatalf("Energy() = %.4f after value %.0f, out of [0,1]", got, v)
		}
	}
}
