package mood

import (
	"math/rand"
	"testing"
	"time"
)

func TestConfidenceFewSamples(t *testing.T) {
	window := 5 * time.Second
	period := time.Second

	if got := EstimateConfidence(nil, window, period); got != 0.5 {
		t.Errorf("empty window confidence = %.2f, want 0.5", got)
	}
	if got := EstimateConfidence([]float64{42}, window, period); got != 0.5 {
		t.Errorf("single sample confidence = %.2f, want 0.5", got)
	}
}

func TestConfidenceFullSteadyWindow(t *testing.T) {
	// Full window with zero variance: both factors saturate at 1.
	values := []float64{30, 30, 30, 30, 30}
	got := EstimateConfidence(values, 5*time.Second, time.Second)
	if got != 1 {
		t.Errorf("steady full window confidence = %.4f, want 1", got)
	}
}

func TestConfidenceNoisyWindowFloored(t *testing.T) {
	// Massive variance drives consistency to its 0.3 floor.
	values := []float64{0, 100, 0, 100, 0}
	got := EstimateConfidence(values, 5*time.Second, time.Second)
	if got != 0.3 {
		t.Errorf("noisy window confidence = %.4f, want 0.3", got)
	}
}

func TestConfidenceBoundsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		n := 2 + rng.Intn(10)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.Float64() * 100
		}
		got := EstimateConfidence(values, 5*time.Second, time.Second)
		if got < 0.3 || got > 1 {
			t.Fatalf("confidence %.4f out of [0.3,1] for %v", got, values)
		}
	}
}
