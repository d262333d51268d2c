package mood

import (
	"math/rand"
	"testing"
	"time"
)

func TestSimulatorStepBounds(t *testing.T) {
	for _, mode := range []SimMode{ModeScripted, ModeRandomWalk} {
		cfg := DefaultSimConfig()
		cfg.Mode = mode
		sim := NewSimulator(cfg, func(float64, float64) {})
		sim.rand = rand.New(rand.NewSource(42))
		sim.startAt = time.Now()

		for i := 0; i < 2000; i++ {
			energy, confidence := sim.step()
			if energy < 0 || energy > 1 {
				t.Fatalf("[%s] step %d: energy %.4f out of [0,1]", mode, i, energy)
			}
			if confidence < 0.8 || confidence > 1 {
				t.Fatalf("[%s] step %d: confidence %.4f out of [0.8,1]", mode, i, confidence)
			}
		}
	}
}

func TestSimulatorScriptedArc(t *testing.T) {
	sim := NewSimulator(DefaultSimConfig(), func(float64, float64) {})
	cycle := sim.cfg.Cycle

	cases := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0.2},                                  // warm-up start
		{time.Duration(0.15 * float64(cycle)), 0.5}, // build start
		{time.Duration(0.7 * float64(cycle)), 0.9},  // peak before cool-down
		{cycle - time.Millisecond, 0.4},             // cool-down end
	}
	for _, tc := range cases {
		got := sim.scriptedTarget(tc.at)
		if abs(got-tc.want) > 0.02 {
			t.Errorf("scriptedTarget(%v) = %.3f, want ~%.3f", tc.at, got, tc.want)
		}
	}

	// The arc repeats: one full cycle in, targets match the start.
	if got := sim.scriptedTarget(cycle + time.Minute); abs(got-sim.scriptedTarget(time.Minute)) > 0.001 {
		t.Error("scripted arc should repeat each cycle")
	}
}

func TestSimulatorStartStop(t *testing.T) {
	emitted := make(chan float64, 64)
	cfg := DefaultSimConfig()
	cfg.Period = 10 * time.Millisecond
	sim := NewSimulator(cfg, func(energy, _ float64) {
		select {
		case emitted <- energy:
		default:
		}
	})

	sim.Start()
	sim.Start() // double start is a no-op
	defer sim.Stop()

	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("simulator emitted nothing")
	}

	sim.Stop()
	sim.Stop() // idempotent
	if sim.IsRunning() {
		t.Error("simulator still running after Stop")
	}
}
