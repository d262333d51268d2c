package mood

import (
	"math/rand"
	"sync"
	"time"
)

// SimMode selects how the fallback simulator derives its drift target.
type SimMode string

const (
	// ModeScripted follows a repeating party arc: warm-up, build, cool-down.
	ModeScripted SimMode = "scripted"
	// ModeRandomWalk drifts randomly with a centering bias.
	ModeRandomWalk SimMode = "random_walk"
)

// SimConfig holds tunable parameters for the fallback simulator
type SimConfig struct {
	Mode     SimMode
	Period   time.Duration // How often a simulated reading is emitted
	Cycle    time.Duration // Length of one scripted party arc
	MaxDrift float64       // Random-walk step bound
}

// DefaultSimConfig returns the recommended simulator configuration
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Mode:     ModeScripted,
		Period:   2000 * time.Millisecond,
		Cycle:    10 * time.Minute,
		MaxDrift: 0.08,
	}
}

func (c SimConfig) normalize() SimConfig {
	def := DefaultSimConfig()
	if c.Mode != ModeScripted && c.Mode != ModeRandomWalk {
		c.Mode = def.Mode
	}
	if c.Period <= 0 {
		c.Period = def.Period
	}
	if c.Cycle <= 0 {
		c.Cycle = def.Cycle
	}
	if c.MaxDrift <= 0 || c.MaxDrift > 0.5 {
		c.MaxDrift = def.MaxDrift
	}
	return c
}

// Simulator generates a plausible mood trajectory when no sensor is active.
// Each tick it drifts the current energy toward a mode-derived target and
// hands the result to the emit callback with a synthesized confidence.
type Simulator struct {
	mu      sync.Mutex
	cfg     SimConfig
	energy  float64
	startAt time.Time
	running bool
	stopCh  chan struct{}

	emit func(energy, confidence float64)
	rand *rand.Rand
}

// NewSimulator creates a simulator. The emit callback receives each
// simulated reading; it is called from the simulator's own goroutine.
func NewSimulator(cfg SimConfig, emit func(energy, confidence float64)) *Simulator {
	return &Simulator{
		cfg:    cfg.normalize(),
		energy: 0.3,
		emit:   emit,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins emitting simulated readings on the configured period.
// Safe to call when already running.
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.startAt = time.Now()
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				energy, confidence := s.step()
				s.emit(energy, confidence)
			}
		}
	}()
}

// Stop halts the simulator. Idempotent.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// IsRunning reports whether the simulator is emitting.
func (s *Simulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// step advances the simulated energy one tick.
func (s *Simulator) step() (energy, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target float64
	switch s.cfg.Mode {
	case ModeRandomWalk:
		step := (s.rand.Float64()*2 - 1) * s.cfg.MaxDrift
		centering := (0.5 - s.energy) * 0.1
		target = s.energy + step + centering
	default:
		target = s.scriptedTarget(time.Since(s.startAt))
		target += (s.rand.Float64()*2 - 1) * 0.1
	}

	noise := (s.rand.Float64()*2 - 1) * 0.02
	s.energy = clamp(s.energy+(target-s.energy)*0.3+noise, 0, 1)

	// Simulated, not sensed: always fairly confident.
	return s.energy, 0.8 + s.rand.Float64()*0.2
}

// scriptedTarget maps elapsed time into the repeating party arc:
// warm-up 0.2→0.5 over the first 15% of the cycle, build 0.5→0.9 until 70%,
// cool-down 0.9→0.4 through the end.
func (s *Simulator) scriptedTarget(elapsed time.Duration) float64 {
	frac := float64(elapsed%s.cfg.Cycle) / float64(s.cfg.Cycle)
	switch {
	case frac < 0.15:
		return 0.2 + (frac/0.15)*0.3
	case frac < 0.7:
		return 0.5 + ((frac-0.15)/0.55)*0.4
	default:
		return 0.9 - ((frac-0.7)/0.3)*0.5
	}
}
