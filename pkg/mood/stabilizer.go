package mood

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/devincimaker/mil4dy/internal/log"
)

// Level boundaries: energy below the threshold maps to the named level,
// anything above the last one maps to peak.
const (
	chillCeiling     = 0.2
	warmingUpCeiling = 0.4
	energeticCeiling = 0.65

	// coolingFloor is where a falling trend reads as cooling_down
	// rather than peak.
	coolingFloor = 0.85
)

// Stabilizer owns the MoodState. It applies a minimum-change gate, trend
// detection, hysteresis on the level mapping, and a staleness watchdog that
// signals when the sensor has gone quiet.
type Stabilizer struct {
	mu  sync.Mutex
	cfg Config

	smoother *Smoother
	state    State
	trendBuf []float64

	lastLevelChange time.Time

	watchdog *time.Timer
	onStale  func()
	onChange func(State)

	now func() time.Time
}

// NewStabilizer creates a stabilizer with a neutral starting mood.
// Out-of-range tunables are clamped to defaults, never rejected.
func NewStabilizer(cfg Config) *Stabilizer {
	cfg = cfg.normalize()
	return &Stabilizer{
		cfg:      cfg,
		smoother: NewSmoother(cfg.Window, cfg.Curve),
		state:    NeutralState(),
		now:      time.Now,
	}
}

// SetChangeHandler registers the single downstream consumer of accepted mood
// updates. The orchestrator fans out to its own listeners from there.
func (s *Stabilizer) SetChangeHandler(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SetStaleHandler registers the callback fired when no sample has arrived
// within the stale timeout. The watchdog arms on the first sample.
func (s *Stabilizer) SetStaleHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStale = fn
}

// Current returns a copy of the mood state.
func (s *Stabilizer) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offer feeds one raw sensor sample through the full pipeline: window
// smoothing, confidence estimation, then the gated state update.
// Returns true if the update was accepted.
func (s *Stabilizer) Offer(sample Sample) bool {
	s.mu.Lock()

	// The watchdog tracks sample arrival, not acceptance: a steady room
	// drops most updates at the gate but the sensor is still alive.
	s.resetWatchdog()

	s.smoother.Add(sample)
	energy := s.smoother.Energy()
	confidence := EstimateConfidence(s.smoother.Values(), s.cfg.Window, s.cfg.SamplingPeriod)

	accepted := s.apply(energy, confidence)
	handler, state := s.onChange, s.state
	s.mu.Unlock()

	// Handler runs outside the lock so listeners may read back state.
	if accepted && handler != nil {
		handler(state)
	}
	return accepted
}

// OfferEnergy feeds an already-smoothed energy value, used by the fallback
// simulator which synthesizes its own confidence.
func (s *Stabilizer) OfferEnergy(energy, confidence float64) bool {
	s.mu.Lock()
	accepted := s.apply(clamp(energy, 0, 1), clamp(confidence, 0, 1))
	handler, state := s.onChange, s.state
	s.mu.Unlock()

	if accepted && handler != nil {
		handler(state)
	}
	return accepted
}

// apply runs the gated update. Caller holds the lock.
func (s *Stabilizer) apply(energy, confidence float64) bool {
	// Minimum-change gate: noise-sized updates are dropped entirely,
	// independent of the level hysteresis.
	if abs(energy-s.state.Energy) < s.cfg.MinEnergyChange {
		return false
	}

	trend := s.pushTrend(energy)
	level := s.stableLevel(energy, trend)

	s.state = State{
		Level:      level,
		Energy:     energy,
		Trend:      trend,
		Confidence: confidence,
		Timestamp:  s.now(),
	}
	return true
}

// pushTrend records the energy reading and labels the recent direction by
// comparing the mean of the older half of the buffer against the newer half.
func (s *Stabilizer) pushTrend(energy float64) Trend {
	s.trendBuf = append(s.trendBuf, energy)
	if len(s.trendBuf) > s.cfg.TrendBufferSize {
		s.trendBuf = s.trendBuf[len(s.trendBuf)-s.cfg.TrendBufferSize:]
	}
	if len(s.trendBuf) < 3 {
		return TrendStable
	}

	mid := len(s.trendBuf) / 2
	older := stat.Mean(s.trendBuf[:mid], nil)
	newer := stat.Mean(s.trendBuf[mid:], nil)

	switch diff := newer - older; {
	case diff > s.cfg.TrendDelta:
		return TrendRising
	case diff < -s.cfg.TrendDelta:
		return TrendFalling
	default:
		return TrendStable
	}
}

// classify maps energy and trend to a raw level, with no hysteresis.
func classify(energy float64, trend Trend) Level {
	if energy > coolingFloor && trend == TrendFalling {
		return LevelCoolingDown
	}
	switch {
	case energy < chillCeiling:
		return LevelChill
	case energy < warmingUpCeiling:
		return LevelWarmingUp
	case energy < energeticCeiling:
		return LevelEnergetic
	default:
		return LevelPeak
	}
}

// stableLevel applies hysteresis to the raw classification: a level change
// must clear the boundary by the margin in the direction of travel, and at
// least the hysteresis time must have passed since the last accepted flip.
func (s *Stabilizer) stableLevel(energy float64, trend Trend) Level {
	current := s.state.Level
	candidate := classify(energy, trend)
	if candidate == current {
		return current
	}

	if !s.lastLevelChange.IsZero() && s.now().Sub(s.lastLevelChange) < s.cfg.HysteresisTime {
		return current
	}

	switch {
	case candidate.rank() > current.rank():
		// Moving up: the margin must already be behind us.
		if classify(energy-s.cfg.HysteresisMargin, trend).rank() <= current.rank() {
			return current
		}
	case candidate.rank() < current.rank():
		if classify(energy+s.cfg.HysteresisMargin, trend).rank() >= current.rank() {
			return current
		}
	default:
		// peak ↔ cooling_down is a trend split at the same energy rank;
		// the dwell-time check above is the only gate.
	}

	s.lastLevelChange = s.now()
	log.Debug("mood level change", "from", string(current), "to", string(candidate), "energy", energy)
	return candidate
}

// resetWatchdog rearms the staleness timer. Caller holds the lock.
func (s *Stabilizer) resetWatchdog() {
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.watchdog = time.AfterFunc(s.cfg.StaleTimeout, func() {
		s.mu.Lock()
		fn := s.onStale
		s.mu.Unlock()
		if fn != nil {
			log.Warn("activity samples stale", "timeout", s.cfg.StaleTimeout)
			fn()
		}
	})
}

// Arm starts the staleness watchdog without waiting for a sample, used when
// a paused session resumes and the sensor's liveness is unknown.
func (s *Stabilizer) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetWatchdog()
}

// Stop cancels the watchdog. Idempotent.
func (s *Stabilizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
