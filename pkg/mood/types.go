// Package mood turns a noisy stream of room-activity samples into a stable
// categorical mood estimate that the rest of the engine can trust.
package mood

import "time"

// Level is the discretized mood classification.
type Level string

const (
	LevelChill       Level = "chill"
	LevelWarmingUp   Level = "warming_up"
	LevelEnergetic   Level = "energetic"
	LevelPeak        Level = "peak"
	LevelCoolingDown Level = "cooling_down"
)

// rank orders levels by energy for hysteresis direction-of-travel checks.
// CoolingDown shares the top rank with Peak: the two are split by trend,
// not by an energy boundary.
func (l Level) rank() int {
	switch l {
	case LevelChill:
		return 0
	case LevelWarmingUp:
		return 1
	case LevelEnergetic:
		return 2
	default:
		return 3
	}
}

// EnergyRange returns the canonical energy band for a level, used by the
// selector to keep candidates on-level. Bands overlap on purpose so a
// borderline mood still has candidates.
func (l Level) EnergyRange() (lo, hi float64) {
	switch l {
	case LevelChill:
		return 0.0, 0.35
	case LevelWarmingUp:
		return 0.2, 0.55
	case LevelEnergetic:
		return 0.45, 0.8
	case LevelPeak:
		return 0.7, 1.0
	case LevelCoolingDown:
		return 0.35, 0.75
	default:
		return 0.0, 1.0
	}
}

// Trend labels the recent direction of the energy signal.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// State is the mood estimate. Level is always the hysteresis-stable
// classification of Energy, never a raw instantaneous mapping. The stabilizer
// owns it exclusively and hands out copies.
type State struct {
	Level      Level     `json:"level"`
	Energy     float64   `json:"energy"`     // 0..1
	Trend      Trend     `json:"trend"`
	Confidence float64   `json:"confidence"` // 0..1
	Timestamp  time.Time `json:"ts"`
}

// NeutralState is the mood the engine starts from before any samples arrive.
func NeutralState() State {
	return State{
		Level:      LevelChill,
		Energy:     0.3,
		Trend:      TrendStable,
		Confidence: 0.5,
		Timestamp:  time.Now(),
	}
}

// Sample is one raw activity reading from the sensor collaborator.
// Value is an activity percentage in 0..100.
type Sample struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"ts"`
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
