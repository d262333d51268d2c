package transition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/devincimaker/mil4dy/pkg/mood"
)

// ErrNoCurrentItem is a caller error: evaluating a transition requires a
// playing item. It is distinct from any scored decision.
var ErrNoCurrentItem = errors.New("transition evaluation requires a current item")

// Config holds all tunable parameters for transition evaluation
type Config struct {
	MinPlayTime       time.Duration // Never preempt an item younger than this
	Cooldown          time.Duration // Minimum gap between two reactive preemptions
	CrossfadeDuration time.Duration // Playback collaborator's crossfade length

	LetPlayThreshold float64 // Scores at or below: let_play
	WaitThreshold    float64 // Scores at or below: wait
	WaitTime         time.Duration // Re-evaluation delay on a wait verdict
}

// DefaultConfig returns the recommended evaluation configuration
func DefaultConfig() Config {
	return Config{
		MinPlayTime:       30 * time.Second,
		Cooldown:          45 * time.Second,
		CrossfadeDuration: 10 * time.Second,
		LetPlayThreshold:  30,
		WaitThreshold:     60,
		WaitTime:          5 * time.Second,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MinPlayTime <= 0 {
		c.MinPlayTime = def.MinPlayTime
	}
	if c.Cooldown <= 0 {
		c.Cooldown = def.Cooldown
	}
	if c.CrossfadeDuration <= 0 {
		c.CrossfadeDuration = def.CrossfadeDuration
	}
	if c.LetPlayThreshold <= 0 || c.LetPlayThreshold >= 100 {
		c.LetPlayThreshold = def.LetPlayThreshold
	}
	if c.WaitThreshold <= c.LetPlayThreshold || c.WaitThreshold >= 100 {
		c.WaitThreshold = def.WaitThreshold
	}
	if c.WaitTime <= 0 {
		c.WaitTime = def.WaitTime
	}
	return c
}

// hardRule is one entry in the ordered safety-rule list. The first rule whose
// blocked function fires short-circuits to let_play.
type hardRule struct {
	name    string
	blocked func(Config, Context) bool
}

// hardRules run top to bottom before any scoring. Together with the score
// bands they make Evaluate a total function over valid contexts.
var hardRules = []hardRule{
	{
		name: "minimum play time not reached",
		blocked: func(cfg Config, ctx Context) bool {
			return ctx.PlayedSeconds < cfg.MinPlayTime.Seconds()
		},
	},
	{
		name: "transition cooldown active",
		blocked: func(cfg Config, ctx Context) bool {
			return ctx.SecondsSinceLastTransition < cfg.Cooldown.Seconds()
		},
	},
	{
		name: "track ending soon",
		blocked: func(cfg Config, ctx Context) bool {
			return ctx.remaining() < cfg.CrossfadeDuration.Seconds()+5
		},
	},
	{
		name: "track too short to preempt",
		blocked: func(cfg Config, ctx Context) bool {
			return ctx.TotalDuration < 2*cfg.MinPlayTime.Seconds()
		},
	},
}

// Evaluator scores mood/track mismatch into a preemption decision.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator. Out-of-range tunables are clamped to
// defaults.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg.normalize()}
}

// Evaluate maps a context to a decision. Hard rules run first, in order,
// each short-circuiting to let_play with score 0 and full confidence; only
// then is the urgency score computed and banded into an action.
func (e *Evaluator) Evaluate(ctx Context) (Decision, error) {
	if ctx.Current == nil {
		return Decision{}, ErrNoCurrentItem
	}
	if ctx.TotalDuration <= 0 {
		return Decision{}, fmt.Errorf("%w: total duration %.1f", ErrNoCurrentItem, ctx.TotalDuration)
	}

	for _, rule := range hardRules {
		if rule.blocked(e.cfg, ctx) {
			return Decision{
				Action:     ActionLetPlay,
				Confidence: 1,
				Reason:     rule.name,
				Score:      0,
			}, nil
		}
	}

	score := e.urgency(ctx)
	return e.band(score), nil
}

// urgency sums the mismatch components into a 0-100 score.
func (e *Evaluator) urgency(ctx Context) float64 {
	score := math.Abs(ctx.Mood.Energy-ctx.Current.Energy) * 40

	score += ctx.Mood.Confidence * 20

	if ctx.MoodStableSeconds >= 5 {
		score += 10
		if ctx.MoodStableSeconds >= 10 {
			score += 5
		}
	}

	score += ctx.PlayedSeconds / ctx.TotalDuration * 15

	// A rising room stuck on a low-energy track (or the reverse) is the
	// strongest signal that the current item is fighting the mood.
	switch {
	case ctx.Mood.Trend == mood.TrendRising && ctx.Current.Energy < ctx.Mood.Energy:
		score += 10
	case ctx.Mood.Trend == mood.TrendFalling && ctx.Current.Energy > ctx.Mood.Energy:
		score += 10
	}

	score += math.Abs(ctx.Mood.Energy-ctx.MoodAtStart.Energy) * 10

	return math.Min(100, math.Max(0, score))
}

// band maps the urgency score to an action with a band-specific confidence.
func (e *Evaluator) band(score float64) Decision {
	switch {
	case score <= e.cfg.LetPlayThreshold:
		return Decision{
			Action:     ActionLetPlay,
			Confidence: math.Max(0.5, 1-score/e.cfg.LetPlayThreshold),
			Reason:     "mood and track aligned",
			Score:      score,
		}
	case score <= e.cfg.WaitThreshold:
		frac := (score - e.cfg.LetPlayThreshold) / (e.cfg.WaitThreshold - e.cfg.LetPlayThreshold)
		return Decision{
			Action:     ActionWait,
			Confidence: 0.4 + frac*0.3,
			Reason:     "growing mismatch, re-evaluate shortly",
			Score:      score,
			WaitTime:   e.cfg.WaitTime,
		}
	default:
		return Decision{
			Action:     ActionTransitionNow,
			Confidence: math.Min(1, 0.7+(score-e.cfg.WaitThreshold)/100),
			Reason:     "track is fighting the room",
			Score:      score,
		}
	}
}
