// Package transition decides when the currently playing item should be
// preempted: hard safety rules first, then a continuous urgency score.
package transition

import (
	"time"

	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/mood"
)

// Action is the evaluator's verdict.
type Action string

const (
	ActionTransitionNow Action = "transition_now"
	ActionWait          Action = "wait"
	ActionLetPlay       Action = "let_play"
)

// Context is the snapshot an evaluation runs against. Built fresh per tick,
// never persisted.
type Context struct {
	Current     *catalog.Item
	Mood        mood.State
	MoodAtStart mood.State

	PlayedSeconds              float64
	TotalDuration              float64
	SecondsSinceLastTransition float64
	MoodStableSeconds          float64
}

// remaining returns the seconds of playback left.
func (c Context) remaining() float64 {
	return c.TotalDuration - c.PlayedSeconds
}

// Decision is the evaluator's output. WaitTime is set only for wait verdicts.
type Decision struct {
	Action     Action        `json:"action"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	Score      float64       `json:"score"`
	WaitTime   time.Duration `json:"wait_time,omitempty"`
}
