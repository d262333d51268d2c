package protocol

import (
	"time"

	"github.com/devincimaker/mil4dy/pkg/mood"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewSampleMessage creates a sample message from a raw activity reading.
func NewSampleMessage(value float64, at time.Time, sensorID string) (*Message, error) {
	return NewMessage(TypeSample, SampleData{
		Value:     value,
		Timestamp: at.UnixMilli(),
		SensorID:  sensorID,
	})
}

// NewMoodMessage creates a mood update message.
func NewMoodMessage(state mood.State) (*Message, error) {
	return NewMessage(TypeMood, MoodData{
		Level:      state.Level,
		Energy:     state.Energy,
		Trend:      state.Trend,
		Confidence: state.Confidence,
	})
}

// NewPingMessage creates a ping message.
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response for the given ping.
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}

// Sample converts wire data to a mood sample.
func (d SampleData) Sample() mood.Sample {
	return mood.Sample{
		Value:     d.Value,
		Timestamp: time.UnixMilli(d.Timestamp),
	}
}
