// Package protocol defines the WebSocket message types spoken between the
// engine, the activity sensor and dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/mood"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Sensor → Engine messages
	TypeSample MessageType = "sample" // Raw activity reading

	// Engine → Dashboard messages
	TypeMood       MessageType = "mood"        // Accepted mood update
	TypeNowPlaying MessageType = "now_playing" // Selection broadcast
	TypeTransition MessageType = "transition"  // Transition decision
	TypeStatus     MessageType = "status"      // Session snapshot

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Sensor → Engine Message Types
// =============================================================================

// SampleData is one raw activity reading from a sensor.
type SampleData struct {
	Value     float64 `json:"value"` // Activity percent, 0-100
	Timestamp int64   `json:"ts"`    // Unix milliseconds at capture
	SensorID  string  `json:"sensor_id,omitempty"`
}

// =============================================================================
// Engine → Dashboard Message Types
// =============================================================================

// MoodData is an accepted mood update.
type MoodData struct {
	Level      mood.Level `json:"level"`
	Energy     float64    `json:"energy"`
	Trend      mood.Trend `json:"trend"`
	Confidence float64    `json:"confidence"`
}

// NowPlayingData announces a selection and why it was made.
type NowPlayingData struct {
	Item   catalog.Item `json:"item"`
	Reason string       `json:"reason"`
	Score  float64      `json:"score"`
	Cause  string       `json:"cause"` // start, boundary, preempt, skip
}

// TransitionData reports a transition decision.
type TransitionData struct {
	Action     string  `json:"action"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// StatusData is the session snapshot pushed on connect and on demand.
type StatusData struct {
	State         string        `json:"state"`
	Source        string        `json:"source"`
	Current       *catalog.Item `json:"current,omitempty"`
	Next          *catalog.Item `json:"next,omitempty"`
	Mood          MoodData      `json:"mood"`
	UptimeSeconds float64       `json:"uptime_seconds"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
