// Package catalog models the track library and picks the best-fit item for
// the current room mood.
package catalog

import "fmt"

// Key is a coarse musical key: tonic plus major/minor mode.
type Key struct {
	Tonic string `json:"tonic"` // "C", "F#", "Ab", ...
	Mode  string `json:"mode"`  // "major" or "minor"
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s", k.Tonic, k.Mode)
}

// Item is one playable catalog entry. Items are immutable once loaded; the
// selector holds references and never mutates them.
type Item struct {
	ID       string  `json:"id"`
	Title    string  `json:"title,omitempty"`
	BPM      float64 `json:"bpm"`
	Key      Key     `json:"key"`
	Energy   float64 `json:"energy"`   // 0..1
	Duration float64 `json:"duration"` // seconds
	Genre    string  `json:"genre,omitempty"`
}

// Validate clamps recoverable fields and rejects items that cannot play.
func (i *Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if i.BPM <= 0 {
		return fmt.Errorf("%w: %s has bpm %.1f", ErrInvalidItem, i.ID, i.BPM)
	}
	if i.Duration <= 0 {
		return fmt.Errorf("%w: %s has duration %.1f", ErrInvalidItem, i.ID, i.Duration)
	}
	if i.Energy < 0 {
		i.Energy = 0
	}
	if i.Energy > 1 {
		i.Energy = 1
	}
	return nil
}
