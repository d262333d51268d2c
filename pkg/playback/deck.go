// Package playback provides a simulated deck: it advances a clock over the
// loaded catalog item, announces the approaching end, and promotes a queued
// item at the boundary. It stands in for a real audio engine and speaks the
// same telemetry the engine's orchestrator consumes.
package playback

import (
	"sync"
	"time"

	"github.com/devincimaker/mil4dy/pkg/catalog"
)

// State is the deck's playback state.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Callbacks is the deck's telemetry surface. OnEnding fires once per item
// when the remaining time drops under the ending lead; OnEnded fires when the
// clock runs out. All callbacks run on the deck's tick goroutine.
type Callbacks struct {
	OnStarted func(id string)
	OnEnding  func(id string, remainingSeconds float64)
	OnEnded   func(id string)
}

// Options holds the deck tunables.
type Options struct {
	TickInterval time.Duration // Clock resolution
	EndingLead   float64       // Seconds before the end to announce OnEnding
	TimeScale    float64       // Clock multiplier, >1 compresses demo time
}

// DefaultOptions returns the recommended deck options.
func DefaultOptions() Options {
	return Options{
		TickInterval: 500 * time.Millisecond,
		EndingLead:   15,
		TimeScale:    1,
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.TickInterval <= 0 {
		o.TickInterval = def.TickInterval
	}
	if o.EndingLead <= 0 {
		o.EndingLead = def.EndingLead
	}
	if o.TimeScale <= 0 {
		o.TimeScale = def.TimeScale
	}
	return o
}

// Deck is the simulated playback collaborator.
type Deck struct {
	mu       sync.RWMutex
	opts     Options
	cb       Callbacks
	state    State
	current  *catalog.Item
	next     *catalog.Item
	startAt  time.Time
	pausedAt time.Duration

	announced bool
	stopCh    chan struct{}
}

// NewDeck creates a stopped deck.
func NewDeck(opts Options) *Deck {
	return &Deck{
		opts:  opts.normalize(),
		state: StateStopped,
	}
}

// SetCallbacks installs the telemetry callbacks. Call before Play.
func (d *Deck) SetCallbacks(cb Callbacks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

// Play loads the item and starts its clock immediately, replacing whatever
// was playing. Any queued item is discarded.
func (d *Deck) Play(item catalog.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	if d.stopCh != nil {
		close(d.stopCh)
	}
	stopCh := make(chan struct{})
	it := item
	d.stopCh = stopCh
	d.current = &it
	d.next = nil
	d.startAt = time.Now()
	d.pausedAt = 0
	d.announced = false
	d.state = StatePlaying
	onStarted := d.cb.OnStarted
	d.mu.Unlock()

	if onStarted != nil {
		onStarted(item.ID)
	}

	go d.run(it, stopCh)
	return nil
}

// QueueNext lines an item up for the next boundary. On a stopped deck it
// plays immediately.
func (d *Deck) QueueNext(item catalog.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	if d.state == StateStopped {
		d.mu.Unlock()
		return d.Play(item)
	}
	it := item
	d.next = &it
	d.mu.Unlock()
	return nil
}

// run is the per-item clock. It exits at the item boundary or when a new
// Play/Stop closes its stop channel.
func (d *Deck) run(item catalog.Item, stopCh chan struct{}) {
	ticker := time.NewTicker(d.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return

		case <-ticker.C:
			d.mu.Lock()
			if d.state != StatePlaying {
				d.mu.Unlock()
				continue
			}
			elapsed := (d.pausedAt + time.Since(d.startAt)).Seconds() * d.opts.TimeScale
			remaining := item.Duration - elapsed

			announce := !d.announced && remaining > 0 && remaining <= d.opts.EndingLead
			if announce {
				d.announced = true
			}
			done := elapsed >= item.Duration
			var promote *catalog.Item
			if done {
				promote = d.next
				d.next = nil
				if promote == nil {
					d.state = StateStopped
					d.current = nil
				}
			}
			cb := d.cb
			d.mu.Unlock()

			if announce && cb.OnEnding != nil {
				cb.OnEnding(item.ID, remaining)
			}
			if done {
				if cb.OnEnded != nil {
					cb.OnEnded(item.ID)
				}
				if promote != nil {
					d.Play(*promote)
				}
				return
			}
		}
	}
}

// Pause freezes the clock.
func (d *Deck) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePlaying {
		d.pausedAt += time.Since(d.startAt)
		d.state = StatePaused
	}
}

// Resume continues a paused clock.
func (d *Deck) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePaused {
		d.startAt = time.Now()
		d.state = StatePlaying
	}
}

// Stop halts playback and clears the queue.
func (d *Deck) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopCh != nil {
		close(d.stopCh)
		d.stopCh = nil
	}
	d.state = StateStopped
	d.current = nil
	d.next = nil
}

// State returns the playback state.
func (d *Deck) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Current returns the loaded item, if any.
func (d *Deck) Current() *catalog.Item {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Elapsed returns the scaled play position of the current item.
func (d *Deck) Elapsed() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch d.state {
	case StateStopped:
		return 0
	case StatePaused:
		return time.Duration(float64(d.pausedAt) * d.opts.TimeScale)
	default:
		return time.Duration(float64(d.pausedAt+time.Since(d.startAt)) * d.opts.TimeScale)
	}
}
