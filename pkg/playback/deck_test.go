package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/devincimaker/mil4dy/pkg/catalog"
)

// recorder collects deck telemetry for assertions.
type recorder struct {
	mu      sync.Mutex
	started []string
	ending  []string
	ended   []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStarted: func(id string) {
			r.mu.Lock()
			r.started = append(r.started, id)
			r.mu.Unlock()
		},
		OnEnding: func(id string, remaining float64) {
			r.mu.Lock()
			r.ending = append(r.ending, id)
			r.mu.Unlock()
		},
		OnEnded: func(id string) {
			r.mu.Lock()
			r.ended = append(r.ended, id)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) counts() (started, ending, ended int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started), len(r.ending), len(r.ended)
}

// fastDeck compresses a 10s item into roughly 100ms of wall time.
func fastDeck(t *testing.T) (*Deck, *recorder) {
	t.Helper()
	rec := &recorder{}
	d := NewDeck(Options{
		TickInterval: 5 * time.Millisecond,
		EndingLead:   4,
		TimeScale:    100,
	})
	d.SetCallbacks(rec.callbacks())
	t.Cleanup(d.Stop)
	return d, rec
}

func testItem(id string) catalog.Item {
	return catalog.Item{ID: id, Title: id, BPM: 120, Energy: 0.5, Duration: 10}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestDeckPlayFiresStarted(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if d.State() != StatePlaying {
		t.Errorf("state = %s, want playing", d.State())
	}
	started, _, _ := rec.counts()
	if started != 1 {
		t.Errorf("started callbacks = %d, want 1", started)
	}
	if cur := d.Current(); cur == nil || cur.ID != "a" {
		t.Errorf("current = %+v, want a", cur)
	}
}

func TestDeckRejectsInvalidItem(t *testing.T) {
	d, _ := fastDeck(t)
	if err := d.Play(catalog.Item{ID: "", BPM: 120, Duration: 10}); err == nil {
		t.Error("Play accepted an item with no id")
	}
	if err := d.QueueNext(catalog.Item{ID: "x", BPM: 0, Duration: 10}); err == nil {
		t.Error("QueueNext accepted an item with no BPM")
	}
}

func TestDeckAnnouncesEndingOnce(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		_, _, ended := rec.counts()
		return ended == 1
	})
	_, ending, _ := rec.counts()
	if ending != 1 {
		t.Errorf("ending callbacks = %d, want exactly 1", ending)
	}
}

func TestDeckStopsWithoutQueue(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		_, _, ended := rec.counts()
		return ended == 1
	})
	if d.State() != StateStopped {
		t.Errorf("state = %s, want stopped after boundary with no queue", d.State())
	}
	if d.Current() != nil {
		t.Errorf("current = %+v, want nil", d.Current())
	}
}

func TestDeckPromotesQueuedItem(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := d.QueueNext(testItem("b")); err != nil {
		t.Fatalf("QueueNext failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		started, _, _ := rec.counts()
		return started == 2
	})
	if cur := d.Current(); cur == nil || cur.ID != "b" {
		t.Errorf("current = %+v, want b", cur)
	}
	if d.State() != StatePlaying {
		t.Errorf("state = %s, want playing after promotion", d.State())
	}
}

func TestDeckQueueOnStoppedDeckPlays(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.QueueNext(testItem("a")); err != nil {
		t.Fatalf("QueueNext failed: %v", err)
	}
	if d.State() != StatePlaying {
		t.Errorf("state = %s, want playing", d.State())
	}
	started, _, _ := rec.counts()
	if started != 1 {
		t.Errorf("started callbacks = %d, want 1", started)
	}
}

func TestDeckPauseHoldsClock(t *testing.T) {
	d, _ := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	d.Pause()
	if d.State() != StatePaused {
		t.Fatalf("state = %s, want paused", d.State())
	}
	at := d.Elapsed()
	time.Sleep(20 * time.Millisecond)
	if got := d.Elapsed(); got != at {
		t.Errorf("elapsed moved while paused: %v -> %v", at, got)
	}

	d.Resume()
	waitFor(t, time.Second, func() bool { return d.Elapsed() > at })
}

func TestDeckPlayReplacesCurrent(t *testing.T) {
	d, rec := fastDeck(t)
	if err := d.Play(testItem("a")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := d.QueueNext(testItem("b")); err != nil {
		t.Fatalf("QueueNext failed: %v", err)
	}
	if err := d.Play(testItem("c")); err != nil {
		t.Fatalf("replacement Play failed: %v", err)
	}
	if cur := d.Current(); cur == nil || cur.ID != "c" {
		t.Errorf("current = %+v, want c", cur)
	}
	// The old queue is gone: the boundary after c stops the deck.
	waitFor(t, time.Second, func() bool { return d.State() == StateStopped })
	started, _, _ := rec.counts()
	if started != 2 {
		t.Errorf("started callbacks = %d, want 2 (a and c)", started)
	}
}
