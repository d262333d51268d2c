package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/mood"
)

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	queued  []string
	playErr error
}

func (p *fakePlayer) Play(item catalog.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, item.ID)
	return nil
}

func (p *fakePlayer) QueueNext(item catalog.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued = append(p.queued, item.ID)
	return nil
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

func (p *fakePlayer) queueCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queued)
}

// testSession builds a session over the demo catalog with a long evaluation
// interval so ticks never interfere with the assertions.
func testSession(t *testing.T) (*Session, *fakePlayer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.EvalInterval = time.Hour
	cfg.AutoFallback = false
	player := &fakePlayer{}
	s := New(cfg, catalog.Demo(), player)
	t.Cleanup(s.Stop)
	return s, player
}

func TestSessionStartPlaysFirstItem(t *testing.T) {
	s, player := testSession(t)

	var causes []Cause
	s.SetSelectionHandler(func(sel catalog.Selection, cause Cause) {
		causes = append(causes, cause)
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := s.Status().State; got != StatePlaying {
		t.Errorf("state = %s, want playing", got)
	}
	if player.playCount() != 1 {
		t.Fatalf("play count = %d, want 1", player.playCount())
	}
	if len(causes) != 1 || causes[0] != CauseStart {
		t.Errorf("selection causes = %v, want [start]", causes)
	}
}

func TestSessionDoubleStart(t *testing.T) {
	s, _ := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestSessionStartPlaybackFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvalInterval = time.Hour
	player := &fakePlayer{playErr: errors.New("deck offline")}
	s := New(cfg, catalog.Demo(), player)

	if err := s.Start(); err == nil {
		t.Fatal("Start succeeded with a broken player")
	}
	if got := s.Status().State; got != StateIdle {
		t.Errorf("state after failed start = %s, want idle", got)
	}
}

func TestSessionEmptyCatalog(t *testing.T) {
	s := New(DefaultConfig(), nil, &fakePlayer{})
	if err := s.Start(); !errors.Is(err, catalog.ErrEmptyCatalog) {
		t.Errorf("Start = %v, want ErrEmptyCatalog", err)
	}
}

func TestSessionPauseResume(t *testing.T) {
	s, _ := testSession(t)

	if err := s.Pause(); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Pause while idle = %v, want ErrNotPlaying", err)
	}
	if err := s.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume while idle = %v, want ErrNotPaused", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if got := s.Status().State; got != StatePaused {
		t.Errorf("state = %s, want paused", got)
	}

	// Mood and history survive the pause.
	before := s.CurrentMood()
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if got := s.Status().State; got != StatePlaying {
		t.Errorf("state = %s, want playing", got)
	}
	if after := s.CurrentMood(); after != before {
		t.Errorf("mood changed across pause: %+v -> %+v", before, after)
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	s, _ := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
	s.Stop()
	if got := s.Status().State; got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}

	// A stopped session can start again.
	if err := s.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestSessionItemStartedRecordsHistory(t *testing.T) {
	s, player := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	player.mu.Lock()
	first := player.played[0]
	player.mu.Unlock()

	s.ItemStarted(first)

	if !s.History().Contains(first) {
		t.Errorf("history missing %s after ItemStarted", first)
	}
	st := s.Status()
	if st.Current == nil || st.Current.ID != first {
		t.Errorf("status current = %+v, want %s", st.Current, first)
	}

	// Unknown telemetry is ignored, not fatal.
	s.ItemStarted("no-such-item")
	if got := s.Status().Current.ID; got != first {
		t.Errorf("current = %s after bogus telemetry, want %s", got, first)
	}
}

func TestSessionItemEndingQueuesOnce(t *testing.T) {
	s, player := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	player.mu.Lock()
	first := player.played[0]
	player.mu.Unlock()
	s.ItemStarted(first)

	s.ItemEnding(first, 12)
	s.ItemEnding(first, 8)

	if got := player.queueCount(); got != 1 {
		t.Errorf("queue count = %d, want 1", got)
	}
	st := s.Status()
	if st.Next == nil {
		t.Fatal("status has no queued next item")
	}
	if st.Next.ID == first {
		t.Errorf("queued the item that is ending: %s", st.Next.ID)
	}
}

func TestSessionItemEndedWithoutQueuePlaysNext(t *testing.T) {
	s, player := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	player.mu.Lock()
	first := player.played[0]
	player.mu.Unlock()
	s.ItemStarted(first)

	s.ItemEnded(first)
	if got := player.playCount(); got != 2 {
		t.Errorf("play count = %d, want 2 after unqueued boundary", got)
	}
}

func TestSessionItemEndedWithQueueIsSilent(t *testing.T) {
	s, player := testSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	player.mu.Lock()
	first := player.played[0]
	player.mu.Unlock()
	s.ItemStarted(first)
	s.ItemEnding(first, 12)

	s.ItemEnded(first)
	if got := player.playCount(); got != 1 {
		t.Errorf("play count = %d, want 1; deck promotes its own queue", got)
	}
}

func TestSessionSkip(t *testing.T) {
	s, player := testSession(t)

	s.Skip() // no-op while idle
	if player.playCount() != 0 {
		t.Fatal("Skip played something while idle")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	player.mu.Lock()
	first := player.played[0]
	player.mu.Unlock()
	s.ItemStarted(first)

	var causes []Cause
	s.SetSelectionHandler(func(sel catalog.Selection, cause Cause) {
		causes = append(causes, cause)
	})

	s.Skip()
	if got := player.playCount(); got != 2 {
		t.Fatalf("play count = %d, want 2 after skip", got)
	}
	if len(causes) != 1 || causes[0] != CauseSkip {
		t.Errorf("selection causes = %v, want [skip]", causes)
	}
}

func TestSessionOfferSampleDroppedWhenIdle(t *testing.T) {
	s, _ := testSession(t)
	s.OfferSample(mood.Sample{Value: 50, Timestamp: time.Now()})
	if got := len(s.sampleCh); got != 0 {
		t.Errorf("sample buffered while idle, channel len = %d", got)
	}
}

func TestSessionMoodListeners(t *testing.T) {
	s, _ := testSession(t)

	var mu sync.Mutex
	var notified []mood.State
	id := s.OnMoodChange(func(st mood.State) {
		mu.Lock()
		notified = append(notified, st)
		mu.Unlock()
	})
	s.OnMoodChange(func(mood.State) {
		panic("misbehaving dashboard")
	})

	// Drive the stabilizer directly; its change handler is the session's
	// fan-out, panicking listeners included.
	s.stab.Offer(mood.Sample{Value: 80, Timestamp: time.Now()})

	mu.Lock()
	count := len(notified)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("notifications = %d, want 1", count)
	}

	s.OffMoodChange(id)
	s.stab.Offer(mood.Sample{Value: 5, Timestamp: time.Now()})

	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 {
		t.Errorf("notifications = %d after unsubscribe, want 1", len(notified))
	}
}

func TestSessionStatusSnapshot(t *testing.T) {
	s, _ := testSession(t)

	st := s.Status()
	if st.State != StateIdle || st.UptimeSeconds != 0 {
		t.Errorf("idle status = %+v", st)
	}
	if st.Source != SourceSensed {
		t.Errorf("source = %s, want sensed", st.Source)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	st = s.Status()
	if st.State != StatePlaying {
		t.Errorf("state = %s, want playing", st.State)
	}
	if st.UptimeSeconds < 0 {
		t.Errorf("uptime = %.2f, want >= 0", st.UptimeSeconds)
	}
	if st.Mood.Level == "" {
		t.Error("status mood missing")
	}
}

type pausablePlayer struct {
	fakePlayer
	pauses  atomic.Int32
	resumes atomic.Int32
}

func (p *pausablePlayer) Pause()  { p.pauses.Add(1) }
func (p *pausablePlayer) Resume() { p.resumes.Add(1) }

func TestSessionPausePropagatesToPlayer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvalInterval = time.Hour
	cfg.AutoFallback = false
	player := &pausablePlayer{}
	s := New(cfg, catalog.Demo(), player)
	t.Cleanup(s.Stop)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if got := player.pauses.Load(); got != 1 {
		t.Errorf("player pauses = %d, want 1", got)
	}

	// A rejected pause must not reach the player.
	if err := s.Pause(); err == nil {
		t.Fatal("Pause succeeded while already paused")
	}
	if got := player.pauses.Load(); got != 1 {
		t.Errorf("player pauses = %d after rejected pause, want 1", got)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if got := player.resumes.Load(); got != 1 {
		t.Errorf("player resumes = %d, want 1", got)
	}
}
