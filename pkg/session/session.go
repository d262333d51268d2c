// Package session orchestrates the engine: it owns the lifecycle state
// machine, drives the periodic transition evaluation, and switches the mood
// source between the live sensor and the fallback simulator.
//
// Mood flows through a single run goroutine: samples, simulator readings,
// the staleness watchdog and evaluation ticks are serialized onto it through
// channels. Lifecycle commands and playback telemetry arrive on caller
// goroutines and take the session mutex; the pieces they touch (selector,
// history, stabilizer) guard their own state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/mood"
	"github.com/devincimaker/mil4dy/pkg/transition"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
)

// Source identifies which mood source currently owns the MoodState.
type Source string

const (
	SourceSensed    Source = "sensed"
	SourceSimulated Source = "simulated"
)

// Player is the external playback collaborator. Play replaces the current
// item immediately; QueueNext lines an item up for the next boundary.
type Player interface {
	Play(item catalog.Item) error
	QueueNext(item catalog.Item) error
}

// pauser is implemented by playback collaborators whose clock the session
// should freeze across Pause/Resume. A player without it keeps its own time.
type pauser interface {
	Pause()
	Resume()
}

// Cause tags why a selection was made.
type Cause string

const (
	CauseStart    Cause = "start"
	CauseBoundary Cause = "boundary"
	CausePreempt  Cause = "preempt"
	CauseSkip     Cause = "skip"
)

// Config holds the orchestrator tunables plus the nested component configs.
type Config struct {
	EvalInterval time.Duration // Transition evaluation period
	HistorySize  int
	AutoFallback bool // Fail over to the simulator when the sensor goes stale

	Mood       mood.Config
	Sim        mood.SimConfig
	Selector   catalog.SelectorConfig
	Transition transition.Config
}

// DefaultConfig returns the recommended orchestrator configuration
func DefaultConfig() Config {
	return Config{
		EvalInterval: 3000 * time.Millisecond,
		HistorySize:  catalog.DefaultHistorySize,
		AutoFallback: true,
		Mood:         mood.DefaultConfig(),
		Sim:          mood.DefaultSimConfig(),
		Selector:     catalog.DefaultSelectorConfig(),
		Transition:   transition.DefaultConfig(),
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.EvalInterval <= 0 {
		c.EvalInterval = def.EvalInterval
	}
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	return c
}

// Status is the collaborator-facing snapshot.
type Status struct {
	State         State         `json:"state"`
	Source        Source        `json:"source"`
	Current       *catalog.Item `json:"current,omitempty"`
	Next          *catalog.Item `json:"next,omitempty"`
	Mood          mood.State    `json:"mood"`
	UptimeSeconds float64       `json:"uptime_seconds"`
}

type simReading struct {
	energy     float64
	confidence float64
}

// Session ties the mood pipeline, selector and evaluator into a periodic
// evaluation loop with cooldowns and a lifecycle state machine.
type Session struct {
	cfg      Config
	stab     *mood.Stabilizer
	sim      *mood.Simulator
	selector *catalog.Selector
	eval     *transition.Evaluator
	player   Player
	byID     map[string]catalog.Item

	mu              sync.Mutex
	state           State
	source          Source
	current         *catalog.Item
	next            *catalog.Item
	moodAtStart     mood.State
	lastLevel       mood.Level
	moodStableSince time.Time
	lastTransition  time.Time
	waitUntil       time.Time
	startedAt       time.Time
	itemStartedAt   time.Time
	pausedAt        time.Time
	pausedTotal     time.Duration

	listeners   map[uuid.UUID]func(mood.State)
	onSelection func(catalog.Selection, Cause)

	sampleCh chan mood.Sample
	simCh    chan simReading
	staleCh  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}

	now func() time.Time
}

// New creates a session over the given catalog and playback collaborator.
func New(cfg Config, items []catalog.Item, player Player) *Session {
	cfg = cfg.normalize()

	byID := make(map[string]catalog.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	s := &Session{
		cfg:       cfg,
		stab:      mood.NewStabilizer(cfg.Mood),
		selector:  catalog.NewSelector(items, catalog.NewHistory(cfg.HistorySize), cfg.Selector),
		eval:      transition.NewEvaluator(cfg.Transition),
		player:    player,
		byID:      byID,
		state:     StateIdle,
		source:    SourceSensed,
		listeners: make(map[uuid.UUID]func(mood.State)),
		sampleCh:  make(chan mood.Sample, 64),
		simCh:     make(chan simReading, 8),
		staleCh:   make(chan struct{}, 1),
		now:       time.Now,
	}

	s.sim = mood.NewSimulator(cfg.Sim, func(energy, confidence float64) {
		select {
		case s.simCh <- simReading{energy, confidence}:
		default:
		}
	})

	s.stab.SetChangeHandler(s.moodChanged)
	s.stab.SetStaleHandler(func() {
		select {
		case s.staleCh <- struct{}{}:
		default:
		}
	})

	return s
}

// SetSelectionHandler registers the observer for every selection the session
// makes (session start, item boundary, preemption, manual skip).
func (s *Session) SetSelectionHandler(fn func(catalog.Selection, Cause)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelection = fn
}

// Start selects and plays the first item and begins the evaluation loop.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.startedAt = s.now()
	s.lastLevel = s.stab.Current().Level
	s.moodStableSince = s.now()
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	sel, err := s.selector.SelectNext(s.stab.Current(), nil)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}
	s.emitSelection(sel, CauseStart)
	if err := s.player.Play(sel.Item); err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = StatePlaying
	s.mu.Unlock()

	s.stab.Arm()
	go s.run()

	log.Info("session started", "first", sel.Item.ID, "reason", sel.Reason)
	return nil
}

// run is the session's single sequential timeline.
func (s *Session) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return

		case sample := <-s.sampleCh:
			s.handleSample(sample)

		case r := <-s.simCh:
			s.handleSimReading(r)

		case <-s.staleCh:
			s.handleStale()

		case <-ticker.C:
			s.handleTick()
		}
	}
}

// OfferSample feeds a sensor sample into the session. Samples are dropped
// unless the session is playing.
func (s *Session) OfferSample(sample mood.Sample) {
	s.mu.Lock()
	playing := s.state == StatePlaying
	s.mu.Unlock()
	if !playing {
		return
	}
	select {
	case s.sampleCh <- sample:
	default:
		// Sensor is outrunning the loop; dropping is safe, the window
		// smoothing absorbs gaps.
	}
}

func (s *Session) handleSample(sample mood.Sample) {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return
	}
	// A live sample while simulated means the sensor came back.
	if s.source == SourceSimulated {
		s.source = SourceSensed
		s.sim.Stop()
		log.Info("sensor recovered, back to sensed mood")
	}
	s.mu.Unlock()

	s.stab.Offer(sample)
}

func (s *Session) handleSimReading(r simReading) {
	s.mu.Lock()
	ok := s.state == StatePlaying && s.source == SourceSimulated
	s.mu.Unlock()
	if !ok {
		return
	}
	s.stab.OfferEnergy(r.energy, r.confidence)
}

func (s *Session) handleStale() {
	s.mu.Lock()
	if !s.cfg.AutoFallback || s.state != StatePlaying || s.source == SourceSimulated {
		s.mu.Unlock()
		return
	}
	s.source = SourceSimulated
	s.mu.Unlock()

	log.Warn("sensor stale, failing over to simulated mood")
	s.sim.Start()
}

// handleTick runs one transition evaluation.
func (s *Session) handleTick() {
	s.mu.Lock()
	if s.state != StatePlaying || s.current == nil {
		s.mu.Unlock()
		return
	}
	if s.now().Before(s.waitUntil) {
		s.mu.Unlock()
		return
	}
	ctx := s.buildContext()
	s.mu.Unlock()

	decision, err := s.eval.Evaluate(ctx)
	if err != nil {
		log.Error("transition evaluation failed", "err", err)
		return
	}

	switch decision.Action {
	case transition.ActionWait:
		s.mu.Lock()
		s.waitUntil = s.now().Add(decision.WaitTime)
		s.mu.Unlock()
		log.Debug("transition wait", "score", decision.Score, "until", decision.WaitTime)

	case transition.ActionTransitionNow:
		log.Info("early transition", "score", decision.Score, "reason", decision.Reason)
		s.transitionNow(CausePreempt)
	}
}

// transitionNow selects against the current item and hands the pick to the
// playback collaborator.
func (s *Session) transitionNow(cause Cause) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	sel, err := s.selector.SelectNext(s.stab.Current(), current)
	if err != nil {
		log.Error("selection failed", "err", err)
		return
	}

	s.mu.Lock()
	s.lastTransition = s.now()
	s.mu.Unlock()

	s.emitSelection(sel, cause)
	if err := s.player.Play(sel.Item); err != nil {
		log.Error("playback rejected item", "item", sel.Item.ID, "err", err)
	}
}

// buildContext snapshots live state for the evaluator. Caller holds the lock.
func (s *Session) buildContext() transition.Context {
	now := s.now()
	played := now.Sub(s.itemStartedAt) - s.pausedTotal
	if played < 0 {
		played = 0
	}
	return transition.Context{
		Current:                    s.current,
		Mood:                       s.stab.Current(),
		MoodAtStart:                s.moodAtStart,
		PlayedSeconds:              played.Seconds(),
		TotalDuration:              s.current.Duration,
		SecondsSinceLastTransition: sinceOrLarge(now, s.lastTransition),
		MoodStableSeconds:          now.Sub(s.moodStableSince).Seconds(),
	}
}

// sinceOrLarge returns seconds since t, or a large value when t is unset so
// the cooldown rule does not block the first transition forever.
func sinceOrLarge(now, t time.Time) float64 {
	if t.IsZero() {
		return 1e9
	}
	return now.Sub(t).Seconds()
}

// ItemStarted is playback telemetry: a new item is audible. The session
// snapshots the mood, resets the stability clock and records the play.
func (s *Session) ItemStarted(id string) {
	item, ok := s.byID[id]
	if !ok {
		log.Warn("telemetry for unknown item", "id", id)
		return
	}

	s.mu.Lock()
	s.current = &item
	s.next = nil
	s.itemStartedAt = s.now()
	s.pausedTotal = 0
	s.moodAtStart = s.stab.Current()
	s.moodStableSince = s.now()
	s.mu.Unlock()

	s.selector.History().Record(id)
	log.Info("item started", "id", id)
}

// ItemEnding is playback telemetry: the current item is within remaining
// seconds of its end. The session queues the boundary pick.
func (s *Session) ItemEnding(id string, remainingSeconds float64) {
	s.mu.Lock()
	if s.state != StatePlaying || s.next != nil {
		s.mu.Unlock()
		return
	}
	current := s.current
	s.mu.Unlock()

	sel, err := s.selector.SelectNext(s.stab.Current(), current)
	if err != nil {
		log.Error("boundary selection failed", "err", err)
		return
	}

	s.mu.Lock()
	item := sel.Item
	s.next = &item
	s.mu.Unlock()

	s.emitSelection(sel, CauseBoundary)
	if err := s.player.QueueNext(sel.Item); err != nil {
		log.Error("queueing next item failed", "item", sel.Item.ID, "err", err)
	}
}

// ItemEnded is playback telemetry: the item finished on its own. If nothing
// was queued, the session picks and plays a follow-up.
func (s *Session) ItemEnded(id string) {
	s.mu.Lock()
	queued := s.next != nil
	playing := s.state == StatePlaying
	s.mu.Unlock()

	if !playing || queued {
		// The playback collaborator promotes the queued item itself and
		// reports it via ItemStarted.
		return
	}
	s.transitionNow(CauseBoundary)
}

// Skip is a manual "next track" request. It bypasses the evaluator but still
// stamps the transition time so the cooldown applies afterwards.
func (s *Session) Skip() {
	s.mu.Lock()
	playing := s.state == StatePlaying
	s.mu.Unlock()
	if !playing {
		return
	}
	s.transitionNow(CauseSkip)
}

// Pause suspends sample intake and evaluation without losing mood or history
// state. The mood source timers are cancelled.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return ErrNotPlaying
	}
	s.state = StatePaused
	s.pausedAt = s.now()
	s.mu.Unlock()

	s.sim.Stop()
	s.stab.Stop()
	if p, ok := s.player.(pauser); ok {
		p.Pause()
	}
	log.Info("session paused")
	return nil
}

// Resume restarts evaluation after a pause.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return ErrNotPaused
	}
	s.state = StatePlaying
	s.pausedTotal += s.now().Sub(s.pausedAt)
	source := s.source
	s.mu.Unlock()

	if source == SourceSimulated {
		s.sim.Start()
	} else {
		s.stab.Arm()
	}
	if p, ok := s.player.(pauser); ok {
		p.Resume()
	}
	log.Info("session resumed")
	return nil
}

// Stop cancels all timer sources and returns the session to idle.
// Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateStopping {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
	s.sim.Stop()
	s.stab.Stop()

	s.mu.Lock()
	s.state = StateIdle
	s.current = nil
	s.next = nil
	s.mu.Unlock()

	log.Info("session stopped")
}

// CurrentMood returns a copy of the mood state.
func (s *Session) CurrentMood() mood.State {
	return s.stab.Current()
}

// History returns the play history.
func (s *Session) History() *catalog.History {
	return s.selector.History()
}

// Catalog returns the loaded catalog items.
func (s *Session) Catalog() []catalog.Item {
	return s.selector.Items()
}

// Status returns the collaborator-facing snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uptime float64
	if !s.startedAt.IsZero() && s.state != StateIdle {
		uptime = s.now().Sub(s.startedAt).Seconds()
	}
	return Status{
		State:         s.state,
		Source:        s.source,
		Current:       s.current,
		Next:          s.next,
		Mood:          s.stab.Current(),
		UptimeSeconds: uptime,
	}
}

// OnMoodChange subscribes a listener to accepted mood updates and returns its
// handle. Listeners run synchronously on the update path and must not block.
func (s *Session) OnMoodChange(fn func(mood.State)) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.listeners[id] = fn
	return id
}

// OffMoodChange removes a listener by handle.
func (s *Session) OffMoodChange(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

// moodChanged tracks level stability and fans the update out to listeners.
// A panicking listener is isolated and reported; it cannot stall the
// broadcast or corrupt session state.
func (s *Session) moodChanged(state mood.State) {
	s.mu.Lock()
	if state.Level != s.lastLevel {
		s.lastLevel = state.Level
		s.moodStableSince = s.now()
	}
	listeners := make([]func(mood.State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		s.safeNotify(fn, state)
	}
}

func (s *Session) safeNotify(fn func(mood.State), state mood.State) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("mood listener panicked", "panic", r)
		}
	}()
	fn(state)
}

func (s *Session) emitSelection(sel catalog.Selection, cause Cause) {
	s.mu.Lock()
	fn := s.onSelection
	s.mu.Unlock()
	if fn != nil {
		fn(sel, cause)
	}
}
