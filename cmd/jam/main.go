// jam - offline demo of the mood engine.
//
// Runs the full pipeline with no camera and no HTTP server: the fallback
// simulator sweeps a scripted party arc, the deck plays the demo catalog on a
// compressed clock, and every mood change and selection prints to the
// terminal.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devincimaker/mil4dy/internal/config"
	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/mood"
	"github.com/devincimaker/mil4dy/pkg/playback"
	"github.com/devincimaker/mil4dy/pkg/session"
)

func main() {
	log.Init(config.LogLevel())

	fmt.Println("🎛  milady jam session")
	fmt.Println("=====================")
	fmt.Println("No sensor attached; the simulator runs the room. Ctrl+C to stop.")
	fmt.Println()

	// Compress time: ten wall seconds of demo per catalog minute, and a
	// fast sensor-stale failover so the simulator takes over right away.
	cfg := session.DefaultConfig()
	cfg.EvalInterval = time.Second
	cfg.Mood.StaleTimeout = 2 * time.Second
	cfg.Sim.Mode = mood.ModeScripted
	cfg.Sim.Period = 500 * time.Millisecond
	cfg.Sim.Cycle = 2 * time.Minute
	cfg.Transition.MinPlayTime = 5 * time.Second
	cfg.Transition.Cooldown = 8 * time.Second

	deck := playback.NewDeck(playback.Options{
		TickInterval: 200 * time.Millisecond,
		EndingLead:   20,
		TimeScale:    6,
	})

	sess := session.New(cfg, catalog.Demo(), deck)
	deck.SetCallbacks(playback.Callbacks{
		OnStarted: sess.ItemStarted,
		OnEnding:  sess.ItemEnding,
		OnEnded:   sess.ItemEnded,
	})

	sess.OnMoodChange(func(state mood.State) {
		fmt.Printf("  mood  %-12s energy %.2f  %s (conf %.2f)\n",
			state.Level, state.Energy, state.Trend, state.Confidence)
	})
	sess.SetSelectionHandler(func(sel catalog.Selection, cause session.Cause) {
		fmt.Printf("▶ %-18s %3.0f BPM  energy %.2f  [%s] %s\n",
			sel.Item.Title, sel.Item.BPM, sel.Item.Energy, cause, sel.Reason)
	})

	if err := sess.Start(); err != nil {
		log.Error("session start failed", "err", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Winding down...")
	sess.Stop()
	deck.Stop()
}
