// mil4dy - the room-mood DJ engine daemon.
//
// Reads activity samples from connected sensors, tracks the room's mood and
// drives the simulated deck through the catalog. Serves the JSON API and the
// dashboard websocket streams.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devincimaker/mil4dy/internal/config"
	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/playback"
	"github.com/devincimaker/mil4dy/pkg/session"
	"github.com/devincimaker/mil4dy/pkg/web"
)

func main() {
	log.Init(config.LogLevel())

	fmt.Println("🎧 milady engine")
	fmt.Println("================")

	items, err := catalog.Load(config.CatalogPath(""))
	if err != nil {
		log.Warn("catalog load failed, using the demo catalog", "err", err)
		items = catalog.Demo()
	}
	log.Info("catalog loaded", "items", len(items))

	deck := playback.NewDeck(playback.DefaultOptions())
	sess := session.New(session.DefaultConfig(), items, deck)
	deck.SetCallbacks(playback.Callbacks{
		OnStarted: sess.ItemStarted,
		OnEnding:  sess.ItemEnding,
		OnEnded:   sess.ItemEnded,
	})

	srv := web.NewServer(config.Port(), sess)

	if err := sess.Start(); err != nil {
		log.Error("session start failed", "err", err)
		os.Exit(1)
	}
	srv.StartAsync()
	fmt.Printf("API:    http://localhost:%s/api/status\n", config.Port())
	fmt.Printf("Sensor: ws://localhost:%s/ws/sensor\n\n", config.Port())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Shutting down...")
	sess.Stop()
	deck.Stop()
	if err := srv.Shutdown(); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
}
