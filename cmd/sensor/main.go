// sensor - camera activity sensor for the milady engine.
//
// Captures frames, measures how much of the scene changed and streams the
// readings to the engine's websocket ingest endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devincimaker/mil4dy/internal/config"
	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/sensor"
)

func main() {
	log.Init(config.LogLevel())

	fmt.Println("📷 milady activity sensor")
	fmt.Println("=========================")
	fmt.Printf("Camera: %d\nEngine: %s\n\n", config.CameraID(), config.EngineURL())

	detector, err := sensor.NewMotionDetector(config.CameraID(), sensor.DefaultMotionConfig())
	if err != nil {
		log.Error("camera open failed", "err", err)
		os.Exit(1)
	}
	defer detector.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hostname, _ := os.Hostname()
	client := sensor.NewClient(config.EngineURL(), hostname, time.Second)

	if err := client.Run(ctx, detector.Read); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("sensor stopped", "err", err)
		os.Exit(1)
	}
	fmt.Println("\n👋 Sensor stopped")
}
