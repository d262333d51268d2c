// Package web serves the engine's HTTP surface: a JSON API over the session,
// live dashboard streams for mood and transition decisions, and the
// websocket ingest endpoint activity sensors connect to.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/hub"
	"github.com/devincimaker/mil4dy/pkg/mood"
	"github.com/devincimaker/mil4dy/pkg/protocol"
	"github.com/devincimaker/mil4dy/pkg/session"
)

// Server is the engine's HTTP and websocket server.
type Server struct {
	app  *fiber.App
	port string

	session *session.Session

	// Hubs for websocket broadcast
	moodHub     *hub.Hub
	decisionHub *hub.Hub

	gateway *SensorGateway
}

// NewServer creates the server and wires it to the session: accepted mood
// updates and selections flow out to the dashboard streams, sensor samples
// flow in through the ingest endpoint.
func NewServer(port string, sess *session.Session) *Server {
	s := &Server{
		port:        port,
		session:     sess,
		moodHub:     hub.New("mood"),
		decisionHub: hub.New("decisions"),
		gateway:     NewSensorGateway(sess),
	}

	sess.OnMoodChange(func(state mood.State) {
		msg, err := protocol.NewMoodMessage(state)
		if err != nil {
			log.Error("encoding mood update failed", "err", err)
			return
		}
		s.moodHub.BroadcastMessage(msg)
	})

	sess.SetSelectionHandler(func(sel catalog.Selection, cause session.Cause) {
		msg, err := protocol.NewMessage(protocol.TypeNowPlaying, protocol.NowPlayingData{
			Item:   sel.Item,
			Reason: sel.Reason,
			Score:  sel.Score,
			Cause:  string(cause),
		})
		if err != nil {
			log.Error("encoding selection failed", "err", err)
			return
		}
		s.decisionHub.BroadcastMessage(msg)
	})

	app := fiber.New(fiber.Config{
		AppName:               "milady engine",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/mood", s.handleMood)
	api.Get("/catalog", s.handleCatalog)
	api.Get("/history", s.handleHistory)
	api.Post("/skip", s.handleSkip)
	api.Post("/pause", s.handlePause)
	api.Post("/resume", s.handleResume)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Dashboard streams
	app.Get("/ws/mood", websocket.New(s.handleMoodWS))
	app.Get("/ws/decisions", websocket.New(s.handleDecisionsWS))

	// Sensor ingest
	s.gateway.RegisterRoutes(app)

	s.app = app
	return s
}

// Start starts the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	go s.moodHub.Run()
	go s.decisionHub.Run()

	log.Info("engine listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "err", err)
		}
	}()
}

// Shutdown gracefully stops the server and its hubs.
func (s *Server) Shutdown() error {
	s.moodHub.Stop()
	s.decisionHub.Stop()
	return s.app.Shutdown()
}
