package web

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/protocol"
	"github.com/devincimaker/mil4dy/pkg/session"
)

// SensorConnection represents one connected activity sensor.
type SensorConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send sends a message to the sensor.
func (s *SensorConnection) Send(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// SensorGateway accepts sensor websocket connections and feeds their samples
// into the session. Multiple sensors may connect; their readings blend in the
// smoothing window.
type SensorGateway struct {
	mu      sync.RWMutex
	sensors map[string]*SensorConnection
	session *session.Session

	samplesReceived atomic.Uint64
}

// NewSensorGateway creates a gateway over the given session.
func NewSensorGateway(sess *session.Session) *SensorGateway {
	return &SensorGateway{
		sensors: make(map[string]*SensorConnection),
		session: sess,
	}
}

// RegisterRoutes registers the ingest endpoint on a Fiber app. The caller is
// responsible for the /ws upgrade middleware.
func (g *SensorGateway) RegisterRoutes(app *fiber.App) {
	app.Get("/ws/sensor", websocket.New(g.handleSensor))
	app.Get("/ws/sensor/:id", websocket.New(g.handleSensor))
}

// SensorCount returns the number of connected sensors.
func (g *SensorGateway) SensorCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sensors)
}

// SamplesReceived returns the total samples ingested since start.
func (g *SensorGateway) SamplesReceived() uint64 {
	return g.samplesReceived.Load()
}

// handleSensor owns one sensor connection for its lifetime.
func (g *SensorGateway) handleSensor(c *websocket.Conn) {
	sensorID := c.Params("id")
	if sensorID == "" {
		sensorID = "sensor-" + uuid.NewString()[:8]
	}

	sensor := &SensorConnection{
		ID:        sensorID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	g.mu.Lock()
	g.sensors[sensorID] = sensor
	count := len(g.sensors)
	g.mu.Unlock()
	log.Info("sensor connected", "id", sensorID, "total", count)

	defer func() {
		g.mu.Lock()
		delete(g.sensors, sensorID)
		count := len(g.sensors)
		g.mu.Unlock()
		log.Info("sensor disconnected", "id", sensorID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		sensor.mu.Lock()
		sensor.LastSeen = time.Now()
		sensor.mu.Unlock()

		g.handleMessage(sensor, data)
	}
}

// handleMessage processes one inbound frame from a sensor.
func (g *SensorGateway) handleMessage(sensor *SensorConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Debug("unparseable sensor frame", "id", sensor.ID, "err", err)
		return
	}

	switch msg.Type {
	case protocol.TypeSample:
		var sample protocol.SampleData
		if err := msg.ParseData(&sample); err != nil {
			log.Debug("bad sample payload", "id", sensor.ID, "err", err)
			return
		}
		g.samplesReceived.Add(1)
		g.session.OfferSample(sample.Sample())

	case protocol.TypePing:
		var ping protocol.PingData
		if err := msg.ParseData(&ping); err != nil {
			return
		}
		pong, err := protocol.NewPongMessage(ping)
		if err != nil {
			return
		}
		if err := sensor.Send(pong); err != nil {
			log.Debug("pong send failed", "id", sensor.ID, "err", err)
		}
	}
}
