package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/protocol"
)

const (
	dialTimeout     = 10 * time.Second
	reconnectMin    = time.Second
	reconnectMax    = 30 * time.Second
	writeDeadline   = 5 * time.Second
	defaultPeriodMs = 1000
)

// ReadFunc produces one activity reading, 0-100.
type ReadFunc func() (float64, error)

// Client streams activity readings to the engine over a websocket, redialing
// with exponential backoff when the connection drops.
type Client struct {
	url      string
	sensorID string
	period   time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a sensor client for the engine's ingest URL.
func NewClient(url, sensorID string, period time.Duration) *Client {
	if period <= 0 {
		period = defaultPeriodMs * time.Millisecond
	}
	return &Client{url: url, sensorID: sensorID, period: period}
}

// Run reads and sends samples until the context is cancelled. Read errors are
// logged and skipped; send errors trigger a reconnect.
func (c *Client) Run(ctx context.Context, read ReadFunc) error {
	defer c.close()

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		value, err := read()
		if err != nil {
			log.Warn("sensor read failed", "err", err)
			continue
		}

		if err := c.send(ctx, value); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("sample send failed, reconnecting", "err", err)
			c.close()
		}
	}
}

// send delivers one sample, dialing first if needed.
func (c *Client) send(ctx context.Context, value float64) error {
	conn, err := c.ensureConnected(ctx)
	if err != nil {
		return err
	}

	msg, err := protocol.NewSampleMessage(value, time.Now(), c.sensorID)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// ensureConnected returns the live connection, dialing with backoff until the
// engine answers or the context is cancelled.
func (c *Client) ensureConnected(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	if c.conn != nil {
		conn := c.conn
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	backoff := reconnectMin
	for {
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			log.Info("connected to engine", "url", c.url, "sensor", c.sensorID)
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			return conn, nil
		}

		log.Warn("engine dial failed", "url", c.url, "retry_in", backoff, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
