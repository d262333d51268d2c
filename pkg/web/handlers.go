package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/devincimaker/mil4dy/pkg/hub"
	"github.com/devincimaker/mil4dy/pkg/protocol"
	"github.com/devincimaker/mil4dy/pkg/session"
)

// handleStatus returns the session snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.session.Status()
	return c.JSON(protocol.StatusData{
		State:   string(st.State),
		Source:  string(st.Source),
		Current: st.Current,
		Next:    st.Next,
		Mood: protocol.MoodData{
			Level:      st.Mood.Level,
			Energy:     st.Mood.Energy,
			Trend:      st.Mood.Trend,
			Confidence: st.Mood.Confidence,
		},
		UptimeSeconds: st.UptimeSeconds,
	})
}

// handleMood returns the current mood state.
func (s *Server) handleMood(c *fiber.Ctx) error {
	return c.JSON(s.session.CurrentMood())
}

// handleCatalog returns the loaded catalog.
func (s *Server) handleCatalog(c *fiber.Ctx) error {
	return c.JSON(s.session.Catalog())
}

// handleHistory returns recent play history, most recent first.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ids": s.session.History().IDs()})
}

// handleSkip requests the next track immediately.
func (s *Server) handleSkip(c *fiber.Ctx) error {
	s.session.Skip()
	return c.JSON(fiber.Map{"ok": true})
}

// handlePause pauses the session.
func (s *Server) handlePause(c *fiber.Ctx) error {
	if err := s.session.Pause(); err != nil {
		if errors.Is(err, session.ErrNotPlaying) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleResume resumes a paused session.
func (s *Server) handleResume(c *fiber.Ctx) error {
	if err := s.session.Resume(); err != nil {
		if errors.Is(err, session.ErrNotPaused) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleMoodWS streams accepted mood updates. The current state is pushed on
// connect so the dashboard renders immediately.
func (s *Server) handleMoodWS(c *websocket.Conn) {
	if msg, err := protocol.NewMoodMessage(s.session.CurrentMood()); err == nil {
		if data, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}
	hub.NewClient(s.moodHub, c).Run()
}

// handleDecisionsWS streams selection and transition broadcasts.
func (s *Server) handleDecisionsWS(c *websocket.Conn) {
	hub.NewClient(s.decisionHub, c).Run()
}
