package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// chat handles POST /api/chat. The session lock is held for the whole
// retrieve -> LLM -> append sequence so concurrent turns for the same
// session are serialized and the history stays turn-atomic.
func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := bindStrict(c, &req); err != nil {
		s.metrics.CountChat("error")
		return err
	}
	if err := req.Validate(); err != nil {
		s.metrics.CountChat("error")
		return err
	}

	sess, err := s.store.Get(req.SessionID)
	if err != nil {
		s.metrics.CountChat("error")
		return err
	}

	sess.Lock()
	answer, sources, err := s.chain.Answer(c.Request().Context(), sess, req.Prompt)
	sess.Unlock()
	if err != nil {
		s.metrics.CountChat("error")
		return err
	}

	s.logger.Printf("session=%s op=chat sources=%v", sess.ID(), sources)
	s.metrics.CountChat("ok")

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sess.ID(),
	})
}
