package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// sessionInfo handles GET /api/sessions/:id/info.
func (s *Server) sessionInfo(c echo.Context) error {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	sess.Lock()
	summary := sess.Summarize()
	sess.Unlock()
	return c.JSON(http.StatusOK, summary)
}

// clearHistory handles POST /api/sessions/:id/clear-history. The
// document and its index survive; only the conversation is wiped.
func (s *Server) clearHistory(c echo.Context) error {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	sess.Lock()
	sess.ClearHistory()
	sess.Touch()
	sess.Unlock()

	s.logger.Printf("session=%s op=clear-history", sess.ID())
	return c.JSON(http.StatusOK, StatusResponse{Status: "cleared"})
}

// deleteSession handles DELETE /api/sessions/:id. Deletion is terminal:
// any later reference to the id, including a second delete, is a 404.
func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Printf("session=%s op=delete", id)
	return c.JSON(http.StatusOK, StatusResponse{Status: "deleted"})
}

// listSessions handles GET /api/sessions.
func (s *Server) listSessions(c echo.Context) error {
	summaries := s.store.List()
	return c.JSON(http.StatusOK, SessionListResponse{
		Sessions: summaries,
		Count:    len(summaries),
	})
}
