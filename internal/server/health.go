package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// health handles GET /api/health. It pings the embedding service with a
// tiny request so a dead embedder shows up here instead of on the first
// upload.
func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := s.embedder.CreateEmbedding(ctx, []string{"ping"}); err != nil {
		s.logger.Printf("op=health embedder ping: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "embedding service unreachable",
			"note":   "make sure the embedding endpoint is running and the model is pulled",
		})
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		EmbeddingModel: s.cfg.Embedding.Model,
		LLMModel:       s.cfg.LLM.Model,
		ActiveSessions: s.store.Len(),
	})
}
