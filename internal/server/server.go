package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docchat/config"
	"docchat/internal/apperr"
	"docchat/internal/rag"
	"docchat/internal/telemetry"
	"docchat/provider"
	openai_provider "docchat/provider/openai"
	"docchat/session"
	"docchat/session/inmemory"
)

// Server carries the handler dependencies. Everything is injected so
// tests can swap the providers and the store.
type Server struct {
	cfg      *config.Config
	store    session.Store
	chain    *rag.Chain
	ingestor *rag.Ingestor
	embedder provider.Embedder
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

// New wires a server from its collaborators. metrics may be nil (tests).
func New(cfg *config.Config, store session.Store, llm provider.Completer, embedder provider.Embedder, metrics *telemetry.Metrics) (*Server, error) {
	ingestor, err := rag.NewIngestor(embedder, cfg.RAG, metrics)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		chain:    rag.NewChain(llm, embedder, cfg.RAG, metrics),
		ingestor: ingestor,
		embedder: embedder,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}, nil
}

// Register installs middleware and routes on the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	if s.cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	registerDocs(e)

	api := e.Group("/api")
	api.GET("/health", s.health)
	api.POST("/upload", s.upload)
	api.POST("/chat", s.chat)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id/info", s.sessionInfo)
	api.POST("/sessions/:id/clear-history", s.clearHistory)
	api.DELETE("/sessions/:id", s.deleteSession)
}

// errorHandler maps the error taxonomy onto HTTP status codes and emits
// a uniform JSON error body. External-service failures are surfaced with
// a generic message; details stay in the logs.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal server error"

	var validationErr apperr.ValidationError
	var llmErr apperr.LLMServiceError
	var embedErr apperr.EmbeddingServiceError
	var httpErr *echo.HTTPError

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
		msg = "session not found"
	case errors.Is(err, apperr.ErrEmptyContext):
		code = http.StatusBadRequest
		msg = "no document has been uploaded for this session; please upload a PDF first"
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		msg = validationErr.Reason
	case errors.As(err, &llmErr):
		code = http.StatusBadGateway
		msg = "language model service unavailable"
	case errors.As(err, &embedErr):
		code = http.StatusServiceUnavailable
		msg = "embedding service unavailable"
	case errors.As(err, &httpErr):
		code = httpErr.Code
		msg = fmt.Sprint(httpErr.Message)
	}

	req := c.Request()
	s.logger.Printf("%d %s %s: %v", code, req.Method, req.URL.Path, err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// Run builds the real dependency graph and serves until SIGINT/SIGTERM.
func Run(cfg *config.Config) error {
	store := inmemory.NewStore(cfg.Session.TTL)
	metrics := telemetry.New(func() float64 { return float64(store.Len()) })
	llm := openai_provider.NewClient(cfg.LLM)
	embedder := openai_provider.NewClient(cfg.Embedding)

	srv, err := New(cfg, store, llm, embedder, metrics)
	if err != nil {
		return err
	}

	e := echo.New()
	srv.Register(e)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	srv.logger.Printf("listening on %s (llm=%s embedder=%s)", cfg.Server.Address, cfg.LLM.Model, cfg.Embedding.Model)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		srv.logger.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
