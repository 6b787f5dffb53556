package server

import (
	"encoding/json"
	"strings"

	"github.com/labstack/echo/v4"

	"docchat/internal/apperr"
	"docchat/session"
)

const maxPromptLength = 5000

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

func (r *ChatRequest) Validate() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return apperr.Validation("prompt must not be empty")
	}
	if len(r.Prompt) > maxPromptLength {
		return apperr.Validation("prompt exceeds %d characters", maxPromptLength)
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return apperr.Validation("session_id is required")
	}
	return nil
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

// UploadResponse is the reply to POST /api/upload.
type UploadResponse struct {
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	Pages     int    `json:"pages"`
	Chunks    int    `json:"chunks"`
	SessionID string `json:"session_id"`
}

// HealthResponse is the reply to GET /api/health.
type HealthResponse struct {
	Status         string `json:"status"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
	ActiveSessions int    `json:"active_sessions"`
}

// StatusResponse is the one-word acknowledgement for mutations.
type StatusResponse struct {
	Status string `json:"status"`
}

// SessionListResponse is the reply to GET /api/sessions.
type SessionListResponse struct {
	Sessions []session.Summary `json:"sessions"`
	Count    int               `json:"count"`
}

// bindStrict decodes a JSON body rejecting unknown fields, so malformed
// or mistyped requests fail loudly instead of being silently accepted.
func bindStrict(c echo.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
