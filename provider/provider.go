package provider

import "context"

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles understood by OpenAI-compatible chat endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Embedder maps texts to fixed-dimension vectors, one per input,
// order-preserving.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer turns a conversation into a single completion.
type Completer interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}

// Provider is the full surface an OpenAI-compatible endpoint offers.
// The service wires two instances: one for the LLM endpoint, one for
// the embedding endpoint.
type Provider interface {
	Embedder
	Completer
}
