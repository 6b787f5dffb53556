package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"docchat/config"
	"docchat/internal/apperr"
	"docchat/internal/telemetry"
	"docchat/internal/vectorindex"
	"docchat/provider"
	"docchat/session"
)

const systemPrompt = `You are a helpful AI assistant. Use the following context from the uploaded PDF to answer the user's question accurately and concisely.

Important guidelines:
- If the answer is in the context, provide a clear and detailed response
- If you're unsure or the information isn't in the context, say so honestly
- Use bullet points or numbered lists when appropriate for clarity
- Cite specific sections when relevant

Context:
%s`

// Chain orchestrates one conversational turn: embed the question,
// retrieve the most similar chunks, build a prompt with bounded history
// and call the LLM.
type Chain struct {
	llm      provider.Completer
	embedder provider.Embedder
	cfg      config.RAGConfig
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

func NewChain(llm provider.Completer, embedder provider.Embedder, cfg config.RAGConfig, metrics *telemetry.Metrics) *Chain {
	return &Chain{
		llm:      llm,
		embedder: embedder,
		cfg:      cfg,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[RAG] ", log.LstdFlags),
	}
}

// Answer runs a full turn against the session and appends the resulting
// user/assistant pair to its history. The caller must hold the session
// lock for the whole call so concurrent turns cannot interleave.
func (c *Chain) Answer(ctx context.Context, sess *session.Session, question string) (string, []string, error) {
	ix := sess.Index()
	if ix == nil || ix.Len() == 0 {
		return "", nil, apperr.ErrEmptyContext
	}

	start := time.Now()
	qvecs, err := c.embedder.CreateEmbedding(ctx, []string{question})
	c.metrics.ObserveEmbedding(start, err)
	if err != nil {
		c.logger.Printf("session=%s op=chat embed query: %v", sess.ID(), err)
		return "", nil, apperr.EmbeddingServiceError{Err: err}
	}

	retrieved := ix.Search(qvecs[0], c.cfg.TopK)
	messages := c.buildMessages(retrieved, sess.RecentHistory(c.cfg.MaxHistoryTurns), question)

	start = time.Now()
	answer, err := c.llm.ChatCompletion(ctx, messages)
	c.metrics.ObserveLLM(start, err)
	if err != nil {
		c.logger.Printf("session=%s op=chat completion: %v", sess.ID(), err)
		return "", nil, apperr.LLMServiceError{Err: err}
	}

	sources := citations(retrieved)
	now := time.Now()
	sess.AppendTurn(session.Turn{Role: provider.RoleUser, Content: question, CreatedAt: now})
	sess.AppendTurn(session.Turn{Role: provider.RoleAssistant, Content: answer, Sources: sources, CreatedAt: now})
	sess.Touch()

	return answer, sources, nil
}

func (c *Chain) buildMessages(retrieved []vectorindex.Result, history []session.Turn, question string) []provider.Message {
	var b strings.Builder
	for _, r := range retrieved {
		fmt.Fprintf(&b, "[Page %d] %s\n\n", r.Chunk.Page, strings.TrimSpace(r.Chunk.Text))
	}

	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{
		Role:    provider.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, b.String()),
	})
	for _, t := range history {
		messages = append(messages, provider.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: question})
	return messages
}

// citations lists the pages backing the prompt context, deduplicated,
// in retrieval order.
func citations(retrieved []vectorindex.Result) []string {
	seen := make(map[int]bool)
	var out []string
	for _, r := range retrieved {
		if seen[r.Chunk.Page] {
			continue
		}
		seen[r.Chunk.Page] = true
		out = append(out, fmt.Sprintf("Page %d", r.Chunk.Page))
	}
	return out
}
