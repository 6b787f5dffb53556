package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"docchat/config"
	"docchat/internal/apperr"
	"docchat/internal/vectorindex"
	"docchat/provider"
	"docchat/session"
)

type fakeEmbedder struct {
	fn func(texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	return f.fn(texts)
}

type fakeLLM struct {
	mu    sync.Mutex
	calls [][]provider.Message
	fn    func(messages []provider.Message) (string, error)
}

func (f *fakeLLM) ChatCompletion(_ context.Context, messages []provider.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	return f.fn(messages)
}

func constEmbedder(vec []float32) *fakeEmbedder {
	return &fakeEmbedder{fn: func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = vec
		}
		return out, nil
	}}
}

func ragConfig() config.RAGConfig {
	return config.RAGConfig{ChunkSize: 100, ChunkOverlap: 10, TopK: 3, MaxHistoryTurns: 4}
}

func indexedSession(t *testing.T, pages ...int) *session.Session {
	t.Helper()
	ix := vectorindex.New()
	chunks := make([]vectorindex.Chunk, len(pages))
	vectors := make([][]float32, len(pages))
	for i, p := range pages {
		chunks[i] = vectorindex.Chunk{Text: fmt.Sprintf("content of page %d", p), Page: p, Seq: i}
		vectors[i] = []float32{1, float32(i)}
	}
	if err := ix.Insert(chunks, vectors); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	sess := session.NewSession("session_test")
	sess.Lock()
	sess.SetDocument(session.Document{Filename: "doc.pdf", Pages: len(pages), Chunks: len(chunks)}, ix)
	sess.Unlock()
	return sess
}

func TestAnswer_EmptyContext(t *testing.T) {
	chain := NewChain(&fakeLLM{fn: func([]provider.Message) (string, error) { return "", nil }},
		constEmbedder([]float32{1, 0}), ragConfig(), nil)
	sess := session.NewSession("session_test")

	sess.Lock()
	_, _, err := chain.Answer(context.Background(), sess, "hello?")
	sess.Unlock()
	if !errors.Is(err, apperr.ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
}

func TestAnswer_EmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{fn: func([]string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	}}
	chain := NewChain(&fakeLLM{fn: func([]provider.Message) (string, error) { return "", nil }},
		embedder, ragConfig(), nil)
	sess := indexedSession(t, 1)

	sess.Lock()
	_, _, err := chain.Answer(context.Background(), sess, "q")
	sess.Unlock()

	var serviceErr apperr.EmbeddingServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
	sess.Lock()
	defer sess.Unlock()
	if len(sess.History()) != 0 {
		t.Fatal("failed turn must not touch history")
	}
}

func TestAnswer_LLMFailure(t *testing.T) {
	llm := &fakeLLM{fn: func([]provider.Message) (string, error) {
		return "", errors.New("bad gateway")
	}}
	chain := NewChain(llm, constEmbedder([]float32{1, 0}), ragConfig(), nil)
	sess := indexedSession(t, 1)

	sess.Lock()
	_, _, err := chain.Answer(context.Background(), sess, "q")
	sess.Unlock()

	var serviceErr apperr.LLMServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected LLMServiceError, got %v", err)
	}
	sess.Lock()
	defer sess.Unlock()
	if len(sess.History()) != 0 {
		t.Fatal("failed turn must not touch history")
	}
}

func TestAnswer_AppendsTurnPairAndSources(t *testing.T) {
	llm := &fakeLLM{fn: func([]provider.Message) (string, error) { return "the answer", nil }}
	chain := NewChain(llm, constEmbedder([]float32{1, 0}), ragConfig(), nil)
	sess := indexedSession(t, 2, 2, 5)

	sess.Lock()
	answer, sources, err := chain.Answer(context.Background(), sess, "what is it?")
	sess.Unlock()
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("unexpected answer %q", answer)
	}
	// pages deduplicated, retrieval order
	want := []string{"Page 2", "Page 5"}
	if len(sources) != len(want) || sources[0] != want[0] || sources[1] != want[1] {
		t.Fatalf("unexpected sources %v", sources)
	}

	sess.Lock()
	defer sess.Unlock()
	history := sess.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Role != provider.RoleUser || history[0].Content != "what is it?" {
		t.Fatalf("unexpected user turn %+v", history[0])
	}
	if history[1].Role != provider.RoleAssistant || history[1].Content != "the answer" {
		t.Fatalf("unexpected assistant turn %+v", history[1])
	}
	if len(history[1].Sources) != 2 {
		t.Fatalf("assistant turn missing sources: %+v", history[1])
	}
}

func TestAnswer_PromptContainsContextAndBoundedHistory(t *testing.T) {
	llm := &fakeLLM{fn: func([]provider.Message) (string, error) { return "ok", nil }}
	chain := NewChain(llm, constEmbedder([]float32{1, 0}), ragConfig(), nil)
	sess := indexedSession(t, 7)

	sess.Lock()
	for i := 0; i < 5; i++ {
		sess.AppendTurn(session.Turn{Role: provider.RoleUser, Content: fmt.Sprintf("old-q%d", i)})
		sess.AppendTurn(session.Turn{Role: provider.RoleAssistant, Content: fmt.Sprintf("old-a%d", i)})
	}
	_, _, err := chain.Answer(context.Background(), sess, "new question")
	sess.Unlock()
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	msgs := llm.calls[0]
	// system + 4 recent turns + new question
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
	if msgs[0].Role != provider.RoleSystem || !strings.Contains(msgs[0].Content, "[Page 7]") {
		t.Fatalf("system prompt missing page-tagged context: %q", msgs[0].Content)
	}
	if msgs[1].Content != "old-q3" {
		t.Fatalf("history not bounded to most recent turns, first history msg %q", msgs[1].Content)
	}
	if msgs[len(msgs)-1].Content != "new question" {
		t.Fatalf("question must come last, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestAnswer_ConcurrentTurnsStayAtomic(t *testing.T) {
	llm := &fakeLLM{fn: func(messages []provider.Message) (string, error) {
		return "echo: " + messages[len(messages)-1].Content, nil
	}}
	chain := NewChain(llm, constEmbedder([]float32{1, 0}), ragConfig(), nil)
	sess := indexedSession(t, 1)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := fmt.Sprintf("question-%d", i)
			sess.Lock()
			defer sess.Unlock()
			if _, _, err := chain.Answer(context.Background(), sess, q); err != nil {
				t.Errorf("Answer: %v", err)
			}
		}(i)
	}
	wg.Wait()

	sess.Lock()
	defer sess.Unlock()
	history := sess.History()
	if len(history) != workers*2 {
		t.Fatalf("expected %d history entries, got %d", workers*2, len(history))
	}
	for i := 0; i < len(history); i += 2 {
		user, assistant := history[i], history[i+1]
		if user.Role != provider.RoleUser || assistant.Role != provider.RoleAssistant {
			t.Fatalf("turn %d not a user/assistant pair", i/2)
		}
		if assistant.Content != "echo: "+user.Content {
			t.Fatalf("turn %d interleaved: user %q answered by %q", i/2, user.Content, assistant.Content)
		}
	}
}
