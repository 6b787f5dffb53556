package rag

import (
	"context"
	"errors"
	"testing"

	"docchat/config"
	"docchat/internal/apperr"
	"docchat/internal/parsing"
)

func TestBuildIndex_ChunksAndCounts(t *testing.T) {
	var embedded []string
	embedder := &fakeEmbedder{fn: func(texts []string) ([][]float32, error) {
		embedded = texts
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i), 1}
		}
		return out, nil
	}}
	ing, err := NewIngestor(embedder, config.RAGConfig{ChunkSize: 40, ChunkOverlap: 8, TopK: 3, MaxHistoryTurns: 4}, nil)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}

	pages := []parsing.PageText{
		{Page: 1, Text: "first page text that is long enough to need splitting into several chunks here"},
		{Page: 2, Text: ""},
		{Page: 3, Text: "third page"},
	}
	doc, ix, err := ing.BuildIndex(context.Background(), "doc.pdf", pages)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if doc.Filename != "doc.pdf" || doc.Pages != 3 {
		t.Fatalf("unexpected document metadata: %+v", doc)
	}
	if doc.Chunks != ix.Len() {
		t.Fatalf("chunk count %d disagrees with index size %d", doc.Chunks, ix.Len())
	}
	if doc.Chunks < 3 {
		t.Fatalf("expected page 1 to split into multiple chunks, got %d total", doc.Chunks)
	}
	if len(embedded) != doc.Chunks {
		t.Fatalf("embedded %d texts for %d chunks", len(embedded), doc.Chunks)
	}

	// chunks from the empty page must not exist, page numbers must survive
	results := ix.Search([]float32{0, 1}, doc.Chunks)
	for _, r := range results {
		if r.Chunk.Page == 2 {
			t.Fatal("empty page produced a chunk")
		}
	}
}

func TestBuildIndex_NoChunks(t *testing.T) {
	ing, err := NewIngestor(constEmbedder([]float32{1}), config.RAGConfig{ChunkSize: 40, ChunkOverlap: 8, TopK: 3}, nil)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	_, _, err = ing.BuildIndex(context.Background(), "blank.pdf", []parsing.PageText{{Page: 1, Text: "  \n "}})
	var validationErr apperr.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildIndex_EmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{fn: func([]string) ([][]float32, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	ing, err := NewIngestor(embedder, config.RAGConfig{ChunkSize: 40, ChunkOverlap: 8, TopK: 3}, nil)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	_, _, err = ing.BuildIndex(context.Background(), "doc.pdf", []parsing.PageText{{Page: 1, Text: "some text"}})
	var serviceErr apperr.EmbeddingServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
}

func TestNewIngestor_InvalidChunking(t *testing.T) {
	_, err := NewIngestor(constEmbedder([]float32{1}), config.RAGConfig{ChunkSize: 10, ChunkOverlap: 10, TopK: 3}, nil)
	if err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}
