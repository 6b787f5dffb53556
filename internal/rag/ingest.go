package rag

import (
	"context"
	"log"
	"time"

	"docchat/config"
	"docchat/internal/apperr"
	"docchat/internal/chunker"
	"docchat/internal/parsing"
	"docchat/internal/telemetry"
	"docchat/internal/vectorindex"
	"docchat/provider"
	"docchat/session"
)

// Ingestor turns an extracted PDF into a ready-to-install vector index.
// The whole index is built before anything touches the session, so a
// failure mid-embedding leaves the previous document intact.
type Ingestor struct {
	embedder provider.Embedder
	splitter *chunker.Chunker
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

func NewIngestor(embedder provider.Embedder, cfg config.RAGConfig, metrics *telemetry.Metrics) (*Ingestor, error) {
	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Ingestor{
		embedder: embedder,
		splitter: splitter,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}, nil
}

// BuildIndex chunks the pages, embeds every chunk in one batch and
// returns the populated index with its document metadata.
func (in *Ingestor) BuildIndex(ctx context.Context, filename string, pages []parsing.PageText) (session.Document, *vectorindex.Index, error) {
	var chunks []vectorindex.Chunk
	for _, page := range pages {
		for _, part := range in.splitter.Split(page.Text) {
			chunks = append(chunks, vectorindex.Chunk{
				Text: part,
				Page: page.Page,
				Seq:  len(chunks),
			})
		}
	}
	if len(chunks) == 0 {
		return session.Document{}, nil, apperr.Validation("document produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	start := time.Now()
	vectors, err := in.embedder.CreateEmbedding(ctx, texts)
	in.metrics.ObserveEmbedding(start, err)
	if err != nil {
		in.logger.Printf("file=%s op=upload embed %d chunks: %v", filename, len(chunks), err)
		return session.Document{}, nil, apperr.EmbeddingServiceError{Err: err}
	}

	ix := vectorindex.New()
	if err := ix.Insert(chunks, vectors); err != nil {
		return session.Document{}, nil, apperr.EmbeddingServiceError{Err: err}
	}

	doc := session.Document{Filename: filename, Pages: len(pages), Chunks: len(chunks)}
	return doc, ix, nil
}
