package vectorindex

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// Chunk is a retrieval unit: a bounded piece of document text with its
// source page and position in the document.
type Chunk struct {
	Text string
	Page int
	Seq  int
}

// Result is a chunk with its similarity to the query.
type Result struct {
	Chunk Chunk
	Score float64
}

// Index is an in-memory vector index over document chunks using
// brute-force cosine similarity. One instance per session; a re-upload
// installs a fresh instance rather than mutating this one.
type Index struct {
	mu      sync.RWMutex
	chunks  []Chunk
	vectors [][]float32
}

func New() *Index { return &Index{} }

// Insert adds a batch of entries. Chunks and vectors are parallel slices.
func (ix *Index) Insert(chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(ix.vectors) > 0 {
		dim := len(ix.vectors[0])
		for _, v := range vectors {
			if len(v) != dim {
				return errors.New("vector dimension mismatch")
			}
		}
	}
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Len reports the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Search returns up to k chunks ordered by descending cosine similarity.
// Ties are broken by ascending chunk sequence index so repeated queries
// are deterministic.
func (ix *Index) Search(query []float32, k int) []Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	scored := make([]Result, len(ix.chunks))
	for i := range ix.vectors {
		scored[i] = Result{Chunk: ix.chunks[i], Score: cosine(query, ix.vectors[i])}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Seq < scored[j].Chunk.Seq
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
