package session

import (
	"sync"
	"sync/atomic"
	"time"

	"docchat/internal/vectorindex"
)

// Turn is one message of the conversation. The sequence is append-only.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Document describes the currently indexed upload.
type Document struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
}

// Summary is the read-only view returned by the sessions API.
type Summary struct {
	ID           string    `json:"session_id"`
	Document     string    `json:"document,omitempty"`
	Pages        int       `json:"pages"`
	Chunks       int       `json:"chunks"`
	MessageCount int       `json:"message_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
}

// Session status values. A cleared session reads as indexed with an
// empty history; deleted sessions are simply gone from the store.
const (
	StatusNew     = "new"
	StatusIndexed = "indexed"
)

// Store is the process-wide registry of sessions.
type Store interface {
	// GetOrCreate returns the session for id, creating it when unseen.
	// An empty id asks the store to generate one.
	GetOrCreate(id string) (*Session, bool)
	// Get returns the session or apperr.ErrNotFound.
	Get(id string) (*Session, error)
	// Delete removes the session; apperr.ErrNotFound if absent.
	Delete(id string) error
	// List returns summaries of all live sessions.
	List() []Summary
	// Len reports the number of live sessions.
	Len() int
}

// Session owns one conversation and its vector index. The embedded mutex
// serializes whole operations: handlers hold it across
// retrieve -> LLM call -> history append, and across index replacement,
// so concurrent requests for the same id never interleave.
//
// lastActive is atomic, not guarded by the mutex: the store checks expiry
// while holding its own map lock, and that check must never wait for an
// in-flight turn on some session to finish.
type Session struct {
	sync.Mutex

	id         string
	createdAt  time.Time
	lastActive atomic.Int64 // unix nanoseconds

	doc     *Document
	index   *vectorindex.Index
	history []Turn
}

func NewSession(id string) *Session {
	s := &Session{id: id, createdAt: time.Now()}
	s.Touch()
	return s
}

// ID never changes and needs no lock.
func (s *Session) ID() string { return s.id }

// Touch records activity for idle-TTL accounting. Needs no lock.
func (s *Session) Touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive returns the most recent activity time. Needs no lock.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// ExpiredSince reports whether the session has been idle longer than ttl.
// Needs no lock.
func (s *Session) ExpiredSince(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastActive()) > ttl
}

// Methods from here down assume the caller holds the lock.

// Document returns the indexed document metadata, nil before any upload.
func (s *Session) Document() *Document { return s.doc }

// Index returns the session's current vector index, nil before any upload.
func (s *Session) Index() *vectorindex.Index { return s.index }

// SetDocument installs a fully built index, discarding any previous one.
// Callers build the replacement outside the lock so a failed upload
// leaves the old index untouched.
func (s *Session) SetDocument(doc Document, ix *vectorindex.Index) {
	s.doc = &doc
	s.index = ix
}

// History returns the full conversation, oldest first.
func (s *Session) History() []Turn { return s.history }

// RecentHistory returns at most n trailing turns for prompt context.
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.history) <= n {
		return s.history
	}
	return s.history[len(s.history)-n:]
}

// AppendTurn adds one message to the conversation.
func (s *Session) AppendTurn(t Turn) { s.history = append(s.history, t) }

// ClearHistory wipes the conversation but keeps the document and index.
func (s *Session) ClearHistory() { s.history = nil }

// Summarize builds the API view of the session.
func (s *Session) Summarize() Summary {
	sum := Summary{
		ID:           s.id,
		MessageCount: len(s.history),
		Status:       StatusNew,
		CreatedAt:    s.createdAt,
		LastActive:   s.LastActive(),
	}
	if s.doc != nil {
		sum.Document = s.doc.Filename
		sum.Pages = s.doc.Pages
		sum.Chunks = s.doc.Chunks
		sum.Status = StatusIndexed
	}
	return sum
}
