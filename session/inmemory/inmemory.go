package inmemory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat/internal/apperr"
	"docchat/session"
)

// Store keeps all sessions in process memory. The map lock is held only
// for map operations and expiry checks, never across a network call and
// never waiting on a session's operation lock, so a long turn on one
// session cannot stall lookups of other ids.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	ttl      time.Duration
}

// NewStore creates an empty store. A positive ttl enables lazy idle
// eviction: expired sessions are dropped when next looked up or listed.
func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]*session.Session), ttl: ttl}
}

func (st *Store) GetOrCreate(id string) (*session.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if id != "" {
		if sess, ok := st.sessions[id]; ok && !st.expired(sess) {
			return sess, false
		}
	}
	if id == "" {
		id = "session_" + uuid.NewString()
	}
	sess := session.NewSession(id)
	st.sessions[id] = sess
	return sess, true
}

func (st *Store) Get(id string) (*session.Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if st.expired(sess) {
		st.mu.Lock()
		// the id may have been recreated since the lookup
		if st.sessions[id] == sess {
			delete(st.sessions, id)
		}
		st.mu.Unlock()
		return nil, apperr.ErrNotFound
	}
	return sess, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) List() []session.Summary {
	st.mu.RLock()
	live := make([]*session.Session, 0, len(st.sessions))
	dead := make(map[string]*session.Session)
	for id, sess := range st.sessions {
		if st.expired(sess) {
			dead[id] = sess
			continue
		}
		live = append(live, sess)
	}
	st.mu.RUnlock()

	if len(dead) > 0 {
		st.mu.Lock()
		for id, sess := range dead {
			// the id may have been recreated since the scan
			if st.sessions[id] == sess {
				delete(st.sessions, id)
			}
		}
		st.mu.Unlock()
	}

	out := make([]session.Summary, 0, len(live))
	for _, sess := range live {
		sess.Lock()
		out = append(out, sess.Summarize())
		sess.Unlock()
	}
	return out
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// expired needs no session lock; lastActive is atomic, so this is safe
// to call while holding st.mu even when the session is mid-turn.
func (st *Store) expired(sess *session.Session) bool {
	if st.ttl <= 0 {
		return false
	}
	return sess.ExpiredSince(time.Now(), st.ttl)
}

var _ session.Store = (*Store)(nil)
