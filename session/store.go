package session

import (
	"sync"
	"time"
)

type storeEntry struct {
	session  *Session
	lastUsed time.Time
}

// Store keeps one Session per key, for front-ends serving several users.
type Store struct {
	creator ContextCreator

	mu       sync.Mutex
	sessions map[string]*storeEntry
}

func NewStore(creator ContextCreator) *Store {
	return &Store{
		creator:  creator,
		sessions: map[string]*storeEntry{},
	}
}

// Get returns the session for key, creating it on first use, and marks it
// as used now.
func (st *Store) Get(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[key]
	if !ok {
		e = &storeEntry{session: New(st.creator)}
		st.sessions[key] = e
	}
	e.lastUsed = time.Now()
	return e.session
}

func (st *Store) Delete(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

// Prune drops every session not used for maxIdle or longer and returns how
// many went.
func (st *Store) Prune(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for key, e := range st.sessions {
		if time.Since(e.lastUsed) >= maxIdle {
			delete(st.sessions, key)
			removed++
		}
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
