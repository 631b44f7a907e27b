// Package session holds the conversation state of one user: the remote
// context id and the visible transcript.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"expert/logger"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ContextCreator creates a new remote conversation context.
type ContextCreator interface {
	CreateContext(ctx context.Context) (string, error)
}

// Session is safe for concurrent use, but turns should be serialized with
// LockTurn so only one job is outstanding at a time.
type Session struct {
	id      string
	creator ContextCreator

	mu        sync.Mutex
	contextID string
	turns     []Turn

	create sync.Mutex
	turn   sync.Mutex
}

func New(creator ContextCreator) *Session {
	return &Session{
		id:      uuid.NewString(),
		creator: creator,
	}
}

func (s *Session) ID() string {
	return s.id
}

// GetOrCreateContext returns the live context id, creating the remote
// context on first use. Creation errors are returned as-is.
func (s *Session) GetOrCreateContext(ctx context.Context) (string, error) {
	s.create.Lock()
	defer s.create.Unlock()

	if id := s.ContextID(); id != "" {
		return id, nil
	}

	id, err := s.creator.CreateContext(ctx)
	if err != nil {
		return "", err
	}

	logger.Debug.Printf("session %s bound to context %s", s.id, id)
	s.mu.Lock()
	s.contextID = id
	s.mu.Unlock()
	return id, nil
}

// ContextID is empty until the first turn.
func (s *Session) ContextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextID
}

// Reset forgets the context id and clears the transcript. The remote
// context is left alone. A running turn is allowed to finish first, so its
// answer never lands in the cleared transcript. Do not call it while
// holding LockTurn.
func (s *Session) Reset() {
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debug.Printf("session %s reset, dropping context %s", s.id, s.contextID)
	s.contextID = ""
	s.turns = nil
}

func (s *Session) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the transcript in conversation order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// LockTurn blocks until no other turn is running on this session and
// returns the matching unlock.
func (s *Session) LockTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}
