package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expert/session"
)

type countingCreator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingCreator) CreateContext(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}
	c.calls++
	return fmt.Sprintf("thread_%d", c.calls), nil
}

func TestGetOrCreateContext_Idempotent(t *testing.T) {
	creator := &countingCreator{}
	s := session.New(creator)

	first, err := s.GetOrCreateContext(context.Background())
	require.NoError(t, err)
	second, err := s.GetOrCreateContext(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, first, s.ContextID())
}

func TestGetOrCreateContext_ConcurrentCallsCreateOnce(t *testing.T) {
	creator := &countingCreator{}
	s := session.New(creator)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.GetOrCreateContext(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creator.calls)
}

func TestReset_NewContextAndEmptyTranscript(t *testing.T) {
	creator := &countingCreator{}
	s := session.New(creator)

	before, err := s.GetOrCreateContext(context.Background())
	require.NoError(t, err)
	s.Append(session.Turn{Role: session.RoleUser, Text: "Що таке ДСТУ 4030?"})
	s.Append(session.Turn{Role: session.RoleAssistant, Text: "Стандарт."})

	s.Reset()

	assert.Empty(t, s.Turns())
	assert.Empty(t, s.ContextID())

	after, err := s.GetOrCreateContext(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestGetOrCreateContext_FailurePropagates(t *testing.T) {
	boom := errors.New("service unavailable")
	s := session.New(&countingCreator{err: boom})

	_, err := s.GetOrCreateContext(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Empty(t, s.ContextID())
}

func TestTurns_OrderAndCopy(t *testing.T) {
	s := session.New(&countingCreator{})

	s.Append(session.Turn{Role: session.RoleUser, Text: "one"})
	s.Append(session.Turn{Role: session.RoleAssistant, Text: "two"})

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, session.RoleUser, turns[0].Role)
	assert.Equal(t, "two", turns[1].Text)

	turns[0].Text = "changed"
	assert.Equal(t, "one", s.Turns()[0].Text)
}

func TestSessionIDsUnique(t *testing.T) {
	a := session.New(&countingCreator{})
	b := session.New(&countingCreator{})

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStore_IsolatesKeys(t *testing.T) {
	store := session.NewStore(&countingCreator{})

	alice := store.Get("alice")
	bob := store.Get("bob")
	alice.Append(session.Turn{Role: session.RoleUser, Text: "hi"})

	assert.Same(t, alice, store.Get("alice"))
	assert.NotSame(t, alice, bob)
	assert.Empty(t, bob.Turns())
	assert.Equal(t, 2, store.Len())

	store.Delete("alice")
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, store.Get("alice").Turns())
}

func TestReset_WaitsForRunningTurn(t *testing.T) {
	s := session.New(&countingCreator{})

	unlock := s.LockTurn()
	s.Append(session.Turn{Role: session.RoleUser, Text: "питання"})

	done := make(chan struct{})
	go func() {
		s.Reset()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reset finished while a turn was running")
	case <-time.After(50 * time.Millisecond):
	}

	s.Append(session.Turn{Role: session.RoleAssistant, Text: "відповідь"})
	unlock()
	<-done

	assert.Empty(t, s.Turns())
}

func TestStore_PruneDropsIdleSessions(t *testing.T) {
	store := session.NewStore(&countingCreator{})
	store.Get("alice")
	store.Get("bob")

	assert.Equal(t, 0, store.Prune(time.Hour))
	assert.Equal(t, 2, store.Len())

	assert.Equal(t, 2, store.Prune(0))
	assert.Equal(t, 0, store.Len())
}
