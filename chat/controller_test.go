package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expert/assistant"
	"expert/data"
	"expert/session"
)

type fakeClient struct {
	threads   int
	createErr error
	submitErr error
	runErr    error
	fetchErr  error
	output    string

	submitted []string
	forced    []bool
	steps     []assistant.RunStep
}

func (f *fakeClient) CreateContext(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeClient) SubmitMessage(ctx context.Context, contextID string, text string) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, text)
	return nil
}

func (f *fakeClient) RunJob(ctx context.Context, contextID string, assistantID string, forceTool bool) (*assistant.Run, error) {
	f.forced = append(f.forced, forceTool)
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &assistant.Run{ID: "run_1", ThreadID: contextID, AssistantID: assistantID, Status: assistant.StatusCompleted}, nil
}

func (f *fakeClient) FetchLatestOutput(ctx context.Context, contextID string) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.output, nil
}

func (f *fakeClient) ListRunSteps(ctx context.Context, contextID string, jobID string) ([]assistant.RunStep, error) {
	return f.steps, nil
}

type memoryDiagnostics struct {
	mu       sync.Mutex
	failures []data.Failure
}

func (m *memoryDiagnostics) InsertFailure(failure data.Failure) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failure)
	return int64(len(m.failures)), nil
}

func (m *memoryDiagnostics) GetRecentFailures(limit int) ([]data.Failure, error) {
	return m.failures, nil
}

func (m *memoryDiagnostics) Close() error { return nil }

func TestHandleTurn_Success(t *testing.T) {
	client := &fakeClient{output: "ДСТУ 4030 описує вимоги【4:0†dstu4030.pdf】  до послуг охорони."}
	s := session.New(client)
	controller := NewController(client, "asst_1", nil)

	answer, err := controller.HandleTurn(context.Background(), s, "Що таке ДСТУ 4030?")

	require.NoError(t, err)
	assert.Equal(t, "ДСТУ 4030 описує вимоги до послуг охорони.", answer)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, session.Turn{Role: session.RoleUser, Text: "Що таке ДСТУ 4030?"}, turns[0])
	assert.Equal(t, session.Turn{Role: session.RoleAssistant, Text: answer}, turns[1])
	assert.Equal(t, []bool{false}, client.forced)
}

func TestHandleTurn_StrictMode(t *testing.T) {
	client := &fakeClient{output: "Вимоги."}
	s := session.New(client)
	controller := NewController(client, "asst_1", nil)

	_, err := controller.HandleTurn(context.Background(), s, "/точно які вимоги?")
	require.NoError(t, err)
	_, err = controller.HandleTurn(context.Background(), s, "/точно")
	require.NoError(t, err)

	assert.Equal(t, []string{"які вимоги?", "/точно"}, client.submitted)
	assert.Equal(t, []bool{true, true}, client.forced)
	// the transcript keeps what the user typed
	assert.Equal(t, "/точно які вимоги?", s.Turns()[0].Text)
}

func TestHandleTurn_ReusesContextUntilReset(t *testing.T) {
	client := &fakeClient{output: "ok"}
	s := session.New(client)
	controller := NewController(client, "asst_1", nil)

	controller.HandleTurn(context.Background(), s, "one")
	controller.HandleTurn(context.Background(), s, "two")
	assert.Equal(t, 1, client.threads)
	assert.Len(t, s.Turns(), 4)

	s.Reset()
	controller.HandleTurn(context.Background(), s, "three")
	assert.Equal(t, 2, client.threads)
	assert.Len(t, s.Turns(), 2)
}

func TestHandleTurn_FailuresReturnNeutralMessage(t *testing.T) {
	secret := "internal detail XYZ-42"

	tests := []struct {
		name   string
		client *fakeClient
		kind   string
	}{
		{"context creation", &fakeClient{createErr: &assistant.ContextCreationError{Err: errors.New(secret)}}, "context_creation"},
		{"submit", &fakeClient{submitErr: &assistant.SubmitError{ContextID: "thread_1", Err: &assistant.RemoteError{Op: "create message", StatusCode: 429, Code: "rate_limit_exceeded", Message: secret}}}, "submit"},
		{"job failed", &fakeClient{runErr: &assistant.JobFailedError{ContextID: "thread_1", JobID: "run_9", Status: assistant.StatusFailed, Code: "XYZ-42", Message: secret}}, "job_failed"},
		{"job timeout", &fakeClient{runErr: &assistant.JobTimeoutError{ContextID: "thread_1", JobID: "run_9", LastStatus: assistant.StatusInProgress, Attempts: 3}}, "job_timeout"},
		{"fetch", &fakeClient{fetchErr: &assistant.FetchError{ContextID: "thread_1", Err: errors.New(secret)}}, "fetch"},
		{"start rejected", &fakeClient{runErr: &assistant.RemoteError{Op: "create run", StatusCode: 500, Message: secret}}, "remote"},
		{"plain error", &fakeClient{runErr: errors.New(secret)}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diagnostics := &memoryDiagnostics{}
			s := session.New(tt.client)
			controller := NewController(tt.client, "asst_1", diagnostics)

			answer, err := controller.HandleTurn(context.Background(), s, "Що таке ДСТУ 4030?")

			require.Error(t, err)
			var turnErr *TurnError
			require.ErrorAs(t, err, &turnErr)
			assert.Equal(t, NeutralMessage, answer)
			assert.Equal(t, NeutralMessage, err.Error())
			assert.NotContains(t, answer, secret)
			assert.NotContains(t, answer, "XYZ-42")

			turns := s.Turns()
			require.Len(t, turns, 2)
			assert.Equal(t, NeutralMessage, turns[1].Text)

			require.Len(t, diagnostics.failures, 1)
			assert.Equal(t, tt.kind, diagnostics.failures[0].Kind)
			assert.Equal(t, s.ID(), diagnostics.failures[0].SessionId)
		})
	}
}

func TestHandleTurn_JobFailureDumpsSteps(t *testing.T) {
	client := &fakeClient{
		runErr: &assistant.JobFailedError{ContextID: "thread_1", JobID: "run_9", Status: assistant.StatusExpired, Code: "timeout", Message: "took too long"},
		steps:  []assistant.RunStep{{ID: "step_1", Type: "tool_calls", Status: "expired"}},
	}
	diagnostics := &memoryDiagnostics{}
	controller := NewController(client, "asst_1", diagnostics)

	_, err := controller.HandleTurn(context.Background(), session.New(client), "питання")
	require.Error(t, err)

	require.Len(t, diagnostics.failures, 1)
	failure := diagnostics.failures[0]
	assert.Equal(t, "run_9", failure.JobId)
	assert.Equal(t, "expired", failure.Status)
	assert.Equal(t, "timeout", failure.Code)
	assert.Contains(t, failure.Message, "took too long")
	assert.Contains(t, failure.Steps, "step_1")
}

func TestHandleTurn_UnwrapKeepsCause(t *testing.T) {
	cause := &assistant.JobFailedError{JobID: "run_1", Status: assistant.StatusCancelled}
	client := &fakeClient{runErr: cause}
	controller := NewController(client, "asst_1", nil)

	_, err := controller.HandleTurn(context.Background(), session.New(client), "q")

	var failed *assistant.JobFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, assistant.StatusCancelled, failed.Status)
}

// End to end against a fake assistant service over HTTP.
func TestHandleTurn_EndToEnd(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	var runRequest assistant.RunRequest

	mux := http.NewServeMux()
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(assistant.Thread{ID: "thread_e2e"})
	})
	mux.HandleFunc("POST /threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(assistant.Message{ID: "msg_1"})
	})
	mux.HandleFunc("POST /threads/{thread}/runs", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&runRequest)
		json.NewEncoder(w).Encode(assistant.Run{ID: "run_1", Status: assistant.StatusQueued})
	})
	mux.HandleFunc("GET /threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		polls++
		status := assistant.StatusInProgress
		if polls >= 2 {
			status = assistant.StatusCompleted
		}
		mu.Unlock()
		json.NewEncoder(w).Encode(assistant.Run{ID: "run_1", Status: status})
	})
	mux.HandleFunc("GET /threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		json.NewEncoder(w).Encode(assistant.MessageList{Data: []assistant.Message{{
			Role: "assistant",
			Content: []assistant.ContentItem{{
				Type: "text",
				Text: &assistant.TextValue{Value: "ДСТУ 4030 — національний стандарт【5:1†ДСТУ_4030.pdf】 щодо послуг охорони."},
			}},
		}}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	waits := 0
	client := assistant.NewClient(assistant.Options{
		APIKey:  "key",
		BaseURL: server.URL,
		Wait: func(ctx context.Context, d time.Duration) error {
			waits++
			return nil
		},
	})
	s := session.New(client)
	require.Empty(t, s.Turns())

	answer, err := NewController(client, "asst_e2e", nil).HandleTurn(context.Background(), s, "Що таке ДСТУ 4030?")

	require.NoError(t, err)
	assert.Equal(t, 2, waits)
	assert.Equal(t, "asst_e2e", runRequest.AssistantID)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, session.RoleUser, turns[0].Role)
	assert.Equal(t, session.RoleAssistant, turns[1].Role)
	assert.Equal(t, answer, turns[1].Text)
	assert.False(t, strings.ContainsAny(answer, "【†】"))
	assert.Equal(t, "ДСТУ 4030 — національний стандарт щодо послуг охорони.", answer)
}
