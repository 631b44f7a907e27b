package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"expert/assistant"
	"expert/citations"
	"expert/data"
	"expert/logger"
	"expert/session"
)

// JobClient is the part of the remote service a turn needs.
type JobClient interface {
	SubmitMessage(ctx context.Context, contextID string, text string) error
	RunJob(ctx context.Context, contextID string, assistantID string, forceTool bool) (*assistant.Run, error)
	FetchLatestOutput(ctx context.Context, contextID string) (string, error)
}

// StepLister is optional; when the client has it, failed jobs get their
// steps attached to the diagnostics record.
type StepLister interface {
	ListRunSteps(ctx context.Context, contextID string, jobID string) ([]assistant.RunStep, error)
}

type Controller struct {
	client      JobClient
	assistantID string
	diagnostics data.DiagnosticsRepository
}

// NewController wires a controller. diagnostics may be nil, failures then
// only reach the debug log.
func NewController(client JobClient, assistantID string, diagnostics data.DiagnosticsRepository) *Controller {
	return &Controller{
		client:      client,
		assistantID: assistantID,
		diagnostics: diagnostics,
	}
}

// HandleTurn runs one question through the assistant and records both turns
// in the session transcript. On failure the returned text is NeutralMessage
// and the error is a *TurnError.
func (c *Controller) HandleTurn(ctx context.Context, s *session.Session, raw string) (string, error) {
	unlock := s.LockTurn()
	defer unlock()

	s.Append(session.Turn{Role: session.RoleUser, Text: raw})

	forceTool, query := ParseMode(raw)
	logger.Debug.Printf("session %s: new turn (strict: %v)", s.ID(), forceTool)

	answer, err := c.ask(ctx, s, query, forceTool)
	if err != nil {
		c.report(ctx, s, err)
		s.Append(session.Turn{Role: session.RoleAssistant, Text: NeutralMessage})
		return NeutralMessage, &TurnError{cause: err}
	}

	s.Append(session.Turn{Role: session.RoleAssistant, Text: answer})
	return answer, nil
}

func (c *Controller) ask(ctx context.Context, s *session.Session, query string, forceTool bool) (string, error) {
	contextID, err := s.GetOrCreateContext(ctx)
	if err != nil {
		return "", err
	}

	if err := c.client.SubmitMessage(ctx, contextID, query); err != nil {
		return "", err
	}

	if _, err := c.client.RunJob(ctx, contextID, c.assistantID, forceTool); err != nil {
		return "", err
	}

	output, err := c.client.FetchLatestOutput(ctx, contextID)
	if err != nil {
		return "", err
	}

	return citations.Clean(output), nil
}

func (c *Controller) report(ctx context.Context, s *session.Session, err error) {
	failure := describe(err)
	failure.SessionId = s.ID()
	if failure.ContextId == "" {
		failure.ContextId = s.ContextID()
	}

	var jobFailed *assistant.JobFailedError
	if errors.As(err, &jobFailed) {
		failure.Steps = c.dumpSteps(ctx, jobFailed)
	}

	logger.Debug.Printf("turn failed: session=%s context=%s job=%s kind=%s status=%s code=%s: %T: %v",
		failure.SessionId, failure.ContextId, failure.JobId, failure.Kind, failure.Status, failure.Code, err, err)
	if failure.Steps != "" {
		logger.Debug.Printf("job %s steps: %s", failure.JobId, failure.Steps)
	}

	if c.diagnostics == nil {
		return
	}
	if _, err := c.diagnostics.InsertFailure(failure); err != nil {
		logger.Debug.Printf("could not store failure: %v", err)
	}
}

func (c *Controller) dumpSteps(ctx context.Context, failed *assistant.JobFailedError) string {
	lister, ok := c.client.(StepLister)
	if !ok {
		return ""
	}

	// the turn context may already be done; the dump must still go out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	steps, err := lister.ListRunSteps(ctx, failed.ContextID, failed.JobID)
	if err != nil {
		logger.Debug.Printf("could not list steps of job %s: %v", failed.JobID, err)
		return ""
	}

	dump, err := json.Marshal(steps)
	if err != nil {
		return ""
	}
	return string(dump)
}

func describe(err error) data.Failure {
	var (
		creation *assistant.ContextCreationError
		submit   *assistant.SubmitError
		failed   *assistant.JobFailedError
		timeout  *assistant.JobTimeoutError
		fetch    *assistant.FetchError
		remote   *assistant.RemoteError
	)

	failure := data.Failure{Kind: "unknown", Message: err.Error()}

	switch {
	case errors.As(err, &creation):
		failure.Kind = "context_creation"
	case errors.As(err, &submit):
		failure.Kind = "submit"
		failure.ContextId = submit.ContextID
	case errors.As(err, &failed):
		failure.Kind = "job_failed"
		failure.ContextId = failed.ContextID
		failure.JobId = failed.JobID
		failure.Status = string(failed.Status)
		failure.Code = failed.Code
	case errors.As(err, &timeout):
		failure.Kind = "job_timeout"
		failure.ContextId = timeout.ContextID
		failure.JobId = timeout.JobID
		failure.Status = string(timeout.LastStatus)
	case errors.As(err, &fetch):
		failure.Kind = "fetch"
		failure.ContextId = fetch.ContextID
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		failure.Kind = "cancelled"
	case errors.As(err, &remote):
		failure.Kind = "remote"
	}

	if failure.Code == "" && errors.As(err, &remote) {
		failure.Code = remote.Code
	}
	return failure
}
