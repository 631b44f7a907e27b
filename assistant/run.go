package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"expert/logger"
)

// RunJob starts a run for the context and polls it until it reaches a
// terminal status. Only a completed run is returned without error.
func (c *Client) RunJob(ctx context.Context, contextID string, assistantID string, forceTool bool) (*Run, error) {
	request := RunRequest{AssistantID: assistantID}
	if forceTool {
		request.ToolChoice = &ToolChoice{Type: retrievalTool}
	}

	path := fmt.Sprintf("/threads/%s/runs", url.PathEscape(contextID))

	var run Run
	if err := c.do(ctx, http.MethodPost, path, request, &run, "create run"); err != nil {
		return nil, err
	}
	logger.Debug.Printf("started run %s on thread %s (force tool: %v)", run.ID, contextID, forceTool)

	started := c.now()
	attempts := 0

	for !run.Status.Terminal() {
		if (c.maxPollAttempts > 0 && attempts >= c.maxPollAttempts) || (c.pollTimeout > 0 && c.now().Sub(started) >= c.pollTimeout) {
			return nil, &JobTimeoutError{
				ContextID:  contextID,
				JobID:      run.ID,
				LastStatus: run.Status,
				Attempts:   attempts,
				Elapsed:    c.now().Sub(started),
			}
		}

		if err := c.wait(ctx, c.pollInterval); err != nil {
			return nil, fmt.Errorf("waiting for run %s: %w", run.ID, err)
		}
		attempts++

		next, err := c.pollRun(ctx, contextID, run.ID)
		if err != nil {
			return nil, err
		}
		run = *next
	}

	logger.Debug.Printf("run %s finished with status %s after %d polls", run.ID, run.Status, attempts)

	if run.Status != StatusCompleted {
		failed := &JobFailedError{ContextID: contextID, JobID: run.ID, Status: run.Status}
		if run.LastError != nil {
			failed.Code = run.LastError.Code
			failed.Message = run.LastError.Message
		}
		return nil, failed
	}
	return &run, nil
}

func (c *Client) pollRun(ctx context.Context, contextID string, jobID string) (*Run, error) {
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(contextID), url.PathEscape(jobID))

	var run Run
	if err := c.do(ctx, http.MethodGet, path, nil, &run, "retrieve run"); err != nil {
		return nil, err
	}
	return &run, nil
}
