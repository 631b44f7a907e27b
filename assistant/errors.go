package assistant

import (
	"fmt"
	"time"
)

// RemoteError is a call the service rejected or that never reached it.
type RemoteError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

type ContextCreationError struct {
	Err error
}

func (e *ContextCreationError) Error() string {
	return fmt.Sprintf("could not create conversation context: %v", e.Err)
}

func (e *ContextCreationError) Unwrap() error { return e.Err }

type SubmitError struct {
	ContextID string
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("could not submit message to %s: %v", e.ContextID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// JobFailedError is returned for failed, cancelled, expired and incomplete runs.
type JobFailedError struct {
	ContextID string
	JobID     string
	Status    Status
	Code      string
	Message   string
}

func (e *JobFailedError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("job %s ended with status %s", e.JobID, e.Status)
	}
	return fmt.Sprintf("job %s ended with status %s (%s): %s", e.JobID, e.Status, e.Code, e.Message)
}

type JobTimeoutError struct {
	ContextID  string
	JobID      string
	LastStatus Status
	Attempts   int
	Elapsed    time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s still %s after %d polls (%s)", e.JobID, e.LastStatus, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

type FetchError struct {
	ContextID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch latest message from %s: %v", e.ContextID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
