package data

import (
	"time"
)

// Failure is one failed turn as seen by developers. Users never see it.
type Failure struct {
	Id        int64     `json:"id"`
	SessionId string    `json:"sessionId"`
	ContextId string    `json:"contextId"`
	JobId     string    `json:"jobId"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Steps     string    `json:"steps"`
	Created   time.Time `json:"created"`
}
