package assistant

type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCancelling     Status = "cancelling"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
	StatusIncomplete     Status = "incomplete"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired, StatusIncomplete:
		return true
	}
	return false
}

type Thread struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
}

type MessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ToolChoice struct {
	Type string `json:"type"`
}

type RunRequest struct {
	AssistantID string      `json:"assistant_id"`
	ToolChoice  *ToolChoice `json:"tool_choice,omitempty"`
}

type LastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is the remote job.
type Run struct {
	ID          string     `json:"id"`
	Object      string     `json:"object"`
	ThreadID    string     `json:"thread_id"`
	AssistantID string     `json:"assistant_id"`
	Status      Status     `json:"status"`
	LastError   *LastError `json:"last_error"`
	CreatedAt   int64      `json:"created_at"`
}

type RunStep struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	LastError   *LastError             `json:"last_error"`
	StepDetails map[string]interface{} `json:"step_details"`
}

type RunStepList struct {
	Object string    `json:"object"`
	Data   []RunStep `json:"data"`
}

type Annotation struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

type TextValue struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations"`
}

type ContentItem struct {
	Type string     `json:"type"`
	Text *TextValue `json:"text,omitempty"`
}

type Message struct {
	ID       string        `json:"id"`
	Object   string        `json:"object"`
	ThreadID string        `json:"thread_id"`
	Role     string        `json:"role"`
	RunID    string        `json:"run_id"`
	Content  []ContentItem `json:"content"`
}

type MessageList struct {
	Object  string    `json:"object"`
	Data    []Message `json:"data"`
	FirstID string    `json:"first_id"`
	LastID  string    `json:"last_id"`
	HasMore bool      `json:"has_more"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
