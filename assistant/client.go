package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expert/logger"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// NoOutputFallback is returned when the context holds no messages at all.
const NoOutputFallback = "Асистент не повернув відповіді."

// retrieval tool the assistant is forced to use in strict mode
const retrievalTool = "file_search"

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	PollInterval time.Duration
	// zero means no ceiling
	PollTimeout     time.Duration
	MaxPollAttempts int

	// Wait suspends between polls; defaults to a context-aware timer.
	Wait func(ctx context.Context, d time.Duration) error
	Now  func() time.Time
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	pollInterval    time.Duration
	pollTimeout     time.Duration
	maxPollAttempts int

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

func NewClient(options Options) *Client {
	client := &Client{
		apiKey:          options.APIKey,
		baseURL:         strings.TrimRight(options.BaseURL, "/"),
		httpClient:      options.HTTPClient,
		pollInterval:    options.PollInterval,
		pollTimeout:     options.PollTimeout,
		maxPollAttempts: options.MaxPollAttempts,
		wait:            options.Wait,
		now:             options.Now,
	}

	if client.baseURL == "" {
		client.baseURL = DefaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if client.pollInterval <= 0 {
		client.pollInterval = time.Second
	}
	if client.wait == nil {
		client.wait = sleep
	}
	if client.now == nil {
		client.now = time.Now
	}
	return client
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CreateContext creates a new remote thread and returns its id.
func (c *Client) CreateContext(ctx context.Context) (string, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread, "create thread"); err != nil {
		return "", &ContextCreationError{Err: err}
	}
	if thread.ID == "" {
		return "", &ContextCreationError{Err: fmt.Errorf("service returned an empty thread id")}
	}

	logger.Debug.Printf("created thread %s", thread.ID)
	return thread.ID, nil
}

func (c *Client) SubmitMessage(ctx context.Context, contextID string, text string) error {
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(contextID))
	request := MessageRequest{Role: "user", Content: text}

	if err := c.do(ctx, http.MethodPost, path, request, nil, "create message"); err != nil {
		return &SubmitError{ContextID: contextID, Err: err}
	}
	return nil
}

// FetchLatestOutput returns the text of the newest message in the context.
func (c *Client) FetchLatestOutput(ctx context.Context, contextID string) (string, error) {
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=1", url.PathEscape(contextID))

	var list MessageList
	if err := c.do(ctx, http.MethodGet, path, nil, &list, "list messages"); err != nil {
		return "", &FetchError{ContextID: contextID, Err: err}
	}

	if len(list.Data) == 0 {
		logger.Debug.Printf("thread %s has no messages, using fallback", contextID)
		return NoOutputFallback, nil
	}

	var b strings.Builder
	for _, content := range list.Data[0].Content {
		if content.Type == "text" && content.Text != nil {
			b.WriteString(content.Text.Value)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *Client) ListRunSteps(ctx context.Context, contextID string, jobID string) ([]RunStep, error) {
	path := fmt.Sprintf("/threads/%s/runs/%s/steps", url.PathEscape(contextID), url.PathEscape(jobID))

	var list RunStepList
	if err := c.do(ctx, http.MethodGet, path, nil, &list, "list run steps"); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) do(ctx context.Context, method string, path string, payload any, out any, op string) error {
	var body io.Reader
	if payload != nil {
		jsonpayload, err := json.Marshal(payload)
		if err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		body = bytes.NewReader(jsonpayload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RemoteError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug.Printf("%s: non-OK response %d: %s", op, resp.StatusCode, string(bodyBytes))
		remoteErr := &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

		var apiErr apiErrorBody
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			remoteErr.Code = apiErr.Error.Code
			remoteErr.Message = apiErr.Error.Message
		}
		return remoteErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshalling response body: %w", err)}
	}
	return nil
}
