package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyPrompt is returned when a request carries no user message.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request is a provider-neutral generation request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{System: system, Messages: []Message{{Role: "user", Content: prompt}}}
}

func (r Request) validate() error {
	for _, m := range r.Messages {
		if m.Role == "user" && m.Content != "" {
			return nil
		}
	}
	return ErrEmptyPrompt
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Stream calls onDelta for each text fragment as it arrives. Returning
	// an error from onDelta aborts the stream with that error.
	Stream(ctx context.Context, req Request, onDelta func(delta string) error) error
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// FromOpenAIError converts rate-limit and server errors from the OpenAI
// client into RetryableError. Other errors pass through unchanged.
func FromOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retryableStatus(apiErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && retryableStatus(reqErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return err
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
