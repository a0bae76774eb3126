package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role is the speaker of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer sends a conversation to a hosted model and returns its answer.
// Deadlines travel in ctx; implementations must not retry.
type Completer interface {
	Name() string
	Complete(ctx context.Context, messages []Message, model string) (string, error)
	Close() error
}

var (
	ErrEmptyCompletion = errors.New("llm: empty completion")
	ErrMissingAPIKey   = errors.New("llm: API key is not set")
)

// ModelError reports a request the provider itself refused or failed, as
// opposed to a network or authentication failure.
type ModelError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ModelError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError wraps err (may be nil) as a provider-side failure.
func NewModelError(provider, reason string, err error) error {
	return &ModelError{Provider: provider, Reason: reason, Err: err}
}
