package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhy/internal/llm"
	"cwhy/internal/prompt"
)

// stubCompleter counts calls and delegates to fn.
type stubCompleter struct {
	calls int32
	fn    func(ctx context.Context, m []llm.Message, model string) (string, error)
}

func (s *stubCompleter) Name() string { return "stub" }
func (s *stubCompleter) Close() error { return nil }
func (s *stubCompleter) Complete(ctx context.Context, m []llm.Message, model string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(ctx, m, model)
}

var payload = prompt.Payload{Instructions: "explain", DiagnosticText: "a.c:1:1: error: x"}

func TestDispatch_Success(t *testing.T) {
	var gotModel string
	var gotMsgs []llm.Message
	stub := &stubCompleter{fn: func(_ context.Context, m []llm.Message, model string) (string, error) {
		gotModel, gotMsgs = model, m
		return "because", nil
	}}
	res := New(stub).Dispatch(context.Background(), payload, "gpt-test", time.Second)
	assert.Equal(t, Success{Text: "because"}, res)
	assert.Equal(t, "gpt-test", gotModel)
	assert.Equal(t, payload.Messages(), gotMsgs)
	assert.EqualValues(t, 1, stub.calls)
}

func TestDispatch_TimeoutWhenCompleterIgnoresContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stub := &stubCompleter{fn: func(context.Context, []llm.Message, string) (string, error) {
		<-release
		return "too late", nil
	}}
	start := time.Now()
	res := New(stub).Dispatch(context.Background(), payload, "m", 30*time.Millisecond)
	assert.Equal(t, Timeout{After: 30 * time.Millisecond}, res)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatch_TimeoutFromCompleterError(t *testing.T) {
	stub := &stubCompleter{fn: func(context.Context, []llm.Message, string) (string, error) {
		return "", fmt.Errorf("openai: %w", context.DeadlineExceeded)
	}}
	res := New(stub).Dispatch(context.Background(), payload, "m", time.Second)
	assert.IsType(t, Timeout{}, res)
}

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

func TestDispatch_NetTimeoutIsTimeout(t *testing.T) {
	stub := &stubCompleter{fn: func(context.Context, []llm.Message, string) (string, error) {
		return "", fmt.Errorf("dial: %w", netTimeout{})
	}}
	res := New(stub).Dispatch(context.Background(), payload, "m", time.Second)
	assert.IsType(t, Timeout{}, res)
}

func TestDispatch_ModelError(t *testing.T) {
	stub := &stubCompleter{fn: func(context.Context, []llm.Message, string) (string, error) {
		return "", llm.NewModelError("openai", "response blocked by content filter", nil)
	}}
	res := New(stub).Dispatch(context.Background(), payload, "m", time.Second)
	me, ok := res.(ModelError)
	require.True(t, ok, "got %#v", res)
	assert.Contains(t, me.Detail, "content filter")
}

func TestDispatch_TransportErrorNoRetry(t *testing.T) {
	stub := &stubCompleter{fn: func(context.Context, []llm.Message, string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	res := New(stub).Dispatch(context.Background(), payload, "m", time.Second)
	assert.Equal(t, TransportError{Detail: "dial tcp: connection refused"}, res)
	assert.EqualValues(t, 1, stub.calls)
}

func TestDispatch_MissingKeyIsTransportError(t *testing.T) {
	res := New(llm.NewOpenAIClient("openai", "http://127.0.0.1:1/v1", "")).
		Dispatch(context.Background(), payload, "m", time.Second)
	te, ok := res.(TransportError)
	require.True(t, ok, "got %#v", res)
	assert.Contains(t, te.Detail, "API key")
}
