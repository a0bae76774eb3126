package dispatch

import (
	"context"
	"errors"
	"net"
	"time"

	"cwhy/internal/llm"
	"cwhy/internal/prompt"
)

// Dispatcher sends payloads to a Completer, one request per call.
type Dispatcher struct {
	llm llm.Completer
}

func New(c llm.Completer) *Dispatcher {
	return &Dispatcher{llm: c}
}

type reply struct {
	text string
	err  error
}

// Dispatch calls the completer exactly once and waits at most timeout for
// it. Failures are classified rather than returned; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, p prompt.Payload, model string, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		text, err := d.llm.Complete(ctx, p.Messages(), model)
		done <- reply{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Timeout{After: timeout}
		}
		return TransportError{Detail: ctx.Err().Error()}
	case r := <-done:
		return classify(ctx, r, timeout)
	}
}

func classify(ctx context.Context, r reply, timeout time.Duration) Result {
	if r.err == nil {
		return Success{Text: r.text}
	}
	if errors.Is(r.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Timeout{After: timeout}
	}
	var netErr net.Error
	if errors.As(r.err, &netErr) && netErr.Timeout() {
		return Timeout{After: timeout}
	}
	var modelErr *llm.ModelError
	if errors.As(r.err, &modelErr) {
		return ModelError{Detail: modelErr.Error()}
	}
	return TransportError{Detail: r.err.Error()}
}
