package llm

import (
	"context"
	"log"
	"time"
)

// Middleware decorates a Completer with a cross-cutting concern.
type Middleware func(Completer) Completer

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Completer, mws ...Middleware) Completer {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging logs request size, latency and errors. Provide a custom logger
// or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Completer) Completer {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Completer
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Complete(ctx context.Context, messages []Message, model string) (string, error) {
	size := 0
	for _, m := range messages {
		size += len(m.Content)
	}
	l.log.Printf("LLM request (%s %s): %d messages, %d bytes, ~%d tokens",
		l.next.Name(), model, len(messages), size, CountMessageTokens(messages))
	start := time.Now()
	out, err := l.next.Complete(ctx, messages, model)
	if err != nil {
		l.log.Printf("LLM error (%s) after %s: %v", l.next.Name(), time.Since(start).Round(time.Millisecond), err)
		return out, err
	}
	l.log.Printf("LLM response (%s): %d bytes in %s", l.next.Name(), len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}
