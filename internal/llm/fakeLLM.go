package llm

import (
	"context"
	"fmt"
	"strings"
)

// FakeClient returns deterministic answers for offline use and testing. With
// Reply unset it describes what it received.
type FakeClient struct {
	Reply string
}

func NewFakeClient(reply string) *FakeClient { return &FakeClient{Reply: reply} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, messages []Message, model string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Reply != "" {
		return f.Reply, nil
	}
	var user string
	for _, m := range messages {
		if m.Role == RoleUser {
			user = m.Content
		}
	}
	first := user
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return fmt.Sprintf("[%s] received %d messages (~%d tokens); first line: %s\n",
		model, len(messages), CountMessageTokens(messages), first), nil
}
