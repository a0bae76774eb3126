package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client. The
// underlying client is created on first use so that a missing key surfaces
// at dispatch time, not at startup.
type GeminiClient struct {
	apiKey  string
	baseURL string

	once sync.Once
	cli  *genai.Client
	err  error
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL overrides the Gemini API endpoint.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *GeminiClient) { g.baseURL = u }
}

func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{apiKey: apiKey}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiClient) Name() string { return "gemini" }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.err = fmt.Errorf("gemini: %w", ErrMissingAPIKey)
			return
		}
		g.cli, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      g.apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
		})
	})
	return g.cli, g.err
}

// Complete sends system messages as the system instruction and the rest as
// user/model turns.
func (g *GeminiClient) Complete(ctx context.Context, messages []Message, model string) (string, error) {
	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	var (
		system   []*genai.Part
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", NewModelError("gemini", "prompt blocked: "+string(resp.PromptFeedback.BlockReason), nil)
	}
	if len(resp.Candidates) == 0 {
		return "", NewModelError("gemini", "no candidates", ErrEmptyCompletion)
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return "", NewModelError("gemini", "response blocked: "+string(cand.FinishReason), nil)
	}
	var b strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", NewModelError("gemini", "finish_reason="+string(cand.FinishReason), ErrEmptyCompletion)
	}
	return b.String(), nil
}

// classifyGeminiError turns API-level request rejections into ModelError and
// leaves authentication, quota and server failures as transport errors.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	code, msg := 0, ""
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	default:
		return fmt.Errorf("gemini: %w", err)
	}
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return &ModelError{Provider: "gemini", Reason: fmt.Sprintf("status %d", code), Err: errors.New(msg)}
	}
	return fmt.Errorf("gemini: %w", err)
}
