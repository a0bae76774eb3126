package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
)

// OpenAIClient calls an OpenAI-compatible Chat Completions endpoint.
// OpenAI, Groq and most self-hosted gateways speak this protocol.
// See: https://platform.openai.com/docs/api-reference/chat
type OpenAIClient struct {
	http    *http.Client
	name    string
	apiKey  string
	baseURL string
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithHTTPClient replaces the HTTP client, e.g. for tests.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAIClient) {
		if c != nil {
			o.http = c
		}
	}
}

// WithProxy routes requests through proxyURL instead of the proxy named by
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
func WithProxy(proxyURL string) OpenAIOption {
	return func(o *OpenAIClient) {
		o.http = &http.Client{Transport: newTransport(proxyURL)}
	}
}

// NewOpenAIClient creates a client for the endpoint at baseURL
// (".../v1"). name labels the provider in logs and errors.
func NewOpenAIClient(name, baseURL, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	c := &OpenAIClient{
		http:    &http.Client{Transport: newTransport("")},
		name:    name,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newTransport(proxyURL string) *http.Transport {
	cfg := httpproxy.FromEnvironment()
	if proxyURL != "" {
		cfg.HTTPProxy = proxyURL
		cfg.HTTPSProxy = proxyURL
	}
	proxy := cfg.ProxyFunc()
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = func(r *http.Request) (*url.URL, error) { return proxy(r.URL) }
	return tr
}

func (c *OpenAIClient) Name() string { return c.name }
func (c *OpenAIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type chatReq struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatErr struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete posts the conversation and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, model string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: %w", c.name, ErrMissingAPIKey)
	}
	b, err := json.Marshal(chatReq{Model: model, Messages: messages})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	if len(out.Choices) == 0 {
		return "", NewModelError(c.name, "no choices", ErrEmptyCompletion)
	}
	choice := out.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", NewModelError(c.name, "response blocked by content filter", nil)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", NewModelError(c.name, "finish_reason="+choice.FinishReason, ErrEmptyCompletion)
	}
	return choice.Message.Content, nil
}

// statusError maps a non-2xx response. Authentication, throttling and server
// failures are transport errors; any other 4xx means the provider rejected
// the request itself.
func (c *OpenAIClient) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	var e chatErr
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		detail = e.Error.Message
	}
	err := fmt.Errorf("%s: unexpected status %s: %s", c.name, resp.Status, detail)
	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusProxyAuthRequired,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return err
	default:
		return &ModelError{Provider: c.name, Reason: resp.Status, Err: fmt.Errorf("%s", detail)}
	}
}
