package llm

import (
	"fmt"
	"os"
	"strings"
)

// Provider names a completion backend.
type Provider string

const (
	ProviderAuto   Provider = "auto"
	ProviderOpenAI Provider = "openai"
	ProviderGroq   Provider = "groq"
	ProviderGemini Provider = "gemini"
	ProviderFake   Provider = "fake"
)

// groqFamilies are model name prefixes served by Groq.
// See: https://console.groq.com/docs/models
var groqFamilies = []string{
	"groq/",
	"allam-",
	"llama-3.1-8b-instant",
	"llama-3.3-70b-versatile",
	"meta-llama/",
	"moonshotai/",
	"openai/gpt-oss",
	"qwen/",
}

// ParseProvider validates a provider name. Empty means auto.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return ProviderAuto, nil
	case ProviderAuto, ProviderOpenAI, ProviderGroq, ProviderGemini, ProviderFake:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q (want auto, openai, groq, gemini or fake)", s)
}

// Resolve picks the provider for model. An explicit provider always wins.
func Resolve(p Provider, model string) Provider {
	if p != ProviderAuto && p != "" {
		return p
	}
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gemini-"), strings.HasPrefix(m, "models/gemini-"):
		return ProviderGemini
	case m == "fake", strings.HasPrefix(m, "fake-"):
		return ProviderFake
	}
	for _, prefix := range groqFamilies {
		if strings.HasPrefix(m, prefix) {
			return ProviderGroq
		}
	}
	return ProviderOpenAI
}

// Settings selects and configures a Completer.
type Settings struct {
	Provider Provider
	Model    string
	BaseURL  string // overrides the provider's default endpoint
	Proxy    string
}

// New builds the Completer for s. API keys come from the environment:
// OPENAI_API_KEY, GROQ_API_KEY, GEMINI_API_KEY (or GOOGLE_API_KEY).
func New(s Settings) (Completer, error) {
	var opts []OpenAIOption
	if s.Proxy != "" {
		opts = append(opts, WithProxy(s.Proxy))
	}
	switch Resolve(s.Provider, s.Model) {
	case ProviderOpenAI:
		return NewOpenAIClient("openai", firstNonEmpty(s.BaseURL, os.Getenv("OPENAI_BASE_URL"), OpenAIBaseURL),
			os.Getenv("OPENAI_API_KEY"), opts...), nil
	case ProviderGroq:
		return NewOpenAIClient("groq", firstNonEmpty(s.BaseURL, GroqBaseURL),
			os.Getenv("GROQ_API_KEY"), opts...), nil
	case ProviderGemini:
		var gopts []GeminiOption
		if s.BaseURL != "" {
			gopts = append(gopts, WithGeminiBaseURL(s.BaseURL))
		}
		return NewGeminiClient(firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")), gopts...), nil
	case ProviderFake:
		return NewFakeClient(""), nil
	}
	return nil, fmt.Errorf("unknown provider %q", s.Provider)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
