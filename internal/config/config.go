package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cwhy/internal/llm"
)

// Mode selects what cwhy does with the diagnostics.
type Mode string

const (
	ModeExplain        Mode = "explain"
	ModeFix            Mode = "fix"
	ModeExtractSources Mode = "extract-sources"
)

// ParseMode validates a mode name. Empty means explain.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case "":
		return ModeExplain, nil
	case ModeExplain, ModeFix, ModeExtractSources:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want explain, fix or extract-sources)", s)
}

const (
	DefaultModel           = "gpt-3.5-turbo"
	DefaultTimeoutSeconds  = 60
	DefaultMaxContext      = 30
	DefaultWrapperCompiler = "c++"
	EnvPrefix              = "CWHY"
)

// Keys shared by flags, environment (CWHY_<KEY>) and the config file.
const (
	KeyModel           = "llm"
	KeyProvider        = "provider"
	KeyBaseURL         = "base-url"
	KeyProxy           = "proxy"
	KeyTimeout         = "timeout"
	KeyMaxContext      = "max-context"
	KeyShowPrompt      = "show-prompt"
	KeyVerbose         = "verbose"
	KeyWrapperCompiler = "wrapper-compiler"
)

// Config is the read-only configuration of one invocation.
type Config struct {
	Model           string
	Provider        llm.Provider
	BaseURL         string
	Proxy           string
	TimeoutSeconds  int
	MaxContext      int
	Mode            Mode
	ShowPrompt      bool
	Verbose         bool
	WrapperCompiler string
}

func Default() Config {
	return Config{
		Model:           DefaultModel,
		Provider:        llm.ProviderAuto,
		TimeoutSeconds:  DefaultTimeoutSeconds,
		MaxContext:      DefaultMaxContext,
		Mode:            ModeExplain,
		WrapperCompiler: DefaultWrapperCompiler,
	}
}

// Timeout is the dispatch deadline.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("--llm must not be empty"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("--timeout must be > 0, got %d", c.TimeoutSeconds))
	}
	if c.MaxContext < 0 {
		errs = append(errs, fmt.Errorf("--max-context must be >= 0, got %d", c.MaxContext))
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if _, err := llm.ParseProvider(string(c.Provider)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewViper returns a viper instance with defaults and CWHY_* environment
// binding ("max-context" reads CWHY_MAX_CONTEXT).
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyProvider, string(d.Provider))
	v.SetDefault(KeyTimeout, d.TimeoutSeconds)
	v.SetDefault(KeyMaxContext, d.MaxContext)
	v.SetDefault(KeyWrapperCompiler, d.WrapperCompiler)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads ./.env into the process environment if present. Existing
// variables are not overridden.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ReadConfigFile reads path, or $HOME/.cwhy.{yaml,toml,json} when path is
// empty. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(".cwhy")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load builds a validated Config for mode from v.
func Load(v *viper.Viper, mode Mode) (Config, error) {
	provider, err := llm.ParseProvider(v.GetString(KeyProvider))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Model:           strings.TrimSpace(v.GetString(KeyModel)),
		Provider:        provider,
		BaseURL:         strings.TrimSpace(v.GetString(KeyBaseURL)),
		Proxy:           strings.TrimSpace(v.GetString(KeyProxy)),
		TimeoutSeconds:  v.GetInt(KeyTimeout),
		MaxContext:      v.GetInt(KeyMaxContext),
		Mode:            mode,
		ShowPrompt:      v.GetBool(KeyShowPrompt),
		Verbose:         v.GetBool(KeyVerbose),
		WrapperCompiler: strings.TrimSpace(v.GetString(KeyWrapperCompiler)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LLMSettings selects the completion backend for this configuration.
func (c Config) LLMSettings() llm.Settings {
	return llm.Settings{Provider: c.Provider, Model: c.Model, BaseURL: c.BaseURL, Proxy: c.Proxy}
}
