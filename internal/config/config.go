// Package config loads and validates the assistant configuration.
//
// DESIGN: Configuration is a YAML file with ${VAR:-default} env expansion.
// A loaded Config is an immutable snapshot: it is never partially mutated, only
// replaced wholesale when the file changes (see watcher.go).
//
// FILES:
//   - config.go:  Root Config struct, Load(), Validate(), defaults
//   - watcher.go: fsnotify-based change notification stream
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/monitoring"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderGitHub    = "github"
)

// Config is the root configuration for the assistant core.
type Config struct {
	Provider    string                  `yaml:"provider"`    // Active provider: openai, gemini, anthropic, github
	APIKey      string                  `yaml:"api_key"`     // Provider API key (usually ${VAR} expanded)
	BaseURL     string                  `yaml:"base_url"`    // Optional endpoint override
	Language    string                  `yaml:"language"`    // Target coding language for solutions
	Models      ModelsConfig            `yaml:"models"`      // Per-stage model ids
	Limits      LimitsConfig            `yaml:"limits"`      // Timeouts, cooldown, wait-hint clamps
	Screenshots ScreenshotsConfig       `yaml:"screenshots"` // Queue directories
	History     HistoryConfig           `yaml:"history"`     // Run/chat history store
	Events      EventsConfig            `yaml:"events"`      // Local event broadcast server
	Logging     monitoring.LoggerConfig `yaml:"logging"`     // Structured logging
}

// ModelsConfig selects the model id used by each stage.
type ModelsConfig struct {
	Extraction string `yaml:"extraction"`
	Solution   string `yaml:"solution"`
	Debugging  string `yaml:"debugging"`
	Chat       string `yaml:"chat"`
}

// LimitsConfig holds timeouts and rate-limit policy knobs.
// Cooldown and the wait-hint clamp bounds are policy constants observed in the
// field; they are configurable here rather than hard-coded.
type LimitsConfig struct {
	RequestTimeout  time.Duration `yaml:"request_timeout"`   // Per pipeline HTTP call
	ChatTimeout     time.Duration `yaml:"chat_timeout"`      // Per chat HTTP call
	Cooldown        time.Duration `yaml:"cooldown"`          // Client-side per-model cooldown window
	WaitHintMin     time.Duration `yaml:"wait_hint_min"`     // Lower clamp for surfaced 429 wait hints
	WaitHintMax     time.Duration `yaml:"wait_hint_max"`     // Upper clamp for surfaced 429 wait hints
	MaxTokens       int           `yaml:"max_tokens"`        // Completion budget for pipeline calls
	ChatMaxTokens   int           `yaml:"chat_max_tokens"`   // Completion budget for chat calls
	MaxPromptTokens int           `yaml:"max_prompt_tokens"` // Preflight prompt-size guard (0 disables)
}

// ScreenshotsConfig locates the main and extra screenshot queues on disk.
type ScreenshotsConfig struct {
	QueueDir string `yaml:"queue_dir"`
	ExtraDir string `yaml:"extra_dir"`
}

// HistoryConfig controls the sqlite run/chat history store.
type HistoryConfig struct {
	Path string `yaml:"path"` // sqlite file path; empty disables history
}

// EventsConfig controls the local websocket event server.
type EventsConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. 127.0.0.1:18733; empty disables
}

// expandEnvWithDefaults expands environment variables with support for default
// values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, fills defaults, and validates.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills the documented defaults for anything left unset.
// Model defaults mirror what each provider stage historically used.
func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "python"
	}
	if c.Models.Extraction == "" {
		c.Models.Extraction = defaultModel(c.Provider)
	}
	if c.Models.Solution == "" {
		c.Models.Solution = defaultModel(c.Provider)
	}
	if c.Models.Debugging == "" {
		c.Models.Debugging = defaultModel(c.Provider)
	}
	if c.Models.Chat == "" {
		c.Models.Chat = defaultChatModel(c.Provider)
	}
	if c.Limits.RequestTimeout == 0 {
		c.Limits.RequestTimeout = 60 * time.Second
	}
	if c.Limits.ChatTimeout == 0 {
		c.Limits.ChatTimeout = 30 * time.Second
	}
	if c.Limits.Cooldown == 0 {
		c.Limits.Cooldown = 60 * time.Second
	}
	if c.Limits.WaitHintMin == 0 {
		c.Limits.WaitHintMin = 5 * time.Second
	}
	if c.Limits.WaitHintMax == 0 {
		c.Limits.WaitHintMax = 120 * time.Second
	}
	if c.Limits.MaxTokens == 0 {
		c.Limits.MaxTokens = 4000
	}
	if c.Limits.ChatMaxTokens == 0 {
		c.Limits.ChatMaxTokens = 1000
	}
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-3-7-sonnet-20250219"
	default: // openai, github
		return "gpt-4o"
	}
}

func defaultChatModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-3-5-sonnet-20241022"
	default:
		return "gpt-4o-mini"
	}
}

// Validate checks if the configuration is valid.
// A missing API key is not an error: it is a legal "unconfigured" state that the
// provider registry reports as such on first use.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderGitHub:
	case "":
		return fmt.Errorf("provider is required")
	default:
		return fmt.Errorf("unknown provider '%s' (must be one of: openai, gemini, anthropic, github)", c.Provider)
	}

	if c.Limits.WaitHintMin > c.Limits.WaitHintMax {
		return fmt.Errorf("limits.wait_hint_min (%s) exceeds limits.wait_hint_max (%s)",
			c.Limits.WaitHintMin, c.Limits.WaitHintMax)
	}
	return nil
}
