// Registry owns the live provider client.
//
// DESIGN: Exactly one provider is active at a time. Configure replaces the
// client wholesale on every config change; switching providers therefore
// invalidates all other clients implicitly. Construction failure leaves the
// registry unconfigured, which is a valid terminal state reported to callers
// as a classified failure, never as a nil to dereference.
package providers

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
)

// knownModels lists known-good model ids per provider, used as the
// remediation hint on unknown-model errors.
var knownModels = map[string][]string{
	config.ProviderOpenAI:    {"gpt-4o", "gpt-4o-mini"},
	config.ProviderGemini:    {"gemini-2.0-flash", "gemini-1.5-pro"},
	config.ProviderAnthropic: {"claude-3-7-sonnet-20250219", "claude-3-5-sonnet-20241022"},
	config.ProviderGitHub:    {"gpt-4o", "gpt-4o-mini", "gpt-5", "claude-3-7-sonnet-20250219"},
}

// KnownModels returns the known-good model ids for a provider.
func KnownModels(provider string) []string {
	return knownModels[provider]
}

// Registry holds at most one live client for the active provider.
// Single writer (Configure), many readers (Active).
type Registry struct {
	mu       sync.RWMutex
	provider string
	client   Client
}

// NewRegistry creates an unconfigured registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Configure rebuilds the active client from the config snapshot. It is
// idempotent and total: any construction failure is caught and leaves the
// registry unconfigured rather than propagating.
func (r *Registry) Configure(cfg *config.Config) {
	defer func() {
		if p := recover(); p != nil {
			r.setClient(cfg.Provider, nil)
			log.Error().Interface("panic", p).Str("provider", cfg.Provider).
				Msg("provider client initialization failed")
		}
	}()

	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		r.setClient(cfg.Provider, nil)
		log.Warn().Str("provider", cfg.Provider).Msg("no API key available, client not initialized")
		return
	}

	var client Client
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client = NewOpenAIClient(key, cfg.BaseURL)
	case config.ProviderGemini:
		client = NewGeminiClient(key, cfg.BaseURL)
	case config.ProviderAnthropic:
		client = NewAnthropicClient(key, cfg.BaseURL)
	case config.ProviderGitHub:
		client = NewGitHubClient(key, cfg.BaseURL)
	default:
		r.setClient(cfg.Provider, nil)
		log.Warn().Str("provider", cfg.Provider).Msg("unsupported provider, client not initialized")
		return
	}

	r.setClient(cfg.Provider, client)
	log.Info().Str("provider", cfg.Provider).Msg("provider client initialized")
}

func (r *Registry) setClient(provider string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = provider
	r.client = client
}

// Active returns the live client for the active provider, or an Unconfigured
// failure when no valid client exists.
func (r *Registry) Active() (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.client == nil {
		return nil, fault.New(fault.Unconfigured,
			"API key not configured or invalid. Please check your settings.")
	}
	return r.client, nil
}

// ActiveProvider returns the name of the configured provider, which is set
// even when the client itself failed to initialize.
func (r *Registry) ActiveProvider() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.provider
}
