package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
provider: openai
api_key: sk-test
`))
	require.NoError(t, err)

	assert.Equal(t, "python", cfg.Language)
	assert.Equal(t, "gpt-4o", cfg.Models.Extraction)
	assert.Equal(t, "gpt-4o", cfg.Models.Solution)
	assert.Equal(t, "gpt-4o", cfg.Models.Debugging)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Chat)
	assert.Equal(t, 60*time.Second, cfg.Limits.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Limits.ChatTimeout)
	assert.Equal(t, 60*time.Second, cfg.Limits.Cooldown)
	assert.Equal(t, 5*time.Second, cfg.Limits.WaitHintMin)
	assert.Equal(t, 120*time.Second, cfg.Limits.WaitHintMax)
	assert.Equal(t, 4000, cfg.Limits.MaxTokens)
	assert.Equal(t, 1000, cfg.Limits.ChatMaxTokens)
}

func TestLoadFromBytesPerProviderModelDefaults(t *testing.T) {
	tests := []struct {
		provider  string
		wantModel string
		wantChat  string
	}{
		{"openai", "gpt-4o", "gpt-4o-mini"},
		{"github", "gpt-4o", "gpt-4o-mini"},
		{"gemini", "gemini-2.0-flash", "gemini-2.0-flash"},
		{"anthropic", "claude-3-7-sonnet-20250219", "claude-3-5-sonnet-20241022"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte("provider: " + tt.provider + "\napi_key: k\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, cfg.Models.Solution)
			assert.Equal(t, tt.wantChat, cfg.Models.Chat)
		})
	}
}

func TestLoadFromBytesEnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-from-env")

	cfg, err := LoadFromBytes([]byte(`
provider: openai
api_key: ${TEST_API_KEY}
language: ${TEST_LANGUAGE:-golang}
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.APIKey)
	assert.Equal(t, "golang", cfg.Language)
}

func TestLoadFromBytesEmptyAPIKeyIsLegal(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("provider: anthropic\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadFromBytesRejectsUnknownProvider(t *testing.T) {
	_, err := LoadFromBytes([]byte("provider: ollama\napi_key: k\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadFromBytesRejectsMissingProvider(t *testing.T) {
	_, err := LoadFromBytes([]byte("api_key: k\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}

func TestLoadFromBytesRejectsInvertedClampBounds(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
provider: openai
api_key: k
limits:
  wait_hint_min: 30s
  wait_hint_max: 10s
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait_hint_min")
}

func TestLoadFromBytesExplicitValuesKept(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
provider: openai
api_key: k
language: java
models:
  solution: gpt-4o-mini
limits:
  cooldown: 90s
  max_tokens: 2000
`))
	require.NoError(t, err)
	assert.Equal(t, "java", cfg.Language)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Solution)
	assert.Equal(t, 90*time.Second, cfg.Limits.Cooldown)
	assert.Equal(t, 2000, cfg.Limits.MaxTokens)
	// Unset fields still defaulted
	assert.Equal(t, "gpt-4o", cfg.Models.Extraction)
}
