package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitHubPAT(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"ghp_abc123", true},
		{"gho_abc123", true},
		{"ghu_abc123", true},
		{"ghs_abc123", true},
		{"github_pat_11AAA", true},
		{"GHP_UPPERCASE", true},
		{"sk-proj-abc123", false},
		{"azurekey123", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsGitHubPAT(tt.key), tt.key)
	}
}

// chatCompletionStub returns a canned chat-completions response and captures
// the request headers and body for inspection.
func chatCompletionStub(t *testing.T, content string) (*httptest.Server, *http.Header, *[]byte) {
	t.Helper()
	var header http.Header
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &header, &body
}

func TestGitHubClientPATUsesBearerAuth(t *testing.T) {
	server, header, _ := chatCompletionStub(t, "ok")

	client := NewGitHubClient("ghp_token123", server.URL)
	_, err := client.SendText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer ghp_token123", header.Get("Authorization"))
	assert.Empty(t, header.Get("api-key"))
}

func TestGitHubClientAzureKeyUsesApiKeyHeader(t *testing.T) {
	server, header, _ := chatCompletionStub(t, "ok")

	client := NewGitHubClient("azurekey123", server.URL)
	_, err := client.SendText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "azurekey123", header.Get("api-key"))
	assert.Empty(t, header.Get("Authorization"))
}

func TestGitHubClientWireQuirks(t *testing.T) {
	server, _, body := chatCompletionStub(t, "ok")

	client := NewGitHubClient("ghp_token123", server.URL)
	_, err := client.SendText(context.Background(), Request{
		Model: "claude-4-sonnet", Prompt: "hi", MaxTokens: 4000, Temperature: 0.2,
	})
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(*body, &wire))

	// Alias mapped before the wire, completion-token field used, temperature
	// left to the provider default.
	assert.Equal(t, "claude-3-7-sonnet-20250219", wire["model"])
	assert.EqualValues(t, 4000, wire["max_completion_tokens"])
	assert.NotContains(t, wire, "max_tokens")
	assert.NotContains(t, wire, "temperature")
}

func TestMapModelID(t *testing.T) {
	assert.Equal(t, "claude-3-7-sonnet-20250219", MapModelID("claude-4-sonnet"))
	assert.Equal(t, "claude-3-7-sonnet-20250219", MapModelID("claude-3-7-sonnet"))
	assert.Equal(t, "claude-3-7-sonnet-20250219", MapModelID(" Claude-4-Sonnet "))

	// Idempotent: a resolved id maps to itself
	assert.Equal(t, "claude-3-7-sonnet-20250219", MapModelID(MapModelID("claude-4-sonnet")))

	// Unknown ids pass through
	assert.Equal(t, "gpt-4o", MapModelID("gpt-4o"))
}
