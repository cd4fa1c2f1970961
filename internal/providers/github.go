package providers

import (
	"net/http"
	"regexp"
)

// GitHub Models is reached through an Azure-inference-compatible endpoint.
// The endpoint accepts two credential styles with different auth headers:
// personal access tokens go in "Authorization: Bearer", Azure inference keys
// go in "api-key". The transport below installs the right one per request and
// strips the other, so the quirk never leaks into shared orchestration code.
const defaultGitHubBaseURL = "https://models.inference.ai.azure.com"

// githubPATPattern matches GitHub personal-access-token-shaped keys.
var githubPATPattern = regexp.MustCompile(`(?i)^(gh[pous]_|github_pat_)`)

// IsGitHubPAT reports whether key looks like a GitHub personal access token
// rather than an Azure inference key.
func IsGitHubPAT(key string) bool {
	return githubPATPattern.MatchString(key)
}

// githubAuthTransport injects the auth header appropriate for the token shape.
type githubAuthTransport struct {
	key   string
	isPAT bool
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *githubAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.isPAT {
		clone.Header.Set("Authorization", "Bearer "+t.key)
		clone.Header.Del("api-key")
	} else {
		clone.Header.Set("api-key", t.key)
		clone.Header.Del("Authorization")
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// NewGitHubClient creates a client for GitHub Models. It reuses the OpenAI
// wire shape with the Azure inference endpoint, header-swapping transport,
// alias mapping, and the parameter quirks the endpoint requires
// (max_completion_tokens, provider-default temperature).
func NewGitHubClient(apiKey, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultGitHubBaseURL
	}
	c := NewOpenAIClient(apiKey, baseURL)
	c.name = "github"
	c.useCompletionTokens = true
	c.omitTemperature = true
	c.mapModel = MapModelID
	c.httpClient = &http.Client{
		Transport: &githubAuthTransport{key: apiKey, isPAT: IsGitHubPAT(apiKey)},
	}
	return c
}
