package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"

	// anthropicVersion is the Anthropic API version header value.
	anthropicVersion = "2023-06-01"
)

// AnthropicClient speaks the Messages API format: content blocks with
// base64 image sources.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicClient creates a client for the Anthropic provider.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicPart struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content []anthropicPart `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// SendMultimodal sends instructions plus screenshot images.
func (c *AnthropicClient) SendMultimodal(ctx context.Context, req Request) (string, error) {
	parts := []anthropicPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, anthropicPart{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: "image/png",
				Data:      img,
			},
		})
	}
	return c.send(ctx, req, parts, len(req.Images))
}

// SendText sends a text-only request.
func (c *AnthropicClient) SendText(ctx context.Context, req Request) (string, error) {
	return c.send(ctx, req, []anthropicPart{{Type: "text", Text: req.Prompt}}, 0)
}

func (c *AnthropicClient) send(ctx context.Context, req Request, parts []anthropicPart, imageCount int) (string, error) {
	wire := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: parts}},
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	logRequest("anthropic", req.Model, redactAnthropicImages(body, imageCount))

	respBody, err := postJSON(ctx, c.httpClient, "anthropic", c.baseURL+"/v1/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, body, req.Timeout)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(respBody, "content.0.text").String()
	if text == "" {
		return "", fmt.Errorf("no response content received from anthropic")
	}
	return text, nil
}

// Ensure AnthropicClient implements Client
var _ Client = (*AnthropicClient)(nil)
