package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient speaks the OpenAI chat-completions format. It also backs the
// GitHub Models client, which reuses the same wire shape with a different
// endpoint, auth transport, and parameter quirks (see github.go).
type OpenAIClient struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// GitHub Models and some gateways reject max_tokens and custom temperature.
	useCompletionTokens bool
	omitTemperature     bool
	mapModel            func(string) string
}

// NewOpenAIClient creates a client for the OpenAI-compatible provider.
// baseURL overrides the public endpoint when non-empty.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		name:       "openai",
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		mapModel:   func(m string) string { return m },
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string { return c.name }

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []openAIPart for multimodal
}

type openAIChatRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
}

// SendMultimodal sends instructions plus screenshot images.
func (c *OpenAIClient) SendMultimodal(ctx context.Context, req Request) (string, error) {
	parts := []openAIPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, openAIPart{
			Type:     "image_url",
			ImageURL: &openAIImageURL{URL: pngDataURLPrefix + img},
		})
	}

	messages := []openAIMessage{
		{Role: "system", Content: req.System},
		{Role: "user", Content: parts},
	}
	return c.send(ctx, req, messages, len(req.Images))
}

// SendText sends a text-only request.
func (c *OpenAIClient) SendText(ctx context.Context, req Request) (string, error) {
	messages := []openAIMessage{
		{Role: "system", Content: req.System},
		{Role: "user", Content: req.Prompt},
	}
	return c.send(ctx, req, messages, 0)
}

func (c *OpenAIClient) send(ctx context.Context, req Request, messages []openAIMessage, imageCount int) (string, error) {
	wire := openAIChatRequest{
		Model:    c.mapModel(req.Model),
		Messages: messages,
	}
	if c.useCompletionTokens {
		wire.MaxCompletionTokens = req.MaxTokens
	} else {
		wire.MaxTokens = req.MaxTokens
	}
	if !c.omitTemperature {
		t := req.Temperature
		wire.Temperature = &t
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", c.name, err)
	}

	logRequest(c.name, wire.Model, redactOpenAIImages(body, imageCount))

	respBody, err := postJSON(ctx, c.httpClient, c.name, c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, body, req.Timeout)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("no response content received from %s", c.name)
	}
	return text, nil
}

// Ensure OpenAIClient implements Client
var _ Client = (*OpenAIClient)(nil)
