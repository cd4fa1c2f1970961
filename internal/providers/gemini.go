package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient speaks the generateContent format: contents[].parts[] with
// inlineData blocks for images.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the Gemini provider.
func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return "gemini" }

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// SendMultimodal sends instructions plus screenshot images.
func (c *GeminiClient) SendMultimodal(ctx context.Context, req Request) (string, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MimeType: "image/png", Data: img},
		})
	}
	return c.send(ctx, req, []geminiContent{{Role: "user", Parts: parts}}, len(req.Images))
}

// SendText sends a text-only request.
func (c *GeminiClient) SendText(ctx context.Context, req Request) (string, error) {
	contents := []geminiContent{
		{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
	}
	return c.send(ctx, req, contents, 0)
}

func (c *GeminiClient) send(ctx context.Context, req Request, contents []geminiContent, imageCount int) (string, error) {
	wire := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		wire.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	logRequest("gemini", req.Model, redactGeminiImages(body, imageCount))

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, req.Model)
	respBody, err := postJSON(ctx, c.httpClient, "gemini", url, map[string]string{
		"x-goog-api-key": c.apiKey,
	}, body, req.Timeout)
	if err != nil {
		return "", err
	}

	if gjson.GetBytes(respBody, "candidates.#").Int() == 0 {
		return "", fmt.Errorf("empty response from gemini API")
	}
	text := gjson.GetBytes(respBody, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return "", fmt.Errorf("no response content received from gemini")
	}
	return text, nil
}

// Ensure GeminiClient implements Client
var _ Client = (*GeminiClient)(nil)
