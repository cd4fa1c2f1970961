// Package providers implements provider-specific LLM clients.
//
// DESIGN: The pipeline supports multiple LLM providers (OpenAI-compatible,
// Gemini, Anthropic, GitHub Models). Each has a different wire format. Clients
// abstract the differences behind one capability interface:
//
//   - SendMultimodal: text instructions plus screenshot images
//   - SendText:       text-only prompt
//
// so the orchestrator contains exactly one copy of each stage's logic,
// parameterized by client, instead of four near-duplicate code paths.
//
// FLOW:
//  1. Registry builds the active provider's client from config
//  2. Orchestrator/chat gets the client via Registry.Active()
//  3. Client serializes the request into the provider's wire shape and posts it
//  4. Response text is pulled out with gjson; transport failures surface as
//     *APIError for classification at the stage boundary
//
// To add a new provider: implement Client and add a case to Registry.Configure.
package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout for provider API calls.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// pngDataURLPrefix is the data-URL prefix for inline PNG screenshots.
	pngDataURLPrefix = "data:image/png;base64,"
)

// Request is the provider-agnostic request shape. Images are base64-encoded
// PNG payloads; an empty Images slice makes the request text-only.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Images      []string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client is the unified capability interface implemented once per provider.
// Clients are stateless per call and safe for concurrent use.
type Client interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// SendMultimodal sends a request embedding screenshot images and returns
	// the response text.
	SendMultimodal(ctx context.Context, req Request) (string, error)

	// SendText sends a text-only request and returns the response text.
	SendText(ctx context.Context, req Request) (string, error)
}

// postJSON performs one JSON POST and returns the response body.
// Non-2xx statuses become *APIError carrying status, headers, and body so the
// stage boundary can classify them. The context timeout is the only timeout;
// the http.Client itself has none.
func postJSON(ctx context.Context, httpClient *http.Client, provider, url string, headers map[string]string, body []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", provider, err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if httpClient == nil {
		httpClient = &http.Client{} // timeout via context, not client
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Distinguish caller aborts from plain transport errors.
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Provider: provider,
			Status:   resp.StatusCode,
			Header:   resp.Header.Clone(),
			Body:     respBody,
		}
		log.Warn().
			Str("provider", provider).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message()).
			Msg("provider call failed")
		return nil, apiErr
	}

	return respBody, nil
}
