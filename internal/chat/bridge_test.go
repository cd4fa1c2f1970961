package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/providers"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/ratelimit"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Provider: config.ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  baseURL,
		Models:   config.ModelsConfig{Chat: "gpt-4o-mini"},
		Limits: config.LimitsConfig{
			ChatTimeout:   10 * time.Second,
			ChatMaxTokens: 1000,
		},
	}
}

func newBridge(t *testing.T, cfg *config.Config) *Bridge {
	t.Helper()
	registry := providers.NewRegistry()
	registry.Configure(cfg)
	guard := ratelimit.NewGuard(time.Minute, 5*time.Second, 120*time.Second)
	return NewBridge(func() *config.Config { return cfg }, registry, guard, nil)
}

func TestSend(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"use a hashmap"}}]}`))
	}))
	t.Cleanup(server.Close)

	bridge := newBridge(t, testConfig(server.URL))
	reply, err := bridge.Send(context.Background(), "how do I solve two sum?")
	require.NoError(t, err)
	assert.Equal(t, "use a hashmap", reply)

	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(body, "model").String())
	assert.Equal(t, systemPrompt, gjson.GetBytes(body, "messages.0.content").String())
	assert.EqualValues(t, 1000, gjson.GetBytes(body, "max_tokens").Int())
	assert.InDelta(t, chatTemperature, gjson.GetBytes(body, "temperature").Float(), 1e-9)
}

func TestSendCooldownBlocksImmediateRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	t.Cleanup(server.Close)

	bridge := newBridge(t, testConfig(server.URL))

	_, err := bridge.Send(context.Background(), "first")
	require.NoError(t, err)

	_, err = bridge.Send(context.Background(), "second")
	require.Error(t, err)
	var f *fault.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, fault.CooldownActive, f.Kind)
	assert.Positive(t, f.WaitSeconds)

	// The second call never reached the provider
	assert.Equal(t, 1, calls)
}

func TestSendFailureDoesNotArmCooldown(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	t.Cleanup(server.Close)

	bridge := newBridge(t, testConfig(server.URL))

	_, err := bridge.Send(context.Background(), "first")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ProviderServerError))

	// A server error leaves the window open for an immediate retry
	reply, err := bridge.Send(context.Background(), "retry")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestSendRateLimitedCarriesWaitHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "300")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	bridge := newBridge(t, testConfig(server.URL))

	_, err := bridge.Send(context.Background(), "hello")
	require.Error(t, err)
	var f *fault.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, fault.ProviderRateLimited, f.Kind)
	assert.Equal(t, 120, f.WaitSeconds)

	// The 429 armed the cooldown locally
	_, err = bridge.Send(context.Background(), "again")
	assert.True(t, fault.IsKind(err, fault.CooldownActive))
}

func TestSendUnconfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""
	bridge := newBridge(t, cfg)

	_, err := bridge.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Unconfigured))
}
