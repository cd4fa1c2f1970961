// Package chat implements the single-turn chat bridge.
//
// Chat shares the provider registry and rate-limit guard with the pipeline but
// lives outside both stage groups: cancelling a pipeline run never aborts a
// chat call. Each Send is stateless; no conversation history is fed back.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/history"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/providers"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/ratelimit"
)

const systemPrompt = "You are a helpful AI assistant specialized in helping with coding problems, debugging, and programming questions. Provide clear, concise, and helpful responses."

const chatTemperature = 0.7

// Bridge sends one-shot chat messages through the active provider.
type Bridge struct {
	registry *providers.Registry
	guard    *ratelimit.Guard
	recorder history.Recorder

	cfg func() *config.Config
}

// NewBridge wires the chat bridge. cfg is called per Send so live config
// reloads take effect immediately. recorder may be nil.
func NewBridge(cfg func() *config.Config, registry *providers.Registry, guard *ratelimit.Guard, recorder history.Recorder) *Bridge {
	if recorder == nil {
		recorder = history.Nop{}
	}
	return &Bridge{registry: registry, guard: guard, recorder: recorder, cfg: cfg}
}

// Send sends a single chat message and returns the response text.
// The client-side cooldown is checked before any network call; a call inside
// the window fails with CooldownActive and the remaining seconds.
func (b *Bridge) Send(ctx context.Context, message string) (string, error) {
	cfg := b.cfg()
	model := cfg.Models.Chat

	client, err := b.registry.Active()
	if err != nil {
		return "", err
	}

	if err := b.guard.Acquire(model); err != nil {
		return "", err
	}

	chatID := uuid.NewString()
	start := time.Now()

	text, err := client.SendText(ctx, providers.Request{
		Model:       model,
		System:      systemPrompt,
		Prompt:      message,
		MaxTokens:   cfg.Limits.ChatMaxTokens,
		Temperature: chatTemperature,
		Timeout:     cfg.Limits.ChatTimeout,
	})
	if err != nil {
		failure := b.guard.Classify(model, err)
		b.record(chatID, client.Name(), model, start, failure)
		return "", failure
	}

	// Successful calls arm the cooldown; failures other than 429 do not
	// (Classify records 429s itself).
	b.guard.Record(model)
	b.record(chatID, client.Name(), model, start, nil)

	log.Debug().Str("chat_id", chatID).Str("model", model).Dur("elapsed", time.Since(start)).Msg("chat message completed")
	return text, nil
}

func (b *Bridge) record(chatID, provider, model string, start time.Time, failure *fault.Failure) {
	entry := history.ChatEntry{
		ID:       chatID,
		Provider: provider,
		Model:    model,
		Success:  failure == nil,
		Duration: time.Since(start),
	}
	if failure != nil {
		entry.FailureKind = string(failure.Kind)
	}
	b.recorder.RecordChat(entry)
}
