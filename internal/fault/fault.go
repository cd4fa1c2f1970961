// Package fault defines the classified failure taxonomy for the core.
//
// DESIGN: Every provider-call failure is classified here before it leaves the
// orchestrator or chat bridge. No raw transport errors cross the core boundary;
// callers only ever see a Failure with a user-presentable message.
package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the failure class.
type Kind string

const (
	// Unconfigured means no valid client exists for the active provider.
	Unconfigured Kind = "unconfigured"
	// NoScreenshots means the screenshot batch was empty or all files were missing.
	NoScreenshots Kind = "no_screenshots"
	// NoProblemContext means debug was requested without a prior extraction.
	NoProblemContext Kind = "no_problem_context"
	// ParseError means the extraction response was not parseable JSON.
	ParseError Kind = "parse_error"
	// ProviderAuthError is a 401-equivalent credential rejection.
	ProviderAuthError Kind = "provider_auth_error"
	// ProviderRateLimited is a 429-equivalent, carrying a wait hint.
	ProviderRateLimited Kind = "provider_rate_limited"
	// ProviderPayloadTooLarge is a 413-equivalent or token-limit rejection.
	ProviderPayloadTooLarge Kind = "provider_payload_too_large"
	// ProviderServerError is a 5xx-equivalent upstream failure.
	ProviderServerError Kind = "provider_server_error"
	// Cancelled means the caller aborted the stage group.
	Cancelled Kind = "cancelled"
	// UnknownModel is a 400 with model-not-found semantics.
	UnknownModel Kind = "unknown_model"
	// CooldownActive is a local rejection inside the client-side cooldown window.
	CooldownActive Kind = "cooldown_active"
	// Generic is the catch-all; it carries the original message.
	Generic Kind = "generic"
)

// Failure is the classified error type returned across the core boundary.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// WaitSeconds carries the wait hint for rate-limit and cooldown failures.
	WaitSeconds int `json:"wait_seconds,omitempty"`

	// KnownModels carries the remediation hint for UnknownModel failures.
	KnownModels []string `json:"known_models,omitempty"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// New creates a Failure with the given kind and message.
func New(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// Newf creates a Failure with a formatted message.
func Newf(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// RateLimited creates a ProviderRateLimited failure with a concrete wait hint.
func RateLimited(waitSeconds int) *Failure {
	return &Failure{
		Kind:        ProviderRateLimited,
		Message:     fmt.Sprintf("Rate limit reached. Please wait ~%ds and try again.", waitSeconds),
		WaitSeconds: waitSeconds,
	}
}

// Cooldown creates a CooldownActive failure with the remaining seconds.
func Cooldown(remainingSeconds int) *Failure {
	return &Failure{
		Kind:        CooldownActive,
		Message:     fmt.Sprintf("Rate limit (client-side cooldown) – please wait ~%ds and try again.", remainingSeconds),
		WaitSeconds: remainingSeconds,
	}
}

// UnknownModelHint creates an UnknownModel failure listing known-good model ids.
func UnknownModelHint(model string, known []string) *Failure {
	return &Failure{
		Kind: UnknownModel,
		Message: fmt.Sprintf("Unknown or unavailable model '%s'. Try one of: %s. If the model should exist, verify it is enabled for your account/key.",
			model, strings.Join(known, ", ")),
		KnownModels: known,
	}
}

// From extracts the Failure from err, classifying unrecognized errors as Generic.
// Context cancellation always maps to Cancelled regardless of wrapping.
func From(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.Canceled) {
		return New(Cancelled, "Processing was canceled by the user.")
	}
	return New(Generic, err.Error())
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
