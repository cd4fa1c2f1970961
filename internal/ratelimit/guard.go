// Package ratelimit enforces client-side cooldowns and interprets provider
// rate-limit responses.
//
// DESIGN: Two layers:
//  1. Cooldown: a per-model minimum interval between chat calls, rejected
//     locally before any HTTP round-trip. This protects the account on
//     providers with aggressive 429 policies.
//  2. 429 interpretation: extract a wait hint from Retry-After (seconds or
//     HTTP-date) or the provider's time-remaining header, default 60s, and
//     clamp to a configurable sane range before surfacing it.
//
// A 429 also records the call, so an immediate retry is blocked locally.
package ratelimit

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/providers"
)

// defaultWaitSeconds is the hint used when a 429 carries no usable header.
const defaultWaitSeconds = 60

var unknownModelPattern = regexp.MustCompile(`(?i)unknown model`)

// Guard holds per-model call timestamps and the rate-limit policy.
type Guard struct {
	mu       sync.Mutex
	lastCall map[string]time.Time

	cooldown time.Duration
	waitMin  time.Duration
	waitMax  time.Duration

	now func() time.Time // injectable for tests
}

// NewGuard creates a Guard with the given cooldown window and wait-hint
// clamp bounds.
func NewGuard(cooldown, waitMin, waitMax time.Duration) *Guard {
	return &Guard{
		lastCall: make(map[string]time.Time),
		cooldown: cooldown,
		waitMin:  waitMin,
		waitMax:  waitMax,
		now:      time.Now,
	}
}

// Acquire checks the client-side cooldown for a model. Inside the window it
// returns a CooldownActive failure with the remaining seconds; no network
// call should be made. Outside the window it returns nil without recording:
// the call is recorded on completion via Record.
func (g *Guard) Acquire(model string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastCall[model]
	if !ok {
		return nil
	}
	elapsed := g.now().Sub(last)
	if elapsed >= g.cooldown {
		return nil
	}
	remaining := int(math.Ceil((g.cooldown - elapsed).Seconds()))
	log.Debug().Str("model", model).Int("remaining_s", remaining).Msg("cooldown active")
	return fault.Cooldown(remaining)
}

// Record marks a call to a model as just-happened.
func (g *Guard) Record(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCall[model] = g.now()
}

// WaitHint extracts the surfaced wait time in seconds from 429 response
// headers, clamped to the configured bounds.
func (g *Guard) WaitHint(h http.Header) int {
	wait := defaultWaitSeconds
	if v, ok := parseRetryAfter(h.Get("Retry-After"), g.now()); ok {
		wait = v
	} else if v, ok := parseSeconds(h.Get("x-ratelimit-timeremaining")); ok {
		wait = v
	}
	return g.clamp(wait)
}

func (g *Guard) clamp(seconds int) int {
	if min := int(g.waitMin.Seconds()); seconds < min {
		return min
	}
	if max := int(g.waitMax.Seconds()); seconds > max {
		return max
	}
	return seconds
}

// parseRetryAfter handles both forms allowed by RFC 9110: delay seconds or an
// HTTP-date.
func parseRetryAfter(v string, now time.Time) (int, bool) {
	if v == "" {
		return 0, false
	}
	if n, ok := parseSeconds(v); ok {
		return n, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now).Seconds()
		if d < 0 {
			d = 0
		}
		return int(math.Ceil(d)), true
	}
	return 0, false
}

func parseSeconds(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		f = 0
	}
	return int(math.Ceil(f)), true
}

// Classify turns a provider-call error into the classified failure that
// crosses the core boundary. 429s update the cooldown state as if a call had
// just happened.
func (g *Guard) Classify(model string, err error) *fault.Failure {
	if err == nil {
		return nil
	}

	var apiErr *providers.APIError
	if !errors.As(err, &apiErr) {
		return fault.From(err)
	}

	switch {
	case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
		return fault.New(fault.ProviderAuthError,
			"Invalid API key. Please check your settings.")
	case apiErr.Status == http.StatusTooManyRequests:
		g.Record(model)
		return fault.RateLimited(g.WaitHint(apiErr.Header))
	case apiErr.Status == http.StatusRequestEntityTooLarge || isTokenLimit(apiErr):
		return fault.New(fault.ProviderPayloadTooLarge,
			"Your screenshots contain too much information to process. Try fewer or clearer screenshots, or switch provider in settings.")
	case apiErr.Status == http.StatusBadRequest && unknownModelPattern.MatchString(apiErr.Message()):
		return fault.UnknownModelHint(model, providers.KnownModels(apiErr.Provider))
	case apiErr.Status >= 500:
		return fault.New(fault.ProviderServerError,
			"Provider server error. Please try again later.")
	default:
		return fault.New(fault.Generic, apiErr.Message())
	}
}

// tokenLimitPattern matches the message shape providers use when a request
// blows the context window without returning a 413.
var tokenLimitPattern = regexp.MustCompile(`(?i)token.*(limit|exceed)|too (long|large|many).*token`)

func isTokenLimit(apiErr *providers.APIError) bool {
	return apiErr.Status == http.StatusBadRequest && tokenLimitPattern.MatchString(apiErr.Message())
}
