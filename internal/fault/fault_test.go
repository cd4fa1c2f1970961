package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPreservesExistingFailure(t *testing.T) {
	original := RateLimited(30)
	wrapped := fmt.Errorf("solve stage: %w", original)

	f := From(wrapped)
	assert.Same(t, original, f)
	assert.Equal(t, 30, f.WaitSeconds)
}

func TestFromMapsContextCancellation(t *testing.T) {
	f := From(fmt.Errorf("request aborted: %w", context.Canceled))
	assert.Equal(t, Cancelled, f.Kind)
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	f := From(errors.New("dial tcp: connection refused"))
	assert.Equal(t, Generic, f.Kind)
	assert.Equal(t, "dial tcp: connection refused", f.Message)
}

func TestFromNil(t *testing.T) {
	assert.Nil(t, From(nil))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(NoScreenshots, "No screenshots to process."))
	assert.True(t, IsKind(err, NoScreenshots))
	assert.False(t, IsKind(err, ParseError))
	assert.False(t, IsKind(errors.New("plain"), NoScreenshots))
}

func TestUnknownModelHint(t *testing.T) {
	f := UnknownModelHint("gpt-99", []string{"gpt-4o", "gpt-4o-mini"})
	require.Equal(t, UnknownModel, f.Kind)
	assert.Contains(t, f.Message, "gpt-99")
	assert.Contains(t, f.Message, "gpt-4o")
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, f.KnownModels)
}

func TestCooldownCarriesRemainingSeconds(t *testing.T) {
	f := Cooldown(42)
	assert.Equal(t, CooldownActive, f.Kind)
	assert.Equal(t, 42, f.WaitSeconds)
	assert.Contains(t, f.Message, "42")
}
