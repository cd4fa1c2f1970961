package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordsAndListsRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	store.RecordRun(RunEntry{
		ID: "run-1", Kind: "initial", Provider: "openai", Model: "gpt-4o",
		Screenshots: 2, Success: true, Duration: 1500 * time.Millisecond,
	})
	store.RecordRun(RunEntry{
		ID: "run-2", Kind: "debug", Provider: "openai", Model: "gpt-4o",
		Screenshots: 3, Success: false, FailureKind: "provider_rate_limited",
		Duration: 200 * time.Millisecond,
	})

	entries, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]RunEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.Equal(t, "initial", byID["run-1"].Kind)
	assert.True(t, byID["run-1"].Success)
	assert.Equal(t, 1500*time.Millisecond, byID["run-1"].Duration)
	assert.Equal(t, "provider_rate_limited", byID["run-2"].FailureKind)
	assert.False(t, byID["run-2"].Success)
}

func TestStoreRecordChat(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	// Best-effort: recording must not panic or error out
	store.RecordChat(ChatEntry{ID: "chat-1", Provider: "openai", Model: "gpt-4o-mini", Success: true})
	store.RecordChat(ChatEntry{ID: "chat-1", Provider: "openai", Model: "gpt-4o-mini", Success: true}) // duplicate id swallowed
}

func TestRecentRunsLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	for _, id := range []string{"a", "b", "c"} {
		store.RecordRun(RunEntry{ID: id, Kind: "initial", Provider: "openai", Model: "gpt-4o", Success: true})
	}

	entries, err := store.RecentRuns(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
