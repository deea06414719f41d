package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubescribe/tubescribe/internal/types"
)

func testStore(t *testing.T) *AttemptStore {
	t.Helper()

	store, err := NewAttemptStore(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndQueryByRequest(t *testing.T) {
	store := testStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	store.Record(types.ExtractionAttempt{
		RequestID: "req-1",
		VideoID:   "dQw4w9WgXcQ",
		Stage:     "captions",
		Method:    types.MethodManualScraping,
		Outcome:   types.OutcomeFailure,
		Detail:    "no caption tracks",
		Duration:  250 * time.Millisecond,
		At:        base,
	})
	store.Record(types.ExtractionAttempt{
		RequestID: "req-1",
		VideoID:   "dQw4w9WgXcQ",
		Stage:     "provider",
		Method:    types.MethodThirdPartyAPI,
		Outcome:   types.OutcomeSuccess,
		Duration:  1200 * time.Millisecond,
		At:        base.Add(2 * time.Second),
	})
	store.Record(types.ExtractionAttempt{
		RequestID: "req-other",
		VideoID:   "jNQXAC9IVRw",
		Stage:     "captions",
		Method:    types.MethodManualScraping,
		Outcome:   types.OutcomeSuccess,
		At:        base,
	})

	got, err := store.ByRequest("req-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Insertion order is preserved.
	assert.Equal(t, "captions", got[0].Stage)
	assert.Equal(t, types.OutcomeFailure, got[0].Outcome)
	assert.Equal(t, "no caption tracks", got[0].Detail)
	assert.Equal(t, 250*time.Millisecond, got[0].Duration)

	assert.Equal(t, "provider", got[1].Stage)
	assert.Equal(t, types.OutcomeSuccess, got[1].Outcome)
}

func TestRecentByVideo(t *testing.T) {
	store := testStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		store.Record(types.ExtractionAttempt{
			RequestID: "req-1",
			VideoID:   "dQw4w9WgXcQ",
			Stage:     "captions",
			Method:    types.MethodManualScraping,
			Outcome:   types.OutcomeFailure,
			At:        base.Add(time.Duration(i) * time.Second),
		})
	}

	got, err := store.RecentByVideo("dQw4w9WgXcQ", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.True(t, got[0].At.After(got[2].At))
}

func TestQueryUnknownIDs(t *testing.T) {
	store := testStore(t)

	byReq, err := store.ByRequest("missing")
	require.NoError(t, err)
	assert.Empty(t, byReq)

	byVideo, err := store.RecentByVideo("missing0000", 10)
	require.NoError(t, err)
	assert.Empty(t, byVideo)
}
