package dedupe

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrackerFirstSeen(t *testing.T) {
	tracker, err := NewMemoryTracker(16, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := tracker.FirstSeen(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := tracker.FirstSeen(ctx, "1001")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := tracker.FirstSeen(ctx, "1002")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMemoryTrackerExpiry(t *testing.T) {
	tracker, err := NewMemoryTracker(16, time.Minute)
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := tracker.FirstSeen(ctx, "7")
	assert.True(t, first)

	now = now.Add(2 * time.Minute)
	afterTTL, _ := tracker.FirstSeen(ctx, "7")
	assert.True(t, afterTTL)
}

func TestMemoryTrackerEvictsOldest(t *testing.T) {
	tracker, err := NewMemoryTracker(2, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := tracker.FirstSeen(ctx, strconv.Itoa(i))
		require.True(t, ok)
	}

	evicted, _ := tracker.FirstSeen(ctx, "0")
	assert.True(t, evicted)
}

func TestNewMemoryTrackerRejectsBadSize(t *testing.T) {
	_, err := NewMemoryTracker(0, time.Hour)
	assert.Error(t, err)
}
