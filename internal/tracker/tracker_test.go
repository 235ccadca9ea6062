package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Record(t *testing.T) {
	tr := New(5, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		count, overLimit := tr.Record(-100, 123, base.Add(time.Duration(i)*time.Second))
		assert.Equal(t, i+1, count)
		assert.False(t, overLimit, "message %d should not trip the limit", i+1)
	}

	count, overLimit := tr.Record(-100, 123, base.Add(4*time.Second))
	assert.Equal(t, 5, count)
	assert.True(t, overLimit, "5th message inside the window should trip the limit")

	count, overLimit = tr.Record(-100, 456, base.Add(4*time.Second))
	assert.Equal(t, 1, count)
	assert.False(t, overLimit, "different user should start fresh")

	count, overLimit = tr.Record(-200, 123, base.Add(4*time.Second))
	assert.Equal(t, 1, count)
	assert.False(t, overLimit, "same user in a different chat should start fresh")

	count, overLimit = tr.Record(-100, 123, base.Add(20*time.Second))
	assert.Equal(t, 1, count)
	assert.False(t, overLimit, "message after the window passed should start fresh")
}

func TestTracker_Record_WindowBoundary(t *testing.T) {
	tr := New(3, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record(-1, 1, base)

	// A timestamp exactly window old is still inside the window.
	count, _ := tr.Record(-1, 1, base.Add(10*time.Second))
	assert.Equal(t, 2, count)

	// Ten seconds later the first timestamp is strictly older than the
	// window and falls out, while the second sits exactly on the edge.
	count, _ = tr.Record(-1, 1, base.Add(20*time.Second))
	assert.Equal(t, 2, count, "expected the oldest timestamp pruned")
}

func TestTracker_Record_ClampsBackwardsTime(t *testing.T) {
	tr := New(10, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record(-1, 1, base.Add(5*time.Second))

	count, _ := tr.Record(-1, 1, base.Add(1*time.Second))
	assert.Equal(t, 2, count, "out-of-order message should still count")

	// Both earlier events were clamped to t+5s, so at t+15s they sit exactly
	// on the window edge and survive. Unclamped, the second one would have
	// been pruned already.
	count, _ = tr.Record(-1, 1, base.Add(15*time.Second))
	assert.Equal(t, 3, count)
}

func TestTracker_Reset(t *testing.T) {
	tr := New(5, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tr.Record(-100, 123, base.Add(time.Duration(i)*time.Second))
	}

	tr.Reset(-100, 123)

	count, overLimit := tr.Record(-100, 123, base.Add(5*time.Second))
	assert.Equal(t, 1, count, "reset should rearm the window")
	assert.False(t, overLimit)
}

func TestTracker_PruneExpiredKeys(t *testing.T) {
	tr := New(5, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record(-1, 1, base)
	tr.Record(-1, 2, base.Add(8*time.Second))
	tr.Record(-1, 3, base.Add(5*time.Second))

	removed := tr.PruneExpiredKeys(base.Add(15 * time.Second))
	assert.Equal(t, 1, removed, "only the key whose newest timestamp expired should go")

	keys, events := tr.Stats()
	assert.Equal(t, 2, keys)
	assert.Equal(t, 2, events)

	// A newest timestamp exactly at now-window is not yet expired.
	removed = tr.PruneExpiredKeys(base.Add(15 * time.Second))
	assert.Equal(t, 0, removed)

	removed = tr.PruneExpiredKeys(base.Add(1 * time.Minute))
	assert.Equal(t, 2, removed)

	keys, events = tr.Stats()
	assert.Equal(t, 0, keys)
	assert.Equal(t, 0, events)
}

func TestTracker_RecordLimited_Overrides(t *testing.T) {
	tr := New(5, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	count, overLimit := tr.RecordLimited(-1, 1, base, 2, 30*time.Second)
	assert.Equal(t, 1, count)
	assert.False(t, overLimit)

	count, overLimit = tr.RecordLimited(-1, 1, base.Add(20*time.Second), 2, 30*time.Second)
	assert.Equal(t, 2, count, "override window should keep the older timestamp")
	assert.True(t, overLimit, "override limit of 2 should trip on the 2nd message")
}

func TestTracker_InWindow(t *testing.T) {
	tr := New(5, 10*time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, tr.InWindow(-1, 1, base))

	tr.Record(-1, 1, base)
	tr.Record(-1, 1, base.Add(2*time.Second))

	assert.Equal(t, 2, tr.InWindow(-1, 1, base.Add(3*time.Second)))
	assert.Equal(t, 1, tr.InWindow(-1, 1, base.Add(11*time.Second)))
	assert.Equal(t, 0, tr.InWindow(-1, 1, base.Add(1*time.Minute)))

	keys, events := tr.Stats()
	assert.Equal(t, 1, keys, "InWindow must not mutate state")
	assert.Equal(t, 2, events)
}
