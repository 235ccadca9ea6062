package tracker

import (
	"sync"
	"time"
)

type key struct {
	ChatID int64
	UserID int64
}

// Tracker keeps per-user, per-chat message timestamps inside a sliding
// window and reports when a sender reaches the configured limit. State is
// in-memory only; losing it delays detection but never corrupts the
// durable violation history.
type Tracker struct {
	mu            sync.Mutex
	msgTimestamps map[key][]time.Time
	limit         int
	window        time.Duration
}

func New(limit int, window time.Duration) *Tracker {
	return &Tracker{
		msgTimestamps: make(map[key][]time.Time),
		limit:         limit,
		window:        window,
	}
}

// Record registers a message at now and returns how many messages the
// sender has inside the window, and whether that count reaches the limit.
func (t *Tracker) Record(chatID, userID int64, now time.Time) (int, bool) {
	return t.RecordLimited(chatID, userID, now, t.limit, t.window)
}

// RecordLimited is Record with per-call limit and window overrides, used
// when a chat carries its own policy.
//
// A timestamp older than the newest one already recorded for the key is
// clamped to that newest timestamp, so sequences stay ascending even if
// the caller's clock steps backwards.
func (t *Tracker) RecordLimited(chatID, userID int64, now time.Time, limit int, window time.Duration) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{ChatID: chatID, UserID: userID}
	timestamps := t.msgTimestamps[k]

	if n := len(timestamps); n > 0 && now.Before(timestamps[n-1]) {
		now = timestamps[n-1]
	}

	cutoff := now.Add(-window)
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if !ts.Before(cutoff) {
			valid = append(valid, ts)
		}
	}

	valid = append(valid, now)
	t.msgTimestamps[k] = valid

	return len(valid), len(valid) >= limit
}

// InWindow counts the sender's buffered messages still inside the window
// without recording anything.
func (t *Tracker) InWindow(chatID, userID int64, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.window)
	count := 0
	for _, ts := range t.msgTimestamps[key{ChatID: chatID, UserID: userID}] {
		if !ts.Before(cutoff) {
			count++
		}
	}
	return count
}

// Reset forgets the key entirely. Called after a mute fires so the next
// message starts a fresh window.
func (t *Tracker) Reset(chatID, userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.msgTimestamps, key{ChatID: chatID, UserID: userID})
}

// PruneExpiredKeys drops every key whose newest timestamp fell out of the
// window and returns how many were removed. Keys recording under a longer
// per-chat window may be dropped early; that only delays detection.
func (t *Tracker) PruneExpiredKeys(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.window)
	removed := 0
	for k, timestamps := range t.msgTimestamps {
		if len(timestamps) == 0 || timestamps[len(timestamps)-1].Before(cutoff) {
			delete(t.msgTimestamps, k)
			removed++
		}
	}
	return removed
}

// Stats reports the number of tracked keys and buffered timestamps.
func (t *Tracker) Stats() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := 0
	for _, timestamps := range t.msgTimestamps {
		events += len(timestamps)
	}
	return len(t.msgTimestamps), events
}
