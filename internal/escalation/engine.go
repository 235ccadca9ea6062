package escalation

import (
	"context"
	"log/slog"
	"time"

	"floodguard/internal/metrics"
	"floodguard/internal/repository"
)

// Decision is the outcome of one escalation step: how long to mute and the
// violation row recorded for it. Persisted is false when the store rejected
// the insert and the decision exists only in memory.
type Decision struct {
	DurationMinutes int
	Violation       *repository.Violation
	Persisted       bool
}

// Engine turns a rate-limit trigger into a mute duration: the n-th
// violation inside the lookback window gets the n-th configured duration,
// and past the end of the table the last entry keeps applying. Triggers for
// the same user and chat are serialized so the count-then-insert pair stays
// consistent under concurrency.
type Engine struct {
	logger    *slog.Logger
	store     repository.ViolationRepository
	durations []int
	lookback  time.Duration
	keyLocks  *keyedMutex
}

func NewEngine(logger *slog.Logger, store repository.ViolationRepository, durations []int, lookback time.Duration) *Engine {
	return &Engine{
		logger:    logger,
		store:     store,
		durations: durations,
		lookback:  lookback,
		keyLocks:  newKeyedMutex(),
	}
}

// Decide records a rate-limit violation at the given time and returns the
// mute decision for it. A failed history lookup falls back to the shortest
// configured duration instead of skipping the mute, and a failed insert
// still yields a decision, flagged as not persisted.
func (e *Engine) Decide(ctx context.Context, chatID, userID int64, at time.Time) *Decision {
	key := lockKey{ChatID: chatID, UserID: userID}
	entry := e.keyLocks.lock(key)
	defer e.keyLocks.unlock(key, entry)

	ordinal := 1
	count, err := e.store.CountSince(ctx, chatID, userID, at.Add(-e.lookback))
	if err != nil {
		metrics.IncStorageError("count_since")
		e.logger.Warn("Violation history unavailable, falling back to minimum mute duration",
			"chat_id", chatID, "user_id", userID, "error", err)
	} else {
		ordinal = count + 1
	}

	idx := ordinal
	if idx > len(e.durations) {
		idx = len(e.durations)
	}
	duration := e.durations[idx-1]

	violation := repository.NewViolation(chatID, userID, repository.ViolationTypeRateLimit, at, duration)
	persisted := true
	if err := e.store.Add(ctx, violation); err != nil {
		persisted = false
		metrics.IncStorageError("add_violation")
		e.logger.Error("Failed to persist violation, keeping mute decision in memory",
			"chat_id", chatID, "user_id", userID, "reference", violation.Reference, "error", err)
	}

	e.logger.Debug("Escalation decided",
		"chat_id", chatID, "user_id", userID,
		"violation_ordinal", ordinal, "duration_minutes", duration)

	return &Decision{
		DurationMinutes: duration,
		Violation:       violation,
		Persisted:       persisted,
	}
}
