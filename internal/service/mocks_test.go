package service

import (
	"context"
	"time"

	"floodguard/internal/moderr"
	"floodguard/internal/repository"
)

type MockViolationRepository struct {
	AddFunc               func(ctx context.Context, v *repository.Violation) error
	CountSinceFunc        func(ctx context.Context, chatID, userID int64, since time.Time) (int, error)
	ActiveViolationFunc   func(ctx context.Context, chatID, userID int64, now time.Time) (*repository.Violation, error)
	ByReferenceFunc       func(ctx context.Context, reference string) (*repository.Violation, error)
	DeactivateLatestFunc  func(ctx context.Context, chatID, userID int64) (bool, error)
	DeactivateExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
	PurgeOlderThanFunc    func(ctx context.Context, horizon time.Time) (int64, error)
	CountActiveFunc       func(ctx context.Context, now time.Time) (int64, error)
	StatsFunc             func(ctx context.Context) (*repository.StoreStats, error)
}

func (m *MockViolationRepository) Add(ctx context.Context, v *repository.Violation) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, v)
	}
	return nil
}

func (m *MockViolationRepository) CountSince(ctx context.Context, chatID, userID int64, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, chatID, userID, since)
	}
	return 0, nil
}

func (m *MockViolationRepository) ActiveViolation(ctx context.Context, chatID, userID int64, now time.Time) (*repository.Violation, error) {
	if m.ActiveViolationFunc != nil {
		return m.ActiveViolationFunc(ctx, chatID, userID, now)
	}
	return nil, nil
}

func (m *MockViolationRepository) ByReference(ctx context.Context, reference string) (*repository.Violation, error) {
	if m.ByReferenceFunc != nil {
		return m.ByReferenceFunc(ctx, reference)
	}
	return nil, moderr.ErrNotFound
}

func (m *MockViolationRepository) DeactivateLatest(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.DeactivateLatestFunc != nil {
		return m.DeactivateLatestFunc(ctx, chatID, userID)
	}
	return false, nil
}

func (m *MockViolationRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeactivateExpiredFunc != nil {
		return m.DeactivateExpiredFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockViolationRepository) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	if m.PurgeOlderThanFunc != nil {
		return m.PurgeOlderThanFunc(ctx, horizon)
	}
	return 0, nil
}

func (m *MockViolationRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockViolationRepository) Stats(ctx context.Context) (*repository.StoreStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &repository.StoreStats{}, nil
}

type MockChatPolicyRepository struct {
	GetFunc    func(ctx context.Context, chatID int64) (*repository.ChatPolicy, error)
	UpsertFunc func(ctx context.Context, policy *repository.ChatPolicy) error
}

func (m *MockChatPolicyRepository) Get(ctx context.Context, chatID int64) (*repository.ChatPolicy, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, chatID)
	}
	return &repository.ChatPolicy{ChatID: chatID, Enabled: true}, nil
}

func (m *MockChatPolicyRepository) Upsert(ctx context.Context, policy *repository.ChatPolicy) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, policy)
	}
	return nil
}

type MockWarningRepository struct {
	AddFunc   func(ctx context.Context, w *repository.Warning) (int, error)
	CountFunc func(ctx context.Context, chatID, userID int64) (int, error)
	ClearFunc func(ctx context.Context, chatID, userID int64) (int64, error)
}

func (m *MockWarningRepository) Add(ctx context.Context, w *repository.Warning) (int, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, w)
	}
	return 1, nil
}

func (m *MockWarningRepository) Count(ctx context.Context, chatID, userID int64) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, chatID, userID)
	}
	return 0, nil
}

func (m *MockWarningRepository) Clear(ctx context.Context, chatID, userID int64) (int64, error) {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, chatID, userID)
	}
	return 0, nil
}
