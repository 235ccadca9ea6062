package httpapi

import (
	"context"
	"time"

	"floodguard/internal/moderr"
	"floodguard/internal/repository"
	"floodguard/internal/service"
)

type MockService struct {
	EvaluateMessageFunc    func(ctx context.Context, chatID, userID int64, at time.Time) (*service.Action, error)
	ManualMuteFunc         func(ctx context.Context, chatID, userID int64, durationMinutes int) (*repository.Violation, error)
	ManualUnmuteFunc       func(ctx context.Context, chatID, userID int64) (bool, error)
	IssueWarningFunc       func(ctx context.Context, chatID, userID int64, reason string) (*service.WarningResult, error)
	ClearWarningsFunc      func(ctx context.Context, chatID, userID int64) error
	GetStatusFunc          func(ctx context.Context, chatID, userID int64) (*service.StatusReport, error)
	GetStatsFunc           func(ctx context.Context) (*service.StatsReport, error)
	GetViolationFunc       func(ctx context.Context, reference string) (*repository.Violation, error)
	GetChatPolicyFunc      func(ctx context.Context, chatID int64) (*repository.ChatPolicy, error)
	UpdateChatPolicyFunc   func(ctx context.Context, chatPolicy *repository.ChatPolicy) error
	RunMaintenanceOnceFunc func(ctx context.Context, now time.Time) *service.MaintenanceReport
}

func (m *MockService) EvaluateMessage(ctx context.Context, chatID, userID int64, at time.Time) (*service.Action, error) {
	if m.EvaluateMessageFunc != nil {
		return m.EvaluateMessageFunc(ctx, chatID, userID, at)
	}
	return &service.Action{Type: service.ActionNone}, nil
}

func (m *MockService) ManualMute(ctx context.Context, chatID, userID int64, durationMinutes int) (*repository.Violation, error) {
	if m.ManualMuteFunc != nil {
		return m.ManualMuteFunc(ctx, chatID, userID, durationMinutes)
	}
	return &repository.Violation{ChatID: chatID, UserID: userID, MuteDurationMinutes: durationMinutes}, nil
}

func (m *MockService) ManualUnmute(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.ManualUnmuteFunc != nil {
		return m.ManualUnmuteFunc(ctx, chatID, userID)
	}
	return true, nil
}

func (m *MockService) IssueWarning(ctx context.Context, chatID, userID int64, reason string) (*service.WarningResult, error) {
	if m.IssueWarningFunc != nil {
		return m.IssueWarningFunc(ctx, chatID, userID, reason)
	}
	return &service.WarningResult{Count: 1}, nil
}

func (m *MockService) ClearWarnings(ctx context.Context, chatID, userID int64) error {
	if m.ClearWarningsFunc != nil {
		return m.ClearWarningsFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockService) GetStatus(ctx context.Context, chatID, userID int64) (*service.StatusReport, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, chatID, userID)
	}
	return &service.StatusReport{ChatID: chatID, UserID: userID}, nil
}

func (m *MockService) GetStats(ctx context.Context) (*service.StatsReport, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	return &service.StatsReport{}, nil
}

func (m *MockService) GetViolation(ctx context.Context, reference string) (*repository.Violation, error) {
	if m.GetViolationFunc != nil {
		return m.GetViolationFunc(ctx, reference)
	}
	return nil, moderr.ErrNotFound
}

func (m *MockService) GetChatPolicy(ctx context.Context, chatID int64) (*repository.ChatPolicy, error) {
	if m.GetChatPolicyFunc != nil {
		return m.GetChatPolicyFunc(ctx, chatID)
	}
	return &repository.ChatPolicy{ChatID: chatID, Enabled: true}, nil
}

func (m *MockService) UpdateChatPolicy(ctx context.Context, chatPolicy *repository.ChatPolicy) error {
	if m.UpdateChatPolicyFunc != nil {
		return m.UpdateChatPolicyFunc(ctx, chatPolicy)
	}
	return nil
}

func (m *MockService) RunMaintenanceOnce(ctx context.Context, now time.Time) *service.MaintenanceReport {
	if m.RunMaintenanceOnceFunc != nil {
		return m.RunMaintenanceOnceFunc(ctx, now)
	}
	return &service.MaintenanceReport{RanAt: now}
}

func (m *MockService) StartMaintenance(ctx context.Context) {}

func (m *MockService) StartMetricsUpdater(ctx context.Context) {}
