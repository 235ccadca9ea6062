package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"floodguard/internal/clock"
	"floodguard/internal/config"
	"floodguard/internal/escalation"
	"floodguard/internal/metrics"
	"floodguard/internal/moderr"
	"floodguard/internal/policy"
	"floodguard/internal/repository"
	"floodguard/internal/tracker"
	"floodguard/internal/utils"
)

// ActionType tells the caller what to do with the message sender.
type ActionType string

const (
	ActionNone     ActionType = "none"
	ActionAutoMute ActionType = "auto_mute"
)

// Action is the moderation verdict for one message. It never says how to
// mute; applying the verdict belongs to whatever adapter speaks the chat
// protocol.
type Action struct {
	Type            ActionType
	DurationMinutes int
	ViolationID     int64
	Reference       string
}

// StatusReport describes one user's standing in one chat.
type StatusReport struct {
	ChatID           int64
	UserID           int64
	Muted            bool
	MutedUntil       time.Time
	ActiveViolation  *repository.Violation
	ViolationCount   int
	WarningCount     int
	MessagesInWindow int
	Exempt           bool
	Degraded         bool
}

// StatsReport merges durable store aggregates with the in-memory tracker
// gauges. Degraded marks a report assembled while the store was failing.
type StatsReport struct {
	TotalViolations  int64
	ActiveViolations int64
	UniqueUsers      int64
	UniqueChats      int64
	TrackedKeys      int
	TrackedMessages  int
	Degraded         bool
}

// WarningResult is the outcome of issuing one warning.
type WarningResult struct {
	Count            int
	ThresholdReached bool
	Violation        *repository.Violation
}

// MaintenanceReport sums up one maintenance pass. Failed actions land in
// Errors without blocking the remaining actions.
type MaintenanceReport struct {
	RanAt       time.Time
	PrunedKeys  int
	Deactivated int64
	Purged      int64
	Errors      []string
}

type Service interface {
	EvaluateMessage(ctx context.Context, chatID, userID int64, at time.Time) (*Action, error)
	ManualMute(ctx context.Context, chatID, userID int64, durationMinutes int) (*repository.Violation, error)
	ManualUnmute(ctx context.Context, chatID, userID int64) (bool, error)
	IssueWarning(ctx context.Context, chatID, userID int64, reason string) (*WarningResult, error)
	ClearWarnings(ctx context.Context, chatID, userID int64) error
	GetStatus(ctx context.Context, chatID, userID int64) (*StatusReport, error)
	GetStats(ctx context.Context) (*StatsReport, error)
	GetViolation(ctx context.Context, reference string) (*repository.Violation, error)
	GetChatPolicy(ctx context.Context, chatID int64) (*repository.ChatPolicy, error)
	UpdateChatPolicy(ctx context.Context, chatPolicy *repository.ChatPolicy) error
	RunMaintenanceOnce(ctx context.Context, now time.Time) *MaintenanceReport
	StartMaintenance(ctx context.Context)
	StartMetricsUpdater(ctx context.Context)
}

type ModerationService struct {
	logger     *slog.Logger
	cfg        *config.Config
	clock      clock.Clock
	tracker    *tracker.Tracker
	exemptions *policy.Exemptions
	engine     *escalation.Engine
	violations repository.ViolationRepository
	policies   repository.ChatPolicyRepository
	warnings   repository.WarningRepository
	tracer     trace.Tracer
}

func NewModerationService(
	logger *slog.Logger,
	cfg *config.Config,
	clk clock.Clock,
	trk *tracker.Tracker,
	exemptions *policy.Exemptions,
	engine *escalation.Engine,
	violationRepo repository.ViolationRepository,
	policyRepo repository.ChatPolicyRepository,
	warningRepo repository.WarningRepository,
) Service {
	return &ModerationService{
		logger:     logger,
		cfg:        cfg,
		clock:      clk,
		tracker:    trk,
		exemptions: exemptions,
		engine:     engine,
		violations: violationRepo,
		policies:   policyRepo,
		warnings:   warningRepo,
		tracer:     otel.Tracer("service"),
	}
}

// EvaluateMessage runs one message through the moderation flow: exemption
// gate, chat policy, sliding window, and on a trigger the escalation
// engine. A zero timestamp means now. The returned action tells the caller
// whether to mute and for how long.
func (s *ModerationService) EvaluateMessage(ctx context.Context, chatID, userID int64, at time.Time) (*Action, error) {
	ctx, span := s.tracer.Start(ctx, "EvaluateMessage")
	defer span.End()

	timer := metrics.TimeEvaluate()
	defer timer.ObserveDuration()

	if err := validatePair(chatID, userID); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.clock.Now()
	}

	if s.exemptions.IsExempt(chatID, userID) {
		metrics.IncMessageEvaluated("exempt")
		return &Action{Type: ActionNone}, nil
	}

	limit, window, enabled := s.effectiveLimits(ctx, chatID)
	if !enabled {
		metrics.IncMessageEvaluated("disabled")
		return &Action{Type: ActionNone}, nil
	}

	count, overLimit := s.tracker.RecordLimited(chatID, userID, at, limit, window)
	if !overLimit {
		metrics.IncMessageEvaluated("allowed")
		return &Action{Type: ActionNone}, nil
	}

	s.logger.Info("Rate limit exceeded",
		"chat_id", chatID, "user_id", userID, "messages_in_window", count)

	decision := s.engine.Decide(ctx, chatID, userID, at)
	s.tracker.Reset(chatID, userID)

	metrics.IncMessageEvaluated("muted")
	metrics.IncViolation(repository.ViolationTypeRateLimit)

	s.logger.Info("Auto mute issued",
		"chat_id", chatID, "user_id", userID,
		"duration", utils.FormatMinutes(decision.DurationMinutes),
		"reference", decision.Violation.Reference,
		"persisted", decision.Persisted)

	return &Action{
		Type:            ActionAutoMute,
		DurationMinutes: decision.DurationMinutes,
		ViolationID:     decision.Violation.ID,
		Reference:       decision.Violation.Reference,
	}, nil
}

// effectiveLimits resolves the chat's limit and window, falling back to the
// global configuration when the chat has no override or the policy store is
// unavailable. The bool reports whether moderation is enabled for the chat.
func (s *ModerationService) effectiveLimits(ctx context.Context, chatID int64) (int, time.Duration, bool) {
	limit := s.cfg.MaxMessages
	window := s.cfg.Window()

	chatPolicy, err := s.policies.Get(ctx, chatID)
	if err != nil {
		metrics.IncStorageError("get_policy")
		s.logger.Warn("Chat policy unavailable, using defaults", "chat_id", chatID, "error", err)
		return limit, window, true
	}
	if !chatPolicy.Enabled {
		return limit, window, false
	}
	if chatPolicy.MaxMessages > 0 {
		limit = chatPolicy.MaxMessages
	}
	if chatPolicy.WindowSeconds > 0 {
		window = time.Duration(chatPolicy.WindowSeconds) * time.Second
	}
	return limit, window, true
}

// ManualMute records an admin-imposed mute for the given number of minutes
// and returns the stored violation.
func (s *ModerationService) ManualMute(ctx context.Context, chatID, userID int64, durationMinutes int) (*repository.Violation, error) {
	ctx, span := s.tracer.Start(ctx, "ManualMute")
	defer span.End()

	if err := validatePair(chatID, userID); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: mute duration must be positive, got %d", moderr.ErrValidation, durationMinutes)
	}

	v := repository.NewViolation(chatID, userID, repository.ViolationTypeManual, s.clock.Now(), durationMinutes)
	if err := s.violations.Add(ctx, v); err != nil {
		return nil, err
	}

	metrics.IncViolation(repository.ViolationTypeManual)
	s.logger.Info("Manual mute recorded",
		"chat_id", chatID, "user_id", userID,
		"duration", utils.FormatMinutes(durationMinutes), "reference", v.Reference)
	return v, nil
}

// ManualUnmute lifts the most recent active mute for the pair. It reports
// false, without error, when there was nothing to lift.
func (s *ModerationService) ManualUnmute(ctx context.Context, chatID, userID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ManualUnmute")
	defer span.End()

	if err := validatePair(chatID, userID); err != nil {
		return false, err
	}

	ok, err := s.violations.DeactivateLatest(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("Manual unmute applied", "chat_id", chatID, "user_id", userID)
	}
	return ok, nil
}

// IssueWarning stores a warning and, once the pair accumulates the
// configured number, converts them into a manual mute and clears the
// ledger.
func (s *ModerationService) IssueWarning(ctx context.Context, chatID, userID int64, reason string) (*WarningResult, error) {
	ctx, span := s.tracer.Start(ctx, "IssueWarning")
	defer span.End()

	if err := validatePair(chatID, userID); err != nil {
		return nil, err
	}

	count, err := s.warnings.Add(ctx, &repository.Warning{ChatID: chatID, UserID: userID, Reason: reason})
	if err != nil {
		return nil, err
	}
	metrics.IncWarningIssued()

	result := &WarningResult{Count: count}
	if count < s.cfg.WarnsToPunish {
		s.logger.Info("Warning issued",
			"chat_id", chatID, "user_id", userID, "warnings", count, "reason", reason)
		return result, nil
	}

	result.ThresholdReached = true
	v := repository.NewViolation(chatID, userID, repository.ViolationTypeManual, s.clock.Now(), s.cfg.AutoMuteMinutes)
	if err := s.violations.Add(ctx, v); err != nil {
		return nil, err
	}
	result.Violation = v
	metrics.IncViolation(repository.ViolationTypeManual)

	if _, err := s.warnings.Clear(ctx, chatID, userID); err != nil {
		s.logger.Warn("Failed to clear warnings after mute",
			"chat_id", chatID, "user_id", userID, "error", err)
	}

	s.logger.Info("Warning threshold reached, mute recorded",
		"chat_id", chatID, "user_id", userID, "warnings", count,
		"duration", utils.FormatMinutes(s.cfg.AutoMuteMinutes), "reference", v.Reference)
	return result, nil
}

func (s *ModerationService) ClearWarnings(ctx context.Context, chatID, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "ClearWarnings")
	defer span.End()

	if err := validatePair(chatID, userID); err != nil {
		return err
	}

	cleared, err := s.warnings.Clear(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if cleared > 0 {
		s.logger.Info("Warnings cleared", "chat_id", chatID, "user_id", userID, "count", cleared)
	}
	return nil
}

// GetStatus reports the pair's current standing. Store failures degrade the
// report instead of failing it: affected fields stay zero and Degraded is
// set.
func (s *ModerationService) GetStatus(ctx context.Context, chatID, userID int64) (*StatusReport, error) {
	ctx, span := s.tracer.Start(ctx, "GetStatus")
	defer span.End()

	if err := validatePair(chatID, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &StatusReport{
		ChatID:           chatID,
		UserID:           userID,
		Exempt:           s.exemptions.IsExempt(chatID, userID),
		MessagesInWindow: s.tracker.InWindow(chatID, userID, now),
	}

	active, err := s.violations.ActiveViolation(ctx, chatID, userID, now)
	if err != nil {
		report.Degraded = true
		metrics.IncStorageError("active_violation")
		s.logger.Warn("Status lookup degraded", "chat_id", chatID, "user_id", userID, "error", err)
	} else if active != nil {
		report.Muted = true
		report.MutedUntil = active.ExpiresAt
		report.ActiveViolation = active
	}

	count, err := s.violations.CountSince(ctx, chatID, userID, now.Add(-s.cfg.Lookback()))
	if err != nil {
		report.Degraded = true
		metrics.IncStorageError("count_since")
		s.logger.Warn("Status lookup degraded", "chat_id", chatID, "user_id", userID, "error", err)
	} else {
		report.ViolationCount = count
	}

	warnCount, err := s.warnings.Count(ctx, chatID, userID)
	if err != nil {
		report.Degraded = true
		metrics.IncStorageError("count_warnings")
		s.logger.Warn("Status lookup degraded", "chat_id", chatID, "user_id", userID, "error", err)
	} else {
		report.WarningCount = warnCount
	}

	return report, nil
}

// GetStats merges store aggregates with tracker gauges, degrading rather
// than failing when the store is unavailable.
func (s *ModerationService) GetStats(ctx context.Context) (*StatsReport, error) {
	ctx, span := s.tracer.Start(ctx, "GetStats")
	defer span.End()

	report := &StatsReport{}
	report.TrackedKeys, report.TrackedMessages = s.tracker.Stats()

	stats, err := s.violations.Stats(ctx)
	if err != nil {
		report.Degraded = true
		metrics.IncStorageError("stats")
		s.logger.Warn("Stats lookup degraded", "error", err)
		return report, nil
	}

	report.TotalViolations = stats.TotalViolations
	report.ActiveViolations = stats.ActiveViolations
	report.UniqueUsers = stats.UniqueUsers
	report.UniqueChats = stats.UniqueChats
	return report, nil
}

func (s *ModerationService) GetViolation(ctx context.Context, reference string) (*repository.Violation, error) {
	ctx, span := s.tracer.Start(ctx, "GetViolation")
	defer span.End()

	if _, err := uuid.Parse(reference); err != nil {
		return nil, fmt.Errorf("%w: malformed violation reference %q", moderr.ErrValidation, reference)
	}
	return s.violations.ByReference(ctx, reference)
}

func (s *ModerationService) GetChatPolicy(ctx context.Context, chatID int64) (*repository.ChatPolicy, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatPolicy")
	defer span.End()

	if chatID == 0 {
		return nil, fmt.Errorf("%w: chat id must be non-zero", moderr.ErrValidation)
	}
	return s.policies.Get(ctx, chatID)
}

func (s *ModerationService) UpdateChatPolicy(ctx context.Context, chatPolicy *repository.ChatPolicy) error {
	ctx, span := s.tracer.Start(ctx, "UpdateChatPolicy")
	defer span.End()

	if chatPolicy.ChatID == 0 {
		return fmt.Errorf("%w: chat id must be non-zero", moderr.ErrValidation)
	}
	if chatPolicy.MaxMessages < 0 || chatPolicy.WindowSeconds < 0 {
		return fmt.Errorf("%w: policy overrides must not be negative", moderr.ErrValidation)
	}

	if err := s.policies.Upsert(ctx, chatPolicy); err != nil {
		return err
	}
	s.logger.Info("Chat policy updated",
		"chat_id", chatPolicy.ChatID, "enabled", chatPolicy.Enabled,
		"max_messages", chatPolicy.MaxMessages, "window_seconds", chatPolicy.WindowSeconds)
	return nil
}

// StartMetricsUpdater keeps the gauges fresh until ctx is cancelled.
func (s *ModerationService) StartMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)

	update := func() {
		keys, messages := s.tracker.Stats()
		metrics.SetTrackerStats(float64(keys), float64(messages))

		count, err := s.violations.CountActive(ctx, s.clock.Now())
		if err != nil {
			s.logger.Error("Failed to count active mutes", "error", err)
			return
		}
		metrics.SetActiveMutes(float64(count))
	}

	go update()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}

func validatePair(chatID, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive, got %d", moderr.ErrValidation, userID)
	}
	if chatID == 0 {
		return fmt.Errorf("%w: chat id must be non-zero", moderr.ErrValidation)
	}
	return nil
}
