package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"floodguard/internal/moderr"
	"floodguard/internal/repository"
)

type errorBody struct {
	Error string `json:"error"`
}

type evaluateRequest struct {
	ChatID int64     `json:"chat_id"`
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
}

type evaluateResponse struct {
	Action          string `json:"action"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	ViolationID     int64  `json:"violation_id,omitempty"`
	Reference       string `json:"reference,omitempty"`
}

type muteRequest struct {
	ChatID          int64 `json:"chat_id"`
	UserID          int64 `json:"user_id"`
	DurationMinutes int   `json:"duration_minutes"`
}

type warningRequest struct {
	ChatID int64  `json:"chat_id"`
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

type warningResponse struct {
	Count            int                `json:"count"`
	ThresholdReached bool               `json:"threshold_reached"`
	Violation        *violationResponse `json:"violation,omitempty"`
}

type liftedResponse struct {
	Lifted bool `json:"lifted"`
}

type violationResponse struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	ChatID          int64     `json:"chat_id"`
	UserID          int64     `json:"user_id"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	DurationMinutes int       `json:"duration_minutes"`
	ExpiresAt       time.Time `json:"expires_at"`
	Active          bool      `json:"active"`
}

type statusResponse struct {
	ChatID           int64              `json:"chat_id"`
	UserID           int64              `json:"user_id"`
	Muted            bool               `json:"muted"`
	MutedUntil       *time.Time         `json:"muted_until,omitempty"`
	ActiveViolation  *violationResponse `json:"active_violation,omitempty"`
	ViolationCount   int                `json:"violation_count"`
	WarningCount     int                `json:"warning_count"`
	MessagesInWindow int                `json:"messages_in_window"`
	Exempt           bool               `json:"exempt"`
	Degraded         bool               `json:"degraded"`
}

type statsResponse struct {
	TotalViolations  int64 `json:"total_violations"`
	ActiveViolations int64 `json:"active_violations"`
	UniqueUsers      int64 `json:"unique_users"`
	UniqueChats      int64 `json:"unique_chats"`
	TrackedKeys      int   `json:"tracked_keys"`
	TrackedMessages  int   `json:"tracked_messages"`
	Degraded         bool  `json:"degraded"`
}

type policyRequest struct {
	Enabled       bool `json:"enabled"`
	MaxMessages   int  `json:"max_messages"`
	WindowSeconds int  `json:"window_seconds"`
}

type policyResponse struct {
	ChatID        int64 `json:"chat_id"`
	Enabled       bool  `json:"enabled"`
	MaxMessages   int   `json:"max_messages"`
	WindowSeconds int   `json:"window_seconds"`
}

type maintenanceResponse struct {
	RanAt       time.Time `json:"ran_at"`
	PrunedKeys  int       `json:"pruned_keys"`
	Deactivated int64     `json:"deactivated"`
	Purged      int64     `json:"purged"`
	Errors      []string  `json:"errors,omitempty"`
}

func toViolationResponse(v *repository.Violation) *violationResponse {
	return &violationResponse{
		ID:              v.ID,
		Reference:       v.Reference,
		ChatID:          v.ChatID,
		UserID:          v.UserID,
		Type:            v.ViolationType,
		Timestamp:       v.Timestamp,
		DurationMinutes: v.MuteDurationMinutes,
		ExpiresAt:       v.ExpiresAt,
		Active:          v.IsActive,
	}
}

// httpError maps the service error taxonomy onto status codes.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, moderr.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, moderr.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, moderr.ErrStorage):
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", moderr.ErrValidation, name)
	}
	return id, nil
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleEvaluate(c echo.Context) error {
	var req evaluateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}

	action, err := s.svc.EvaluateMessage(c.Request().Context(), req.ChatID, req.UserID, req.At)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, evaluateResponse{
		Action:          string(action.Type),
		DurationMinutes: action.DurationMinutes,
		ViolationID:     action.ViolationID,
		Reference:       action.Reference,
	})
}

func (s *Server) handleManualMute(c echo.Context) error {
	var req muteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}

	v, err := s.svc.ManualMute(c.Request().Context(), req.ChatID, req.UserID, req.DurationMinutes)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, toViolationResponse(v))
}

func (s *Server) handleManualUnmute(c echo.Context) error {
	chatID, err := pathID(c, "chat_id")
	if err != nil {
		return httpError(c, err)
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return httpError(c, err)
	}

	lifted, err := s.svc.ManualUnmute(c.Request().Context(), chatID, userID)
	if err != nil {
		return httpError(c, err)
	}
	if !lifted {
		return c.JSON(http.StatusNotFound, errorBody{Error: "no active mute to lift"})
	}
	return c.JSON(http.StatusOK, liftedResponse{Lifted: true})
}

func (s *Server) handleIssueWarning(c echo.Context) error {
	var req warningRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}

	result, err := s.svc.IssueWarning(c.Request().Context(), req.ChatID, req.UserID, req.Reason)
	if err != nil {
		return httpError(c, err)
	}
	resp := warningResponse{
		Count:            result.Count,
		ThresholdReached: result.ThresholdReached,
	}
	if result.Violation != nil {
		resp.Violation = toViolationResponse(result.Violation)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleClearWarnings(c echo.Context) error {
	chatID, err := pathID(c, "chat_id")
	if err != nil {
		return httpError(c, err)
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return httpError(c, err)
	}

	if err := s.svc.ClearWarnings(c.Request().Context(), chatID, userID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStatus(c echo.Context) error {
	chatID, err := pathID(c, "chat_id")
	if err != nil {
		return httpError(c, err)
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return httpError(c, err)
	}

	report, err := s.svc.GetStatus(c.Request().Context(), chatID, userID)
	if err != nil {
		return httpError(c, err)
	}
	resp := statusResponse{
		ChatID:           report.ChatID,
		UserID:           report.UserID,
		Muted:            report.Muted,
		ViolationCount:   report.ViolationCount,
		WarningCount:     report.WarningCount,
		MessagesInWindow: report.MessagesInWindow,
		Exempt:           report.Exempt,
		Degraded:         report.Degraded,
	}
	if report.Muted {
		until := report.MutedUntil
		resp.MutedUntil = &until
	}
	if report.ActiveViolation != nil {
		resp.ActiveViolation = toViolationResponse(report.ActiveViolation)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStats(c echo.Context) error {
	report, err := s.svc.GetStats(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, statsResponse{
		TotalViolations:  report.TotalViolations,
		ActiveViolations: report.ActiveViolations,
		UniqueUsers:      report.UniqueUsers,
		UniqueChats:      report.UniqueChats,
		TrackedKeys:      report.TrackedKeys,
		TrackedMessages:  report.TrackedMessages,
		Degraded:         report.Degraded,
	})
}

func (s *Server) handleViolation(c echo.Context) error {
	v, err := s.svc.GetViolation(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toViolationResponse(v))
}

func (s *Server) handleGetPolicy(c echo.Context) error {
	chatID, err := pathID(c, "chat_id")
	if err != nil {
		return httpError(c, err)
	}

	p, err := s.svc.GetChatPolicy(c.Request().Context(), chatID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, policyResponse{
		ChatID:        p.ChatID,
		Enabled:       p.Enabled,
		MaxMessages:   p.MaxMessages,
		WindowSeconds: p.WindowSeconds,
	})
}

func (s *Server) handleUpdatePolicy(c echo.Context) error {
	chatID, err := pathID(c, "chat_id")
	if err != nil {
		return httpError(c, err)
	}
	var req policyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body"})
	}

	p := &repository.ChatPolicy{
		ChatID:        chatID,
		Enabled:       req.Enabled,
		MaxMessages:   req.MaxMessages,
		WindowSeconds: req.WindowSeconds,
	}
	if err := s.svc.UpdateChatPolicy(c.Request().Context(), p); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, policyResponse{
		ChatID:        p.ChatID,
		Enabled:       p.Enabled,
		MaxMessages:   p.MaxMessages,
		WindowSeconds: p.WindowSeconds,
	})
}

func (s *Server) handleMaintenance(c echo.Context) error {
	report := s.svc.RunMaintenanceOnce(c.Request().Context(), time.Time{})
	return c.JSON(http.StatusOK, maintenanceResponse{
		RanAt:       report.RanAt,
		PrunedKeys:  report.PrunedKeys,
		Deactivated: report.Deactivated,
		Purged:      report.Purged,
		Errors:      report.Errors,
	})
}
