package repository

import (
	"time"

	"github.com/google/uuid"
)

// Violation type values stored in user_violations.violation_type.
const (
	ViolationTypeRateLimit = "rate_limit"
	ViolationTypeManual    = "manual"
)

// Violation is one moderation incident for a user in a chat. It is the
// durable source of truth for escalation: every mute decision writes one
// row and repeat-offender counting reads them back.
type Violation struct {
	ID                  int64     `gorm:"primaryKey"`
	Reference           string    `gorm:"size:36;uniqueIndex"`
	ChatID              int64     `gorm:"not null;index:idx_violations_chat_user_ts,priority:1"`
	UserID              int64     `gorm:"not null;index:idx_violations_chat_user_ts,priority:2"`
	ViolationType       string    `gorm:"size:50;not null"`
	Timestamp           time.Time `gorm:"not null;index:idx_violations_chat_user_ts,priority:3;index:idx_violations_ts"`
	MuteDurationMinutes int       `gorm:"not null"`
	ExpiresAt           time.Time `gorm:"not null;index"`
	IsActive            bool      `gorm:"not null;index"`
}

func (Violation) TableName() string { return "user_violations" }

// NewViolation builds an unsaved violation with its expiry precomputed and
// a fresh opaque reference token.
func NewViolation(chatID, userID int64, violationType string, at time.Time, muteMinutes int) *Violation {
	return &Violation{
		Reference:           uuid.New().String(),
		ChatID:              chatID,
		UserID:              userID,
		ViolationType:       violationType,
		Timestamp:           at,
		MuteDurationMinutes: muteMinutes,
		ExpiresAt:           at.Add(time.Duration(muteMinutes) * time.Minute),
		IsActive:            true,
	}
}

// ChatPolicy overrides the global limits for one chat. Zero values for
// MaxMessages and WindowSeconds mean "inherit the global configuration".
type ChatPolicy struct {
	ChatID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Enabled       bool  `gorm:"not null;default:true"`
	MaxMessages   int   `gorm:"not null;default:0"`
	WindowSeconds int   `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Warning is one admin-issued strike against a user in a chat. Accumulated
// warnings convert into a manual mute once the configured threshold is hit,
// after which the ledger for the pair is cleared.
type Warning struct {
	ID        int64  `gorm:"primaryKey"`
	ChatID    int64  `gorm:"not null;index:idx_warnings_chat_user,priority:1"`
	UserID    int64  `gorm:"not null;index:idx_warnings_chat_user,priority:2"`
	Reason    string `gorm:"size:255"`
	CreatedAt time.Time
}

// StoreStats is an aggregate snapshot of the violation table.
type StoreStats struct {
	TotalViolations  int64
	ActiveViolations int64
	UniqueUsers      int64
	UniqueChats      int64
}
