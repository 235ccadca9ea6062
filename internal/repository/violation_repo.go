package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"floodguard/internal/moderr"
)

type ViolationRepository interface {
	Add(ctx context.Context, v *Violation) error
	CountSince(ctx context.Context, chatID, userID int64, since time.Time) (int, error)
	ActiveViolation(ctx context.Context, chatID, userID int64, now time.Time) (*Violation, error)
	ByReference(ctx context.Context, reference string) (*Violation, error)
	DeactivateLatest(ctx context.Context, chatID, userID int64) (bool, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context) (*StoreStats, error)
}

type SQLViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) ViolationRepository {
	return &SQLViolationRepository{db: db}
}

func (r *SQLViolationRepository) Add(ctx context.Context, v *Violation) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("adding violation: %w: %v", moderr.ErrStorage, err)
	}
	return nil
}

// CountSince counts the pair's violations with timestamp at or after since,
// regardless of type or active flag.
func (r *SQLViolationRepository) CountSince(ctx context.Context, chatID, userID int64, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Violation{}).
		Where("chat_id = ? AND user_id = ? AND timestamp >= ?", chatID, userID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting violations: %w: %v", moderr.ErrStorage, err)
	}
	return int(count), nil
}

// ActiveViolation returns the most recent violation that is still marked
// active and whose mute has not expired yet, or nil if there is none.
func (r *SQLViolationRepository) ActiveViolation(ctx context.Context, chatID, userID int64, now time.Time) (*Violation, error) {
	var v Violation
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ? AND is_active = ? AND expires_at > ?", chatID, userID, true, now).
		Order("timestamp DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading active violation: %w: %v", moderr.ErrStorage, err)
	}
	return &v, nil
}

func (r *SQLViolationRepository) ByReference(ctx context.Context, reference string) (*Violation, error) {
	var v Violation
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("violation %s: %w", reference, moderr.ErrNotFound)
		}
		return nil, fmt.Errorf("loading violation by reference: %w: %v", moderr.ErrStorage, err)
	}
	return &v, nil
}

// DeactivateLatest lifts the pair's most recently created active violation.
// It reports false when there was nothing to deactivate.
func (r *SQLViolationRepository) DeactivateLatest(ctx context.Context, chatID, userID int64) (bool, error) {
	latest := r.db.Model(&Violation{}).
		Select("id").
		Where("chat_id = ? AND user_id = ? AND is_active = ?", chatID, userID, true).
		Order("timestamp DESC").
		Limit(1)

	res := r.db.WithContext(ctx).Model(&Violation{}).
		Where("id = (?)", latest).
		Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("deactivating violation: %w: %v", moderr.ErrStorage, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeactivateExpired flips the active flag on every violation whose mute ran
// out by now and returns how many rows changed.
func (r *SQLViolationRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Violation{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivating expired violations: %w: %v", moderr.ErrStorage, res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeOlderThan deletes violations strictly older than horizon, active or
// not, and returns how many rows went away.
func (r *SQLViolationRepository) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", horizon).
		Delete(&Violation{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging violations: %w: %v", moderr.ErrStorage, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *SQLViolationRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Violation{}).
		Where("is_active = ? AND expires_at > ?", true, now).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting active violations: %w: %v", moderr.ErrStorage, err)
	}
	return count, nil
}

func (r *SQLViolationRepository) Stats(ctx context.Context) (*StoreStats, error) {
	var stats StoreStats
	err := r.db.WithContext(ctx).Model(&Violation{}).
		Select("COUNT(*) AS total_violations, " +
			"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_violations, " +
			"COUNT(DISTINCT user_id) AS unique_users, " +
			"COUNT(DISTINCT chat_id) AS unique_chats").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("loading violation stats: %w: %v", moderr.ErrStorage, err)
	}
	return &stats, nil
}
