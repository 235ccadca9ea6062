package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"floodguard/internal/moderr"
)

type WarningRepository interface {
	Add(ctx context.Context, w *Warning) (int, error)
	Count(ctx context.Context, chatID, userID int64) (int, error)
	Clear(ctx context.Context, chatID, userID int64) (int64, error)
}

type SQLWarningRepository struct {
	db *gorm.DB
}

func NewWarningRepository(db *gorm.DB) WarningRepository {
	return &SQLWarningRepository{db: db}
}

// Add stores the warning and returns how many the pair has accumulated,
// including this one.
func (r *SQLWarningRepository) Add(ctx context.Context, w *Warning) (int, error) {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return 0, fmt.Errorf("adding warning: %w: %v", moderr.ErrStorage, err)
	}
	return r.Count(ctx, w.ChatID, w.UserID)
}

func (r *SQLWarningRepository) Count(ctx context.Context, chatID, userID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Warning{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting warnings: %w: %v", moderr.ErrStorage, err)
	}
	return int(count), nil
}

// Clear drops every warning for the pair and returns how many went away.
func (r *SQLWarningRepository) Clear(ctx context.Context, chatID, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&Warning{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing warnings: %w: %v", moderr.ErrStorage, res.Error)
	}
	return res.RowsAffected, nil
}
