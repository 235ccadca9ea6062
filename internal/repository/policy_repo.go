package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"floodguard/internal/clock"
	"floodguard/internal/moderr"
)

type ChatPolicyRepository interface {
	Get(ctx context.Context, chatID int64) (*ChatPolicy, error)
	Upsert(ctx context.Context, policy *ChatPolicy) error
}

// CachedChatPolicyRepository serves chat policies through a small TTL cache
// so the hot evaluation path does not hit the database for every message.
type CachedChatPolicyRepository struct {
	db          *gorm.DB
	clock       clock.Clock
	cache       sync.Map
	enableCache bool
}

type cachedPolicy struct {
	policy    *ChatPolicy
	expiresAt time.Time
}

const policyCacheTTL = 5 * time.Minute

func NewChatPolicyRepository(db *gorm.DB, enableCache bool, clk clock.Clock) ChatPolicyRepository {
	return &CachedChatPolicyRepository{
		db:          db,
		clock:       clk,
		enableCache: enableCache,
	}
}

// Get returns the chat's policy. Chats without a stored row get the
// default: moderation enabled, global limits inherited.
func (r *CachedChatPolicyRepository) Get(ctx context.Context, chatID int64) (*ChatPolicy, error) {
	if r.enableCache {
		if val, ok := r.cache.Load(chatID); ok {
			entry := val.(*cachedPolicy)
			if r.clock.Now().Before(entry.expiresAt) {
				return entry.policy, nil
			}
			r.cache.Delete(chatID)
		}
	}

	var policy ChatPolicy
	err := r.db.WithContext(ctx).First(&policy, "chat_id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			policy = ChatPolicy{ChatID: chatID, Enabled: true}
		} else {
			return nil, fmt.Errorf("loading chat policy: %w: %v", moderr.ErrStorage, err)
		}
	}

	if r.enableCache {
		r.cache.Store(chatID, &cachedPolicy{
			policy:    &policy,
			expiresAt: r.clock.Now().Add(policyCacheTTL),
		})
	}
	return &policy, nil
}

func (r *CachedChatPolicyRepository) Upsert(ctx context.Context, policy *ChatPolicy) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "max_messages", "window_seconds", "updated_at"}),
	}).Create(policy).Error
	if err != nil {
		return fmt.Errorf("storing chat policy: %w: %v", moderr.ErrStorage, err)
	}

	if r.enableCache {
		r.cache.Store(policy.ChatID, &cachedPolicy{
			policy:    policy,
			expiresAt: r.clock.Now().Add(policyCacheTTL),
		})
	}
	return nil
}
