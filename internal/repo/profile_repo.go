// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// UserProfile model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer.
//
// Functions:
//
//   - GetProfileByTelegramID(ctx, db, telegramID) -> *domain.UserProfile, error
//     Returns ErrNotFound when no profile exists.
//
//   - CreateProfile(ctx, db, p) -> error
//     Inserts a profile; returns ErrDuplicate if the telegram id is taken.
//
//   - DecrementFreeQuestion(ctx, db, telegramID) -> bool, error
//     Guarded decrement; reports false when the counter is already zero.
//
//   - IncrementTotalQuestions(ctx, db, telegramID) -> error
//
//   - ExtendSubscription(ctx, db, telegramID, days, now) -> time.Time, error
//     Sets expiry to max(now, current expiry) + days and marks subscribed.
//
//   - ClearSubscription(ctx, db, telegramID, now) -> bool, error
//     Clears an expired subscription; leaves a newer expiry untouched.
//
//   - SetSubscription(ctx, db, telegramID, subscribed, expires, now) -> error
//     Admin override of the premium state.
//
//   - SetLastCardDay(ctx, db, telegramID, day) -> error
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// GetProfileByTelegramID loads the profile owned by telegramID.
func GetProfileByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts p, assigning an ID and timestamps when missing.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DecrementFreeQuestion lowers free_questions_left by one if it is positive.
func DecrementFreeQuestion(ctx context.Context, db *gorm.DB, telegramID int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("telegram_id = ? AND free_questions_left > 0", telegramID).
		Updates(map[string]any{
			"free_questions_left": gorm.Expr("free_questions_left - 1"),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementTotalQuestions bumps the lifetime question counter.
func IncrementTotalQuestions(ctx context.Context, db *gorm.DB, telegramID int64) error {
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]any{
			"total_questions": gorm.Expr("total_questions + 1"),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExtendSubscription credits days of premium starting from the later of now
// and the current expiry, and returns the new expiry. The profile row is
// locked for the read so concurrent credits stack instead of overwriting
// each other.
func ExtendSubscription(ctx context.Context, db *gorm.DB, telegramID int64, days int, now time.Time) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, errors.New("subscription days must be positive")
	}
	var expires time.Time
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.UserProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("telegram_id = ?", telegramID).
			First(&p).Error; err != nil {
			return err
		}
		base := now.UTC()
		if p.SubscriptionExpiresAt != nil && p.SubscriptionExpiresAt.After(base) {
			base = p.SubscriptionExpiresAt.UTC()
		}
		expires = base.AddDate(0, 0, days)
		return tx.Model(&domain.UserProfile{}).
			Where("telegram_id = ?", telegramID).
			Updates(map[string]any{
				"is_subscribed":           true,
				"subscription_expires_at": expires,
				"updated_at":              now.UTC(),
			}).Error
	})
	if err != nil {
		return time.Time{}, err
	}
	return expires, nil
}

// ClearSubscription drops the premium flag and expiry, but only while the
// stored expiry is unset or not after now. It reports false when a newer
// subscription was found and left alone.
func ClearSubscription(ctx context.Context, db *gorm.DB, telegramID int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("telegram_id = ?", telegramID).
		Where("subscription_expires_at IS NULL OR subscription_expires_at <= ?", now.UTC()).
		Updates(map[string]any{
			"is_subscribed":           false,
			"subscription_expires_at": nil,
			"updated_at":              now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetSubscription overwrites the premium state of telegramID. A nil expiry
// is only valid together with subscribed=false.
func SetSubscription(ctx context.Context, db *gorm.DB, telegramID int64, subscribed bool, expires *time.Time, now time.Time) error {
	var exp any
	if expires != nil {
		exp = expires.UTC()
	}
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]any{
			"is_subscribed":           subscribed,
			"subscription_expires_at": exp,
			"updated_at":              now.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLastCardDay records the calendar day of the latest daily card draw.
func SetLastCardDay(ctx context.Context, db *gorm.DB, telegramID int64, day string) error {
	return db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]any{
			"last_card_day": day,
			"updated_at":    time.Now().UTC(),
		}).Error
}
