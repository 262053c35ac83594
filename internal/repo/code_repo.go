// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SubscriptionCode model.
//
// Functions:
//
//   - InsertCode(ctx, db, c) -> error
//     Inserts a code; returns ErrDuplicate when the code string exists.
//
//   - GetCodeByCode(ctx, db, code) -> *domain.SubscriptionCode, error
//
//   - ConsumeCode(ctx, db, code, telegramID, now) -> bool, error
//     Compare-and-swap from unused to used. Reports false when the code is
//     missing, already used, or expired; in that case nothing is written.
//
//   - ListCodes(ctx, db, offset, limit, used) -> []domain.SubscriptionCode, error
//     Newest first, optionally filtered by usage.
//
//   - CountCodes(ctx, db) -> total, used int64, error
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// InsertCode stores a new subscription code.
func InsertCode(ctx context.Context, db *gorm.DB, c *domain.SubscriptionCode) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetCodeByCode loads a code by its canonical string.
func GetCodeByCode(ctx context.Context, db *gorm.DB, code string) (*domain.SubscriptionCode, error) {
	var c domain.SubscriptionCode
	if err := db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ConsumeCode atomically marks code as used by telegramID.
func ConsumeCode(ctx context.Context, db *gorm.DB, code string, telegramID int64, now time.Time) (bool, error) {
	now = now.UTC()
	res := db.WithContext(ctx).
		Model(&domain.SubscriptionCode{}).
		Where("code = ? AND is_used = ? AND (expires_at IS NULL OR expires_at > ?)", code, false, now).
		Updates(map[string]any{
			"is_used":         true,
			"used_by_user_id": telegramID,
			"used_at":         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListCodes returns a page of codes ordered by creation time descending.
// A nil used filter returns every code.
func ListCodes(ctx context.Context, db *gorm.DB, offset, limit int, used *bool) ([]domain.SubscriptionCode, error) {
	var out []domain.SubscriptionCode
	q := db.WithContext(ctx).Model(&domain.SubscriptionCode{})
	if used != nil {
		q = q.Where("is_used = ?", *used)
	}
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountCodes returns the number of codes and how many of them are used.
func CountCodes(ctx context.Context, db *gorm.DB) (total, used int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.SubscriptionCode{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, nil
	}
	if err = db.WithContext(ctx).Model(&domain.SubscriptionCode{}).Where("is_used = ?", true).Count(&used).Error; err != nil {
		return 0, 0, err
	}
	return total, used, nil
}
