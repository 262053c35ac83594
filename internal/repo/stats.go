// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) and the admin dashboard.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// HistoryStats returns aggregate metadata for a user's reading history: the
// number of answers, daily cards and spreads, and the newest change among
// them.
//
// When the user has no history, the returned count is 0 and latest is nil.
func HistoryStats(ctx context.Context, db *gorm.DB, userID int64) (count int64, latest *time.Time, err error) {
	sources := []struct {
		model  any
		column string
	}{
		{&domain.Answer{}, "created_at"},
		{&domain.DailyCard{}, "updated_at"},
		{&domain.Spread{}, "created_at"},
	}
	for _, src := range sources {
		n, at, err := countAndLatest(ctx, db, src.model, src.column, userID)
		if err != nil {
			return 0, nil, err
		}
		count += n
		if at != nil && (latest == nil || at.After(*latest)) {
			latest = at
		}
	}
	return count, latest, nil
}

func countAndLatest(ctx context.Context, db *gorm.DB, model any, column string, userID int64) (int64, *time.Time, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var row struct {
		At time.Time
	}
	err := db.WithContext(ctx).Model(model).
		Select(column+" AS at").
		Where("user_id = ?", userID).
		Order(column + " DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	return n, &row.At, nil
}

// Counts holds the totals shown on the admin dashboard.
type Counts struct {
	Users        int64 `json:"users"`
	PremiumUsers int64 `json:"premiumUsers"`
	Questions    int64 `json:"questions"`
	DailyCards   int64 `json:"dailyCards"`
	Spreads      int64 `json:"spreads"`
	Codes        int64 `json:"codes"`
	UsedCodes    int64 `json:"usedCodes"`
}

// AdminCounts collects table totals. Premium users are those whose
// subscription flag is set and whose expiry is after now.
func AdminCounts(ctx context.Context, db *gorm.DB, now time.Time) (Counts, error) {
	var c Counts
	q := db.WithContext(ctx)
	if err := q.Model(&domain.UserProfile{}).Count(&c.Users).Error; err != nil {
		return Counts{}, err
	}
	if err := q.Model(&domain.UserProfile{}).
		Where("is_subscribed = ? AND subscription_expires_at > ?", true, now.UTC()).
		Count(&c.PremiumUsers).Error; err != nil {
		return Counts{}, err
	}
	if err := q.Model(&domain.Question{}).Count(&c.Questions).Error; err != nil {
		return Counts{}, err
	}
	if err := q.Model(&domain.DailyCard{}).Count(&c.DailyCards).Error; err != nil {
		return Counts{}, err
	}
	if err := q.Model(&domain.Spread{}).Count(&c.Spreads).Error; err != nil {
		return Counts{}, err
	}
	total, used, err := CountCodes(ctx, db)
	if err != nil {
		return Counts{}, err
	}
	c.Codes, c.UsedCodes = total, used
	return c, nil
}
