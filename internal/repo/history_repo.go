// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for reading
// history: questions, answers, daily cards, and spreads.
//
// Functions:
//
//   - CreateQuestion / CreateAnswer / CreateSpread(ctx, db, row) -> error
//
//   - GetAnswer(ctx, db, id, userID) -> *domain.Answer, error
//     Loads an answer owned by userID together with its question.
//
//   - UpsertDailyCard(ctx, db, dc) -> *domain.DailyCard, error
//     Inserts the card for (user, day), or updates the existing row when the
//     user already drew a card that day (including a concurrent insert).
//
//   - GetDailyCard(ctx, db, userID, day) -> *domain.DailyCard, error
//
//   - ListDailyCards / ListAnswers / ListSpreads(ctx, db, userID, limit)
//     Newest first.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// CreateQuestion stores a question as asked.
func CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(q).Error
}

// CreateAnswer stores the interpretation for a question.
func CreateAnswer(ctx context.Context, db *gorm.DB, a *domain.Answer) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit("Question").Create(a).Error
}

// GetAnswer returns an answer owned by userID, preloading its question.
func GetAnswer(ctx context.Context, db *gorm.DB, id string, userID int64) (*domain.Answer, error) {
	var a domain.Answer
	err := db.WithContext(ctx).
		Preload("Question").
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateSpread stores a drawn spread.
func CreateSpread(ctx context.Context, db *gorm.DB, s *domain.Spread) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// UpsertDailyCard stores dc as the card of its day, replacing a previous
// draw for the same user and day.
func UpsertDailyCard(ctx context.Context, db *gorm.DB, dc *domain.DailyCard) (*domain.DailyCard, error) {
	now := time.Now().UTC()
	if dc.ID == "" {
		dc.ID = uuid.NewString()
	}
	if dc.CreatedAt.IsZero() {
		dc.CreatedAt = now
	}
	dc.UpdatedAt = now

	existing, err := GetDailyCard(ctx, db, dc.UserID, dc.CardDate)
	switch {
	case err == nil:
		dc.ID = existing.ID
		dc.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		err = db.WithContext(ctx).Create(dc).Error
		if err == nil {
			return dc, nil
		}
		if !IsDuplicate(err) {
			return nil, err
		}
	default:
		return nil, err
	}

	res := db.WithContext(ctx).
		Model(&domain.DailyCard{}).
		Where("user_id = ? AND card_date = ?", dc.UserID, dc.CardDate).
		Select("card_data", "ai_prediction", "source", "updated_at").
		Updates(&domain.DailyCard{
			CardData:     dc.CardData,
			AIPrediction: dc.AIPrediction,
			Source:       dc.Source,
			UpdatedAt:    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return GetDailyCard(ctx, db, dc.UserID, dc.CardDate)
}

// GetDailyCard returns the card drawn by userID on day.
func GetDailyCard(ctx context.Context, db *gorm.DB, userID int64, day string) (*domain.DailyCard, error) {
	var dc domain.DailyCard
	if err := db.WithContext(ctx).Where("user_id = ? AND card_date = ?", userID, day).First(&dc).Error; err != nil {
		return nil, err
	}
	return &dc, nil
}

// ListDailyCards returns up to limit daily cards for userID, newest first.
func ListDailyCards(ctx context.Context, db *gorm.DB, userID int64, limit int) ([]domain.DailyCard, error) {
	var out []domain.DailyCard
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("card_date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAnswers returns up to limit answers for userID with their questions.
func ListAnswers(ctx context.Context, db *gorm.DB, userID int64, limit int) ([]domain.Answer, error) {
	var out []domain.Answer
	err := db.WithContext(ctx).
		Preload("Question").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListSpreads returns up to limit spreads for userID, newest first.
func ListSpreads(ctx context.Context, db *gorm.DB, userID int64, limit int) ([]domain.Spread, error) {
	var out []domain.Spread
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
