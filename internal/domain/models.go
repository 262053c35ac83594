// Package domain defines the persistence models for user profiles,
// subscription codes, and reading history. These types are mapped with GORM
// and form the core data layer of the tarot application.
package domain

import (
	"time"
)

// DateLayout is the calendar-day format used for daily cards.
const DateLayout = "2006-01-02"

// UserProfile is the durable record of a Telegram user. Exactly one profile
// exists per Telegram id (enforced by a unique index).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - TelegramID: numeric Telegram user id; unique.
//   - Username / FirstName / LastName: copied from the identity on creation.
//   - IsSubscribed / SubscriptionExpiresAt: premium flag and its expiry.
//   - FreeQuestionsLeft: remaining free questions; never below zero.
//   - TotalQuestions: lifetime number of asked questions.
//   - LastCardDay: date (YYYY-MM-DD) of the last daily card draw, if any.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type UserProfile struct {
	ID                    string     `json:"id"                      gorm:"type:char(36);primaryKey"`
	TelegramID            int64      `json:"telegram_id"             gorm:"not null;uniqueIndex:ux_profiles_telegram_id"`
	Username              string     `json:"username,omitempty"      gorm:"type:varchar(64)"`
	FirstName             string     `json:"first_name,omitempty"    gorm:"type:varchar(128)"`
	LastName              string     `json:"last_name,omitempty"     gorm:"type:varchar(128)"`
	IsSubscribed          bool       `json:"is_subscribed"           gorm:"not null;default:false"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at" gorm:"index"`
	FreeQuestionsLeft     int        `json:"free_questions_left"     gorm:"not null;default:0;check:free_questions_left >= 0"`
	TotalQuestions        int        `json:"total_questions"         gorm:"not null;default:0"`
	LastCardDay           *string    `json:"last_card_day"           gorm:"type:varchar(10)"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "tarot_user_profiles" }

// IsPremium reports whether the subscription flag is set and the expiry is
// still in the future at now.
func (p UserProfile) IsPremium(now time.Time) bool {
	return p.IsSubscribed && p.SubscriptionExpiresAt != nil && p.SubscriptionExpiresAt.After(now)
}

// DisplayName returns the best human-readable name for the profile.
func (p UserProfile) DisplayName() string {
	switch {
	case p.FirstName != "":
		return p.FirstName
	case p.Username != "":
		return p.Username
	default:
		return "Гость"
	}
}

// SubscriptionCode is a single-use redemption code granting premium access.
// A code transitions from unused to used exactly once and is never deleted.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Code: canonical (uppercase) code string; unique.
//   - IsUsed / UsedByUserID / UsedAt: consumption state.
//   - SubscriptionDurationDays: premium days credited on redemption.
//   - ExpiresAt: optional absolute expiry of the code itself.
//   - CreatedAt: creation timestamp (list ordering).
type SubscriptionCode struct {
	ID                       string     `json:"id"                         gorm:"type:char(36);primaryKey"`
	Code                     string     `json:"code"                       gorm:"type:varchar(32);not null;uniqueIndex:ux_codes_code"`
	IsUsed                   bool       `json:"is_used"                    gorm:"not null;default:false;index"`
	UsedByUserID             *int64     `json:"used_by_user_id"`
	UsedAt                   *time.Time `json:"used_at"`
	SubscriptionDurationDays int        `json:"subscription_duration_days" gorm:"not null;default:30;check:subscription_duration_days > 0"`
	ExpiresAt                *time.Time `json:"expires_at"`
	CreatedAt                time.Time  `json:"created_at"                 gorm:"index"`
}

// TableName returns the database table name for SubscriptionCode.
func (SubscriptionCode) TableName() string { return "tarot_subscription_codes" }

// RedeemableAt reports whether the code can be consumed at now.
func (c SubscriptionCode) RedeemableAt(now time.Time) bool {
	return !c.IsUsed && (c.ExpiresAt == nil || c.ExpiresAt.After(now))
}

// Question is a user's question as asked, before interpretation.
type Question struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       int64     `json:"user_id"       gorm:"not null;index:idx_questions_user,priority:1"`
	QuestionText string    `json:"question_text" gorm:"type:text"`
	QuestionType string    `json:"question_type" gorm:"type:varchar(32);not null;default:'question'"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_questions_user,priority:2"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "tarot_questions" }

// Answer stores the interpretation produced for a question or spread.
//
// Fields:
//   - QuestionID: owning question; answers cascade with their question.
//   - CardsDrawn: JSON-encoded cards used for the reading.
//   - Source: "remote" or "local".
//   - SpreadType: spread name for spread readings.
type Answer struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	QuestionID   string    `json:"question_id"  gorm:"type:char(36);not null;index"`
	UserID       int64     `json:"user_id"      gorm:"not null;index"`
	CardsDrawn   []Card    `json:"cards_drawn"  gorm:"type:text;serializer:json"`
	AIPrediction string    `json:"ai_prediction" gorm:"column:ai_prediction;type:text;not null"`
	Source       string    `json:"source"       gorm:"type:varchar(16);not null;check:source IN ('remote','local')"`
	SpreadType   *string   `json:"spread_type,omitempty" gorm:"type:varchar(32)"`
	CreatedAt    time.Time `json:"created_at"`

	Question Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Answer.
func (Answer) TableName() string { return "tarot_answers" }

// DailyCard is the single card drawn by a user for a calendar day.
// (user_id, card_date) is unique.
type DailyCard struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       int64     `json:"user_id"       gorm:"not null;uniqueIndex:ux_daily_user_date,priority:1"`
	CardDate     string    `json:"card_date"     gorm:"type:varchar(10);not null;uniqueIndex:ux_daily_user_date,priority:2"`
	CardData     Card      `json:"card_data"     gorm:"type:text;serializer:json"`
	AIPrediction string    `json:"ai_prediction" gorm:"column:ai_prediction;type:text"`
	Source       string    `json:"source"        gorm:"type:varchar(16)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailyCard.
func (DailyCard) TableName() string { return "tarot_daily_cards" }

// Spread records a multi-card layout drawn by a user.
type Spread struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     int64     `json:"user_id"     gorm:"not null;index"`
	SpreadName string    `json:"spread_name" gorm:"type:varchar(32);not null"`
	CardsData  []Card    `json:"cards_data"  gorm:"type:text;serializer:json"`
	Question   string    `json:"question,omitempty" gorm:"type:text"`
	AnswerID   string    `json:"answer_id,omitempty" gorm:"type:char(36)"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Spread.
func (Spread) TableName() string { return "tarot_spreads" }
