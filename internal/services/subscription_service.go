// Package services – SubscriptionService and AdminService
//
// SubscriptionService reports a user's premium status and lazily clears an
// expired subscription. AdminService exposes dashboard totals and manual
// subscription overrides.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
)

// SubscriptionStatus is the premium state of a user.
type SubscriptionStatus struct {
	IsSubscribed      bool       `json:"isSubscribed"`
	DaysLeft          int        `json:"daysLeft"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	FreeQuestionsLeft int        `json:"freeQuestionsLeft"`
}

// SubscriptionService checks subscriptions.
type SubscriptionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Check returns the status for telegramID. A subscription whose expiry has
// passed is cleared before returning.
func (s *SubscriptionService) Check(ctx context.Context, telegramID int64) (SubscriptionStatus, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	p, err := s.load(ctx, telegramID)
	if err != nil {
		return SubscriptionStatus{}, err
	}
	if !p.IsPremium(now) && (p.IsSubscribed || p.SubscriptionExpiresAt != nil) {
		cleared, err := repo.ClearSubscription(ctx, s.DB, telegramID, now)
		if err != nil {
			return SubscriptionStatus{}, fmt.Errorf("%w: clear subscription: %w", ErrPersistence, err)
		}
		if !cleared {
			// Credited since the read above.
			if p, err = s.load(ctx, telegramID); err != nil {
				return SubscriptionStatus{}, err
			}
		}
	}
	return statusOf(p, now), nil
}

func (s *SubscriptionService) load(ctx context.Context, telegramID int64) (*domain.UserProfile, error) {
	p, err := repo.GetProfileByTelegramID(ctx, s.DB, telegramID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	return p, nil
}

func statusOf(p *domain.UserProfile, now time.Time) SubscriptionStatus {
	st := SubscriptionStatus{FreeQuestionsLeft: p.FreeQuestionsLeft}
	if p.IsPremium(now) {
		st.IsSubscribed = true
		st.ExpiresAt = p.SubscriptionExpiresAt
		st.DaysLeft = int(math.Ceil(p.SubscriptionExpiresAt.Sub(now).Hours() / 24))
	}
	return st
}

// AdminService reads dashboard totals.
type AdminService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Stats returns table totals.
func (s *AdminService) Stats(ctx context.Context) (repo.Counts, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	c, err := repo.AdminCounts(ctx, s.DB, now)
	if err != nil {
		return repo.Counts{}, fmt.Errorf("%w: admin counts: %w", ErrPersistence, err)
	}
	return c, nil
}

// SubscriptionUpdate is an admin override of one user's premium state.
// Granting takes either Days (counted from now) or an absolute ExpiresAt;
// revoking takes neither.
type SubscriptionUpdate struct {
	TelegramID   int64
	IsSubscribed bool
	Days         int
	ExpiresAt    *time.Time
}

// UpdateSubscription applies u and returns the stored profile.
func (s *AdminService) UpdateSubscription(ctx context.Context, u SubscriptionUpdate) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "UpdateSubscription",
		trace.WithAttributes(attribute.Int64("telegram.id", u.TelegramID), attribute.Bool("subscribed", u.IsSubscribed)),
	)
	defer span.End()

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	if u.TelegramID == 0 {
		return nil, ErrInvalidIdentity
	}

	var expires *time.Time
	switch {
	case !u.IsSubscribed:
		if u.Days != 0 || u.ExpiresAt != nil {
			return nil, ErrInvalidSubscription
		}
	case u.Days > 0 && u.ExpiresAt == nil:
		t := now.AddDate(0, 0, u.Days)
		expires = &t
	case u.Days == 0 && u.ExpiresAt != nil && u.ExpiresAt.After(now):
		t := u.ExpiresAt.UTC()
		expires = &t
	default:
		return nil, ErrInvalidSubscription
	}

	err := repo.SetSubscription(ctx, s.DB, u.TelegramID, u.IsSubscribed, expires, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: set subscription: %w", ErrPersistence, err)
	}
	p, err := repo.GetProfileByTelegramID(ctx, s.DB, u.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	return p, nil
}
