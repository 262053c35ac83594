// Package services – IdentityService
//
// IdentityService maps a verified Telegram identity onto exactly one durable
// profile. First contact creates the profile; a concurrent first contact that
// loses the insert race re-reads the winner's row.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/observability"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/telegram"
)

// DefaultFreeQuestions is the free question allowance of a new profile.
const DefaultFreeQuestions = 3

// IdentityService resolves Telegram users to profiles. It satisfies
// telegram.Store.
type IdentityService struct {
	DB            *gorm.DB
	FreeQuestions int
}

// NewIdentityService returns a service granting freeQuestions to new
// profiles; a negative value means DefaultFreeQuestions.
func NewIdentityService(db *gorm.DB, freeQuestions int) *IdentityService {
	if freeQuestions < 0 {
		freeQuestions = DefaultFreeQuestions
	}
	return &IdentityService{DB: db, FreeQuestions: freeQuestions}
}

// ResolveOrCreate returns the profile for id, creating it on first contact.
// An existing profile is returned unmodified.
func (s *IdentityService) ResolveOrCreate(ctx context.Context, id telegram.Identity) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer("services/IdentityService").Start(ctx, "ResolveOrCreate",
		trace.WithAttributes(attribute.Int64("telegram.id", id.ID)),
	)
	defer span.End()

	if id.ID == 0 {
		return nil, ErrInvalidIdentity
	}

	p, err := repo.GetProfileByTelegramID(ctx, s.DB, id.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup profile: %w", ErrPersistence, err)
	}

	p = &domain.UserProfile{
		TelegramID:        id.ID,
		Username:          clipRunes(strings.TrimSpace(id.Username), 64),
		FirstName:         clipRunes(strings.TrimSpace(id.FirstName), 128),
		LastName:          clipRunes(strings.TrimSpace(id.LastName), 128),
		FreeQuestionsLeft: s.FreeQuestions,
	}
	err = repo.CreateProfile(ctx, s.DB, p)
	switch {
	case err == nil:
		observability.ProfilesCreated.Inc()
		return p, nil
	case errors.Is(err, repo.ErrDuplicate):
		// Lost the first-contact race; the other insert won.
		p, err = repo.GetProfileByTelegramID(ctx, s.DB, id.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: refetch profile: %w", ErrPersistence, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: create profile: %w", ErrPersistence, err)
	}
}

// Find returns the profile for telegramID, or (nil, nil) when none exists.
func (s *IdentityService) Find(ctx context.Context, telegramID int64) (*domain.UserProfile, error) {
	p, err := repo.GetProfileByTelegramID(ctx, s.DB, telegramID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find profile: %w", ErrPersistence, err)
	}
	return p, nil
}

// Counts returns how many questions and daily cards the user has.
func (s *IdentityService) Counts(ctx context.Context, telegramID int64) (telegram.UserCounts, error) {
	var c telegram.UserCounts
	q := s.DB.WithContext(ctx)
	if err := q.Model(&domain.Question{}).Where("user_id = ?", telegramID).Count(&c.Questions).Error; err != nil {
		return telegram.UserCounts{}, fmt.Errorf("%w: count questions: %w", ErrPersistence, err)
	}
	if err := q.Model(&domain.DailyCard{}).Where("user_id = ?", telegramID).Count(&c.DailyCards).Error; err != nil {
		return telegram.UserCounts{}, fmt.Errorf("%w: count daily cards: %w", ErrPersistence, err)
	}
	return c, nil
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		return string([]rune(s)[:n])
	}
	return s
}
