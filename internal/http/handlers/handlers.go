// Package handlers exposes the REST endpoints of the tarot Mini App.
//
// Handlers are transport-thin: they bind input, call application services,
// and translate results into HTTP responses. Caller identity comes from the
// Telegram auth middleware; admin routes are guarded by the admin-key
// middleware before they reach this package.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
	"github.com/Ramzec88/tarot-web-app/internal/prediction"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/search"
	"github.com/Ramzec88/tarot-web-app/internal/services"
)

//
// Service contracts (context-aware)
//

// Predictor produces a reading text; it never fails.
type Predictor interface {
	Generate(ctx context.Context, req prediction.Request) prediction.Prediction
}

// CardCatalog serves the cached card catalog.
type CardCatalog interface {
	Get(ctx context.Context) (cards.Snapshot, error)
	TTL() time.Duration
}

// ReadingService stores and replays readings.
type ReadingService interface {
	DrawDaily(ctx context.Context, p *domain.UserProfile, card *domain.Card) (*services.Reading, error)
	TodayCard(ctx context.Context, telegramID int64) (*services.Reading, error)
	Ask(ctx context.Context, p *domain.UserProfile, req services.AskRequest) (*services.Reading, bool, error)
	Spread(ctx context.Context, p *domain.UserProfile, req services.SpreadRequest) (*services.Reading, bool, error)
	History(ctx context.Context, telegramID int64, limit int) ([]services.HistoryEntry, error)
	HistoryVersion(ctx context.Context, telegramID int64) (string, error)
	SearchHistory(ctx context.Context, telegramID int64, query string, k int) ([]search.Result, error)
}

// SubscriptionChecker reports premium status.
type SubscriptionChecker interface {
	Check(ctx context.Context, telegramID int64) (services.SubscriptionStatus, error)
}

// CodeLedger manages subscription codes.
type CodeLedger interface {
	Generate(ctx context.Context, opts services.GenerateOptions) ([]string, error)
	Validate(ctx context.Context, code string) (services.Validation, error)
	Redeem(ctx context.Context, code string, telegramID int64) (services.Redemption, error)
	List(ctx context.Context, f services.ListFilter) ([]services.CodeSummary, error)
	Stats(ctx context.Context) (services.CodeStats, error)
}

// Admin reads dashboard totals and overrides subscriptions.
type Admin interface {
	Stats(ctx context.Context) (repo.Counts, error)
	UpdateSubscription(ctx context.Context, u services.SubscriptionUpdate) (*domain.UserProfile, error)
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers.
type Services struct {
	Predictor     Predictor
	Cards         CardCatalog
	Readings      ReadingService
	Subscriptions SubscriptionChecker
	Codes         CodeLedger
	Admin         Admin
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	svc Services
	now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(svc Services) *Handlers {
	return &Handlers{svc: svc, now: time.Now}
}

// WithClock replaces the clock used for timestamps and premium checks.
func (h *Handlers) WithClock(now func() time.Time) *Handlers {
	h.now = now
	return h
}

func (h *Handlers) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

// caller returns the profile set by the Telegram auth middleware.
func caller(c *gin.Context) (*domain.UserProfile, bool) {
	p := middleware.Profile(c)
	return p, p != nil
}

var errCardsShape = errors.New("cards must be a card object or an array of cards")

// decodeCards accepts a single card object or an array of cards, since the
// Mini App sends one card for single-card readings.
func decodeCards(raw json.RawMessage) ([]domain.Card, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil, nil
	case strings.HasPrefix(trimmed, "["):
		var out []domain.Card
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errCardsShape
		}
		return out, nil
	case strings.HasPrefix(trimmed, "{"):
		var one domain.Card
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, errCardsShape
		}
		return []domain.Card{one}, nil
	default:
		return nil, errCardsShape
	}
}
