// Package services – CodeLedger
//
// CodeLedger issues, checks, and redeems single-use subscription codes. A code
// moves from unused to used exactly once: redemption is a compare-and-swap
// UPDATE executed in the same transaction that extends the redeemer's
// subscription, so two concurrent redeemers cannot both succeed.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/observability"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
)

const (
	// MaxGenerate caps a single generation batch.
	MaxGenerate = 100
	// DefaultPremiumDays is credited by a code without an explicit duration.
	DefaultPremiumDays = 30

	codePrefix     = "TAROT"
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeGroupLen   = 4
	insertAttempts = 5

	defaultListLimit = 50
	maxListLimit     = 200
)

// Reasons reported for codes that cannot be redeemed.
const (
	ReasonNotFound = "not_found"
	ReasonUsed     = "used"
	ReasonExpired  = "expired"
)

// GenerateOptions controls a generation batch.
type GenerateOptions struct {
	Count int
	// Days of premium credited on redemption; 0 means the ledger default.
	Days int
	// ExpiresInDays makes the codes unusable after that many days; 0 means never.
	ExpiresInDays int
}

// Validation describes whether a code can be redeemed right now.
type Validation struct {
	Valid            bool       `json:"valid"`
	Reason           string     `json:"reason,omitempty"`
	SubscriptionDays int        `json:"subscriptionDays,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

// Redemption is the outcome of Redeem.
type Redemption struct {
	Success          bool       `json:"success"`
	Reason           string     `json:"reason,omitempty"`
	SubscriptionDays int        `json:"subscriptionDays,omitempty"`
	ExpiresAt        *time.Time `json:"subscriptionExpiresAt,omitempty"`
}

// ListFilter selects a page of codes.
type ListFilter struct {
	Limit  int
	Offset int
	Used   *bool
}

// CodeSummary is the admin view of a code.
type CodeSummary struct {
	Code             string     `json:"code"`
	IsUsed           bool       `json:"isUsed"`
	UsedBy           *int64     `json:"usedBy,omitempty"`
	UsedAt           *time.Time `json:"usedAt,omitempty"`
	SubscriptionDays int        `json:"subscriptionDays"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// CodeStats summarizes the ledger.
type CodeStats struct {
	Total     int64   `json:"total"`
	Used      int64   `json:"used"`
	Active    int64   `json:"active"`
	UsageRate float64 `json:"usageRate"`
}

// CodeLedger owns the subscription code lifecycle.
type CodeLedger struct {
	DB          *gorm.DB
	DefaultDays int
	// Random is the entropy source for new codes; crypto/rand when nil.
	Random io.Reader
	Now    func() time.Time
}

// NewCodeLedger returns a ledger crediting defaultDays per code.
func NewCodeLedger(db *gorm.DB, defaultDays int) *CodeLedger {
	if defaultDays <= 0 {
		defaultDays = DefaultPremiumDays
	}
	return &CodeLedger{DB: db, DefaultDays: defaultDays, Random: rand.Reader, Now: time.Now}
}

// Canonical trims and uppercases a user-supplied code.
func Canonical(code string) string {
	// Casers are stateful; one per call.
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

func (l *CodeLedger) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

// Generate creates opts.Count codes in one transaction. A collision retries
// that code; any other failure rolls back the whole batch.
func (l *CodeLedger) Generate(ctx context.Context, opts GenerateOptions) ([]string, error) {
	ctx, span := otel.Tracer("services/CodeLedger").Start(ctx, "Generate",
		trace.WithAttributes(attribute.Int("count", opts.Count)),
	)
	defer span.End()

	if opts.Count < 1 || opts.Count > MaxGenerate {
		return nil, ErrInvalidCount
	}
	if opts.Days < 0 || opts.ExpiresInDays < 0 {
		return nil, ErrInvalidDays
	}
	days := opts.Days
	if days == 0 {
		days = l.DefaultDays
	}
	if days <= 0 {
		days = DefaultPremiumDays
	}
	now := l.now()
	var expires *time.Time
	if opts.ExpiresInDays > 0 {
		t := now.AddDate(0, 0, opts.ExpiresInDays)
		expires = &t
	}

	out := make([]string, 0, opts.Count)
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < opts.Count; i++ {
			code, err := l.insertUnique(ctx, tx, days, expires, now)
			if err != nil {
				return err
			}
			out = append(out, code)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCodeCollision) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: generate codes: %w", ErrPersistence, err)
	}
	return out, nil
}

// insertUnique inserts one fresh code, each attempt under its own savepoint
// so a unique violation leaves the outer transaction usable.
func (l *CodeLedger) insertUnique(ctx context.Context, tx *gorm.DB, days int, expires *time.Time, now time.Time) (string, error) {
	for attempt := 0; attempt < insertAttempts; attempt++ {
		code, err := l.newCode()
		if err != nil {
			return "", err
		}
		row := &domain.SubscriptionCode{
			Code:                     code,
			SubscriptionDurationDays: days,
			ExpiresAt:                expires,
			CreatedAt:                now,
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return repo.InsertCode(ctx, sp, row)
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return "", err
		}
	}
	return "", ErrCodeCollision
}

// newCode returns TAROT-XXXX-XXXX drawn from codeAlphabet.
func (l *CodeLedger) newCode() (string, error) {
	r := l.Random
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, 2*codeGroupLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	var b strings.Builder
	b.Grow(len(codePrefix) + 2 + len(buf))
	b.WriteString(codePrefix)
	for i, v := range buf {
		if i%codeGroupLen == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return Canonical(b.String()), nil
}

// Validate reports whether code could be redeemed now. Unknown, used, and
// expired codes are not errors.
func (l *CodeLedger) Validate(ctx context.Context, code string) (Validation, error) {
	code = Canonical(code)
	if code == "" {
		return Validation{}, ErrEmptyCode
	}
	c, err := repo.GetCodeByCode(ctx, l.DB, code)
	if errors.Is(err, repo.ErrNotFound) {
		return Validation{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return Validation{}, fmt.Errorf("%w: load code: %w", ErrPersistence, err)
	}
	if reason := unusableReason(c, l.now()); reason != "" {
		return Validation{Reason: reason}, nil
	}
	return Validation{Valid: true, SubscriptionDays: c.SubscriptionDurationDays, ExpiresAt: c.ExpiresAt}, nil
}

func unusableReason(c *domain.SubscriptionCode, now time.Time) string {
	switch {
	case c.IsUsed:
		return ReasonUsed
	case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
		return ReasonExpired
	default:
		return ""
	}
}

// Redeem consumes code for telegramID and extends that user's subscription
// by the code's duration, both in one transaction. A code that cannot be
// consumed yields Success=false with a reason and no writes.
func (l *CodeLedger) Redeem(ctx context.Context, code string, telegramID int64) (Redemption, error) {
	ctx, span := otel.Tracer("services/CodeLedger").Start(ctx, "Redeem",
		trace.WithAttributes(attribute.Int64("telegram.id", telegramID)),
	)
	defer span.End()

	code = Canonical(code)
	if code == "" {
		return Redemption{}, ErrEmptyCode
	}
	now := l.now()

	var out Redemption
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.ConsumeCode(ctx, tx, code, telegramID, now)
		if err != nil {
			return err
		}
		if !ok {
			c, err := repo.GetCodeByCode(ctx, tx, code)
			switch {
			case errors.Is(err, repo.ErrNotFound):
				out = Redemption{Reason: ReasonNotFound}
			case err != nil:
				return err
			default:
				out = Redemption{Reason: unusableReason(c, now)}
				if out.Reason == "" {
					out.Reason = ReasonUsed
				}
			}
			return nil
		}

		c, err := repo.GetCodeByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		expires, err := repo.ExtendSubscription(ctx, tx, telegramID, c.SubscriptionDurationDays, now)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		out = Redemption{Success: true, SubscriptionDays: c.SubscriptionDurationDays, ExpiresAt: &expires}
		return nil
	})
	if err != nil {
		observability.CodeRedemptions.WithLabelValues("error").Inc()
		if errors.Is(err, ErrProfileNotFound) {
			return Redemption{}, err
		}
		return Redemption{}, fmt.Errorf("%w: redeem code: %w", ErrPersistence, err)
	}
	if out.Success {
		observability.CodeRedemptions.WithLabelValues("ok").Inc()
	} else {
		observability.CodeRedemptions.WithLabelValues(out.Reason).Inc()
	}
	return out, nil
}

// List returns a page of codes, newest first.
func (l *CodeLedger) List(ctx context.Context, f ListFilter) ([]CodeSummary, error) {
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := repo.ListCodes(ctx, l.DB, offset, limit, f.Used)
	if err != nil {
		return nil, fmt.Errorf("%w: list codes: %w", ErrPersistence, err)
	}
	out := make([]CodeSummary, 0, len(rows))
	for _, c := range rows {
		out = append(out, CodeSummary{
			Code:             c.Code,
			IsUsed:           c.IsUsed,
			UsedBy:           c.UsedByUserID,
			UsedAt:           c.UsedAt,
			SubscriptionDays: c.SubscriptionDurationDays,
			ExpiresAt:        c.ExpiresAt,
			CreatedAt:        c.CreatedAt,
		})
	}
	return out, nil
}

// Stats returns totals and the usage rate in percent, rounded to two places.
func (l *CodeLedger) Stats(ctx context.Context) (CodeStats, error) {
	total, used, err := repo.CountCodes(ctx, l.DB)
	if err != nil {
		return CodeStats{}, fmt.Errorf("%w: count codes: %w", ErrPersistence, err)
	}
	s := CodeStats{Total: total, Used: used, Active: total - used}
	if total > 0 {
		s.UsageRate = math.Round(float64(used)/float64(total)*100*100) / 100
	}
	return s, nil
}
