// Package services – ReadingService
//
// ReadingService produces and records readings: the daily card, answered
// questions, and spreads. Interpretation text comes from a Predictor, which
// never fails; everything that touches the free-question counter runs in a
// single transaction after the text is generated.
//
// Question and spread submissions accept an idempotency key. A retried
// submission with the same key replays the stored reading instead of
// consuming another free question.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/prediction"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/search"
)

// Idempotency scopes for reading submissions.
const (
	ScopeQuestion = "question"
	ScopeSpread   = "spread"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	searchHistoryDepth  = 200
)

// Predictor produces reading text.
type Predictor interface {
	Generate(ctx context.Context, req prediction.Request) prediction.Prediction
}

// CardSource supplies the card catalog.
type CardSource interface {
	Get(ctx context.Context) (cards.Snapshot, error)
}

// Reading is a stored interpretation as returned to clients.
type Reading struct {
	ID                string             `json:"id"`
	Type              domain.ReadingType `json:"type"`
	Question          string             `json:"question,omitempty"`
	Spread            string             `json:"spread,omitempty"`
	Cards             []domain.Card      `json:"cards"`
	Prediction        string             `json:"prediction"`
	Source            string             `json:"source"`
	FreeQuestionsLeft *int               `json:"freeQuestionsLeft,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// AskRequest is a question submission.
type AskRequest struct {
	Question       string
	Cards          []domain.Card
	Type           domain.ReadingType
	Aux            map[string]any
	IdempotencyKey string
}

// SpreadRequest is a spread submission. Cards may be empty, in which case
// one card per position is drawn from the catalog.
type SpreadRequest struct {
	Name           string
	Question       string
	Cards          []domain.Card
	IdempotencyKey string
}

// HistoryEntry is one item of a user's merged history.
type HistoryEntry struct {
	ID         string             `json:"id"`
	Kind       domain.ReadingType `json:"kind"`
	Question   string             `json:"question,omitempty"`
	Spread     string             `json:"spread,omitempty"`
	Cards      []domain.Card      `json:"cards"`
	Prediction string             `json:"prediction"`
	Date       string             `json:"date,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// ReadingService coordinates prediction generation and reading persistence.
type ReadingService struct {
	DB        *gorm.DB
	Predictor Predictor
	Cards     CardSource

	// MaxQuestionRunes caps question length; 0 disables the check.
	MaxQuestionRunes int
	// IdempotencyTTL is how long a submission key replays; default 24h.
	IdempotencyTTL time.Duration

	Now func() time.Time
}

var errReplayRace = errors.New("idempotency key taken by a concurrent request")

func (s *ReadingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ReadingService) idemTTL() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

func (s *ReadingService) draw(ctx context.Context, n int) ([]domain.Card, error) {
	if s.Cards == nil {
		return nil, ErrMissingCards
	}
	snap, err := s.Cards.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	// Layouts larger than the deck repeat cards.
	drawn := make([]domain.Card, 0, n)
	for len(drawn) < n {
		more := cards.Draw(snap.Cards, n-len(drawn))
		if len(more) == 0 {
			return nil, ErrMissingCards
		}
		drawn = append(drawn, more...)
	}
	return drawn, nil
}

// DrawDaily records card (or a random catalog card when nil) as today's
// card for p, replacing an earlier draw of the same day. It does not touch
// the free-question counter.
func (s *ReadingService) DrawDaily(ctx context.Context, p *domain.UserProfile, card *domain.Card) (*Reading, error) {
	ctx, span := otel.Tracer("services/ReadingService").Start(ctx, "DrawDaily",
		trace.WithAttributes(attribute.Int64("telegram.id", p.TelegramID)),
	)
	defer span.End()

	var c domain.Card
	if card != nil {
		if !card.Valid() {
			return nil, ErrMissingCards
		}
		c = *card
	} else {
		drawn, err := s.draw(ctx, 1)
		if err != nil {
			return nil, err
		}
		c = drawn[0]
	}

	pred := s.Predictor.Generate(ctx, prediction.Request{
		TelegramID: p.TelegramID,
		UserName:   p.DisplayName(),
		Cards:      []domain.Card{c},
		Type:       domain.ReadingDaily,
	})

	day := s.now().Format(domain.DateLayout)
	var saved *domain.DailyCard
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dc, err := repo.UpsertDailyCard(ctx, tx, &domain.DailyCard{
			UserID:       p.TelegramID,
			CardDate:     day,
			CardData:     c,
			AIPrediction: pred.Text,
			Source:       string(pred.Source),
		})
		if err != nil {
			return err
		}
		saved = dc
		return repo.SetLastCardDay(ctx, tx, p.TelegramID, day)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: save daily card: %w", ErrPersistence, err)
	}
	return readingFromDaily(saved), nil
}

// TodayCard returns today's daily card for telegramID or ErrNotFound.
func (s *ReadingService) TodayCard(ctx context.Context, telegramID int64) (*Reading, error) {
	dc, err := repo.GetDailyCard(ctx, s.DB, telegramID, s.now().Format(domain.DateLayout))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load daily card: %w", ErrPersistence, err)
	}
	return readingFromDaily(dc), nil
}

// Ask answers a question. Free users spend one free question; premium users
// spend nothing. The boolean result reports an idempotent replay.
func (s *ReadingService) Ask(ctx context.Context, p *domain.UserProfile, req AskRequest) (*Reading, bool, error) {
	ctx, span := otel.Tracer("services/ReadingService").Start(ctx, "Ask",
		trace.WithAttributes(attribute.Int64("telegram.id", p.TelegramID)),
	)
	defer span.End()

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, false, ErrEmptyQuestion
	}
	if s.MaxQuestionRunes > 0 && utf8.RuneCountInString(req.Question) > s.MaxQuestionRunes {
		return nil, false, ErrQuestionTooLong
	}
	if len(req.Cards) == 0 {
		return nil, false, ErrMissingCards
	}
	typ := req.Type.Normalize()
	if typ == domain.ReadingDaily || typ == domain.ReadingSpread {
		typ = domain.ReadingQuestion
	}

	if r, ok := s.replay(ctx, p.TelegramID, ScopeQuestion, req.IdempotencyKey); ok {
		return r, true, nil
	}

	now := s.now()
	fresh, err := repo.GetProfileByTelegramID(ctx, s.DB, p.TelegramID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, ErrProfileNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	premium := fresh.IsPremium(now)
	if !premium && fresh.FreeQuestionsLeft <= 0 {
		return nil, false, ErrNoQuestionsLeft
	}

	pred := s.Predictor.Generate(ctx, prediction.Request{
		TelegramID: fresh.TelegramID,
		UserName:   fresh.DisplayName(),
		Question:   req.Question,
		Cards:      req.Cards,
		Type:       typ,
		Aux:        req.Aux,
	})

	q := &domain.Question{UserID: fresh.TelegramID, QuestionText: req.Question, QuestionType: string(typ), CreatedAt: now}
	a := &domain.Answer{UserID: fresh.TelegramID, CardsDrawn: req.Cards, AIPrediction: pred.Text, Source: string(pred.Source), CreatedAt: now}
	left := fresh.FreeQuestionsLeft

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateQuestion(ctx, tx, q); err != nil {
			return err
		}
		a.QuestionID = q.ID
		if err := repo.CreateAnswer(ctx, tx, a); err != nil {
			return err
		}
		if !premium {
			ok, err := repo.DecrementFreeQuestion(ctx, tx, fresh.TelegramID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNoQuestionsLeft
			}
			left--
		}
		if err := repo.IncrementTotalQuestions(ctx, tx, fresh.TelegramID); err != nil {
			return err
		}
		return s.remember(ctx, tx, fresh.TelegramID, ScopeQuestion, req.IdempotencyKey, a.ID)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNoQuestionsLeft):
		return nil, false, err
	case errors.Is(err, errReplayRace):
		if r, ok := s.replay(ctx, p.TelegramID, ScopeQuestion, req.IdempotencyKey); ok {
			return r, true, nil
		}
		return nil, false, fmt.Errorf("%w: replay question", ErrPersistence)
	default:
		return nil, false, fmt.Errorf("%w: save question: %w", ErrPersistence, err)
	}

	a.Question = *q
	r := readingFromAnswer(a)
	if !premium {
		r.FreeQuestionsLeft = &left
	}
	return r, false, nil
}

// Spread draws a named spread. Premium spreads require an active
// subscription. The boolean result reports an idempotent replay.
func (s *ReadingService) Spread(ctx context.Context, p *domain.UserProfile, req SpreadRequest) (*Reading, bool, error) {
	ctx, span := otel.Tracer("services/ReadingService").Start(ctx, "Spread",
		trace.WithAttributes(
			attribute.Int64("telegram.id", p.TelegramID),
			attribute.String("spread", req.Name),
		),
	)
	defer span.End()

	def, ok := LookupSpread(req.Name)
	if !ok {
		return nil, false, ErrUnknownSpread
	}
	if r, ok := s.replay(ctx, p.TelegramID, ScopeSpread, req.IdempotencyKey); ok {
		return r, true, nil
	}

	now := s.now()
	fresh, err := repo.GetProfileByTelegramID(ctx, s.DB, p.TelegramID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, ErrProfileNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load profile: %w", ErrPersistence, err)
	}
	if def.Premium && !fresh.IsPremium(now) {
		return nil, false, ErrPremiumRequired
	}

	drawn := req.Cards
	switch {
	case len(drawn) == 0:
		if drawn, err = s.draw(ctx, len(def.Positions)); err != nil {
			return nil, false, err
		}
	case len(drawn) != len(def.Positions):
		return nil, false, ErrSpreadCardCount
	}

	question := strings.TrimSpace(req.Question)
	if s.MaxQuestionRunes > 0 && utf8.RuneCountInString(question) > s.MaxQuestionRunes {
		return nil, false, ErrQuestionTooLong
	}

	pred := s.Predictor.Generate(ctx, prediction.Request{
		TelegramID: fresh.TelegramID,
		UserName:   fresh.DisplayName(),
		Question:   question,
		Cards:      drawn,
		Type:       domain.ReadingSpread,
		Aux: map[string]any{
			prediction.AuxPositions: def.Positions,
			"spreadName":            def.Name,
		},
	})

	name := def.Key
	q := &domain.Question{UserID: fresh.TelegramID, QuestionText: question, QuestionType: string(domain.ReadingSpread), CreatedAt: now}
	a := &domain.Answer{UserID: fresh.TelegramID, CardsDrawn: drawn, AIPrediction: pred.Text, Source: string(pred.Source), SpreadType: &name, CreatedAt: now}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateQuestion(ctx, tx, q); err != nil {
			return err
		}
		a.QuestionID = q.ID
		if err := repo.CreateAnswer(ctx, tx, a); err != nil {
			return err
		}
		sp := &domain.Spread{UserID: fresh.TelegramID, SpreadName: name, CardsData: drawn, Question: question, AnswerID: a.ID, CreatedAt: now}
		if err := repo.CreateSpread(ctx, tx, sp); err != nil {
			return err
		}
		return s.remember(ctx, tx, fresh.TelegramID, ScopeSpread, req.IdempotencyKey, a.ID)
	})
	switch {
	case err == nil:
	case errors.Is(err, errReplayRace):
		if r, ok := s.replay(ctx, p.TelegramID, ScopeSpread, req.IdempotencyKey); ok {
			return r, true, nil
		}
		return nil, false, fmt.Errorf("%w: replay spread", ErrPersistence)
	default:
		return nil, false, fmt.Errorf("%w: save spread: %w", ErrPersistence, err)
	}

	a.Question = *q
	return readingFromAnswer(a), false, nil
}

// replay returns the reading recorded under key, if any. Lookup failures
// are treated as a miss.
func (s *ReadingService) replay(ctx context.Context, userID int64, scope, key string) (*Reading, bool) {
	if key == "" {
		return nil, false
	}
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, s.now())
	if err != nil {
		return nil, false
	}
	a, err := repo.GetAnswer(ctx, s.DB, rec.ResultID, userID)
	if err != nil {
		return nil, false
	}
	return readingFromAnswer(a), true
}

func (s *ReadingService) remember(ctx context.Context, tx *gorm.DB, userID int64, scope, key, answerID string) error {
	if key == "" {
		return nil
	}
	_, err := repo.CreateIdempotency(ctx, tx, userID, scope, key, answerID, 200, s.idemTTL())
	if errors.Is(err, repo.ErrDuplicate) {
		return errReplayRace
	}
	return err
}

// History returns up to limit entries merged from daily cards, questions,
// and spreads, newest first.
func (s *ReadingService) History(ctx context.Context, telegramID int64, limit int) ([]HistoryEntry, error) {
	ctx, span := otel.Tracer("services/ReadingService").Start(ctx, "History",
		trace.WithAttributes(
			attribute.Int64("telegram.id", telegramID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.history(ctx, telegramID, limit)
}

func (s *ReadingService) history(ctx context.Context, telegramID int64, limit int) ([]HistoryEntry, error) {
	daily, err := repo.ListDailyCards(ctx, s.DB, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list daily cards: %w", ErrPersistence, err)
	}
	answers, err := repo.ListAnswers(ctx, s.DB, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list answers: %w", ErrPersistence, err)
	}

	out := make([]HistoryEntry, 0, len(daily)+len(answers))
	for i := range daily {
		d := &daily[i]
		out = append(out, HistoryEntry{
			ID:         d.ID,
			Kind:       domain.ReadingDaily,
			Cards:      []domain.Card{d.CardData},
			Prediction: d.AIPrediction,
			Date:       d.CardDate,
			CreatedAt:  d.UpdatedAt,
		})
	}
	spreadText := make(map[string]string)
	for i := range answers {
		a := &answers[i]
		if a.SpreadType != nil {
			spreadText[a.ID] = a.AIPrediction
			continue
		}
		r := readingFromAnswer(a)
		out = append(out, HistoryEntry{
			ID:         r.ID,
			Kind:       r.Type,
			Question:   r.Question,
			Cards:      r.Cards,
			Prediction: r.Prediction,
			CreatedAt:  r.CreatedAt,
		})
	}

	spreads, err := repo.ListSpreads(ctx, s.DB, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list spreads: %w", ErrPersistence, err)
	}
	for i := range spreads {
		sp := &spreads[i]
		text, ok := spreadText[sp.AnswerID]
		if !ok && sp.AnswerID != "" {
			if a, err := repo.GetAnswer(ctx, s.DB, sp.AnswerID, telegramID); err == nil {
				text = a.AIPrediction
			}
		}
		id := sp.AnswerID
		if id == "" {
			id = sp.ID
		}
		out = append(out, HistoryEntry{
			ID:         id,
			Kind:       domain.ReadingSpread,
			Question:   sp.Question,
			Spread:     sp.SpreadName,
			Cards:      sp.CardsData,
			Prediction: text,
			CreatedAt:  sp.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// HistoryVersion returns a weak ETag that changes whenever the user's
// history changes.
func (s *ReadingService) HistoryVersion(ctx context.Context, telegramID int64) (string, error) {
	n, latest, err := repo.HistoryStats(ctx, s.DB, telegramID)
	if err != nil {
		return "", fmt.Errorf("%w: history stats: %w", ErrPersistence, err)
	}
	var ts int64
	if latest != nil {
		ts = latest.UTC().UnixNano()
	}
	return fmt.Sprintf(`W/"h-%d-%d-%d"`, telegramID, n, ts), nil
}

// SearchHistory ranks the user's history against query.
func (s *ReadingService) SearchHistory(ctx context.Context, telegramID int64, query string, k int) ([]search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	entries, err := s.history(ctx, telegramID, searchHistoryDepth)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Doc, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, search.Doc{ID: e.ID, Kind: string(e.Kind), Text: entryText(e), At: e.CreatedAt})
	}
	res := search.NewIndex(docs).TopK(query, k)
	if res == nil {
		res = []search.Result{}
	}
	return res, nil
}

func entryText(e HistoryEntry) string {
	parts := make([]string, 0, len(e.Cards)+2)
	if e.Question != "" {
		parts = append(parts, e.Question)
	}
	for _, c := range e.Cards {
		parts = append(parts, c.Name)
	}
	parts = append(parts, e.Prediction)
	return strings.Join(parts, ". ")
}

func readingFromDaily(d *domain.DailyCard) *Reading {
	return &Reading{
		ID:         d.ID,
		Type:       domain.ReadingDaily,
		Cards:      []domain.Card{d.CardData},
		Prediction: d.AIPrediction,
		Source:     d.Source,
		CreatedAt:  d.UpdatedAt,
	}
}

func readingFromAnswer(a *domain.Answer) *Reading {
	r := &Reading{
		ID:         a.ID,
		Type:       domain.ReadingType(a.Question.QuestionType).Normalize(),
		Question:   a.Question.QuestionText,
		Cards:      a.CardsDrawn,
		Prediction: a.AIPrediction,
		Source:     a.Source,
		CreatedAt:  a.CreatedAt,
	}
	if a.SpreadType != nil {
		r.Type = domain.ReadingSpread
		r.Spread = *a.SpreadType
	}
	return r
}
