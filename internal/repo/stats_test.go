package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{
		&domain.UserProfile{}, &domain.SubscriptionCode{}, &domain.Question{},
		&domain.Answer{}, &domain.DailyCard{}, &domain.Spread{}, &domain.Idempotency{},
	}
}

func TestHistoryStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := HistoryStats(context.Background(), db, 1)
	if err == nil {
		t.Fatalf("expected error due to missing tables")
	}
}

func TestHistoryStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, allModels()...)
	count, latest, err := HistoryStats(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("HistoryStats error: %v", err)
	}
	if count != 0 || latest != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, latest)
	}
}

func TestHistoryStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, allModels()...)

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for user 1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other user

	card := domain.Card{ID: "MA_0", Name: "Дурак"}
	seed := []any{
		&domain.Question{ID: "q1", UserID: 1, QuestionType: "question", CreatedAt: t1},
		&domain.Answer{ID: "a1", QuestionID: "q1", UserID: 1, CardsDrawn: []domain.Card{card}, AIPrediction: "x", Source: "local", CreatedAt: t1},
		&domain.DailyCard{ID: "d1", UserID: 1, CardDate: "2025-03-04", CardData: card, CreatedAt: t2, UpdatedAt: t2},
		&domain.Spread{ID: "s1", UserID: 1, SpreadName: "love", CardsData: []domain.Card{card}, CreatedAt: t1},
		&domain.Spread{ID: "s2", UserID: 2, SpreadName: "love", CardsData: []domain.Card{card}, CreatedAt: t3},
	}
	for _, row := range seed {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}

	count, latest, err := HistoryStats(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("HistoryStats error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	if latest == nil || !latest.Equal(t2) {
		t.Fatalf("expected latest %v, got %v", t2, latest)
	}
}

// Force the second query (SELECT created_at ...) to fail by renaming the column.
func TestHistoryStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, allModels()...)

	now := time.Now().UTC()
	if err := db.Create(&domain.Spread{ID: "sx", UserID: 9, SpreadName: "week", CreatedAt: now}).Error; err != nil {
		t.Fatalf("seed spread: %v", err)
	}
	if err := db.Exec(`ALTER TABLE tarot_spreads RENAME COLUMN created_at TO created_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := HistoryStats(context.Background(), db, 9)
	if err == nil {
		t.Fatalf("expected error from latest select after column rename")
	}
}

func TestAdminCounts(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	profiles := []*domain.UserProfile{
		{TelegramID: 1},
		{TelegramID: 2, IsSubscribed: true, SubscriptionExpiresAt: &future},
		{TelegramID: 3, IsSubscribed: true, SubscriptionExpiresAt: &past},
	}
	for _, p := range profiles {
		if err := CreateProfile(ctx, db, p); err != nil {
			t.Fatalf("CreateProfile: %v", err)
		}
	}
	for _, code := range []string{"TAROT-AAAA-AAAA", "TAROT-BBBB-BBBB"} {
		if err := InsertCode(ctx, db, &domain.SubscriptionCode{Code: code, SubscriptionDurationDays: 30}); err != nil {
			t.Fatalf("InsertCode: %v", err)
		}
	}
	if ok, err := ConsumeCode(ctx, db, "TAROT-AAAA-AAAA", 1, now); err != nil || !ok {
		t.Fatalf("ConsumeCode = (%v, %v)", ok, err)
	}
	if err := CreateQuestion(ctx, db, &domain.Question{UserID: 1, QuestionType: "question"}); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	c, err := AdminCounts(ctx, db, now)
	if err != nil {
		t.Fatalf("AdminCounts: %v", err)
	}
	want := Counts{Users: 3, PremiumUsers: 1, Questions: 1, Codes: 2, UsedCodes: 1}
	if c != want {
		t.Fatalf("AdminCounts = %+v; want %+v", c, want)
	}
}
