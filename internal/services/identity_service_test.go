package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/telegram"
)

// ---------- test helpers ----------

// newTestDB opens a private in-memory database with the full schema. A single
// connection serializes concurrent callers the way a locked SQLite file would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seedProfile(t *testing.T, db *gorm.DB, p *domain.UserProfile) *domain.UserProfile {
	t.Helper()
	if err := repo.CreateProfile(context.Background(), db, p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func loadProfile(t *testing.T, db *gorm.DB, id int64) *domain.UserProfile {
	t.Helper()
	p, err := repo.GetProfileByTelegramID(context.Background(), db, id)
	if err != nil {
		t.Fatalf("load profile %d: %v", id, err)
	}
	return p
}

// ---------- ResolveOrCreate ----------

func TestResolveOrCreate_CreatesOnceAndNeverModifies(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db, 3)
	ctx := context.Background()

	id := telegram.Identity{ID: 42, Username: "anna", FirstName: "Анна", LastName: "К"}
	p, err := svc.ResolveOrCreate(ctx, id)
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if p.ID == "" || p.TelegramID != 42 || p.FreeQuestionsLeft != 3 || p.IsSubscribed || p.LastCardDay != nil {
		t.Fatalf("unexpected new profile: %+v", p)
	}
	if p.FirstName != "Анна" || p.Username != "anna" {
		t.Fatalf("names not copied: %+v", p)
	}

	id.FirstName = "Changed"
	again, err := svc.ResolveOrCreate(ctx, id)
	if err != nil {
		t.Fatalf("second ResolveOrCreate: %v", err)
	}
	if again.ID != p.ID || again.FirstName != "Анна" {
		t.Fatalf("existing profile should be returned unmodified: %+v", again)
	}
}

func TestResolveOrCreate_InvalidIdentity(t *testing.T) {
	svc := NewIdentityService(newTestDB(t), -1)
	if svc.FreeQuestions != DefaultFreeQuestions {
		t.Fatalf("negative allowance should use default, got %d", svc.FreeQuestions)
	}
	if _, err := svc.ResolveOrCreate(context.Background(), telegram.Identity{}); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestResolveOrCreate_ConcurrentFirstContact(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db, 3)

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.ResolveOrCreate(context.Background(), telegram.Identity{ID: 7, FirstName: "Race"})
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("callers saw different profiles: %v", ids)
		}
	}
	var count int64
	db.Model(&domain.UserProfile{}).Where("telegram_id = ?", 7).Count(&count)
	if count != 1 {
		t.Fatalf("want exactly one profile row, got %d", count)
	}
}

func TestResolveOrCreate_StorageFailure(t *testing.T) {
	db := newTestDB(t)
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	svc := NewIdentityService(db, 3)
	_, err := svc.ResolveOrCreate(context.Background(), telegram.Identity{ID: 1})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestResolveOrCreate_ClipsLongNames(t *testing.T) {
	svc := NewIdentityService(newTestDB(t), 3)
	long := ""
	for i := 0; i < 200; i++ {
		long += "я"
	}
	p, err := svc.ResolveOrCreate(context.Background(), telegram.Identity{ID: 5, FirstName: long})
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if got := len([]rune(p.FirstName)); got != 128 {
		t.Fatalf("first name not clipped: %d runes", got)
	}
}

// ---------- Find / Counts ----------

func TestIdentity_FindAndCounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db, 3)
	ctx := context.Background()

	if p, err := svc.Find(ctx, 99); p != nil || err != nil {
		t.Fatalf("Find unknown = (%v, %v), want (nil, nil)", p, err)
	}

	seedProfile(t, db, &domain.UserProfile{TelegramID: 99, FirstName: "Ira"})
	p, err := svc.Find(ctx, 99)
	if err != nil || p == nil || p.FirstName != "Ira" {
		t.Fatalf("Find = (%+v, %v)", p, err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.CreateQuestion(ctx, db, &domain.Question{UserID: 99, QuestionText: "q", QuestionType: "question"}); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	if _, err := repo.UpsertDailyCard(ctx, db, &domain.DailyCard{UserID: 99, CardDate: "2025-03-10", CardData: domain.Card{Name: "Луна"}}); err != nil {
		t.Fatalf("seed daily: %v", err)
	}

	c, err := svc.Counts(ctx, 99)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if c.Questions != 2 || c.DailyCards != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

// IdentityService must satisfy the bot's store contract.
var _ telegram.Store = (*IdentityService)(nil)
