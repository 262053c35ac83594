package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
)

func TestCheck_ActiveRoundsDaysUp(t *testing.T) {
	db := newTestDB(t)
	clk := &fakeClock{t: testNow}
	exp := testNow.Add(36 * time.Hour)
	seedProfile(t, db, &domain.UserProfile{TelegramID: 1, IsSubscribed: true, SubscriptionExpiresAt: &exp, FreeQuestionsLeft: 2})

	svc := &SubscriptionService{DB: db, Now: clk.Now}
	st, err := svc.Check(context.Background(), 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.IsSubscribed || st.DaysLeft != 2 || st.ExpiresAt == nil || st.FreeQuestionsLeft != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCheck_ExpiredIsCleared(t *testing.T) {
	db := newTestDB(t)
	clk := &fakeClock{t: testNow}
	exp := testNow.Add(-time.Second)
	seedProfile(t, db, &domain.UserProfile{TelegramID: 2, IsSubscribed: true, SubscriptionExpiresAt: &exp})

	svc := &SubscriptionService{DB: db, Now: clk.Now}
	st, err := svc.Check(context.Background(), 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.IsSubscribed || st.DaysLeft != 0 || st.ExpiresAt != nil {
		t.Fatalf("expired subscription reported as active: %+v", st)
	}
	p := loadProfile(t, db, 2)
	if p.IsSubscribed || p.SubscriptionExpiresAt != nil {
		t.Fatalf("expired subscription not cleared: %+v", p)
	}
}

func TestCheck_KeepsSubscriptionCreditedAfterRead(t *testing.T) {
	db := newTestDB(t)
	past := testNow.Add(-time.Hour)
	renewed := testNow.AddDate(0, 0, 30)
	seedProfile(t, db, &domain.UserProfile{TelegramID: 3, IsSubscribed: true, SubscriptionExpiresAt: &past})

	// A redemption lands right after Check has read the expired row.
	var credited atomic.Bool
	err := db.Callback().Query().After("gorm:query").Register("test:credit_after_read", func(tx *gorm.DB) {
		if tx.Statement.Table != "tarot_user_profiles" || !credited.CompareAndSwap(false, true) {
			return
		}
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE tarot_user_profiles SET is_subscribed = ?, subscription_expires_at = ? WHERE telegram_id = ?", true, renewed, 3)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &SubscriptionService{DB: db, Now: (&fakeClock{t: testNow}).Now}
	st, err := svc.Check(context.Background(), 3)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !credited.Load() {
		t.Fatalf("credit callback never ran")
	}
	if !st.IsSubscribed || st.ExpiresAt == nil || st.DaysLeft != 30 {
		t.Fatalf("fresh credit not reported: %+v", st)
	}
	p := loadProfile(t, db, 3)
	if !p.IsSubscribed || p.SubscriptionExpiresAt == nil || !p.SubscriptionExpiresAt.Equal(renewed) {
		t.Fatalf("fresh credit was wiped: %+v", p)
	}
}

func TestCheck_UnknownProfile(t *testing.T) {
	svc := &SubscriptionService{DB: newTestDB(t)}
	if _, err := svc.Check(context.Background(), 404); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	exp := testNow.AddDate(0, 0, 1)
	seedProfile(t, db, &domain.UserProfile{TelegramID: 1})
	seedProfile(t, db, &domain.UserProfile{TelegramID: 2, IsSubscribed: true, SubscriptionExpiresAt: &exp})
	if err := repo.InsertCode(ctx, db, &domain.SubscriptionCode{Code: "TAROT-ADMN-0001", SubscriptionDurationDays: 30, IsUsed: true}); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	svc := &AdminService{DB: db, Now: (&fakeClock{t: testNow}).Now}
	c, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if c.Users != 2 || c.PremiumUsers != 1 || c.Codes != 1 || c.UsedCodes != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestAdminUpdateSubscription(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, &domain.UserProfile{TelegramID: 5})
	svc := &AdminService{DB: db, Now: (&fakeClock{t: testNow}).Now}

	p, err := svc.UpdateSubscription(ctx, SubscriptionUpdate{TelegramID: 5, IsSubscribed: true, Days: 14})
	if err != nil {
		t.Fatalf("grant by days: %v", err)
	}
	if !p.IsPremium(testNow) || !p.SubscriptionExpiresAt.Equal(testNow.AddDate(0, 0, 14)) {
		t.Fatalf("unexpected grant: %+v", p)
	}

	until := testNow.AddDate(1, 0, 0)
	p, err = svc.UpdateSubscription(ctx, SubscriptionUpdate{TelegramID: 5, IsSubscribed: true, ExpiresAt: &until})
	if err != nil {
		t.Fatalf("grant until: %v", err)
	}
	if !p.SubscriptionExpiresAt.Equal(until) {
		t.Fatalf("expiry not overwritten: %+v", p)
	}

	p, err = svc.UpdateSubscription(ctx, SubscriptionUpdate{TelegramID: 5})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if p.IsSubscribed || p.SubscriptionExpiresAt != nil {
		t.Fatalf("subscription not revoked: %+v", p)
	}
}

func TestAdminUpdateSubscription_Invalid(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, &domain.UserProfile{TelegramID: 6})
	svc := &AdminService{DB: db, Now: (&fakeClock{t: testNow}).Now}
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name string
		u    SubscriptionUpdate
		want error
	}{
		{"no telegram id", SubscriptionUpdate{IsSubscribed: true, Days: 1}, ErrInvalidIdentity},
		{"grant without duration", SubscriptionUpdate{TelegramID: 6, IsSubscribed: true}, ErrInvalidSubscription},
		{"grant with past expiry", SubscriptionUpdate{TelegramID: 6, IsSubscribed: true, ExpiresAt: &past}, ErrInvalidSubscription},
		{"grant with both", SubscriptionUpdate{TelegramID: 6, IsSubscribed: true, Days: 3, ExpiresAt: &future}, ErrInvalidSubscription},
		{"negative days", SubscriptionUpdate{TelegramID: 6, IsSubscribed: true, Days: -1}, ErrInvalidSubscription},
		{"revoke with days", SubscriptionUpdate{TelegramID: 6, Days: 3}, ErrInvalidSubscription},
		{"unknown profile", SubscriptionUpdate{TelegramID: 404, IsSubscribed: true, Days: 1}, ErrProfileNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateSubscription(context.Background(), tc.u); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
		})
	}
	if p := loadProfile(t, db, 6); p.IsSubscribed {
		t.Fatalf("rejected update still wrote: %+v", p)
	}
}
