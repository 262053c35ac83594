package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	userID int64
	scope  string
	key    string
	now    time.Time
}

func withUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyUserID, id)
		c.Next()
	}
}

func TestIdempotencyValidator_NoHeader_NoLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	lookup := func(context.Context, int64, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}

	r := gin.New()
	r.POST("/readings/question", withUser(7), IdempotencyValidator(IdempotencyOptions{}, lookup), func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
			t.Errorf("no key expected")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/readings/question", nil))
	if w.Code != http.StatusOK || called {
		t.Fatalf("status=%d called=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", IdempotencyValidator(IdempotencyOptions{MaxLen: 8}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, key := range []string{strings.Repeat("a", 9), "has space", "semi;colon"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d; want 400", key, w.Code)
		}
		if body := decodeError(t, w); body.Code != "bad_idempotency_key" || body.Success {
			t.Fatalf("unexpected body: %+v", body)
		}
	}
}

func TestIdempotencyValidator_LookupScopedToUserAndRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	var calls []lookupCall
	lookup := func(_ context.Context, uid int64, scope, key string, now time.Time) (bool, error) {
		calls = append(calls, lookupCall{uid, scope, key, now})
		return key == "seen-key", nil
	}
	mw := IdempotencyValidator(IdempotencyOptions{Now: func() time.Time { return fixed }}, lookup)

	r := gin.New()
	handler := func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		if IsReplay(c) != IsRateBypass(c) {
			t.Errorf("replay and rate bypass must agree")
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c)})
	}
	r.POST("/api/v1/readings/question", withUser(42), mw, handler)
	r.POST("/api/v1/readings/spread", withUser(42), mw, handler)

	send := func(path, key string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		return w
	}

	if w := send("/api/v1/readings/question", "fresh-key"); !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("fresh key must not be a replay: %s", w.Body.String())
	}
	if w := send("/api/v1/readings/spread", "seen-key"); !strings.Contains(w.Body.String(), `"replay":true`) {
		t.Fatalf("known key must be a replay: %s", w.Body.String())
	}

	want := []lookupCall{
		{42, "question", "fresh-key", fixed.UTC()},
		{42, "spread", "seen-key", fixed.UTC()},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %+v; want %+v", i, calls[i], want[i])
		}
	}
}

func TestIdempotencyValidator_LookupErrorAndAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	lookup := func(context.Context, int64, string, string, time.Time) (bool, error) {
		calls++
		return false, errors.New("db down")
	}
	opts := IdempotencyOptions{Scope: func(*gin.Context) string { return "custom" }}

	r := gin.New()
	r.POST("/anon", IdempotencyValidator(opts, lookup), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/user", withUser(1), IdempotencyValidator(opts, lookup), func(c *gin.Context) {
		if IsReplay(c) {
			t.Errorf("lookup errors must not mark a replay")
		}
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/anon", "/user"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, p, nil)
		req.Header.Set(HeaderIdempotencyKey, "k-1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", p, w.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("lookup must only run for authenticated callers, calls=%d", calls)
	}
}
