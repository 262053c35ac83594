package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/config"
	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
	"github.com/Ramzec88/tarot-web-app/internal/prediction"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
)

const (
	testBotToken = "123456:router-test"
	testAdminKey = "s3cret"
)

// --- fakes ---

type fakePredictor struct{}

func (fakePredictor) Generate(_ context.Context, req prediction.Request) prediction.Prediction {
	return prediction.Prediction{Text: "ответ для " + req.UserName, Source: prediction.SourceLocal}
}

type staticLoader struct{}

func (staticLoader) Load(context.Context) ([]domain.Card, cards.Source, error) {
	return cards.Builtin(), cards.SourceFallback, nil
}

// --- helpers ---

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:         "/api/v1",
		RateRPS:             100,
		RateBurst:           10,
		FreeQuestionsLimit:  3,
		PremiumDurationDays: 30,
		MaxQuestionRunes:    1000,
		AdminKey:            testAdminKey,
		IdempotencyTTL:      time.Hour,
		Telegram:            config.TelegramConfig{BotToken: testBotToken},
		OTEL:                config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, Deps{
		DB:        db,
		Cards:     cards.NewCache(staticLoader{}, time.Minute),
		Predictor: fakePredictor{},
	}, cfg)
	return r, db
}

// initData builds init data signed for token the way Telegram does.
func initData(token string, userID int64, name string) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":%q,"language_code":"ru"}`, userID, name))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func serve(r *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

// --- tests ---

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())

	w = serve(r, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Not found", body["error"])

	w = serve(r, http.MethodPost, "/health", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", jsonBody(t, w)["error"])
}

func TestRegisterRoutes_Options(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodOptions, "/api/v1/readings/question", "", map[string]string{
		"Origin":                        "https://web.telegram.org",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, w.Body.Len())
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/api/v1/anything", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, w.Body.Len())
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterRoutes_PublicCards(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/cards", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, string(cards.SourceFallback), body["source"])
	assert.EqualValues(t, len(cards.Builtin()), body["count"])
	assert.Equal(t, "MISS", w.Header().Get("X-Cache-Status"))

	w = serve(r, http.MethodGet, "/api/v1/cards", "", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache-Status"))
}

func TestRegisterRoutes_TelegramAuthFlow(t *testing.T) {
	r, db := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/auth/telegram", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/auth/telegram", `{"initData":"user=%7B%22id%22%3A1%7D&hash=deadbeef"}`, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	raw := initData(testBotToken, 777, "Анна")
	body, _ := json.Marshal(map[string]string{"initData": raw})
	w = serve(r, http.MethodPost, "/api/v1/auth/telegram", string(body), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := jsonBody(t, w)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, false, got["premium"])
	profile := got["user_profile"].(map[string]any)
	assert.EqualValues(t, 777, profile["telegram_id"])
	assert.EqualValues(t, 3, profile["free_questions_left"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	p, err := repo.GetProfileByTelegramID(context.Background(), db, 777)
	require.NoError(t, err)
	assert.Equal(t, "Анна", p.FirstName)
}

func TestRegisterRoutes_QuestionIdempotentReplay(t *testing.T) {
	r, db := newRouter(t, testConfig())
	hdr := map[string]string{
		middleware.HeaderInitData:       initData(testBotToken, 555, "Олег"),
		middleware.HeaderIdempotencyKey: "q-1",
	}
	payload := `{"question":"Что меня ждёт?","cards":[{"name":"Шут"}]}`

	w := serve(r, http.MethodPost, "/api/v1/readings/question", payload, hdr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(r, http.MethodPost, "/api/v1/readings/question", payload, hdr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, jsonBody(t, w)["replayed"])

	p, err := repo.GetProfileByTelegramID(context.Background(), db, 555)
	require.NoError(t, err)
	assert.Equal(t, 2, p.FreeQuestionsLeft)

	hdr[middleware.HeaderIdempotencyKey] = "bad key"
	w = serve(r, http.MethodPost, "/api/v1/readings/question", payload, hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRoutes_AdminKey(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/admin/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/admin/stats?admin_key=wrong", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/subscription-codes/generate", `{"count":2,"admin_key":"`+testAdminKey+`"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	codes := jsonBody(t, w)["codes"].([]any)
	require.Len(t, codes, 2)

	w = serve(r, http.MethodGet, "/api/v1/subscription-codes/stats", "", map[string]string{middleware.HeaderAdminKey: testAdminKey})
	require.Equal(t, http.StatusOK, w.Code)
	stats := jsonBody(t, w)["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["total"])

	// Redeem one of them as a Telegram user.
	body, _ := json.Marshal(map[string]string{"code": codes[0].(string), "initData": initData(testBotToken, 901, "Ира")})
	w = serve(r, http.MethodPost, "/api/v1/subscription-codes/redeem", string(body), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, jsonBody(t, w)["success"])

	w = serve(r, http.MethodPost, "/api/v1/subscription-codes/redeem", string(body), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := jsonBody(t, w)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "used", got["reason"])

	// Manual override revokes the redeemed subscription.
	admin := map[string]string{middleware.HeaderAdminKey: testAdminKey}
	w = serve(r, http.MethodPost, "/api/v1/admin/subscription", `{"telegram_id":901,"is_subscribed":false}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(r, http.MethodPost, "/api/v1/admin/subscription", `{"telegram_id":901,"is_subscribed":false}`, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := jsonBody(t, w)["user_profile"].(map[string]any)
	assert.Equal(t, false, profile["is_subscribed"])
	assert.Nil(t, profile["subscription_expires_at"])
}

func TestRegisterRoutes_Webhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	called := false
	RegisterRoutes(r, Deps{
		DB:        newTestDB(t),
		Cards:     cards.NewCache(staticLoader{}, time.Minute),
		Predictor: fakePredictor{},
		Webhook: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}),
	}, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/telegram/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestIdempotencyLookup(t *testing.T) {
	db := newTestDB(t)
	lookup := idempotencyLookup(db)
	ctx := context.Background()

	ok, err := lookup(ctx, 1, "question", "k", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.CreateIdempotency(ctx, db, 1, "question", "k", "a1", http.StatusCreated, time.Hour)
	require.NoError(t, err)
	ok, err = lookup(ctx, 1, "question", "k", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	_, err = lookup(ctx, 1, "question", "k", time.Now())
	assert.Error(t, err)
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
