package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

type stubStore struct {
	resolveFn func(ctx context.Context, id Identity) (*domain.UserProfile, error)
	findFn    func(ctx context.Context, telegramID int64) (*domain.UserProfile, error)
	countsFn  func(ctx context.Context, telegramID int64) (UserCounts, error)
}

func (s stubStore) ResolveOrCreate(ctx context.Context, id Identity) (*domain.UserProfile, error) {
	return s.resolveFn(ctx, id)
}
func (s stubStore) Find(ctx context.Context, telegramID int64) (*domain.UserProfile, error) {
	return s.findFn(ctx, telegramID)
}
func (s stubStore) Counts(ctx context.Context, telegramID int64) (UserCounts, error) {
	return s.countsFn(ctx, telegramID)
}

type sentMessage struct {
	path, chatID, text, markup string
}

// fakeBotAPI records sendMessage calls.
func fakeBotAPI(t *testing.T) (*httptest.Server, func() []sentMessage) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []sentMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		mu.Lock()
		sent = append(sent, sentMessage{
			path:   r.URL.Path,
			chatID: r.FormValue("chat_id"),
			text:   r.FormValue("text"),
			markup: r.FormValue("reply_markup"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":100,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []sentMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentMessage(nil), sent...)
	}
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   1,
			Text: text,
			Chat: models.Chat{ID: 100, Type: "private"},
			From: &models.User{ID: 42, FirstName: "Анна", Username: "anna"},
		},
	}
}

func TestNewBot_Validation(t *testing.T) {
	_, err := NewBot(BotConfig{}, stubStore{})
	assert.Error(t, err)
	_, err = NewBot(BotConfig{Token: testToken}, nil)
	assert.Error(t, err)
}

func TestBot_Start_CreatesProfileAndSendsWebAppButton(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	var resolved Identity
	store := stubStore{resolveFn: func(_ context.Context, id Identity) (*domain.UserProfile, error) {
		resolved = id
		return &domain.UserProfile{TelegramID: id.ID}, nil
	}}

	b, err := NewBot(BotConfig{Token: testToken, ServerURL: srv.URL, WebAppURL: "https://tarot.example"}, store)
	require.NoError(t, err)

	b.handleStart(context.Background(), b.api, textUpdate("/start"))

	assert.Equal(t, int64(42), resolved.ID)
	assert.Equal(t, "Анна", resolved.FirstName)
	msgs := sent()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasSuffix(msgs[0].path, "/sendMessage"))
	assert.Equal(t, "100", msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "Добро пожаловать")
	assert.Contains(t, msgs[0].markup, `"web_app":{"url":"https://tarot.example"}`)
}

func TestBot_Premium_UnknownUser(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	store := stubStore{findFn: func(context.Context, int64) (*domain.UserProfile, error) { return nil, nil }}

	b, err := NewBot(BotConfig{Token: testToken, ServerURL: srv.URL}, store)
	require.NoError(t, err)
	b.handlePremium(context.Background(), b.api, textUpdate("/premium"))

	msgs := sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "/start")
}

func TestBot_Stats_UsesCounts(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := stubStore{
		findFn: func(context.Context, int64) (*domain.UserProfile, error) {
			return &domain.UserProfile{TelegramID: 42, FirstName: "Анна", CreatedAt: now}, nil
		},
		countsFn: func(context.Context, int64) (UserCounts, error) {
			return UserCounts{Questions: 7, DailyCards: 3}, nil
		},
	}

	b, err := NewBot(BotConfig{Token: testToken, ServerURL: srv.URL}, store)
	require.NoError(t, err)
	b.now = func() time.Time { return now }
	b.handleStats(context.Background(), b.api, textUpdate("/stats"))

	msgs := sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Всего вопросов: 7")
	assert.Contains(t, msgs[0].text, "Карт дня: 3")
}

const statsUpdateJSON = `{"update_id":1,"message":{"message_id":1,"date":0,"text":"/stats",` +
	`"chat":{"id":100,"type":"private"},"from":{"id":42,"is_bot":false,"first_name":"Анна"},` +
	`"entities":[{"type":"bot_command","offset":0,"length":6}]}}`

func postUpdate(h http.HandlerFunc, secret string) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegram/webhook", strings.NewReader(statsUpdateJSON))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	h(httptest.NewRecorder(), req)
}

func TestBot_WebhookHandler_DropsUpdatesWithWrongSecret(t *testing.T) {
	srv, _ := fakeBotAPI(t)
	var lookups atomic.Int32
	store := stubStore{
		findFn: func(context.Context, int64) (*domain.UserProfile, error) {
			lookups.Add(1)
			return &domain.UserProfile{TelegramID: 42}, nil
		},
		countsFn: func(context.Context, int64) (UserCounts, error) { return UserCounts{}, nil },
	}
	b, err := NewBot(BotConfig{Token: testToken, SecretToken: "s3cret", ServerURL: srv.URL}, store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	postUpdate(b.WebhookHandler(), "wrong")
	postUpdate(b.WebhookHandler(), "")
	assert.Never(t, func() bool { return lookups.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)

	postUpdate(b.WebhookHandler(), "s3cret")
	assert.Eventually(t, func() bool { return lookups.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}
