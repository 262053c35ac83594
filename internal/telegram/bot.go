package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// Store is what the bot commands need from the profile layer. Find returns
// (nil, nil) for unknown users.
type Store interface {
	ResolveOrCreate(ctx context.Context, id Identity) (*domain.UserProfile, error)
	Find(ctx context.Context, telegramID int64) (*domain.UserProfile, error)
	Counts(ctx context.Context, telegramID int64) (UserCounts, error)
}

// BotConfig configures the webhook bot.
type BotConfig struct {
	Token       string
	SecretToken string
	WebAppURL   string
	PaymentURL  string
	PremiumDays int
	// ServerURL overrides the Bot API endpoint (tests).
	ServerURL string
}

// Bot answers /start, /premium and /stats delivered through the webhook.
type Bot struct {
	api   *bot.Bot
	store Store
	cfg   BotConfig
	now   func() time.Time
}

// NewBot builds a webhook-mode bot. It never calls the Bot API on startup.
func NewBot(cfg BotConfig, store Store) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if store == nil {
		return nil, errors.New("telegram: store is required")
	}
	b := &Bot{store: store, cfg: cfg, now: time.Now}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithDefaultHandler(func(context.Context, *bot.Bot, *models.Update) {}),
		bot.WithMiddlewares(logUpdates),
	}
	if cfg.SecretToken != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.SecretToken))
	}
	if cfg.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(cfg.ServerURL))
	}
	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, err
	}
	api.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, b.handleStart)
	api.RegisterHandler(bot.HandlerTypeMessageText, "premium", bot.MatchTypeCommandStartOnly, b.handlePremium)
	api.RegisterHandler(bot.HandlerTypeMessageText, "stats", bot.MatchTypeCommandStartOnly, b.handleStats)
	b.api = api
	return b, nil
}

// WebhookHandler accepts updates posted by Telegram.
func (b *Bot) WebhookHandler() http.HandlerFunc { return b.api.WebhookHandler() }

// Run processes webhook updates until ctx is done.
func (b *Bot) Run(ctx context.Context) { b.api.StartWebhook(ctx) }

func logUpdates(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, api *bot.Bot, update *models.Update) {
		if update.Message != nil && update.Message.From != nil {
			log.Debug().
				Int64("telegram_id", update.Message.From.ID).
				Str("text", update.Message.Text).
				Msg("bot update")
		}
		next(ctx, api, update)
	}
}

func identityFrom(u *models.User) Identity {
	return Identity{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
	}
}

func (b *Bot) handleStart(ctx context.Context, api *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, err := b.store.ResolveOrCreate(ctx, identityFrom(msg.From)); err != nil {
		log.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("bot /start: resolve profile")
	}
	b.send(ctx, api, msg.Chat.ID, StartReply(b.cfg.WebAppURL))
}

func (b *Bot) handlePremium(ctx context.Context, api *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	p, err := b.store.Find(ctx, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("bot /premium: load profile")
		return
	}
	b.send(ctx, api, msg.Chat.ID, PremiumReply(p, b.now(), b.cfg.PremiumDays, b.cfg.PaymentURL))
}

func (b *Bot) handleStats(ctx context.Context, api *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	p, err := b.store.Find(ctx, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("bot /stats: load profile")
		return
	}
	var counts UserCounts
	if p != nil {
		if counts, err = b.store.Counts(ctx, msg.From.ID); err != nil {
			log.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("bot /stats: count history")
			return
		}
	}
	b.send(ctx, api, msg.Chat.ID, StatsReply(p, counts, b.now()))
}

func (b *Bot) send(ctx context.Context, api *bot.Bot, chatID int64, r Reply) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: r.Text}
	if r.Button != nil {
		btn := models.InlineKeyboardButton{Text: r.Button.Text}
		if r.Button.WebApp {
			btn.WebApp = &models.WebAppInfo{URL: r.Button.URL}
		} else {
			btn.URL = r.Button.URL
		}
		params.ReplyMarkup = models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{btn}},
		}
	}
	if _, err := api.SendMessage(ctx, params); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("bot: send message")
	}
}
