package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/config"
	httpapi "github.com/Ramzec88/tarot-web-app/internal/http"
	"github.com/Ramzec88/tarot-web-app/internal/observability"
	"github.com/Ramzec88/tarot-web-app/internal/prediction"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/services"
	"github.com/Ramzec88/tarot-web-app/internal/telegram"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.ShutdownWithin(shutdownOTel, 5*time.Second); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	cache, closeRedis := newCardCache(ctx, cfg)
	defer closeRedis()

	deps := httpapi.Deps{
		DB:        db,
		Cards:     cache,
		Predictor: prediction.NewGenerator(cfg.WebhookURL, cfg.WebhookTimeout, nil).
			WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	}

	if cfg.BotEnabled() {
		b, err := telegram.NewBot(telegram.BotConfig{
			Token:       cfg.Telegram.BotToken,
			SecretToken: cfg.Telegram.WebhookSecret,
			WebAppURL:   cfg.Telegram.WebAppURL,
			PaymentURL:  cfg.Telegram.PaymentURL,
			PremiumDays: cfg.PremiumDurationDays,
		}, services.NewIdentityService(db, cfg.FreeQuestionsLimit))
		if err != nil {
			return err
		}
		go b.Run(ctx)
		deps.Webhook = b.WebhookHandler()
		log.Info().Msg("telegram webhook enabled")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeLoop(ctx, db)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DBDriver).
			Bool("remote_predictions", cfg.WebhookURL != "").
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newCardCache builds the card cache, sharing it through Redis when
// REDIS_ADDR is set and reachable.
func newCardCache(ctx context.Context, cfg config.Config) (*cards.Cache, func()) {
	loader := cards.NewCatalog(cfg.Cards.Path, cfg.Cards.URL)
	if cfg.Redis.Addr == "" {
		return cards.NewCache(loader, cfg.Cards.CacheTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; card cache stays in-process")
		_ = client.Close()
		return cards.NewCache(loader, cfg.Cards.CacheTTL), func() {}
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("card cache shared via redis")
	cache := cards.NewCache(loader, cfg.Cards.CacheTTL, cards.WithShared(cards.NewRedisStore(client)))
	return cache, func() { _ = client.Close() }
}

// purgeLoop drops expired idempotency records until ctx is done.
func purgeLoop(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged idempotency records")
			}
		}
	}
}
