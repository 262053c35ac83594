package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/Ramzec88/tarot-web-app/internal/config"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/services"
	"github.com/Ramzec88/tarot-web-app/internal/sysutil"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "tarot",
		Usage:   "tarot Telegram Mini App backend",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading the environment"},
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP port (overrides PORT)"},
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres (overrides DB_DRIVER)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite file (overrides DB_PATH)"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: "debug|info|warn|error (overrides LOG_LEVEL)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the bot webhook",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "purge",
				Usage:  "delete expired idempotency records",
				Action: purge,
			},
			{
				Name:  "codes",
				Usage: "manage subscription codes",
				Subcommands: []*cli.Command{
					{
						Name:  "generate",
						Usage: "issue new codes and print them one per line",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of codes (1-100)"},
							&cli.IntFlag{Name: "days", Usage: "premium days per code (default PREMIUM_DURATION_DAYS)"},
							&cli.IntFlag{Name: "expires-in-days", Usage: "code expiry; 0 means never"},
						},
						Action: generateCodes,
					},
					{
						Name:   "stats",
						Usage:  "print code totals as JSON",
						Action: codeStats,
					},
					{
						Name:  "list",
						Usage: "print a page of codes as JSON",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 50},
							&cli.IntFlag{Name: "offset"},
							&cli.StringFlag{Name: "used", Usage: "true|false; empty lists every code"},
						},
						Action: listCodes,
					},
				},
			},
			{
				Name:  "subscription",
				Usage: "override a user's subscription",
				Subcommands: []*cli.Command{
					{
						Name:  "grant",
						Usage: "set premium for --days from now or until --until",
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "telegram-id", Required: true},
							&cli.IntFlag{Name: "days"},
							&cli.TimestampFlag{Name: "until", Layout: time.RFC3339, Usage: "absolute expiry, RFC 3339"},
						},
						Action: grantSubscription,
					},
					{
						Name:  "revoke",
						Usage: "clear premium and its expiry",
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "telegram-id", Required: true},
						},
						Action: revokeSubscription,
					},
				},
			},
		},
	}
}

// flagEnv maps global flags onto the environment variables they override.
var flagEnv = map[string]string{
	"port":      "PORT",
	"db-driver": "DB_DRIVER",
	"db-path":   "DB_PATH",
	"log-level": "LOG_LEVEL",
}

// loadConfig applies flag overrides, reads the dotenv file and the
// environment, then installs the global logger. Flags win over both.
func loadConfig(c *cli.Context) (config.Config, error) {
	for flag, env := range flagEnv {
		if c.IsSet(flag) {
			if err := os.Setenv(env, c.String(flag)); err != nil {
				return config.Config{}, err
			}
		}
	}
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

// openDB connects with the configured driver and migrates the schema.
func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == repo.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	fmt.Fprintln(c.App.Writer, "schema is up to date")
	return nil
}

func purge(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	n, err := repo.PurgeExpiredIdempotency(c.Context, db, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "purged %d expired idempotency records\n", n)
	return nil
}

// withLedger runs fn against a code ledger bound to the configured database.
func withLedger(c *cli.Context, fn func(*services.CodeLedger) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	return fn(services.NewCodeLedger(db, cfg.PremiumDurationDays))
}

// withAdmin runs fn against an admin service bound to the configured database.
func withAdmin(c *cli.Context, fn func(*services.AdminService) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	return fn(&services.AdminService{DB: db})
}

func grantSubscription(c *cli.Context) error {
	return withAdmin(c, func(a *services.AdminService) error {
		p, err := a.UpdateSubscription(c.Context, services.SubscriptionUpdate{
			TelegramID:   c.Int64("telegram-id"),
			IsSubscribed: true,
			Days:         c.Int("days"),
			ExpiresAt:    c.Timestamp("until"),
		})
		if err != nil {
			return err
		}
		return printJSON(c, p)
	})
}

func revokeSubscription(c *cli.Context) error {
	return withAdmin(c, func(a *services.AdminService) error {
		p, err := a.UpdateSubscription(c.Context, services.SubscriptionUpdate{
			TelegramID: c.Int64("telegram-id"),
		})
		if err != nil {
			return err
		}
		return printJSON(c, p)
	})
}

func generateCodes(c *cli.Context) error {
	return withLedger(c, func(l *services.CodeLedger) error {
		codes, err := l.Generate(c.Context, services.GenerateOptions{
			Count:         c.Int("count"),
			Days:          c.Int("days"),
			ExpiresInDays: c.Int("expires-in-days"),
		})
		if err != nil {
			return err
		}
		for _, code := range codes {
			fmt.Fprintln(c.App.Writer, code)
		}
		return nil
	})
}

func codeStats(c *cli.Context) error {
	return withLedger(c, func(l *services.CodeLedger) error {
		st, err := l.Stats(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c, st)
	})
}

func listCodes(c *cli.Context) error {
	return withLedger(c, func(l *services.CodeLedger) error {
		codes, err := l.List(c.Context, services.ListFilter{
			Limit:  c.Int("limit"),
			Offset: c.Int("offset"),
			Used:   sysutil.OptionalBool(c.String("used")),
		})
		if err != nil {
			return err
		}
		return printJSON(c, codes)
	})
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
