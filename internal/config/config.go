// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, Telegram credentials, rate
// limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings. An empty
// origin list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "tarot-web-app")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// TelegramConfig holds the bot credentials and Mini App links.
type TelegramConfig struct {
	BotToken       string        // BOT_TOKEN; signs WebApp init data
	InitDataMaxAge time.Duration // INIT_DATA_MAX_AGE; 0 disables the freshness check
	WebAppURL      string        // WEBAPP_URL opened by the /start button
	PaymentURL     string        // PAYMENT_URL offered by /premium
	WebhookEnabled bool          // BOT_WEBHOOK_ENABLED
	WebhookSecret  string        // TELEGRAM_WEBHOOK_SECRET
}

// CardsConfig locates the card catalog.
type CardsConfig struct {
	Path     string        // CARDS_PATH
	URL      string        // CARDS_URL
	CacheTTL time.Duration // CARDS_CACHE_TTL
}

// RedisConfig configures the optional shared card cache.
type RedisConfig struct {
	Addr     string // REDIS_ADDR; empty disables Redis
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // Postgres DSN

	// Readings
	WebhookURL          string        // remote prediction webhook; empty means local only
	WebhookTimeout      time.Duration // single-attempt bound for the webhook
	BreakerFailures     int           // consecutive webhook failures that open the breaker; 0 disables
	BreakerCooldown     time.Duration // how long an open breaker skips the webhook
	FreeQuestionsLimit  int           // free questions granted to a new profile
	PremiumDurationDays int           // days credited by a generated code
	MaxQuestionRunes    int           // question length cap

	// Admin
	AdminKey string // shared secret for code management; empty rejects all

	Telegram TelegramConfig
	Cards    CardsConfig
	Redis    RedisConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBDriver:    strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER", "sqlite"))),
		DBPath:      getenv("DB_PATH", "tarot.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		// Readings
		WebhookURL:          strings.TrimSpace(getenv("WEBHOOK_URL", "")),
		WebhookTimeout:      getdur("WEBHOOK_TIMEOUT", 10*time.Second),
		BreakerFailures:     getint("WEBHOOK_BREAKER_FAILURES", 5),
		BreakerCooldown:     getdur("WEBHOOK_BREAKER_COOLDOWN", 30*time.Second),
		FreeQuestionsLimit:  getint("FREE_QUESTIONS_LIMIT", 3),
		PremiumDurationDays: getint("PREMIUM_DURATION_DAYS", 30),
		MaxQuestionRunes:    getint("MAX_QUESTION_RUNES", 1000),

		AdminKey: getenv("ADMIN_KEY", ""),

		Telegram: TelegramConfig{
			BotToken:       getenv("BOT_TOKEN", ""),
			InitDataMaxAge: getdur("INIT_DATA_MAX_AGE", 24*time.Hour),
			WebAppURL:      getenv("WEBAPP_URL", ""),
			PaymentURL:     getenv("PAYMENT_URL", ""),
			WebhookEnabled: getbool("BOT_WEBHOOK_ENABLED", true),
			WebhookSecret:  getenv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Cards: CardsConfig{
			Path:     getenv("CARDS_PATH", "cards.json"),
			URL:      getenv("CARDS_URL", ""),
			CacheTTL: getdur("CARDS_CACHE_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tarot-web-app"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DBDriver == "postgresql" {
		cfg.DBDriver = "postgres"
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints. Load calls it; commands that
// override fields from flags call it again.
func (cfg Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.WebhookTimeout <= 0 {
		return errors.New("WEBHOOK_TIMEOUT must be > 0")
	}
	if cfg.BreakerFailures < 0 {
		return errors.New("WEBHOOK_BREAKER_FAILURES must be >= 0")
	}
	if cfg.BreakerFailures > 0 && cfg.BreakerCooldown <= 0 {
		return errors.New("WEBHOOK_BREAKER_COOLDOWN must be > 0")
	}
	if cfg.FreeQuestionsLimit < 0 {
		return errors.New("FREE_QUESTIONS_LIMIT must be >= 0")
	}
	if cfg.PremiumDurationDays <= 0 {
		return errors.New("PREMIUM_DURATION_DAYS must be > 0")
	}
	if cfg.MaxQuestionRunes <= 0 {
		return errors.New("MAX_QUESTION_RUNES must be > 0")
	}
	if cfg.Telegram.InitDataMaxAge < 0 {
		return errors.New("INIT_DATA_MAX_AGE must be >= 0")
	}
	if cfg.Cards.CacheTTL <= 0 {
		return errors.New("CARDS_CACHE_TTL must be > 0")
	}
	if cfg.Redis.DB < 0 {
		return errors.New("REDIS_DB must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// BotEnabled reports whether the Telegram bot webhook should be served.
func (cfg Config) BotEnabled() bool {
	return cfg.Telegram.WebhookEnabled && strings.TrimSpace(cfg.Telegram.BotToken) != ""
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
