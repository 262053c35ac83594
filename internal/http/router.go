// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, Telegram and admin authentication, idempotency,
// and rate limiting.
//
// Route groups:
//   - public: card catalog, stateless predictions, spread layouts, code validation
//   - telegram: everything that acts on behalf of a Mini App user
//   - admin: code management and dashboard totals, guarded by ADMIN_KEY
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/Ramzec88/tarot-web-app/docs"
	"github.com/Ramzec88/tarot-web-app/internal/config"
	"github.com/Ramzec88/tarot-web-app/internal/http/handlers"
	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/services"
	"github.com/Ramzec88/tarot-web-app/internal/telegram"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps are the collaborators built by the caller.
type Deps struct {
	DB        *gorm.DB
	Cards     handlers.CardCatalog
	Predictor handlers.Predictor
	// Webhook receives Telegram updates; nil leaves the route unmounted.
	Webhook http.Handler
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. CORS, preflight and security headers
//
// Per group, authentication runs first so idempotency lookups and rate
// limiting can key on the Telegram user.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit and response compression
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture, preflight, security headers
	useCORS(r, cfg.CORS)
	r.Use(preflight())
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cards/predictor
	db := deps.DB
	identity := services.NewIdentityService(db, cfg.FreeQuestionsLimit)
	readings := &services.ReadingService{
		DB:               db,
		Predictor:        deps.Predictor,
		Cards:            deps.Cards,
		MaxQuestionRunes: cfg.MaxQuestionRunes,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}
	h := handlers.New(handlers.Services{
		Predictor:     deps.Predictor,
		Cards:         deps.Cards,
		Readings:      readings,
		Subscriptions: &services.SubscriptionService{DB: db},
		Codes:         services.NewCodeLedger(db, cfg.PremiumDurationDays),
		Admin:         &services.AdminService{DB: db},
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	verifier := telegram.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)

	api := groupWithPrefix(r, cfg.APIBasePath)

	if deps.Webhook != nil {
		api.POST("/telegram/webhook", gin.WrapH(deps.Webhook))
	}

	// Public
	public := api.Group("", rl.Handler())
	{
		public.GET("/cards", h.ListCards)
		public.POST("/predictions", h.Predict)
		public.GET("/readings/spreads", h.ListSpreads)
		public.POST("/subscription-codes/validate", h.ValidateCode)
	}

	// Telegram-authenticated
	user := api.Group("",
		middleware.TelegramAuth(verifier, identity),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)),
		rl.Handler(),
		middleware.NoStore(),
	)
	{
		user.POST("/auth/telegram", h.AuthTelegram)

		user.POST("/readings/daily", h.DrawDaily)
		user.GET("/readings/daily", h.TodayCard)
		user.POST("/readings/question", h.AskQuestion)
		user.POST("/readings/spread", h.DrawSpread)

		user.GET("/history", h.History)
		user.GET("/history/search", h.SearchHistory)

		user.GET("/subscription", h.CheckSubscription)
		user.POST("/subscription-codes/redeem", h.RedeemCode)
	}

	// Admin
	admin := api.Group("", rl.Handler(), middleware.AdminKey(cfg.AdminKey), middleware.NoStore())
	{
		admin.POST("/subscription-codes/generate", h.GenerateCodes)
		admin.GET("/subscription-codes/list", h.ListCodes)
		admin.GET("/subscription-codes/stats", h.CodeStats)
		admin.GET("/admin/stats", h.AdminStats)
		admin.POST("/admin/subscription", h.UpdateSubscription)
	}
}

// idempotencyLookup reports whether a live idempotency record exists.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID int64, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return rec != nil, nil
	}
}

var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderInitData, middleware.HeaderAdminKey, middleware.HeaderIdempotencyKey,
}

// useCORS installs gin-contrib/cors. An empty allowlist allows all origins.
func useCORS(r *gin.Engine, c config.CORSConfig) {
	base := cors.Config{
		AllowMethods:              []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:              corsHeaders,
		ExposeHeaders:             []string{"X-Request-ID", "X-Cache-Status", "ETag", "Retry-After", "Content-Length"},
		AllowCredentials:          false,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}

	if len(c.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = c.AllowedOrigins
	r.Use(cors.New(base))
}

// preflight answers any OPTIONS request with 200 and an empty body. CORS
// headers have already been written by the middleware before it.
func preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
