package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
	"github.com/Ramzec88/tarot-web-app/internal/repo"
	"github.com/Ramzec88/tarot-web-app/internal/services"
	"github.com/Ramzec88/tarot-web-app/internal/sysutil"
	"github.com/Ramzec88/tarot-web-app/internal/utils"
)

const (
	defaultCodePage = 50
	maxCodePage     = 200
)

// redeemMessages are shown to the user for each redemption outcome.
var redeemMessages = map[string]string{
	"":                      "Подписка активирована",
	services.ReasonNotFound: "Код не найден",
	services.ReasonUsed:     "Код уже использован",
	services.ReasonExpired:  "Срок действия кода истёк",
}

// SubscriptionResponse is the caller's premium status.
type SubscriptionResponse struct {
	Success bool `json:"success" example:"true"`
	services.SubscriptionStatus
}

// GenerateCodesRequest asks for a batch of codes.
type GenerateCodesRequest struct {
	Count            int `json:"count" example:"10"`
	ExpiresInDays    int `json:"expiresInDays,omitempty" example:"90"`
	SubscriptionDays int `json:"subscriptionDays,omitempty" example:"30"`
}

// GenerateCodesResponse lists freshly issued codes.
type GenerateCodesResponse struct {
	Success bool     `json:"success" example:"true"`
	Codes   []string `json:"codes"`
	Count   int      `json:"count"`
}

// CodeRequest names a code to check or redeem.
type CodeRequest struct {
	Code string `json:"code" example:"TAROT-AB12-CD34-EF56"`
}

// ValidateCodeResponse reports whether a code can be redeemed.
type ValidateCodeResponse struct {
	Success bool `json:"success" example:"true"`
	services.Validation
}

// RedeemResponse is the outcome of a redemption. Success is false for codes
// that cannot be used; Reason says why.
type RedeemResponse struct {
	services.Redemption
	Message string `json:"message"`
}

// CodeListResponse is a page of codes.
type CodeListResponse struct {
	Success bool                   `json:"success" example:"true"`
	Codes   []services.CodeSummary `json:"codes"`
	Count   int                    `json:"count"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// CodeStatsResponse summarizes the code ledger.
type CodeStatsResponse struct {
	Success bool               `json:"success" example:"true"`
	Stats   services.CodeStats `json:"stats"`
}

// AdminStatsResponse carries dashboard totals.
type AdminStatsResponse struct {
	Success bool        `json:"success" example:"true"`
	Stats   repo.Counts `json:"stats"`
}

// UpdateSubscriptionRequest sets or clears one user's subscription. A grant
// carries either days (from now) or expires_at; a revoke carries neither.
type UpdateSubscriptionRequest struct {
	TelegramID   int64      `json:"telegram_id"   example:"123456789"`
	IsSubscribed bool       `json:"is_subscribed" example:"true"`
	Days         int        `json:"days,omitempty" example:"30"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// UpdateSubscriptionResponse returns the stored profile after the update.
type UpdateSubscriptionResponse struct {
	Success     bool                `json:"success" example:"true"`
	UserProfile *domain.UserProfile `json:"user_profile"`
}

// CheckSubscription godoc
// @ID          checkSubscription
// @Summary     Subscription status
// @Description Reports whether the caller has an active premium subscription. An expired subscription is cleared on read.
// @Tags        Subscription
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string  true  "Telegram init data"
// @Success     200                   {object}  handlers.SubscriptionResponse
// @Failure     403                   {object}  handlers.ErrorResponse
// @Failure     404                   {object}  handlers.ErrorResponse
// @Router      /subscription [get]
func (h *Handlers) CheckSubscription(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	st, err := h.svc.Subscriptions.Check(c.Request.Context(), p.TelegramID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SubscriptionResponse{Success: true, SubscriptionStatus: st})
}

// GenerateCodes godoc
// @ID          generateCodes
// @Summary     Issue subscription codes
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Key  header    string                         true  "Admin key"
// @Param       body         body      handlers.GenerateCodesRequest  true  "Batch"
// @Success     201          {object}  handlers.GenerateCodesResponse
// @Failure     400          {object}  handlers.ErrorResponse
// @Failure     401          {object}  handlers.ErrorResponse
// @Router      /subscription-codes/generate [post]
func (h *Handlers) GenerateCodes(c *gin.Context) {
	var req GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	codes, err := h.svc.Codes.Generate(c.Request.Context(), services.GenerateOptions{
		Count:         req.Count,
		Days:          req.SubscriptionDays,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Int("count", len(codes)).Msg("subscription codes issued")
	ok(c, http.StatusCreated, GenerateCodesResponse{Success: true, Codes: codes, Count: len(codes)})
}

// ValidateCode godoc
// @ID          validateCode
// @Summary     Check a subscription code
// @Description Reports whether a code exists and can still be redeemed. Does not consume it.
// @Tags        Subscription
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CodeRequest  true  "Code"
// @Success     200   {object}  handlers.ValidateCodeResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /subscription-codes/validate [post]
func (h *Handlers) ValidateCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	v, err := h.svc.Codes.Validate(c.Request.Context(), req.Code)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ValidateCodeResponse{Success: true, Validation: v})
}

// RedeemCode godoc
// @ID          redeemCode
// @Summary     Redeem a subscription code
// @Description Consumes a code once and extends the caller's subscription by its duration.
// @Tags        Subscription
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string                true  "Telegram init data"
// @Param       body                  body      handlers.CodeRequest  true  "Code"
// @Success     200                   {object}  handlers.RedeemResponse
// @Failure     400                   {object}  handlers.ErrorResponse
// @Failure     403                   {object}  handlers.ErrorResponse
// @Router      /subscription-codes/redeem [post]
func (h *Handlers) RedeemCode(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Codes.Redeem(c.Request.Context(), req.Code, p.TelegramID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RedeemResponse{Redemption: res, Message: redeemMessages[res.Reason]})
}

// ListCodes godoc
// @ID          listCodes
// @Summary     List subscription codes
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Key  header    string  true   "Admin key"
// @Param       limit        query     int     false  "Page size (default 50, max 200)"
// @Param       offset       query     int     false  "Offset"
// @Param       used         query     bool    false  "Filter by usage"
// @Success     200          {object}  handlers.CodeListResponse
// @Failure     401          {object}  handlers.ErrorResponse
// @Router      /subscription-codes/list [get]
func (h *Handlers) ListCodes(c *gin.Context) {
	page := utils.ParsePage(c.Query("limit"), c.Query("offset"), defaultCodePage, maxCodePage)
	codes, err := h.svc.Codes.List(c.Request.Context(), services.ListFilter{
		Limit:  page.Limit,
		Offset: page.Offset,
		Used:   sysutil.OptionalBool(c.Query("used")),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if codes == nil {
		codes = []services.CodeSummary{}
	}
	ok(c, http.StatusOK, CodeListResponse{
		Success: true,
		Codes:   codes,
		Count:   len(codes),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

// CodeStats godoc
// @ID          codeStats
// @Summary     Subscription code totals
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Key  header    string  true  "Admin key"
// @Success     200          {object}  handlers.CodeStatsResponse
// @Failure     401          {object}  handlers.ErrorResponse
// @Router      /subscription-codes/stats [get]
func (h *Handlers) CodeStats(c *gin.Context) {
	st, err := h.svc.Codes.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CodeStatsResponse{Success: true, Stats: st})
}

// AdminStats godoc
// @ID          adminStats
// @Summary     Dashboard totals
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Key  header    string  true  "Admin key"
// @Success     200          {object}  handlers.AdminStatsResponse
// @Failure     401          {object}  handlers.ErrorResponse
// @Router      /admin/stats [get]
func (h *Handlers) AdminStats(c *gin.Context) {
	st, err := h.svc.Admin.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AdminStatsResponse{Success: true, Stats: st})
}

// UpdateSubscription godoc
// @ID          adminUpdateSubscription
// @Summary     Set or clear a user's subscription
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Key  header    string                                true  "Admin key"
// @Param       body         body      handlers.UpdateSubscriptionRequest    true  "Subscription override"
// @Success     200          {object}  handlers.UpdateSubscriptionResponse
// @Failure     400          {object}  handlers.ErrorResponse
// @Failure     401          {object}  handlers.ErrorResponse
// @Failure     404          {object}  handlers.ErrorResponse
// @Router      /admin/subscription [post]
func (h *Handlers) UpdateSubscription(c *gin.Context) {
	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.svc.Admin.UpdateSubscription(c.Request.Context(), services.SubscriptionUpdate{
		TelegramID:   req.TelegramID,
		IsSubscribed: req.IsSubscribed,
		Days:         req.Days,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().
		Int64("telegram_id", p.TelegramID).
		Bool("subscribed", p.IsSubscribed).
		Msg("subscription overridden")
	ok(c, http.StatusOK, UpdateSubscriptionResponse{Success: true, UserProfile: p})
}
