package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// AuthRequest carries raw Telegram WebApp init data.
type AuthRequest struct {
	InitData string `json:"initData" example:"query_id=AAH...&user=%7B%22id%22%3A42%7D&auth_date=1700000000&hash=..."`
}

// AuthResponse is returned after a successful Telegram authentication.
type AuthResponse struct {
	Success     bool                `json:"success" example:"true"`
	UserProfile *domain.UserProfile `json:"user_profile"`
	Premium     bool                `json:"premium"`
}

// AuthTelegram godoc
// @ID          authTelegram
// @Summary     Authenticate a Mini App user
// @Description Verifies Telegram init data and returns the caller's profile, creating it on first contact.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.AuthRequest  true  "Init data"
// @Success     200   {object}  handlers.AuthResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing initData"
// @Failure     403   {object}  handlers.ErrorResponse  "Invalid Telegram signature"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/telegram [post]
func (h *Handlers) AuthTelegram(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	ok(c, http.StatusOK, AuthResponse{
		Success:     true,
		UserProfile: p,
		Premium:     p.IsPremium(h.now()),
	})
}
