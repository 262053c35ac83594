// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates callers. TelegramAuth verifies the Mini App init
// data and resolves the caller's profile; AdminKey guards code management
// with a shared secret.
package middleware

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/sysutil"
	"github.com/Ramzec88/tarot-web-app/internal/telegram"
)

const (
	// HeaderInitData carries the raw Telegram WebApp init data.
	HeaderInitData = "X-Telegram-Init-Data"
	// HeaderAdminKey carries the admin secret.
	HeaderAdminKey = "X-Admin-Key"

	ctxKeyUserID  = "userID"
	ctxKeyProfile = "profile"

	// maxPeekBytes bounds how much of a JSON body is inspected for
	// credentials; the body itself is restored untouched.
	maxPeekBytes = 64 << 10
)

// Authenticator verifies raw init data and returns the embedded identity.
type Authenticator interface {
	Authenticate(raw string) (telegram.Identity, error)
}

// ProfileResolver maps a verified identity to its stored profile.
type ProfileResolver interface {
	ResolveOrCreate(ctx context.Context, id telegram.Identity) (*domain.UserProfile, error)
}

// UserID returns the authenticated Telegram user id.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id != 0
}

// Profile returns the profile resolved by TelegramAuth, or nil.
func Profile(c *gin.Context) *domain.UserProfile {
	v, ok := c.Get(ctxKeyProfile)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.UserProfile)
	return p
}

// credentials holds the credential fields a JSON body may carry.
type credentials struct {
	InitData string `json:"initData"`
	AdminKey string `json:"admin_key"`
}

// bodyCredentials reads credential fields from a JSON body and restores
// the body for the handler.
func bodyCredentials(c *gin.Context) credentials {
	var out credentials
	r := c.Request
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return out
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "json") {
		return out
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes+1))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil || len(raw) > maxPeekBytes {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// TelegramAuth verifies init data taken from the X-Telegram-Init-Data
// header, the initData query parameter, or the initData JSON field, then
// resolves (creating on first contact) the caller's profile.
//
// Missing init data is a 400, a failed verification is a 403 and a storage
// failure is a generic 500.
func TelegramAuth(auth Authenticator, profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sysutil.FirstNonEmpty(
			c.GetHeader(HeaderInitData),
			c.Query("initData"),
		)
		if raw == "" {
			raw = bodyCredentials(c).InitData
		}
		if strings.TrimSpace(raw) == "" {
			Abort(c, http.StatusBadRequest, "bad_request", "initData is required")
			return
		}

		id, err := auth.Authenticate(raw)
		switch {
		case err == nil:
		case errors.Is(err, telegram.ErrMissingInitData):
			Abort(c, http.StatusBadRequest, "bad_request", "initData is required")
			return
		default:
			LoggerFrom(c).Warn().Err(err).Msg("telegram auth rejected")
			Abort(c, http.StatusForbidden, "forbidden", "Invalid Telegram signature")
			return
		}

		p, err := profiles.ResolveOrCreate(c.Request.Context(), id)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Int64("telegram_id", id.ID).Msg("resolve profile")
			Abort(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		c.Set(ctxKeyUserID, id.ID)
		c.Set(ctxKeyProfile, p)
		c.Next()
	}
}

// AdminKey admits requests carrying the configured key in the X-Admin-Key
// header, the admin_key query parameter, or the admin_key JSON field. An
// empty configured key rejects every request.
func AdminKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := sysutil.FirstNonEmpty(
			c.GetHeader(HeaderAdminKey),
			c.Query("admin_key"),
		)
		if got == "" {
			got = bodyCredentials(c).AdminKey
		}
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		c.Next()
	}
}
