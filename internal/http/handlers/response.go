// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints. Success
// bodies always carry "success": true; failures go through fail(), which
// logs server errors with the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse = middleware.ErrorBody

// fail aborts the request with a structured error. Server errors (>=500) are
// logged using the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	middleware.Abort(c, status, code, msg)
}

// Fail is the exported variant of fail() for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr classifies err and aborts with the matching envelope. The cause is
// recorded on the gin context so the access log carries it; it never reaches
// the client for 5xx.
func failErr(c *gin.Context, err error) {
	status, code, msg := classify(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Int("status", status).Msg("request failed")
	}
	middleware.Abort(c, status, code, msg)
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
