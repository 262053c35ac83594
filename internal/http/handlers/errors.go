// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries {success:false, error, code}. Clients branch on
// code; error is a short message safe to show to users. 5xx messages are
// generic and details only reach the logs.
//
// Example response:
//
//	{
//	  "success": false,
//	  "error": "No free questions left",
//	  "code": "no_questions_left",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "unavailable"

	// Domain-specific:
	ErrCodeNoQuestionsLeft  = "no_questions_left"
	ErrCodePremiumRequired  = "premium_required"
	ErrCodeCardsUnavailable = "cards_unavailable"
)

const msgInternal = "Internal server error"

// classify maps a service error onto an HTTP status, a code and a message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrMissingCards),
		errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrQuestionTooLong),
		errors.Is(err, services.ErrUnknownSpread),
		errors.Is(err, services.ErrSpreadCardCount),
		errors.Is(err, services.ErrEmptyQuery),
		errors.Is(err, services.ErrInvalidCount),
		errors.Is(err, services.ErrInvalidDays),
		errors.Is(err, services.ErrEmptyCode),
		errors.Is(err, services.ErrInvalidSubscription),
		errors.Is(err, services.ErrInvalidIdentity):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	case errors.Is(err, services.ErrNoQuestionsLeft):
		return http.StatusPaymentRequired, ErrCodeNoQuestionsLeft, "No free questions left"
	case errors.Is(err, services.ErrPremiumRequired):
		return http.StatusPaymentRequired, ErrCodePremiumRequired, "Premium subscription required"
	case errors.Is(err, services.ErrProfileNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Profile not found"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Not found"
	case errors.Is(err, cards.ErrNoCards):
		return http.StatusServiceUnavailable, ErrCodeCardsUnavailable, "Card catalog unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrCodeUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, msgInternal
	}
}
