// Package services defines the business logic for profiles, readings, and
// subscription codes. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrPersistence wraps any storage failure. Handlers answer 500 with a
	// generic message and log the wrapped cause.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidIdentity is returned when an identity carries no Telegram id.
	ErrInvalidIdentity = errors.New("invalid telegram identity")

	// ErrProfileNotFound indicates that no profile exists for the Telegram id.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidSubscription is returned for an admin subscription update
	// that grants without a future expiry, or revokes with one.
	ErrInvalidSubscription = errors.New("grant needs days or a future expires_at; revoke takes neither")
)

// Code ledger errors.
var (
	// ErrInvalidCount is returned when a generation request asks for fewer
	// than 1 or more than MaxGenerate codes.
	ErrInvalidCount = errors.New("count must be between 1 and 100")

	// ErrInvalidDays is returned for a non-positive duration or expiry.
	ErrInvalidDays = errors.New("days must be positive")

	// ErrEmptyCode is returned when a code is blank after trimming.
	ErrEmptyCode = errors.New("code is required")

	// ErrCodeCollision is returned when a fresh code keeps colliding with
	// existing ones after every retry.
	ErrCodeCollision = errors.New("could not generate a unique code")
)

// Reading errors.
var (
	// ErrMissingCards is returned when a reading has no cards.
	ErrMissingCards = errors.New("cards are required")

	// ErrEmptyQuestion is returned when a question reading has no text.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrQuestionTooLong is returned when the question exceeds the configured
	// rune limit.
	ErrQuestionTooLong = errors.New("question too long")

	// ErrNoQuestionsLeft is returned when a free user has used every free
	// question.
	ErrNoQuestionsLeft = errors.New("no free questions left")

	// ErrPremiumRequired is returned for premium-only spreads.
	ErrPremiumRequired = errors.New("premium subscription required")

	// ErrUnknownSpread is returned for a spread name that is not defined.
	ErrUnknownSpread = errors.New("unknown spread")

	// ErrSpreadCardCount is returned when the supplied cards do not match the
	// spread's positions.
	ErrSpreadCardCount = errors.New("card count does not match spread positions")

	// ErrNotFound indicates that a requested reading does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyQuery is returned by history search for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
)
