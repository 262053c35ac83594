package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ReasonCircuitOpen is reported while the breaker skips the webhook.
const ReasonCircuitOpen = "circuit_open"

// Breaker stops calling a failing webhook for a cooldown period. It never
// retries; an open breaker fails fast so Generate goes straight to the
// local templates.
type Breaker struct {
	next Remote
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. The breaker opens after maxFailures consecutive
// failures and lets a single trial request through after cooldown.
func NewBreaker(next Remote, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "prediction-webhook",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(maxFailures)
			},
			// A caller that gave up says nothing about the webhook.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

// State returns the current breaker state, for tests and diagnostics.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Predict calls the wrapped webhook unless the breaker is open.
func (b *Breaker) Predict(ctx context.Context, req Request) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Predict(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &RemoteError{Reason: ReasonCircuitOpen, Err: err}
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// WithBreaker guards the remote stage with a circuit breaker. It is a no-op
// when no webhook is configured or maxFailures is zero.
func (g *Generator) WithBreaker(maxFailures int, cooldown time.Duration) *Generator {
	if g.Remote != nil && maxFailures > 0 {
		g.Remote = NewBreaker(g.Remote, maxFailures, cooldown)
	}
	return g
}
