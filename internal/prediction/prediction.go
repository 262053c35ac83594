// Package prediction turns drawn cards into reading text. A remote webhook
// is tried first; any failure there falls back to local templates, so
// Generate always produces a reading.
package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/observability"
)

// Source tells where a prediction text came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Request is the input of a reading.
type Request struct {
	TelegramID int64
	UserName   string
	Question   string
	Cards      []domain.Card
	Type       domain.ReadingType
	// Aux carries type-specific extras such as originalQuestion or positions.
	Aux map[string]any
}

// Prediction is the typed result of Generate.
type Prediction struct {
	Text   string `json:"prediction"`
	Source Source `json:"source"`
}

// Remote produces prediction text from an external service.
type Remote interface {
	Predict(ctx context.Context, req Request) (string, error)
}

// Generator runs the remote stage, then the local stage.
type Generator struct {
	Remote Remote
	Local  *Local
}

// NewGenerator wires a webhook client when webhookURL is set; otherwise
// only local templates are used.
func NewGenerator(webhookURL string, timeout time.Duration, local *Local) *Generator {
	g := &Generator{Local: local}
	if webhookURL != "" {
		g.Remote = NewRemoteClient(webhookURL, timeout)
	}
	if g.Local == nil {
		g.Local = NewLocal(time.Now().UnixNano())
	}
	return g
}

// Generate returns reading text for req. It never fails.
func (g *Generator) Generate(ctx context.Context, req Request) Prediction {
	req.Type = req.Type.Normalize()

	ctx, span := otel.Tracer("prediction/Generator").Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("reading.type", string(req.Type)),
			attribute.Int("cards", len(req.Cards)),
		),
	)
	defer span.End()

	if g.Remote != nil {
		text, err := g.Remote.Predict(ctx, req)
		if err == nil {
			observability.Predictions.WithLabelValues(string(SourceRemote)).Inc()
			span.SetAttributes(attribute.String("prediction.source", string(SourceRemote)))
			return Prediction{Text: text, Source: SourceRemote}
		}
		reason := "unknown"
		var re *RemoteError
		if errors.As(err, &re) {
			reason = re.Reason
		}
		observability.RemoteFailures.WithLabelValues(reason).Inc()
		log.Warn().Err(err).
			Str("reason", reason).
			Str("type", string(req.Type)).
			Int64("telegram_id", req.TelegramID).
			Msg("remote prediction failed, using local templates")
	}

	local := g.Local
	if local == nil {
		local = NewLocal(time.Now().UnixNano())
	}
	observability.Predictions.WithLabelValues(string(SourceLocal)).Inc()
	span.SetAttributes(attribute.String("prediction.source", string(SourceLocal)))
	return Prediction{Text: local.Render(req), Source: SourceLocal}
}
