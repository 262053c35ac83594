package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// DefaultTimeout bounds a webhook call when none is configured.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// Failure reasons reported by RemoteError.
const (
	ReasonTransport    = "transport"
	ReasonTimeout      = "timeout"
	ReasonStatus       = "status"
	ReasonDecode       = "decode"
	ReasonUnsuccessful = "unsuccessful"
	ReasonEmpty        = "empty"
)

// RemoteError describes why the webhook could not produce a prediction.
type RemoteError struct {
	Reason string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return "remote prediction: " + e.Reason
	}
	return fmt.Sprintf("remote prediction: %s: %v", e.Reason, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RemoteClient posts reading requests to a generation webhook. Each call is
// a single attempt bounded by Timeout.
type RemoteClient struct {
	URL     string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewRemoteClient returns a client for url; a non-positive timeout selects
// DefaultTimeout.
func NewRemoteClient(url string, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteClient{URL: url, Timeout: timeout, HTTP: &http.Client{}}
}

type webhookRequest struct {
	Action         string         `json:"action"`
	TelegramID     int64          `json:"telegram_id"`
	UserName       string         `json:"userName"`
	Question       string         `json:"question"`
	Type           string         `json:"type"`
	Cards          any            `json:"cards"`
	AdditionalData map[string]any `json:"additionalData"`
}

type webhookResponse struct {
	Success    any    `json:"success"`
	Prediction string `json:"prediction"`
}

// payloadCards sends a single card object for one-card readings and an
// ordered array for spreads and multi-card requests.
func payloadCards(t domain.ReadingType, cards []domain.Card) any {
	if len(cards) == 1 && t != domain.ReadingSpread {
		return cards[0]
	}
	if cards == nil {
		return []domain.Card{}
	}
	return cards
}

// Predict performs the webhook call.
func (c *RemoteClient) Predict(ctx context.Context, req Request) (string, error) {
	aux := req.Aux
	if aux == nil {
		aux = map[string]any{}
	}
	body, err := json.Marshal(webhookRequest{
		Action:         "generate_prediction",
		TelegramID:     req.TelegramID,
		UserName:       req.UserName,
		Question:       req.Question,
		Type:           string(req.Type),
		Cards:          payloadCards(req.Type, req.Cards),
		AdditionalData: aux,
	})
	if err != nil {
		return "", &RemoteError{Reason: ReasonTransport, Err: err}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", &RemoteError{Reason: ReasonTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &RemoteError{Reason: ReasonTimeout, Err: err}
		}
		return "", &RemoteError{Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return "", &RemoteError{Reason: ReasonStatus, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var out webhookResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &RemoteError{Reason: ReasonTimeout, Err: err}
		}
		return "", &RemoteError{Reason: ReasonDecode, Err: err}
	}
	if !truthy(out.Success) {
		return "", &RemoteError{Reason: ReasonUnsuccessful}
	}
	text := strings.TrimSpace(out.Prediction)
	if text == "" {
		return "", &RemoteError{Reason: ReasonEmpty}
	}
	return text, nil
}

// truthy follows JSON-client conventions for a success flag.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case nil:
		return false
	default:
		return true
	}
}
