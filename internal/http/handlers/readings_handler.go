package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/http/middleware"
	"github.com/Ramzec88/tarot-web-app/internal/services"
	"github.com/Ramzec88/tarot-web-app/internal/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultSearchK      = 10
	maxSearchK          = 50
)

// DailyRequest optionally pins the drawn card; otherwise the server draws.
type DailyRequest struct {
	Card json.RawMessage `json:"card,omitempty" swaggertype:"object"`
}

// QuestionRequest submits a question reading.
type QuestionRequest struct {
	Question       string          `json:"question" example:"Стоит ли менять работу?"`
	Type           string          `json:"type,omitempty" example:"question" enums:"question,clarifying_question"`
	Cards          json.RawMessage `json:"cards" swaggertype:"array,object"`
	AdditionalData map[string]any  `json:"additionalData,omitempty"`
}

// SpreadRequest submits a named spread.
type SpreadRequest struct {
	Spread   string          `json:"spread" example:"love"`
	Question string          `json:"question,omitempty"`
	Cards    json.RawMessage `json:"cards,omitempty" swaggertype:"array,object"`
}

// ReadingResponse wraps a stored reading.
type ReadingResponse struct {
	Success  bool              `json:"success" example:"true"`
	Reading  *services.Reading `json:"reading"`
	Replayed bool              `json:"replayed,omitempty"`
}

// TodayResponse reports today's daily card, if any.
type TodayResponse struct {
	Success bool              `json:"success" example:"true"`
	Found   bool              `json:"found"`
	Reading *services.Reading `json:"reading,omitempty"`
}

// SpreadsResponse lists the spread layouts.
type SpreadsResponse struct {
	Success bool                 `json:"success" example:"true"`
	Spreads []services.SpreadDef `json:"spreads"`
}

// HistoryResponse is the caller's merged history.
type HistoryResponse struct {
	Success bool                    `json:"success" example:"true"`
	History []services.HistoryEntry `json:"history"`
	Count   int                     `json:"count"`
}

// SearchHit is one ranked history match.
type SearchHit struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Snippet string    `json:"snippet"`
	At      time.Time `json:"at"`
	Score   float64   `json:"score"`
}

// SearchResponse lists ranked history matches.
type SearchResponse struct {
	Success bool        `json:"success" example:"true"`
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// DrawDaily godoc
// @ID          drawDaily
// @Summary     Draw today's card
// @Description Stores the card of the day for the caller, replacing an earlier draw of the same UTC day. Does not spend a free question.
// @Tags        Readings
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string                 true   "Telegram init data"
// @Param       body                  body      handlers.DailyRequest  false  "Optional card"
// @Success     200                   {object}  handlers.ReadingResponse
// @Failure     400                   {object}  handlers.ErrorResponse
// @Failure     403                   {object}  handlers.ErrorResponse
// @Failure     503                   {object}  handlers.ErrorResponse  "Card catalog unavailable"
// @Router      /readings/daily [post]
func (h *Handlers) DrawDaily(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}

	var req DailyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	var card *domain.Card
	if cs, err := decodeCards(req.Card); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	} else if len(cs) > 0 {
		card = &cs[0]
	}

	r, err := h.svc.Readings.DrawDaily(c.Request.Context(), p, card)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReadingResponse{Success: true, Reading: r})
}

// TodayCard godoc
// @ID          todayCard
// @Summary     Today's card
// @Tags        Readings
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string  true  "Telegram init data"
// @Success     200                   {object}  handlers.TodayResponse
// @Failure     403                   {object}  handlers.ErrorResponse
// @Router      /readings/daily [get]
func (h *Handlers) TodayCard(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	r, err := h.svc.Readings.TodayCard(c.Request.Context(), p.TelegramID)
	if errors.Is(err, services.ErrNotFound) {
		ok(c, http.StatusOK, TodayResponse{Success: true})
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, TodayResponse{Success: true, Found: true, Reading: r})
}

// AskQuestion godoc
// @ID          askQuestion
// @Summary     Ask a question
// @Description Interprets the cards for a question. Free users spend one free question; premium users spend none. A repeated Idempotency-Key replays the stored reading.
// @Tags        Readings
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string                    true   "Telegram init data"
// @Param       Idempotency-Key       header    string                    false  "Retry key"
// @Param       body                  body      handlers.QuestionRequest  true   "Question"
// @Success     201                   {object}  handlers.ReadingResponse
// @Success     200                   {object}  handlers.ReadingResponse  "Replayed"
// @Failure     400                   {object}  handlers.ErrorResponse
// @Failure     402                   {object}  handlers.ErrorResponse  "No free questions left"
// @Failure     403                   {object}  handlers.ErrorResponse
// @Failure     429                   {object}  handlers.ErrorResponse
// @Router      /readings/question [post]
func (h *Handlers) AskQuestion(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cs, err := decodeCards(req.Cards)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	r, replayed, err := h.svc.Readings.Ask(c.Request.Context(), p, services.AskRequest{
		Question:       req.Question,
		Cards:          cs,
		Type:           domain.ReadingType(req.Type),
		Aux:            req.AdditionalData,
		IdempotencyKey: key,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	ok(c, status, ReadingResponse{Success: true, Reading: r, Replayed: replayed})
}

// DrawSpread godoc
// @ID          drawSpread
// @Summary     Draw a spread
// @Description Draws a named spread. Cards are drawn from the catalog when omitted. Premium spreads need an active subscription.
// @Tags        Readings
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string                  true   "Telegram init data"
// @Param       Idempotency-Key       header    string                  false  "Retry key"
// @Param       body                  body      handlers.SpreadRequest  true   "Spread"
// @Success     201                   {object}  handlers.ReadingResponse
// @Success     200                   {object}  handlers.ReadingResponse  "Replayed"
// @Failure     400                   {object}  handlers.ErrorResponse
// @Failure     402                   {object}  handlers.ErrorResponse  "Premium subscription required"
// @Failure     403                   {object}  handlers.ErrorResponse
// @Router      /readings/spread [post]
func (h *Handlers) DrawSpread(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	var req SpreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cs, err := decodeCards(req.Cards)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	r, replayed, err := h.svc.Readings.Spread(c.Request.Context(), p, services.SpreadRequest{
		Name:           req.Spread,
		Question:       req.Question,
		Cards:          cs,
		IdempotencyKey: key,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	ok(c, status, ReadingResponse{Success: true, Reading: r, Replayed: replayed})
}

// ListSpreads godoc
// @ID          listSpreads
// @Summary     Spread layouts
// @Tags        Readings
// @Produce     json
// @Success     200  {object}  handlers.SpreadsResponse
// @Router      /readings/spreads [get]
func (h *Handlers) ListSpreads(c *gin.Context) {
	ok(c, http.StatusOK, SpreadsResponse{Success: true, Spreads: services.Spreads()})
}

// History godoc
// @ID          history
// @Summary     Reading history
// @Description Daily cards, questions and spreads of the caller, newest first. Supports conditional GET via ETag.
// @Tags        History
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string  true   "Telegram init data"
// @Param       If-None-Match         header    string  false  "Previous ETag"
// @Param       limit                 query     int     false  "Max entries (default 20, max 100)"
// @Success     200                   {object}  handlers.HistoryResponse
// @Success     304                   "Not modified"
// @Failure     403                   {object}  handlers.ErrorResponse
// @Router      /history [get]
func (h *Handlers) History(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	ctx := c.Request.Context()

	etag, err := h.svc.Readings.HistoryVersion(ctx, p.TelegramID)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && strings.TrimSpace(match) == etag {
		c.Status(http.StatusNotModified)
		return
	}

	page := utils.ParsePage(c.Query("limit"), "", defaultHistoryLimit, maxHistoryLimit)
	entries, err := h.svc.Readings.History(ctx, p.TelegramID, page.Limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if entries == nil {
		entries = []services.HistoryEntry{}
	}
	ok(c, http.StatusOK, HistoryResponse{Success: true, History: entries, Count: len(entries)})
}

// SearchHistory godoc
// @ID          searchHistory
// @Summary     Search history
// @Description Ranks the caller's history against a free-text query.
// @Tags        History
// @Produce     json
// @Param       X-Telegram-Init-Data  header    string  true   "Telegram init data"
// @Param       q                     query     string  true   "Query"
// @Param       k                     query     int     false  "Max results (default 10, max 50)"
// @Success     200                   {object}  handlers.SearchResponse
// @Failure     400                   {object}  handlers.ErrorResponse
// @Failure     403                   {object}  handlers.ErrorResponse
// @Router      /history/search [get]
func (h *Handlers) SearchHistory(c *gin.Context) {
	p, found := caller(c)
	if !found {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Invalid Telegram signature")
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	k := utils.ParsePage(c.Query("k"), "", defaultSearchK, maxSearchK).Limit

	res, err := h.svc.Readings.SearchHistory(c.Request.Context(), p.TelegramID, q, k)
	if err != nil {
		failErr(c, err)
		return
	}
	hits := make([]SearchHit, 0, len(res))
	for _, r := range res {
		hits = append(hits, SearchHit{ID: r.ID, Kind: r.Kind, Snippet: r.Snippet, At: r.At, Score: r.Score})
	}
	ok(c, http.StatusOK, SearchResponse{Success: true, Query: q, Results: hits})
}
