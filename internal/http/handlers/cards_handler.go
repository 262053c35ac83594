package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/cards"
	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// Cache status values reported in X-Cache-Status.
const (
	cacheHit   = "HIT"
	cacheMiss  = "MISS"
	cacheStale = "STALE"
)

// CardsResponse lists the card catalog.
type CardsResponse struct {
	Success   bool          `json:"success" example:"true"`
	Cards     []domain.Card `json:"cards"`
	Source    cards.Source  `json:"source" example:"local"`
	Count     int           `json:"count" example:"6"`
	Cached    bool          `json:"cached"`
	Stale     bool          `json:"stale,omitempty"`
	Timestamp string        `json:"timestamp" example:"2025-03-10T12:00:00Z"`
}

// ListCards godoc
// @ID          listCards
// @Summary     Card catalog
// @Description Returns the cached card catalog (local file, remote URL or built-in fallback).
// @Tags        Cards
// @Produce     json
// @Success     200  {object}  handlers.CardsResponse
// @Header      200  {string}  X-Cache-Status  "HIT, MISS or STALE"
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog unavailable"
// @Router      /cards [get]
func (h *Handlers) ListCards(c *gin.Context) {
	snap, err := h.svc.Cards.Get(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}

	status := cacheMiss
	switch {
	case snap.Stale:
		status = cacheStale
	case snap.Cached:
		status = cacheHit
	}
	c.Header("X-Cache-Status", status)
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(h.svc.Cards.TTL().Seconds())))

	ok(c, http.StatusOK, CardsResponse{
		Success:   true,
		Cards:     snap.Cards,
		Source:    snap.Source,
		Count:     len(snap.Cards),
		Cached:    snap.Cached,
		Stale:     snap.Stale,
		Timestamp: h.timestamp(),
	})
}
