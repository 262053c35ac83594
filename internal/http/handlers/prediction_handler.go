package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
	"github.com/Ramzec88/tarot-web-app/internal/prediction"
)

// PredictionRequest asks for an interpretation without storing it.
type PredictionRequest struct {
	TelegramID     int64           `json:"telegram_id" example:"42"`
	UserName       string          `json:"userName" example:"Anna"`
	Question       string          `json:"question" example:"Что меня ждёт?"`
	Type           string          `json:"type" example:"question" enums:"daily_card,question,clarifying_question,spread"`
	Cards          json.RawMessage `json:"cards" swaggertype:"array,object"`
	AdditionalData map[string]any  `json:"additionalData,omitempty"`
}

// PredictionResponse is a generated interpretation.
type PredictionResponse struct {
	Success    bool              `json:"success" example:"true"`
	Prediction string            `json:"prediction"`
	Source     prediction.Source `json:"source" example:"local"`
	Timestamp  string            `json:"timestamp" example:"2025-03-10T12:00:00Z"`
}

// Predict godoc
// @ID          predict
// @Summary     Generate a prediction
// @Description Calls the prediction webhook and falls back to local templates. Nothing is stored.
// @Tags        Predictions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.PredictionRequest  true  "Reading input"
// @Success     200   {object}  handlers.PredictionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing cards"
// @Router      /predictions [post]
func (h *Handlers) Predict(c *gin.Context) {
	var req PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cs, err := decodeCards(req.Cards)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if len(cs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cards are required")
		return
	}

	pred := h.svc.Predictor.Generate(c.Request.Context(), prediction.Request{
		TelegramID: req.TelegramID,
		UserName:   strings.TrimSpace(req.UserName),
		Question:   strings.TrimSpace(req.Question),
		Cards:      cs,
		Type:       domain.ReadingType(req.Type).Normalize(),
		Aux:        req.AdditionalData,
	})
	ok(c, http.StatusOK, PredictionResponse{
		Success:    true,
		Prediction: pred.Text,
		Source:     pred.Source,
		Timestamp:  h.timestamp(),
	})
}
