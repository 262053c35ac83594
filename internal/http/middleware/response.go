package middleware

import "github.com/gin-gonic/gin"

// ErrorBody is the error envelope shared by middleware and handlers.
type ErrorBody struct {
	Success bool `json:"success" example:"false"`
	// Short, human-readable message; generic for 5xx.
	Error string `json:"error" example:"Not found"`
	// Stable, machine-readable code.
	Code string `json:"code,omitempty" example:"not_found"`
	// Correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// Abort stops the chain and writes an ErrorBody with status.
func Abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: c.Writer.Header().Get(requestIDHeader),
	})
}
