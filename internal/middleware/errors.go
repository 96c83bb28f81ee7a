package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/domain/dto"
	"github.com/guttosm/spimexpulse/internal/logger"
)

// ErrorHandler converts errors attached with c.Error into a 500 JSON body
// when the handler chain did not write a response itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err
	rid, _ := c.Get(RequestIDKey)
	logger.L().Error().
		Str("request_id", toString(rid)).
		Str("path", c.Request.URL.Path).
		Err(err).
		Msg("unhandled request error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}

// AbortWithError stops the chain and writes a dto.ErrorResponse with status.
// The error is also attached to the context so RequestLogger and ErrorHandler see it.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	if status >= http.StatusInternalServerError {
		rid, _ := c.Get(RequestIDKey)
		logger.L().Error().
			Str("request_id", toString(rid)).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Err(err).
			Msg(message)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
