package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/logger"
)

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"` // HTTP status code as string
}

// ErrorHandler converts errors attached to the gin context into JSON
// responses. Handlers record failures with c.Error and this middleware
// maps the last one to a status code and body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// Handle AppError
		if appError, ok := err.(*errors.AppError); ok {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			response := ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Code:    strconv.Itoa(statusCode),
			}

			// Only surface details for client errors or in debug mode
			if appError.Detail != "" && (gin.IsDebugging() ||
				appError.Type == errors.ValidationError ||
				appError.Type == errors.NotFoundError ||
				appError.Type == errors.PipelineUnavailableError) {
				response.Details = appError.Detail
			}

			c.JSON(statusCode, response)
			return
		}

		// Handle Gin binding errors
		if c.Errors.Last().Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, 400, "Request binding error")

			response := ErrorResponse{
				Type:    string(errors.ValidationError),
				Message: "Failed to bind request",
				Code:    "400",
			}
			if gin.IsDebugging() {
				response.Details = err.Error()
			}

			c.JSON(400, response)
			return
		}

		// Handle unknown errors
		logger.LogHTTPError(c, err, 500, "Unexpected server error")

		response := ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal Server Error",
			Code:    "500",
		}
		if gin.IsDebugging() {
			response.Details = err.Error()
		}

		c.JSON(500, response)
	}
}
