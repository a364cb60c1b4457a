// Package logger provides logging utilities for the application.
package logger

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogError logs a detailed error with contextual metadata fields.
func LogError(err error, message string, metadata map[string]interface{}) {
	log := GetLogger()

	fields := make([]zap.Field, 0, len(metadata)+1)
	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
	}
	for k, v := range metadata {
		fields = append(fields, zap.Any(k, v))
	}

	log.Desugar().Error(message, fields...)
}

// LogHTTPError logs an HTTP request error with context from a gin.Context
func LogHTTPError(c *gin.Context, err error, statusCode int, message string) {
	requestID, _ := c.Get("request_id")

	metadata := map[string]interface{}{
		"status_code": statusCode,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"client_ip":   c.ClientIP(),
		"headers":     filterSensitiveHeaders(c.Request.Header),
	}

	if requestID != nil {
		metadata["request_id"] = requestID
	}

	LogError(err, message, metadata)
}

// filterSensitiveHeaders removes sensitive information from headers before logging
func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string)

	for name, values := range headers {
		// Skip sensitive headers entirely
		if strings.EqualFold(name, "Authorization") ||
			strings.EqualFold(name, "Cookie") ||
			strings.Contains(strings.ToLower(name), "token") ||
			strings.Contains(strings.ToLower(name), "key") ||
			strings.Contains(strings.ToLower(name), "secret") {
			filtered[name] = "[REDACTED]"
			continue
		}

		if len(values) > 0 {
			filtered[name] = values[0]
		}
	}

	return filtered
}
