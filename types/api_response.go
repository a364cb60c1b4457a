package types

import "time"

// StandardResponse is the unified response format for all API endpoints
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information
type ErrorInfo struct {
	Code    string                 `json:"code"`              // Machine-readable error code
	Message string                 `json:"message"`           // Human-readable error message
	Details map[string]interface{} `json:"details,omitempty"` // Additional error context
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// StatusResponse is a simple acknowledgement payload.
type StatusResponse struct {
	Status string `json:"status"`
}
