package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.IsTest = true
}

func performRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerValidationError(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		c.Error(apperrors.ValidationFailed("Please fill all required fields", "merchant must not be blank"))
	})

	w := performRequest(r, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ValidationError), resp.Type)
	assert.Equal(t, "Please fill all required fields", resp.Message)
	assert.Equal(t, "merchant must not be blank", resp.Details)
	assert.Equal(t, "400", resp.Code)
}

func TestErrorHandlerPipelineUnavailable(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/score", func(c *gin.Context) {
		c.Error(apperrors.PipelineUnavailable("model artifact missing"))
	})

	w := performRequest(r, http.MethodGet, "/score")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.PipelineUnavailableError), resp.Type)
	assert.Equal(t, "model artifact missing", resp.Details)
}

func TestErrorHandlerUnknownError(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w := performRequest(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ServerError), resp.Type)
	assert.Equal(t, "Internal Server Error", resp.Message)
}

func TestErrorHandlerNoError(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := performRequest(r, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
