package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/types"
)

// TransactionHandler handles transaction scoring API requests
type TransactionHandler struct {
	pipeline PipelineServiceInterface
	log      *zap.SugaredLogger
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(pipeline PipelineServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		pipeline: pipeline,
		log:      logger.GetLogger(),
	}
}

// ScoreTransaction handles requests to score a transaction for fraud.
// Validation failures never reach the classifier: the submission stays in
// its collecting state and the client gets a field-level error back.
func (h *TransactionHandler) ScoreTransaction(c *gin.Context) {
	var raw types.RawTransaction
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.log.Warnw("ScoreTransaction: invalid request body", "error", err)
		_ = c.Error(apperrors.ValidationFailed("Invalid request format", err.Error()))
		return
	}

	sub, err := h.pipeline.NewSubmission(raw)
	if err != nil {
		_ = c.Error(err)
		return
	}

	verdict, err := h.pipeline.Score(c.Request.Context(), sub)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, types.StandardResponse{
		Success: true,
		Data:    verdict,
	})
}

// PipelineStatus reports whether scoring is available along with the
// loaded artifact versions. Clients use it to disable the check action
// while the pipeline is degraded.
func (h *TransactionHandler) PipelineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, types.StandardResponse{
		Success: true,
		Data:    h.pipeline.Status(),
	})
}
