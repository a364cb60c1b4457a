package handlers

import (
	"context"

	"github.com/fraudshield/fraudshield-backend/services"
	"github.com/fraudshield/fraudshield-backend/types"
)

// PipelineServiceInterface defines the pipeline methods needed by handlers
type PipelineServiceInterface interface {
	NewSubmission(raw types.RawTransaction) (*services.Submission, error)
	Score(ctx context.Context, sub *services.Submission) (*types.Verdict, error)
	Status() types.PipelineStatus
	Available() bool
}
