package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/internal/artifact"
	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/types"
)

const testModelJSON = `{
	"version": "2024-06-01",
	"feature_names": ["merchant", "category", "amt", "distance", "hour", "day", "month", "gender", "cc_num"],
	"base_score": 0,
	"trees": [
		{"nodes": [
			{"feature": 3, "threshold": 25.0, "left": 1, "right": 2},
			{"leaf": true, "value": -2.0},
			{"leaf": true, "value": 1.5}
		]},
		{"nodes": [
			{"feature": 2, "threshold": 500.0, "left": 1, "right": 2},
			{"leaf": true, "value": -0.5},
			{"leaf": true, "value": 1.0}
		]}
	]
}`

const testEncoderJSON = `{
	"version": "2024-06-01",
	"fields": {
		"merchant": {"shop_A": 0, "shop_B": 1},
		"category": {"grocery": 0, "travel": 1},
		"gender": {"Female": 0, "Male": 1}
	}
}`

func init() {
	logger.IsTest = true
}

func newTestPipeline(t *testing.T) *PipelineService {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	encoderPath := filepath.Join(dir, "encoder.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(testModelJSON), 0o600))
	require.NoError(t, os.WriteFile(encoderPath, []byte(testEncoderJSON), 0o600))

	store, err := artifact.Load(context.Background(), artifact.NewFileSource(), modelPath, encoderPath)
	require.NoError(t, err)
	return NewPipelineService(store, "")
}

// lowRiskTransaction is a cardholder buying groceries a few kilometers
// from home: short distance and small amount route to the low leaves of
// both trees.
func lowRiskTransaction() types.RawTransaction {
	return types.RawTransaction{
		Merchant:          "shop_A",
		Category:          "grocery",
		Amount:            decimal.NewFromFloat(50.00),
		Latitude:          40.7128,
		Longitude:         -74.0060,
		MerchantLatitude:  40.7589,
		MerchantLongitude: -73.9851,
		Hour:              12,
		Day:               15,
		Month:             6,
		Gender:            types.GenderMale,
		CardNumber:        "4111111111111111",
	}
}

func TestNewSubmissionValid(t *testing.T) {
	svc := newTestPipeline(t)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionReady, sub.State)
	assert.NotEmpty(t, sub.ID)
}

func TestNewSubmissionValidationFailure(t *testing.T) {
	svc := newTestPipeline(t)

	raw := lowRiskTransaction()
	raw.Merchant = "   "
	sub, err := svc.NewSubmission(raw)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ValidationError, appErr.Type)
	assert.Contains(t, appErr.Detail, "merchant must not be blank")

	// The submission never reaches Ready, so scoring is refused.
	assert.Equal(t, types.SubmissionCollecting, sub.State)
	_, err = svc.Score(context.Background(), sub)
	require.Error(t, err)
}

func TestDeriveFeatures(t *testing.T) {
	svc := newTestPipeline(t)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)

	features, err := svc.DeriveFeatures(sub)
	require.NoError(t, err)

	assert.Equal(t, 0, features.MerchantCode)
	assert.Equal(t, 0, features.CategoryCode)
	assert.InDelta(t, 50.00, features.Amount, 1e-9)
	assert.InDelta(t, 5.4152, features.DistanceKm, 0.005)
	assert.Equal(t, 12, features.Hour)
	assert.Equal(t, 15, features.Day)
	assert.Equal(t, 6, features.Month)
	assert.Equal(t, 1, features.GenderCode)
	assert.Equal(t, 58, features.CardBucket)
}

func TestDeriveFeaturesUnseenCategories(t *testing.T) {
	svc := newTestPipeline(t)

	raw := lowRiskTransaction()
	raw.Merchant = "shop_unknown"
	raw.Category = "entertainment"
	sub, err := svc.NewSubmission(raw)
	require.NoError(t, err)

	features, err := svc.DeriveFeatures(sub)
	require.NoError(t, err)
	assert.Equal(t, -1, features.MerchantCode)
	assert.Equal(t, -1, features.CategoryCode)
	assert.Equal(t, 1, features.GenderCode)
}

func TestScoreLowRisk(t *testing.T) {
	svc := newTestPipeline(t)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)

	verdict, err := svc.Score(context.Background(), sub)
	require.NoError(t, err)
	require.NotNil(t, verdict)

	// Leaf sum -2.0 + -0.5 = -2.5, sigmoid(-2.5) = 0.0758582.
	assert.False(t, verdict.IsFraud)
	assert.InDelta(t, 0.0758582, verdict.FraudProbability, 1e-6)
	assert.InDelta(t, 0.9241418, verdict.Confidence, 1e-6)
	assert.InDelta(t, 5.4152, verdict.DistanceKm, 0.005)
	assert.Equal(t, 58, verdict.CardBucket)
	assert.Equal(t, sub.ID, verdict.SubmissionID)
	assert.Equal(t, types.SubmissionScored, sub.State)
	assert.False(t, verdict.ScoredAt.IsZero())
}

func TestScoreHighRisk(t *testing.T) {
	svc := newTestPipeline(t)

	raw := lowRiskTransaction()
	// Card used across the country with an outsized amount.
	raw.MerchantLatitude = 34.0522
	raw.MerchantLongitude = -118.2437
	raw.Amount = decimal.NewFromFloat(900.00)
	sub, err := svc.NewSubmission(raw)
	require.NoError(t, err)

	verdict, err := svc.Score(context.Background(), sub)
	require.NoError(t, err)

	// Leaf sum 1.5 + 1.0 = 2.5, sigmoid(2.5) = 0.9241418.
	assert.True(t, verdict.IsFraud)
	assert.InDelta(t, 0.9241418, verdict.FraudProbability, 1e-6)
	assert.InDelta(t, 0.9241418, verdict.Confidence, 1e-6)
}

func TestScoreIsDeterministic(t *testing.T) {
	svc := newTestPipeline(t)

	first, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)
	v1, err := svc.Score(context.Background(), first)
	require.NoError(t, err)

	second, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)
	v2, err := svc.Score(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, v1.IsFraud, v2.IsFraud)
	assert.Equal(t, v1.Confidence, v2.Confidence)
	assert.Equal(t, v1.FraudProbability, v2.FraudProbability)
	assert.Equal(t, v1.DistanceKm, v2.DistanceKm)
	assert.Equal(t, v1.CardBucket, v2.CardBucket)
}

func TestScoreRejectsAlreadyScored(t *testing.T) {
	svc := newTestPipeline(t)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)
	_, err = svc.Score(context.Background(), sub)
	require.NoError(t, err)

	_, err = svc.Score(context.Background(), sub)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ValidationError, appErr.Type)
}

func TestScoreCancelledContext(t *testing.T) {
	svc := newTestPipeline(t)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Score(ctx, sub)
	assert.Error(t, err)
}

func TestUnavailablePipeline(t *testing.T) {
	svc := NewPipelineService(nil, "artifact load failed at startup")

	assert.False(t, svc.Available())

	status := svc.Status()
	assert.Equal(t, types.PipelineUnavailable, status.Status)
	assert.Equal(t, "artifact load failed at startup", status.Reason)

	sub, err := svc.NewSubmission(lowRiskTransaction())
	require.NoError(t, err)

	_, err = svc.Score(context.Background(), sub)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.PipelineUnavailableError, appErr.Type)
	assert.Equal(t, 503, appErr.GetHTTPStatus())
}

func TestStatusAvailable(t *testing.T) {
	svc := newTestPipeline(t)

	status := svc.Status()
	assert.Equal(t, types.PipelineAvailable, status.Status)
	assert.Equal(t, "2024-06-01", status.ModelVersion)
	assert.Equal(t, "1", status.SchemaVersion)
	assert.Equal(t, []string{"category", "gender", "merchant"}, status.EncoderFields)
	assert.Empty(t, status.Reason)
}
