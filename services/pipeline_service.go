package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/internal/artifact"
	"github.com/fraudshield/fraudshield-backend/internal/cardbucket"
	"github.com/fraudshield/fraudshield-backend/internal/encoder"
	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/pkg/valueobjects"
	"github.com/fraudshield/fraudshield-backend/types"
)

// Submission is one pass of a raw transaction through the pipeline. It
// tracks the Collecting -> Ready -> Scored lifecycle; there is no back
// transition, a new submission restarts the cycle.
type Submission struct {
	ID          string
	Transaction types.RawTransaction
	State       types.SubmissionState
}

// pipelineMetrics holds the Prometheus instruments for the scoring path.
type pipelineMetrics struct {
	verdicts           *prometheus.CounterVec
	scoringDuration    prometheus.Histogram
	unknownCategories  *prometheus.CounterVec
	validationFailures prometheus.Counter
}

// Singleton pattern for metrics (avoid double registration in tests).
var (
	plMetricsInstance *pipelineMetrics
	plMetricsOnce     sync.Once
	plDefaultRegistry = prometheus.DefaultRegisterer
)

func newPipelineMetrics() *pipelineMetrics {
	plMetricsOnce.Do(func() {
		plMetricsInstance = &pipelineMetrics{
			verdicts: promauto.With(plDefaultRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "fraud_pipeline_verdicts_total",
				Help: "Total number of scored submissions by verdict label",
			}, []string{"label"}),
			scoringDuration: promauto.With(plDefaultRegistry).NewHistogram(prometheus.HistogramOpts{
				Name:    "fraud_pipeline_scoring_duration_seconds",
				Help:    "Time spent deriving features and running inference",
				Buckets: prometheus.DefBuckets,
			}),
			unknownCategories: promauto.With(plDefaultRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "fraud_pipeline_unknown_category_total",
				Help: "Total number of categorical values that fell back to the sentinel code",
			}, []string{"field"}),
			validationFailures: promauto.With(plDefaultRegistry).NewCounter(prometheus.CounterOpts{
				Name: "fraud_pipeline_validation_failures_total",
				Help: "Total number of submissions rejected before scoring",
			}),
		}
	})
	return plMetricsInstance
}

// PipelineService is the transaction risk pipeline orchestrator: it turns a
// validated submission into a feature vector and a verdict. The artifact
// store is immutable after construction, so a single instance safely serves
// concurrent requests.
type PipelineService struct {
	store   *artifact.Store
	downFor string // reason scoring is unavailable when store is nil
	metrics *pipelineMetrics
}

// NewPipelineService builds the pipeline around a loaded artifact store.
// Pass nil with a reason when artifact loading failed at startup: the
// pipeline then stays up but refuses scoring until restart.
func NewPipelineService(store *artifact.Store, unavailableReason string) *PipelineService {
	return &PipelineService{
		store:   store,
		downFor: unavailableReason,
		metrics: newPipelineMetrics(),
	}
}

// Available reports whether scoring is possible.
func (s *PipelineService) Available() bool {
	return s.store != nil
}

// Status describes the pipeline for the display layer, which disables the
// check action while scoring is unavailable.
func (s *PipelineService) Status() types.PipelineStatus {
	if s.store == nil {
		return types.PipelineStatus{
			Status: types.PipelineUnavailable,
			Reason: s.downFor,
		}
	}
	return types.PipelineStatus{
		Status:        types.PipelineAvailable,
		ModelVersion:  s.store.ModelVersion(),
		SchemaVersion: s.store.Schema().Version,
		EncoderFields: s.store.EncoderFields(),
	}
}

// NewSubmission validates a raw transaction and transitions it from
// Collecting to Ready. A validation failure returns the submission still in
// Collecting along with a ValidationError; the classifier is never invoked
// for it.
func (s *PipelineService) NewSubmission(raw types.RawTransaction) (*Submission, error) {
	sub := &Submission{
		ID:          uuid.New().String(),
		Transaction: raw,
		State:       types.SubmissionCollecting,
	}

	if problems := raw.Validate(); len(problems) > 0 {
		s.metrics.validationFailures.Inc()
		details := ""
		for i, p := range problems {
			if i > 0 {
				details += "; "
			}
			details += p
		}
		return sub, apperrors.ValidationFailed("Please fill all required fields", details)
	}

	sub.State = types.SubmissionReady
	return sub, nil
}

// DeriveFeatures computes the model-ready feature vector for a Ready
// submission. Unseen categorical values degrade silently to the sentinel
// code; the fallback is observable only through metrics and debug logs.
func (s *PipelineService) DeriveFeatures(sub *Submission) (types.FeatureVector, error) {
	if s.store == nil {
		return types.FeatureVector{}, apperrors.PipelineUnavailable(s.downFor)
	}

	raw := sub.Transaction

	origin, err := valueobjects.NewGeoPoint(raw.Latitude, raw.Longitude)
	if err != nil {
		return types.FeatureVector{}, err
	}
	merchantLoc, err := valueobjects.NewGeoPoint(raw.MerchantLatitude, raw.MerchantLongitude)
	if err != nil {
		return types.FeatureVector{}, err
	}

	encoders := s.store.Encoders()
	merchantCode := s.encode(encoders, encoder.FieldMerchant, raw.Merchant)
	categoryCode := s.encode(encoders, encoder.FieldCategory, raw.Category)
	genderCode := s.encode(encoders, encoder.FieldGender, raw.Gender)

	return types.FeatureVector{
		MerchantCode: merchantCode,
		CategoryCode: categoryCode,
		Amount:       raw.Amount.InexactFloat64(),
		DistanceKm:   origin.DistanceKmTo(*merchantLoc),
		Hour:         raw.Hour,
		Day:          raw.Day,
		Month:        raw.Month,
		GenderCode:   genderCode,
		CardBucket:   cardbucket.Bucket(raw.CardNumber),
	}, nil
}

func (s *PipelineService) encode(set *encoder.Set, field, value string) int {
	res := set.Encode(field, value)
	if !res.Known() {
		s.metrics.unknownCategories.WithLabelValues(field).Inc()
		logger.GetLogger().Debugw("Unseen categorical value, using sentinel code",
			"field", field,
		)
	}
	return res.Code()
}

// Score runs a Ready submission through feature derivation and inference,
// transitioning it to Scored. Single-shot, synchronous and idempotent:
// identical inputs always produce identical verdicts because the encoders
// and model are deterministic read-only artifacts.
func (s *PipelineService) Score(ctx context.Context, sub *Submission) (*types.Verdict, error) {
	if s.store == nil {
		return nil, apperrors.PipelineUnavailable(s.downFor)
	}
	if sub.State != types.SubmissionReady {
		return nil, apperrors.ValidationFailed(
			"Submission is not ready for scoring",
			"state: "+string(sub.State),
		)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ServerError, "request cancelled")
	}

	start := time.Now()

	features, err := s.DeriveFeatures(sub)
	if err != nil {
		return nil, err
	}

	pred, err := s.store.Model().Predict(features.Values())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ServerError, "model inference failed")
	}

	sub.State = types.SubmissionScored
	s.metrics.scoringDuration.Observe(time.Since(start).Seconds())

	label := "legitimate"
	if pred.IsFraud() {
		label = "fraud"
	}
	s.metrics.verdicts.WithLabelValues(label).Inc()

	logger.GetLogger().Infow("Submission scored",
		"submission_id", sub.ID,
		"verdict", label,
		"confidence", pred.Confidence(),
		"distance_km", features.DistanceKm,
		"card", logger.MaskCardNumber(sub.Transaction.CardNumber),
	)

	return &types.Verdict{
		SubmissionID:     sub.ID,
		IsFraud:          pred.IsFraud(),
		Confidence:       pred.Confidence(),
		FraudProbability: pred.Probabilities[1],
		DistanceKm:       features.DistanceKm,
		CardBucket:       features.CardBucket,
		ScoredAt:         time.Now().UTC(),
	}, nil
}
