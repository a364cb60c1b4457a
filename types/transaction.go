package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GenderMale and GenderFemale are the only gender labels the deployed
// model was trained on.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// RawTransaction carries the attributes collected by the display-layer form
// for a single submission. It is immutable once built and discarded after
// the verdict is rendered.
type RawTransaction struct {
	Merchant          string          `json:"merchant"`
	Category          string          `json:"category"`
	Amount            decimal.Decimal `json:"amount"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	MerchantLatitude  float64         `json:"merchant_latitude"`
	MerchantLongitude float64         `json:"merchant_longitude"`
	Hour              int             `json:"hour"`
	Day               int             `json:"day"`
	Month             int             `json:"month"`
	Gender            string          `json:"gender"`
	CardNumber        string          `json:"card_number"`
}

// Validate checks required fields and declared ranges. It returns one
// message per failing field so the display layer can annotate the form.
func (t *RawTransaction) Validate() []string {
	var problems []string

	if strings.TrimSpace(t.Merchant) == "" {
		problems = append(problems, "merchant must not be blank")
	}
	if strings.TrimSpace(t.Category) == "" {
		problems = append(problems, "category must not be blank")
	}
	if strings.TrimSpace(t.CardNumber) == "" {
		problems = append(problems, "card_number must not be blank")
	}
	if t.Amount.IsNegative() {
		problems = append(problems, "amount must not be negative")
	}
	if t.Latitude < -90 || t.Latitude > 90 {
		problems = append(problems, fmt.Sprintf("latitude %f is outside valid range [-90, 90]", t.Latitude))
	}
	if t.Longitude < -180 || t.Longitude > 180 {
		problems = append(problems, fmt.Sprintf("longitude %f is outside valid range [-180, 180]", t.Longitude))
	}
	if t.MerchantLatitude < -90 || t.MerchantLatitude > 90 {
		problems = append(problems, fmt.Sprintf("merchant_latitude %f is outside valid range [-90, 90]", t.MerchantLatitude))
	}
	if t.MerchantLongitude < -180 || t.MerchantLongitude > 180 {
		problems = append(problems, fmt.Sprintf("merchant_longitude %f is outside valid range [-180, 180]", t.MerchantLongitude))
	}
	if t.Hour < 0 || t.Hour > 23 {
		problems = append(problems, "hour must be in [0, 23]")
	}
	if t.Day < 1 || t.Day > 31 {
		problems = append(problems, "day must be in [1, 31]")
	}
	if t.Month < 1 || t.Month > 12 {
		problems = append(problems, "month must be in [1, 12]")
	}
	if t.Gender != GenderMale && t.Gender != GenderFemale {
		problems = append(problems, fmt.Sprintf("gender must be one of: %s, %s", GenderMale, GenderFemale))
	}

	return problems
}

// FeatureVector is the model-ready numeric representation of a transaction.
// Field order is fixed by FeatureSchema and must match the order the
// classifier was trained on.
type FeatureVector struct {
	MerchantCode int     `json:"merchant"`
	CategoryCode int     `json:"category"`
	Amount       float64 `json:"amt"`
	DistanceKm   float64 `json:"distance"`
	Hour         int     `json:"hour"`
	Day          int     `json:"day"`
	Month        int     `json:"month"`
	GenderCode   int     `json:"gender"`
	CardBucket   int     `json:"cc_num"`
}

// Values returns the vector in schema order, ready for the classifier.
func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.MerchantCode),
		float64(f.CategoryCode),
		f.Amount,
		f.DistanceKm,
		float64(f.Hour),
		float64(f.Day),
		float64(f.Month),
		float64(f.GenderCode),
		float64(f.CardBucket),
	}
}

// FeatureSchema is the versioned feature contract shared between training
// and inference. A model artifact whose feature list differs is rejected at
// load time instead of silently producing meaningless predictions.
type FeatureSchema struct {
	Version string
	Names   []string
}

// CurrentFeatureSchema returns the schema the pipeline is compiled against.
func CurrentFeatureSchema() FeatureSchema {
	return FeatureSchema{
		Version: "1",
		Names:   []string{"merchant", "category", "amt", "distance", "hour", "day", "month", "gender", "cc_num"},
	}
}

// Matches reports whether a model artifact's feature-name list equals the
// schema, order included.
func (s FeatureSchema) Matches(names []string) bool {
	if len(names) != len(s.Names) {
		return false
	}
	for i, n := range names {
		if n != s.Names[i] {
			return false
		}
	}
	return true
}

// Verdict is the classifier's decision for a single submission.
// Confidence is the posterior probability of the predicted class.
type Verdict struct {
	SubmissionID     string    `json:"submission_id"`
	IsFraud          bool      `json:"is_fraud"`
	Confidence       float64   `json:"confidence"`
	FraudProbability float64   `json:"fraud_probability"`
	DistanceKm       float64   `json:"distance_km"`
	CardBucket       int       `json:"card_bucket"`
	ScoredAt         time.Time `json:"scored_at"`
}

// SubmissionState tracks a submission through the pipeline.
type SubmissionState string

const (
	// SubmissionCollecting is the initial state: fields received but not
	// yet validated.
	SubmissionCollecting SubmissionState = "COLLECTING"
	// SubmissionReady means all required fields are present and in range.
	SubmissionReady SubmissionState = "READY"
	// SubmissionScored means a verdict has been computed. Terminal; a new
	// submission restarts the cycle.
	SubmissionScored SubmissionState = "SCORED"
)

// PipelineStatusValue is the coarse availability state exposed to the
// display layer so it can disable the check action.
type PipelineStatusValue string

const (
	PipelineAvailable   PipelineStatusValue = "available"
	PipelineUnavailable PipelineStatusValue = "unavailable"
)

// PipelineStatus describes whether scoring is possible and which artifacts
// back it.
type PipelineStatus struct {
	Status        PipelineStatusValue `json:"status"`
	ModelVersion  string              `json:"model_version,omitempty"`
	SchemaVersion string              `json:"schema_version,omitempty"`
	EncoderFields []string            `json:"encoder_fields,omitempty"`
	Reason        string              `json:"reason,omitempty"`
}
