package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	apperrors "github.com/fraudshield/fraudshield-backend/errors"
	"github.com/fraudshield/fraudshield-backend/internal/encoder"
	"github.com/fraudshield/fraudshield-backend/internal/gbdt"
	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/fraudshield/fraudshield-backend/types"
)

// encoderArtifact is the on-disk shape of the encoder artifact: a version
// tag plus per-field label tables keyed by field name.
type encoderArtifact struct {
	Version string                    `json:"version"`
	Fields  map[string]map[string]int `json:"fields"`
}

// requiredEncoderFields are the categorical fields the pipeline encodes.
var requiredEncoderFields = []string{
	encoder.FieldMerchant,
	encoder.FieldCategory,
	encoder.FieldGender,
}

// Store holds the loaded model and encoders. Constructed once at process
// start and read-only afterwards, so it is safe to share across concurrent
// request handlers without locking.
type Store struct {
	model          *gbdt.Model
	encoders       *encoder.Set
	schema         types.FeatureSchema
	encoderVersion string
}

// Load fetches and parses both artifacts through the given source. Any
// failure is an ArtifactError: the caller is expected to keep the process
// alive in a degraded, scoring-disabled state rather than retry per
// request.
func Load(ctx context.Context, source Source, modelLocation, encoderLocation string) (*Store, error) {
	log := logger.GetLogger()
	schema := types.CurrentFeatureSchema()

	modelData, err := source.Fetch(ctx, modelLocation)
	if err != nil {
		return nil, apperrors.ArtifactLoadFailed("model", err)
	}
	model, err := gbdt.Parse(modelData)
	if err != nil {
		return nil, apperrors.ArtifactLoadFailed("model", err)
	}
	if !schema.Matches(model.FeatureNames) {
		// A silently reordered feature contract would produce meaningless
		// predictions, so it is refused outright.
		return nil, apperrors.ArtifactLoadFailed("model", fmt.Errorf(
			"model feature names %v do not match feature schema v%s %v",
			model.FeatureNames, schema.Version, schema.Names,
		))
	}

	encoderData, err := source.Fetch(ctx, encoderLocation)
	if err != nil {
		return nil, apperrors.ArtifactLoadFailed("encoder", err)
	}
	encoders, encVersion, err := parseEncoderArtifact(encoderData)
	if err != nil {
		return nil, apperrors.ArtifactLoadFailed("encoder", err)
	}

	log.Infow("Artifacts loaded",
		"model_version", model.Version,
		"model_trees", len(model.Trees),
		"schema_version", schema.Version,
		"encoder_version", encVersion,
		"encoder_fields", encoders.Fields(),
		"model_location", logger.MaskArtifactPath(modelLocation),
		"encoder_location", logger.MaskArtifactPath(encoderLocation),
	)

	return &Store{
		model:          model,
		encoders:       encoders,
		schema:         schema,
		encoderVersion: encVersion,
	}, nil
}

func parseEncoderArtifact(data []byte) (*encoder.Set, string, error) {
	var art encoderArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, "", fmt.Errorf("decode encoder artifact: %w", err)
	}
	for _, field := range requiredEncoderFields {
		if _, ok := art.Fields[field]; !ok {
			return nil, "", fmt.Errorf("encoder artifact is missing field %q", field)
		}
	}
	return encoder.NewSet(art.Fields), art.Version, nil
}

// Model returns the loaded classifier.
func (s *Store) Model() *gbdt.Model {
	return s.model
}

// Encoders returns the loaded label encoders.
func (s *Store) Encoders() *encoder.Set {
	return s.encoders
}

// Schema returns the feature schema the model was validated against.
func (s *Store) Schema() types.FeatureSchema {
	return s.schema
}

// ModelVersion returns the version tag carried by the model artifact.
func (s *Store) ModelVersion() string {
	return s.model.Version
}

// EncoderFields returns the sorted field names an encoder was fitted for.
func (s *Store) EncoderFields() []string {
	fields := s.encoders.Fields()
	sort.Strings(fields)
	return fields
}
