// Package main provides a developer tool that writes demo model and
// encoder artifacts for local runs, and optionally uploads them to an S3
// bucket. The demo model is a small hand-built ensemble, not a trained one.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fraudshield/fraudshield-backend/internal/artifact"
	"github.com/fraudshield/fraudshield-backend/types"
)

type node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

type modelArtifact struct {
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	BaseScore    float64  `json:"base_score"`
	Trees        []tree   `json:"trees"`
}

type encoderArtifact struct {
	Version string                    `json:"version"`
	Fields  map[string]map[string]int `json:"fields"`
}

func main() {
	outDir := flag.String("out", "artifacts", "Output directory for artifact files")
	bucket := flag.String("bucket", "", "Optional S3 bucket to upload artifacts to")
	region := flag.String("region", "us-east-1", "S3 region for upload")
	endpoint := flag.String("endpoint", "", "Optional S3-compatible endpoint for upload")
	accessKey := flag.String("access-key", "", "Static S3 access key ID (default credential chain when empty)")
	secretKey := flag.String("secret-key", "", "Static S3 secret access key")
	flag.Parse()

	schema := types.CurrentFeatureSchema()

	// Feature indexes follow the schema: amt=2, distance=3, hour=4.
	model := modelArtifact{
		Version:      "demo-1",
		FeatureNames: schema.Names,
		BaseScore:    0,
		Trees: []tree{
			{Nodes: []node{
				{Feature: 3, Threshold: 25.0, Left: 1, Right: 2},
				{Leaf: true, Value: -2.0},
				{Leaf: true, Value: 1.5},
			}},
			{Nodes: []node{
				{Feature: 2, Threshold: 500.0, Left: 1, Right: 2},
				{Leaf: true, Value: -0.5},
				{Leaf: true, Value: 1.0},
			}},
			{Nodes: []node{
				{Feature: 4, Threshold: 5.0, Left: 1, Right: 2},
				{Leaf: true, Value: 0.5},
				{Leaf: true, Value: -0.25},
			}},
		},
	}

	encoders := encoderArtifact{
		Version: "demo-1",
		Fields: map[string]map[string]int{
			"merchant": {
				"shop_A": 0,
				"shop_B": 1,
				"shop_C": 2,
			},
			"category": {
				"grocery":       0,
				"entertainment": 1,
				"travel":        2,
				"misc_net":      3,
			},
			"gender": {
				"Female": 0,
				"Male":   1,
			},
		},
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	modelPath := filepath.Join(*outDir, "fraud_detection_model.json")
	encoderPath := filepath.Join(*outDir, "label_encoder.json")

	modelData := writeJSON(modelPath, model)
	encoderData := writeJSON(encoderPath, encoders)

	// Round-trip through the loader so a broken demo artifact never ships.
	if _, err := artifact.Load(context.Background(), artifact.NewFileSource(), modelPath, encoderPath); err != nil {
		log.Fatalf("Generated artifacts failed to load: %v", err)
	}
	log.Printf("Wrote %s and %s", modelPath, encoderPath)

	if *bucket == "" {
		return
	}

	client, err := newS3Client(*region, *endpoint, *accessKey, *secretKey)
	if err != nil {
		log.Fatalf("Failed to initialize S3 client: %v", err)
	}

	upload(client, *bucket, "fraud_detection_model.json", modelData)
	upload(client, *bucket, "label_encoder.json", encoderData)
	log.Printf("Uploaded artifacts to bucket %s", *bucket)
}

func writeJSON(path string, v interface{}) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal %s: %v", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	return data
}

func newS3Client(region, endpoint, accessKey, secretKey string) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		}
	}), nil
}

func upload(client *s3.Client, bucket, key string, data []byte) {
	contentType := "application/json"
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		log.Fatalf("Failed to upload %s: %v", key, err)
	}
}
