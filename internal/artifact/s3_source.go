package artifact

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fraudshield/fraudshield-backend/config"
)

// S3Source fetches artifacts from an S3 (or S3-compatible) bucket.
type S3Source struct {
	client *s3.Client
	bucket string
}

// NewS3Source builds an S3-backed artifact source from the artifact
// configuration. Static credentials are used when configured; otherwise the
// default AWS credential chain applies. A custom endpoint supports
// S3-compatible stores.
func NewS3Source(ctx context.Context, cfg config.ArtifactConfig) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})

	return &S3Source{client: client, bucket: cfg.S3Bucket}, nil
}

// Fetch downloads the artifact object stored under key.
func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s/%s: %w", s.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
