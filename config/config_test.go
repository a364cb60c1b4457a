package config

import (
	"os"
	"testing"

	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	logger.IsTest = true

	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
	}{
		{
			name:        "defaults are valid",
			envVars:     map[string]string{},
			expectError: false,
		},
		{
			name: "explicit artifact paths",
			envVars: map[string]string{
				"ARTIFACT_MODEL_PATH":   "/opt/fraudshield/model.json",
				"ARTIFACT_ENCODER_PATH": "/opt/fraudshield/encoder.json",
				"PORT":                  "9090",
			},
			expectError: false,
		},
		{
			name: "s3 artifacts require keys",
			envVars: map[string]string{
				"ARTIFACT_S3_BUCKET": "fraud-artifacts",
				"ARTIFACT_MODEL_KEY": "",
			},
			expectError: true,
		},
		{
			name: "unknown environment rejected",
			envVars: map[string]string{
				"SERVER_ENVIRONMENT": "staging",
			},
			expectError: true,
		},
		{
			name: "invalid allowed origin rejected",
			envVars: map[string]string{
				"ALLOWED_ORIGINS": "not a url",
			},
			expectError: true,
		},
		{
			name: "zero rate limit rejected",
			envVars: map[string]string{
				"RATE_LIMIT_REQUESTS_PER_MINUTE": "0",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			cfg, err := LoadConfig()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.NotEmpty(t, cfg.Server.Port)
			}
		})
	}
}

func TestArtifactConfigUseS3(t *testing.T) {
	cfg := ArtifactConfig{}
	assert.False(t, cfg.UseS3())

	cfg.S3Bucket = "fraud-artifacts"
	assert.True(t, cfg.UseS3())
}

func TestRedisConfigEnabled(t *testing.T) {
	cfg := RedisConfig{}
	assert.False(t, cfg.Enabled())

	cfg.Address = "localhost:6379"
	assert.True(t, cfg.Enabled())
}

func TestEnvironmentHelpers(t *testing.T) {
	dev := &Config{Server: ServerConfig{Environment: EnvDevelopment}}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := &Config{Server: ServerConfig{Environment: EnvProduction}}
	assert.True(t, prod.IsProduction())
}
