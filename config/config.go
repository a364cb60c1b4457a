// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fraudshield/fraudshield-backend/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
}

// ArtifactConfig holds locations of the model and encoder artifacts.
// When S3Bucket is set, artifacts are fetched from S3 using ModelKey and
// EncoderKey; otherwise ModelPath and EncoderPath are read from disk.
type ArtifactConfig struct {
	ModelPath   string `mapstructure:"MODEL_PATH" yaml:"model_path"`
	EncoderPath string `mapstructure:"ENCODER_PATH" yaml:"encoder_path"`
	S3Bucket    string `mapstructure:"S3_BUCKET" yaml:"s3_bucket"`
	S3Region    string `mapstructure:"S3_REGION" yaml:"s3_region"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT" yaml:"s3_endpoint"`
	// S3 access keys. When empty the default AWS credential chain is used.
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID" yaml:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY" yaml:"s3_secret_access_key"`
	ModelKey          string `mapstructure:"MODEL_KEY" yaml:"model_key"`
	EncoderKey        string `mapstructure:"ENCODER_KEY" yaml:"encoder_key"`
}

// UseS3 reports whether artifacts should be fetched from S3 rather than disk.
func (a *ArtifactConfig) UseS3() bool {
	return a.S3Bucket != ""
}

// RedisConfig holds Redis connection details. Redis is optional; when
// Address is empty, rate limiting is disabled and health reporting skips it.
type RedisConfig struct {
	Address  string `mapstructure:"ADDRESS" yaml:"address"`
	Password string `mapstructure:"PASSWORD" yaml:"password"`
	DB       int    `mapstructure:"DB" yaml:"db"`
}

// Enabled reports whether a Redis address has been configured.
func (r *RedisConfig) Enabled() bool {
	return r.Address != ""
}

// RateLimitConfig holds configuration for per-IP rate limiting on the
// scoring endpoint.
type RateLimitConfig struct {
	// Maximum score requests per window per client IP
	RequestsPerMinute int `mapstructure:"REQUESTS_PER_MINUTE" yaml:"requests_per_minute"`
	// Window duration in seconds for rate limiting
	WindowSeconds int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server    ServerConfig    `mapstructure:"SERVER" yaml:"server"`
	Artifacts ArtifactConfig  `mapstructure:"ARTIFACTS" yaml:"artifacts"`
	Redis     RedisConfig     `mapstructure:"REDIS" yaml:"redis"`
	RateLimit RateLimitConfig `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, binds environment variables to config struct fields,
// unmarshals the configuration, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("ARTIFACTS.MODEL_PATH", "artifacts/fraud_detection_model.json")
	v.SetDefault("ARTIFACTS.ENCODER_PATH", "artifacts/label_encoder.json")
	v.SetDefault("ARTIFACTS.S3_BUCKET", "")
	v.SetDefault("ARTIFACTS.S3_REGION", "us-east-1")
	v.SetDefault("ARTIFACTS.S3_ENDPOINT", "")
	v.SetDefault("ARTIFACTS.S3_ACCESS_KEY_ID", "")
	v.SetDefault("ARTIFACTS.S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("ARTIFACTS.MODEL_KEY", "fraud_detection_model.json")
	v.SetDefault("ARTIFACTS.ENCODER_KEY", "label_encoder.json")
	v.SetDefault("REDIS.ADDRESS", "")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("RATE_LIMIT.REQUESTS_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables
	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.VERSION", "VERSION"},
		// Artifact config
		{"ARTIFACTS.MODEL_PATH", "ARTIFACT_MODEL_PATH"},
		{"ARTIFACTS.ENCODER_PATH", "ARTIFACT_ENCODER_PATH"},
		{"ARTIFACTS.S3_BUCKET", "ARTIFACT_S3_BUCKET"},
		{"ARTIFACTS.S3_REGION", "ARTIFACT_S3_REGION"},
		{"ARTIFACTS.S3_ENDPOINT", "ARTIFACT_S3_ENDPOINT"},
		{"ARTIFACTS.S3_ACCESS_KEY_ID", "ARTIFACT_S3_ACCESS_KEY_ID"},
		{"ARTIFACTS.S3_SECRET_ACCESS_KEY", "ARTIFACT_S3_SECRET_ACCESS_KEY"},
		{"ARTIFACTS.MODEL_KEY", "ARTIFACT_MODEL_KEY"},
		{"ARTIFACTS.ENCODER_KEY", "ARTIFACT_ENCODER_KEY"},
		// Redis config
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		// Rate limit config
		{"RATE_LIMIT.REQUESTS_PER_MINUTE", "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"model_path", v.GetString("ARTIFACTS.MODEL_PATH"),
		"encoder_path", v.GetString("ARTIFACTS.ENCODER_PATH"),
		"artifact_s3_bucket", v.GetString("ARTIFACTS.S3_BUCKET"),
		"redis_enabled", v.GetString("REDIS.ADDRESS") != "",
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.Environment != EnvDevelopment && cfg.Server.Environment != EnvProduction {
		return fmt.Errorf("unknown environment %q", cfg.Server.Environment)
	}

	// Validate AllowedOrigins format if not wildcard
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if cfg.Artifacts.UseS3() {
		if cfg.Artifacts.ModelKey == "" || cfg.Artifacts.EncoderKey == "" {
			return fmt.Errorf("artifact S3 keys are required when ARTIFACT_S3_BUCKET is set")
		}
	} else {
		if cfg.Artifacts.ModelPath == "" {
			return fmt.Errorf("artifact model path is required")
		}
		if cfg.Artifacts.EncoderPath == "" {
			return fmt.Errorf("artifact encoder path is required")
		}
	}

	if cfg.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit requests per minute must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	return nil
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
