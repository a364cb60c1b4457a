// Package logger provides a configured Zap sugared logger instance for the application.
// It handles initialization based on environment variables (LOG_LEVEL, ENVIRONMENT)
// and provides utility functions for masking sensitive data in logs.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// IsTest should be set to true when running in a test environment to adjust
// logger configuration (e.g., outputting to stdout at a lower noise level).
var IsTest bool

// initLoggerInternal sets up the global zap.SugaredLogger based on environment.
// It configures levels and outputs differently for test, production, and development.
func initLoggerInternal() {
	var zapLogger *zap.Logger
	var err error

	// Determine log level from the environment (default to info)
	levelStr := os.Getenv("LOG_LEVEL")
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		// Default to info level if parsing fails or LOG_LEVEL is not set.
		level = zapcore.InfoLevel
	}

	if IsTest {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stdout"} // Test output to stdout
		zapLogger, err = config.Build()
	} else if os.Getenv("ENVIRONMENT") == "production" {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err = cfg.Build()
	} else {
		// Use development config for non-production, non-test environments.
		devCfg := zap.NewDevelopmentConfig()
		devCfg.Level = zap.NewAtomicLevelAt(level)
		zapLogger, err = devCfg.Build()
	}

	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger = zapLogger.Sugar()
}

// InitLogger initializes the global logger instance using sync.Once to ensure
// it's done only once, making it safe for concurrent calls.
func InitLogger() {
	once.Do(initLoggerInternal)
}

// GetLogger returns the shared global zap.SugaredLogger instance.
// It ensures the logger is initialized before returning it.
func GetLogger() *zap.SugaredLogger {
	once.Do(initLoggerInternal)
	return logger
}

// Close syncs the global logger to flush any buffered log entries.
// It should be called before the application exits.
// Returns an error if syncing fails.
func Close() error {
	if logger != nil && !IsTest {
		err := logger.Sync()
		if err != nil {
			// Use os.Stderr here to avoid potential loops if logger.Sync fails
			fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
		}
		return err
	}
	return nil
}

// MaskSensitiveString masks the middle part of a string, showing only the
// first prefixLen and last suffixLen characters. Used for logging sensitive data.
func MaskSensitiveString(s string, prefixLen, suffixLen int) string {
	if s == "" {
		return ""
	}

	// For short strings, return all asterisks to avoid revealing length.
	if len(s) < (prefixLen + suffixLen + 3) {
		return strings.Repeat("*", len(s))
	}

	prefix := s[:prefixLen]
	suffix := s[len(s)-suffixLen:]
	return prefix + "..." + suffix
}

// MaskCardNumber masks a card number for logging, keeping only the last four
// digits visible. Card numbers must never reach a log line in plaintext.
func MaskCardNumber(card string) string {
	if card == "" {
		return ""
	}

	// Strip common separators before masking so "4111-1111..." and
	// "4111 1111..." mask identically.
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, card)

	if len(cleaned) <= 4 {
		return strings.Repeat("*", len(cleaned))
	}
	return strings.Repeat("*", len(cleaned)-4) + cleaned[len(cleaned)-4:]
}

// MaskArtifactPath masks credentials that may appear in artifact source URIs
// (e.g., s3 URLs with embedded access keys) for safer logging.
func MaskArtifactPath(uri string) string {
	if uri == "" {
		return ""
	}

	masked := uri
	if idx := strings.Index(masked, "://"); idx != -1 {
		if credIdx := strings.Index(masked[idx+3:], "@"); credIdx != -1 {
			userInfo := masked[idx+3 : idx+3+credIdx]
			if passIdx := strings.Index(userInfo, ":"); passIdx != -1 {
				user := userInfo[:passIdx]
				masked = strings.Replace(masked, userInfo, user+":***", 1)
			}
		}
	}
	return masked
}
