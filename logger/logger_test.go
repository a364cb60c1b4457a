package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name     string
		card     string
		expected string
	}{
		{
			name:     "standard PAN",
			card:     "4111111111111111",
			expected: "************1111",
		},
		{
			name:     "PAN with spaces",
			card:     "4111 1111 1111 1111",
			expected: "************1111",
		},
		{
			name:     "PAN with dashes",
			card:     "4111-1111-1111-1111",
			expected: "************1111",
		},
		{
			name:     "short token fully masked",
			card:     "1234",
			expected: "****",
		},
		{
			name:     "empty",
			card:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskCardNumber(tt.card))
		})
	}
}

func TestMaskSensitiveString(t *testing.T) {
	assert.Equal(t, "ab...yz", MaskSensitiveString("abcdefghwxyz", 2, 2))
	assert.Equal(t, "****", MaskSensitiveString("abcd", 2, 2))
	assert.Equal(t, "", MaskSensitiveString("", 2, 2))
}

func TestMaskArtifactPath(t *testing.T) {
	assert.Equal(t,
		"s3://AKIAEXAMPLE:***@artifacts/fraud/model.json",
		MaskArtifactPath("s3://AKIAEXAMPLE:secret@artifacts/fraud/model.json"),
	)
	assert.Equal(t, "/var/lib/fraudshield/model.json", MaskArtifactPath("/var/lib/fraudshield/model.json"))
}

func TestGetLoggerInitializesOnce(t *testing.T) {
	IsTest = true
	first := GetLogger()
	second := GetLogger()
	assert.NotNil(t, first)
	assert.Same(t, first, second)
}
