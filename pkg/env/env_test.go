package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvStringOrDefault(t *testing.T) {
	t.Setenv("ENV_TEST_STRING", "value")
	assert.Equal(t, "value", GetEnvStringOrDefault("ENV_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", GetEnvStringOrDefault("ENV_TEST_MISSING", "fallback"))

	t.Setenv("ENV_TEST_BLANK", "   ")
	assert.Equal(t, "fallback", GetEnvStringOrDefault("ENV_TEST_BLANK", "fallback"),
		"whitespace-only values count as unset")
}

func TestGetEnvIntOrDefault(t *testing.T) {
	t.Setenv("ENV_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvIntOrDefault("ENV_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvIntOrDefault("ENV_TEST_MISSING", 7))

	t.Setenv("ENV_TEST_NOT_INT", "forty-two")
	assert.Equal(t, 7, GetEnvIntOrDefault("ENV_TEST_NOT_INT", 7))
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	t.Setenv("ENV_TEST_BOOL", "true")
	assert.True(t, GetEnvBoolOrDefault("ENV_TEST_BOOL", false))
	assert.True(t, GetEnvBoolOrDefault("ENV_TEST_MISSING", true))
}

func TestGetEnvDurationOrDefault(t *testing.T) {
	t.Setenv("ENV_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDurationOrDefault("ENV_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDurationOrDefault("ENV_TEST_MISSING", time.Minute))

	t.Setenv("ENV_TEST_BAD_DURATION", "ninety")
	assert.Equal(t, time.Minute, GetEnvDurationOrDefault("ENV_TEST_BAD_DURATION", time.Minute))
}
