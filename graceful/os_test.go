//go:build unit

package graceful

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvOrDefault_WithValue(t *testing.T) {
	t.Setenv("TEST_GETENV_OR_DEFAULT", "test-value")

	assert.Equal(t, "test-value", GetenvOrDefault("TEST_GETENV_OR_DEFAULT", "default"))
}

func TestGetenvOrDefault_WithWhitespace(t *testing.T) {
	t.Setenv("TEST_GETENV_OR_DEFAULT_WHITESPACE", "   ")

	assert.Equal(t, "default-value", GetenvOrDefault("TEST_GETENV_OR_DEFAULT_WHITESPACE", "default-value"),
		"whitespace-only string should return default")
}

func TestGetenvOrDefault_MissingKey(t *testing.T) {
	key := "TEST_GETENV_OR_DEFAULT_MISSING"

	t.Setenv(key, "")
	os.Unsetenv(key)

	assert.Equal(t, "default-value", GetenvOrDefault(key, "default-value"))
}

func TestGetenvBoolOrDefault(t *testing.T) {
	t.Setenv("TEST_GETENV_BOOL_TRUE", "true")
	t.Setenv("TEST_GETENV_BOOL_INVALID", "not-a-bool")

	assert.True(t, GetenvBoolOrDefault("TEST_GETENV_BOOL_TRUE", false))
	assert.True(t, GetenvBoolOrDefault("TEST_GETENV_BOOL_INVALID", true), "invalid bool should return default")
}

func TestGetenvIntOrDefault(t *testing.T) {
	t.Setenv("TEST_GETENV_INT_VALID", "-100")
	t.Setenv("TEST_GETENV_INT_INVALID", "not-a-number")

	assert.Equal(t, int64(-100), GetenvIntOrDefault("TEST_GETENV_INT_VALID", 0))
	assert.Equal(t, int64(99), GetenvIntOrDefault("TEST_GETENV_INT_INVALID", 99))
}

func TestGetenvDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_GETENV_DURATION_VALID", "1500ms")
	t.Setenv("TEST_GETENV_DURATION_INVALID", "soon")

	assert.Equal(t, 1500*time.Millisecond, GetenvDurationOrDefault("TEST_GETENV_DURATION_VALID", 0))
	assert.Equal(t, time.Second, GetenvDurationOrDefault("TEST_GETENV_DURATION_INVALID", time.Second))
}

func TestSetConfigFromEnvVars_Success(t *testing.T) {
	type Config struct {
		StringField   string        `env:"TEST_STRING_FIELD"`
		BoolField     bool          `env:"TEST_BOOL_FIELD"`
		IntField      int64         `env:"TEST_INT_FIELD"`
		DurationField time.Duration `env:"TEST_DURATION_FIELD"`
		Untagged      string
	}

	t.Setenv("TEST_STRING_FIELD", "test-value")
	t.Setenv("TEST_BOOL_FIELD", "true")
	t.Setenv("TEST_INT_FIELD", "123")
	t.Setenv("TEST_DURATION_FIELD", "30s")

	config := &Config{Untagged: "kept"}
	require.NoError(t, SetConfigFromEnvVars(config))

	assert.Equal(t, "test-value", config.StringField)
	assert.True(t, config.BoolField)
	assert.Equal(t, int64(123), config.IntField)
	assert.Equal(t, 30*time.Second, config.DurationField)
	assert.Equal(t, "kept", config.Untagged)
}

func TestSetConfigFromEnvVars_KeepsDefaultsWhenUnset(t *testing.T) {
	type Config struct {
		Address string `env:"TEST_MISSING_FIELD_XYZ"`
	}

	t.Setenv("TEST_MISSING_FIELD_XYZ", "")
	os.Unsetenv("TEST_MISSING_FIELD_XYZ")

	config := &Config{Address: ":8080"}
	require.NoError(t, SetConfigFromEnvVars(config))

	assert.Equal(t, ":8080", config.Address)
}

func TestSetConfigFromEnvVars_InvalidValue(t *testing.T) {
	type Config struct {
		Timeout time.Duration `env:"TEST_BAD_DURATION"`
	}

	t.Setenv("TEST_BAD_DURATION", "forever")

	err := SetConfigFromEnvVars(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_BAD_DURATION")
}

func TestSetConfigFromEnvVars_NonPointer(t *testing.T) {
	type Config struct {
		Field string `env:"TEST_FIELD"`
	}

	assert.ErrorIs(t, SetConfigFromEnvVars(Config{}), ErrNotPointer)
	assert.ErrorIs(t, SetConfigFromEnvVars((*Config)(nil)), ErrNotPointer)
}
