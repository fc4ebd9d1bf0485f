package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultProvider, config.Model.Provider)
	assert.Equal(t, DefaultModel, config.Model.Name)
	assert.Equal(t, DefaultMaxRetries, config.Resilience.MaxRetries)
	assert.Equal(t, DefaultRequestTimeout, config.Resilience.RequestTimeout)
	assert.Equal(t, DefaultCircuitFailures, config.Resilience.CircuitMaxFailures)

	assert.True(t, config.Units.Query.IsZero(), "Defaults carry no per-unit overrides.")
	assert.True(t, config.Units.Hedge.IsZero())
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		config, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Model, config.Model)
		assert.Equal(t, DefaultConfig().Resilience, config.Resilience)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		path := writeConfig(t, `
model:
  provider: google
  name: gemini-1.5-pro
resilience:
  max_retries: 5
  request_timeout: 90s
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "gemini-1.5-pro", config.Model.Name)
		assert.Equal(t, 5, config.Resilience.MaxRetries)
		assert.Equal(t, 90*time.Second, config.Resilience.RequestTimeout)

		// Fields the file omits keep their defaults.
		assert.Equal(t, DefaultCircuitCooldown, config.Resilience.CircuitCooldown)
		assert.InDelta(t, DefaultRatePerSecond, config.Resilience.RatePerSecond, 1e-9)
	})

	t.Run("per-unit parameter blocks survive loading", func(t *testing.T) {
		path := writeConfig(t, `
model:
  provider: google
  name: gemini-2.0-flash-exp
units:
  hedge:
    markers: ["maybe", "dunno"]
  query:
    prompt: "Q: {{.Question}}"
    max_tokens: 256
    timeout: 10s
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)

		assert.False(t, config.Units.Hedge.IsZero(), "Hedge overrides should be captured.")
		assert.False(t, config.Units.Query.IsZero(), "Query overrides should be captured.")
		assert.True(t, config.Units.Correctness.IsZero(), "Absent blocks stay zero.")

		var hedgeParams struct {
			Markers []string `yaml:"markers"`
		}
		require.NoError(t, config.Units.Hedge.Decode(&hedgeParams))
		assert.Equal(t, []string{"maybe", "dunno"}, hedgeParams.Markers)
	})

	t.Run("unsupported provider fails validation", func(t *testing.T) {
		path := writeConfig(t, `
model:
  provider: acme
  name: some-model
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeConfig(t, "model: [unclosed")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
