package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, 3, cfg.ResolveConcurrency)
	assert.Equal(t, 50, cfg.CandidateCap)
	assert.Equal(t, 20, cfg.ResultCap)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, "broken-promise", cfg.PriorityURLPart)
	assert.Equal(t, "local", cfg.EmbeddingProvider)
	assert.Equal(t, 2, cfg.RetryAttempts)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "3")
	t.Setenv("FETCH_DELAY_MS", "250")
	t.Setenv("SIMILARITY_THRESHOLD", "0.8")
	t.Setenv("PRIORITY_URL_PART", "special-series")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.WindowDays)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchDelay)
	assert.Equal(t, 0.8, cfg.SimilarityThreshold)
	assert.Equal(t, "special-series", cfg.PriorityURLPart)
}

func TestLoadIgnoresInvalidNumericEnv(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "banana")
	t.Setenv("SIMILARITY_THRESHOLD", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold, "out-of-range thresholds fall back to the default")
}

func TestValidateRejectsOpenAIWithoutKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "quantum")

	_, err := Load()
	assert.Error(t, err)
}
