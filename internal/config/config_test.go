package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "gemini-1.5-pro-latest", cfg.GeminiModel)
	assert.Equal(t, 5, cfg.FrameSampleCount)
	assert.Equal(t, "scene-validator.events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SCENE_VALIDATOR_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCENE_VALIDATOR_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SCENE_VALIDATOR_ADDR", ":9090")
	t.Setenv("SCENE_VALIDATOR_FRAME_COUNT", "3")
	t.Setenv("SCENE_VALIDATOR_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("DATABASE_URL", "postgres://localhost/scenes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 3, cfg.FrameSampleCount)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "postgres://localhost/scenes", cfg.DatabaseURL)
}
