package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "prospector.db", cfg.Store.Path)
	assert.Equal(t, "https://maps.googleapis.com/maps/api", cfg.Maps.BaseURL)
	assert.Equal(t, 2, cfg.Maps.PageDelaySecs)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 1000, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.3, cfg.OpenAI.Temperature, 1e-9)
	assert.InDelta(t, 0.85, cfg.Dedup.SimilarityThreshold, 1e-9)
	assert.Equal(t, 100, cfg.Campaign.MaxProspects)
	assert.Equal(t, 5000, cfg.Campaign.DefaultRadius)
	assert.Equal(t, 30, cfg.Campaign.QualityThreshold)
	assert.Equal(t, 15, cfg.Campaign.ErrorBudget)
	assert.Equal(t, 3, cfg.Enrich.BatchSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROSPECTOR_STORE_DRIVER", "postgres")
	t.Setenv("PROSPECTOR_OPENAI_MODEL", "gpt-4o")
	t.Setenv("PROSPECTOR_CAMPAIGN_MAX_PROSPECTS", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 50, cfg.Campaign.MaxProspects)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense"})
	require.Error(t, err)
}
