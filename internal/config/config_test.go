package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("CLASSIFIER_TIMEOUT", "")
	t.Setenv("POLICY_DATA_DIR", "")

	cfg := Load()

	assert.Equal(t, 0.0, cfg.Ai.Temperature)
	assert.Equal(t, 30*time.Second, cfg.Ai.ClassifierTimeout)
	assert.Equal(t, "", cfg.Policy.DataDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_TEMPERATURE", "0.1")
	t.Setenv("CLASSIFIER_TIMEOUT", "5")
	t.Setenv("POLICY_WATCH", "false")
	t.Setenv("POLICY_WATCH_DEBOUNCE", "2s")
	t.Setenv("GO_ENV", "Production")

	cfg := Load()

	assert.Equal(t, 0.1, cfg.Ai.Temperature)
	assert.Equal(t, 5*time.Second, cfg.Ai.ClassifierTimeout)
	assert.False(t, cfg.Policy.WatchDocuments)
	assert.Equal(t, 2*time.Second, cfg.Policy.WatchDebounce)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
