package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXPERT_ASSISTANT_ID", "asst_123")
	t.Setenv("EXPERT_LOG_FILE", "/tmp/expert-test.log")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "asst_123", cfg.AssistantID)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.PollTimeout)
	assert.Equal(t, 0, cfg.MaxPollAttempts)
	assert.Equal(t, "sqlite", cfg.DiagnosticsBackend)
	assert.Equal(t, "/tmp/expert-test.log", cfg.LogFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXPERT_POLL_INTERVAL", "250ms")
	t.Setenv("EXPERT_POLL_TIMEOUT", "0")
	t.Setenv("EXPERT_MAX_POLL_ATTEMPTS", "40")
	t.Setenv("EXPERT_DIAGNOSTICS_BACKEND", "duckdb")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.PollTimeout)
	assert.Equal(t, 40, cfg.MaxPollAttempts)
	assert.Equal(t, "duckdb", cfg.DiagnosticsBackend)

	options := cfg.ClientOptions()
	assert.Equal(t, 40, options.MaxPollAttempts)
	assert.Equal(t, "sk-test", options.APIKey)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("EXPERT_POLL_INTERVAL", "soon")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "EXPERT_POLL_INTERVAL")
}

func TestValidate_Missing(t *testing.T) {
	cfg := &Config{PollInterval: time.Second}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "EXPERT_ASSISTANT_ID")
}
