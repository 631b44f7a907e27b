package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"

	"expert/assistant"
	"expert/logger"
)

type Config struct {
	APIKey      string
	AssistantID string
	BaseURL     string

	PollInterval    time.Duration
	PollTimeout     time.Duration
	MaxPollAttempts int

	LogFile string

	DiagnosticsBackend string
	DiagnosticsDSN     string

	ServerSecret   string
	ServerPassword string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

// Load reads .env (if present) and the environment. The API key may come
// from GCP Secret Manager when only EXPERT_API_KEY_SECRET is set.
func Load(ctx context.Context) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		logger.Debug.Print("no .env file loaded")
	}

	cfg := &Config{
		APIKey:             os.Getenv("OPENAI_API_KEY"),
		AssistantID:        os.Getenv("EXPERT_ASSISTANT_ID"),
		BaseURL:            getEnv("EXPERT_API_BASE_URL", assistant.DefaultBaseURL),
		DiagnosticsBackend: getEnv("EXPERT_DIAGNOSTICS_BACKEND", "sqlite"),
		DiagnosticsDSN:     os.Getenv("EXPERT_DIAGNOSTICS_DSN"),
		ServerSecret:       os.Getenv("EXPERT_SERVER_SECRET"),
		ServerPassword:     os.Getenv("EXPERT_SERVER_PASSWORD"),
	}

	if cfg.PollInterval, err = getDurationEnv("EXPERT_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = getDurationEnv("EXPERT_POLL_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxPollAttempts, err = getIntEnv("EXPERT_MAX_POLL_ATTEMPTS", 0); err != nil {
		return nil, err
	}

	cfg.LogFile, err = homedir.Expand(getEnv("EXPERT_LOG_FILE", "~/.expert/debug.log"))
	if err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		if secret := os.Getenv("EXPERT_API_KEY_SECRET"); secret != "" {
			cfg.APIKey, err = accessSecret(ctx, secret)
			if err != nil {
				return nil, fmt.Errorf("loading api key from secret manager: %w", err)
			}
		}
	}

	return cfg, nil
}

// Validate checks what a turn needs before any request goes out.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY (or EXPERT_API_KEY_SECRET)")
	}
	if cfg.AssistantID == "" {
		missing = append(missing, "EXPERT_ASSISTANT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("EXPERT_POLL_INTERVAL must be positive")
	}
	return nil
}

func (cfg *Config) ClientOptions() assistant.Options {
	return assistant.Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		PollInterval:    cfg.PollInterval,
		PollTimeout:     cfg.PollTimeout,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}
}
