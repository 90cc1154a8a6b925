package aihint

import (
	"encoding/json"
	"os"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
)

const (
	// EnvTestMode forces the mock provider when set to "mock".
	EnvTestMode = "AI_TEST_MODE"
	// EnvConfigPath overrides the adapter config location.
	EnvConfigPath = "AI_CONFIG_PATH"
	// EnvCacheDir overrides where hint responses and the daily counter live.
	EnvCacheDir = "AI_CACHE_DIR"

	defaultConfigPath = "config/ai.json"
	defaultCacheDir   = "cache/ai"
	defaultDailyLimit = 20
)

// Config controls the hint adapter. It lives in config/ai.json; a missing or
// unreadable file falls back to the disabled default.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Provider   string `json:"provider"`
	DailyLimit int    `json:"daily_limit"`
}

// DefaultConfig returns the adapter defaults: disabled, openai, 20 calls/day.
func DefaultConfig() Config {
	return Config{Enabled: false, Provider: "openai", DailyLimit: defaultDailyLimit}
}

// LoadConfig reads the adapter config from AI_CONFIG_PATH or config/ai.json.
// Any read or parse failure yields the default config, not an error; the
// adapter must never take the service down.
func LoadConfig() Config {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = defaultConfigPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		logging.Warnf("ai config %s unreadable, using defaults: %v", path, err)
		return DefaultConfig()
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = defaultDailyLimit
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return cfg
}

// NewFromConfig builds the client the config asks for. AI_TEST_MODE=mock
// short-circuits to a caching mock regardless of the config, which keeps
// tests and local runs off the network.
func NewFromConfig(cfg Config) Client {
	dir := os.Getenv(EnvCacheDir)
	if dir == "" {
		dir = defaultCacheDir
	}
	if os.Getenv(EnvTestMode) == "mock" {
		return NewCaching(MockProvider{}, dir, cfg.DailyLimit)
	}
	if !cfg.Enabled {
		return DisabledClient{}
	}
	switch cfg.Provider {
	case "openai":
		p, err := NewOpenAIProvider()
		if err != nil {
			logging.Warnf("ai provider init failed, hints disabled: %v", err)
			return DisabledClient{}
		}
		return NewCaching(p, dir, cfg.DailyLimit)
	default:
		// "claude" and friends are not wired yet.
		logging.Warnf("unknown ai provider %q, hints disabled", cfg.Provider)
		return DisabledClient{}
	}
}
