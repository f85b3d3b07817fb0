package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chatex/internal/flagx"
	"github.com/dmitrijs2005/chatex/internal/timex"
)

// JsonConfig is the on-disk shape of the CLI configuration. Durations accept
// either "10s" style strings or integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type JsonConfig struct {
	BaseURL           string         `json:"base_url"`
	APIKey            string         `json:"api_key"`
	Timeout           timex.Duration `json:"timeout"`
	LogLevel          string         `json:"log_level"`
	TokenCache        string         `json:"token_cache"`
	RateLimitRetries  *uint64        `json:"rate_limit_retries"`
	RetryMaxDelay     timex.Duration `json:"retry_max_delay"`
	RequestsPerSecond float64        `json:"requests_per_second"`
	MetricsAddr       string         `json:"metrics_addr"`
}

// parseJson loads the file named by -c/-config in args, if any, and copies
// its non-zero values into config. Unreadable files or invalid JSON panic.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}
	if c.APIKey != "" {
		config.APIKey = c.APIKey
	}
	if c.Timeout.Duration > 0 {
		config.Timeout = c.Timeout.Duration
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.TokenCache != "" {
		config.TokenCache = c.TokenCache
	}
	if c.RateLimitRetries != nil {
		config.RateLimitRetries = *c.RateLimitRetries
	}
	if c.RetryMaxDelay.Duration > 0 {
		config.RetryMaxDelay = c.RetryMaxDelay.Duration
	}
	if c.RequestsPerSecond > 0 {
		config.RequestsPerSecond = c.RequestsPerSecond
	}
	if c.MetricsAddr != "" {
		config.MetricsAddr = c.MetricsAddr
	}
}
