package config

import "time"

// Config holds runtime settings for the Chatex CLI.
//
// Fields:
//   - BaseURL: root of the Chatex REST API, e.g. "https://api.chatex.com/v1".
//   - APIKey: long-lived API secret exchanged for access tokens. When empty
//     the CLI prompts for it.
//   - Timeout: per-request HTTP timeout.
//   - LogLevel: zap level name ("debug", "info", "warn", "error").
//   - TokenCache: path of the SQLite token cache. Empty disables persistence.
//   - RateLimitRetries: how many times a 429 answer is retried.
//   - RetryMaxDelay: upper bound on a single retryAfter wait.
//   - RequestsPerSecond: client-side pacing. Zero means unlimited.
//   - MetricsAddr: listen address of the Prometheus /metrics endpoint.
//     Empty disables it.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	LogLevel          string
	TokenCache        string
	RateLimitRetries  uint64
	RetryMaxDelay     time.Duration
	RequestsPerSecond float64
	MetricsAddr       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://api.chatex.com/v1"
	c.Timeout = 30 * time.Second
	c.LogLevel = "info"
	c.RateLimitRetries = 3
	c.RetryMaxDelay = 30 * time.Second
}

// LoadConfig constructs a Config from defaults, the environment, an optional
// JSON file and the command-line arguments (without the program name).
// Invalid JSON or flags cause a panic.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env")
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
