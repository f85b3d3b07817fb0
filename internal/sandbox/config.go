package sandbox

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/chatex/internal/flagx"
	"github.com/dmitrijs2005/chatex/internal/timex"
)

// Config holds runtime settings of the sandbox server.
//
// Fields:
//   - Addr: HTTP listen address.
//   - APISecret: the only API key accepted by POST /auth/access-token.
//   - SigningKey: HMAC key of the issued JWTs (HS256).
//   - TokenTTL: lifetime of issued access tokens.
//   - RateLimit / RateBurst: per-token requests per second and burst;
//     RateLimit zero disables the 429 limiter.
//   - LogLevel: slog level name.
//   - Now: clock used for token issuance and validation; nil means time.Now.
type Config struct {
	Addr       string
	APISecret  string
	SigningKey string
	TokenTTL   time.Duration
	RateLimit  float64
	RateBurst  int
	LogLevel   string
	Now        func() time.Time
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are for local use only.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.APISecret = "sandbox-secret"
	c.SigningKey = "sandbox-signing-key"
	c.TokenTTL = 15 * time.Minute
	c.RateBurst = 10
	c.LogLevel = "info"
}

func (c *Config) clock() func() time.Time {
	if c.Now == nil {
		return time.Now
	}
	return c.Now
}

// LoadConfig applies defaults, then the JSON file given with -c/-config,
// then the flags in args. Invalid input panics.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

type JsonConfig struct {
	Addr       string         `json:"addr"`
	APISecret  string         `json:"api_secret"`
	SigningKey string         `json:"signing_key"`
	TokenTTL   timex.Duration `json:"token_ttl"`
	RateLimit  float64        `json:"rate_limit"`
	RateBurst  int            `json:"rate_burst"`
	LogLevel   string         `json:"log_level"`
}

func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Addr != "" {
		config.Addr = c.Addr
	}
	if c.APISecret != "" {
		config.APISecret = c.APISecret
	}
	if c.SigningKey != "" {
		config.SigningKey = c.SigningKey
	}
	if c.TokenTTL.Duration > 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.RateLimit > 0 {
		config.RateLimit = c.RateLimit
	}
	if c.RateBurst > 0 {
		config.RateBurst = c.RateBurst
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}

// parseFlags reads:
//
//	-a string   listen address
//	-k string   accepted API secret
//	-s string   JWT signing key
//	-t int      token lifetime, seconds
//	-q float    per-token requests per second (0 = unlimited)
//	-b int      per-token burst
//	-l string   log level
func parseFlags(config *Config, args []string) {
	filtered := flagx.FilterArgs(args, []string{"-a", "-k", "-s", "-t", "-q", "-b", "-l"})

	fs := flag.NewFlagSet("sandbox", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "listen address")
	fs.StringVar(&config.APISecret, "k", config.APISecret, "accepted API secret")
	fs.StringVar(&config.SigningKey, "s", config.SigningKey, "JWT signing key")
	ttl := fs.Int("t", int(config.TokenTTL.Seconds()), "access token lifetime (in seconds)")
	fs.Float64Var(&config.RateLimit, "q", config.RateLimit, "per-token requests per second")
	fs.IntVar(&config.RateBurst, "b", config.RateBurst, "per-token burst")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*ttl) * time.Second
}
