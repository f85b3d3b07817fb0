package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/chatex/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-u string   API base URL
//	-k string   API secret
//	-t int      request timeout, seconds
//	-l string   log level
//	-d string   token cache database path
//	-r uint     retries on 429
//	-q float    client-side requests per second (0 = unlimited)
//	-m string   metrics listen address (e.g. ":9100")
//
// Only the flags above are picked out of args, so the JSON layer's -c/-config
// can share the same command line.
func parseFlags(config *Config, args []string) {
	filtered := flagx.FilterArgs(args, []string{"-u", "-k", "-t", "-l", "-d", "-r", "-q", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "API base URL")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "API secret")
	timeout := fs.Int("t", int(config.Timeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.TokenCache, "d", config.TokenCache, "token cache database path")
	fs.Uint64Var(&config.RateLimitRetries, "r", config.RateLimitRetries, "retries on rate limiting")
	fs.Float64Var(&config.RequestsPerSecond, "q", config.RequestsPerSecond, "client-side requests per second")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics listen address")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	config.Timeout = time.Duration(*timeout) * time.Second
}
