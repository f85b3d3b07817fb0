package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvBaseURL    = "CHATEX_BASE_URL"
	EnvAPIKey     = "CHATEX_API_KEY"
	EnvTokenCache = "CHATEX_TOKEN_CACHE"
	EnvLogLevel   = "CHATEX_LOG_LEVEL"
)

// parseEnv overlays values taken from the process environment. If dotenv
// names an existing file, its variables are loaded first; variables already
// present in the environment are not overridden. A missing file is ignored,
// a malformed one panics.
func parseEnv(config *Config, dotenv string) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		config.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok && v != "" {
		config.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvTokenCache); ok && v != "" {
		config.TokenCache = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		config.LogLevel = v
	}
}
