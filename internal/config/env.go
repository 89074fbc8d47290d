package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvMarketDataURL = "CHARTINK_MARKETDATA_URL"
	EnvAPIKey        = "CHARTINK_API_KEY"
	EnvDB            = "CHARTINK_DB"
	EnvChatURL       = "CHARTINK_CHAT_URL"
	EnvTheme         = "CHARTINK_THEME"
	EnvLogLevel      = "CHARTINK_LOG_LEVEL"
)

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error; existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.MarketData.BaseURL, EnvMarketDataURL)
	set(&c.MarketData.APIKey, EnvAPIKey)
	set(&c.Session.DBPath, EnvDB)
	set(&c.Chat.URL, EnvChatURL)
	set(&c.Theme, EnvTheme)
	set(&c.LogLevel, EnvLogLevel)
}
