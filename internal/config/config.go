package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/chartink/internal/theme"
)

// Chart holds the default chart the tool opens.
type Chart struct {
	Symbol    string
	Timeframe string
	Limit     int
	Width     int
	Height    int
}

// MarketData configures the candle REST API.
type MarketData struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Session configures drawing persistence.
type Session struct {
	DBPath string
}

// Chat configures the tag-to-chat websocket.
type Chat struct {
	URL string
}

// Server configures the HTTP API.
type Server struct {
	Addr string
}

// Notify holds notification settings.
type Notify struct {
	Save     bool
	Copy     bool
	Fallback bool
}

// Config holds the application configuration.
type Config struct {
	Theme      string
	DataDir    string
	LogLevel   string
	Chart      Chart
	MarketData MarketData
	Session    Session
	Chat       Chat
	Server     Server
	Notify     Notify
	Themes     map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Chart: Chart{
			Symbol:    "AAPL",
			Timeframe: "1d",
			Limit:     120,
			Width:     960,
			Height:    540,
		},
		MarketData: MarketData{Timeout: 10 * time.Second},
		Server:     Server{Addr: ":8080"},
		Notify:     Notify{Fallback: true},
		Themes:     make(map[string]*theme.Theme),
	}
}

// ResolveDataDir returns DataDir, defaulting to ~/.local/share/chartink.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "chartink")
}

// DBPath returns the session database path.
func (c *Config) DBPath() string {
	if c.Session.DBPath != "" {
		return c.Session.DBPath
	}
	return filepath.Join(c.ResolveDataDir(), "chartink.db")
}

// ThemeByName returns the [theme.<name>] override, if configured.
func (c *Config) ThemeByName(name string) (*theme.Theme, bool) {
	t, ok := c.Themes[name]
	return t, ok
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.DataDir != "" {
		fmt.Fprintf(&sb, "data_dir = %s\n", c.DataDir)
	}
	if c.LogLevel != "" {
		fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	}
	sb.WriteString("\n")

	sb.WriteString("[chart]\n")
	fmt.Fprintf(&sb, "symbol = %s\n", c.Chart.Symbol)
	fmt.Fprintf(&sb, "timeframe = %s\n", c.Chart.Timeframe)
	fmt.Fprintf(&sb, "limit = %d\n", c.Chart.Limit)
	fmt.Fprintf(&sb, "width = %d\n", c.Chart.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Chart.Height)
	sb.WriteString("\n")

	sb.WriteString("[marketdata]\n")
	if c.MarketData.BaseURL != "" {
		fmt.Fprintf(&sb, "base_url = %s\n", c.MarketData.BaseURL)
	}
	if c.MarketData.APIKey != "" {
		fmt.Fprintf(&sb, "api_key = %s\n", c.MarketData.APIKey)
	}
	fmt.Fprintf(&sb, "timeout = %s\n", c.MarketData.Timeout)
	sb.WriteString("\n")

	if c.Session.DBPath != "" {
		fmt.Fprintf(&sb, "[session]\ndb_path = %s\n\n", c.Session.DBPath)
	}
	if c.Chat.URL != "" {
		fmt.Fprintf(&sb, "[chat]\nurl = %s\n\n", c.Chat.URL)
	}
	fmt.Fprintf(&sb, "[server]\naddr = %s\n\n", c.Server.Addr)

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "fallback = %v\n", c.Notify.Fallback)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		sb.WriteString(c.Themes[name].String())
		sb.WriteString("\n")
	}

	return sb.String()
}
