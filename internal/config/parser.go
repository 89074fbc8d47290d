package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/chartink/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentSection = strings.ToLower(name)
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := name[len("theme."):]
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case currentTheme != nil:
			err = currentTheme.Set(key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "chart":
			err = setChartField(&cfg.Chart, key, value)
		case currentSection == "marketdata":
			err = setMarketDataField(&cfg.MarketData, key, value)
		case currentSection == "session":
			if strings.EqualFold(key, "db_path") {
				cfg.Session.DBPath = value
			}
		case currentSection == "chat":
			if strings.EqualFold(key, "url") {
				cfg.Chat.URL = value
			}
		case currentSection == "server":
			if strings.EqualFold(key, "addr") {
				cfg.Server.Addr = value
			}
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d in section [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

// splitKeyValue accepts "key = value" and "Key: value". Surrounding quotes
// are removed from the value.
func splitKeyValue(line string) (string, string, bool) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:sep])
	value := strings.TrimSpace(line[sep+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "data_dir":
		cfg.DataDir = value
	case "log_level":
		cfg.LogLevel = value
	}
	return nil
}

func setChartField(c *Chart, key, value string) error {
	switch strings.ToLower(key) {
	case "symbol":
		c.Symbol = strings.ToUpper(value)
		return nil
	case "timeframe":
		c.Timeframe = value
		return nil
	case "limit":
		return setInt(&c.Limit, key, value)
	case "width":
		return setInt(&c.Width, key, value)
	case "height":
		return setInt(&c.Height, key, value)
	}
	return nil
}

func setMarketDataField(m *MarketData, key, value string) error {
	switch strings.ToLower(key) {
	case "base_url":
		m.BaseURL = value
	case "api_key":
		m.APIKey = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		m.Timeout = d
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	case "fallback":
		n.Fallback = b
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if v <= 0 {
		return fmt.Errorf("key %s must be positive", key)
	}
	*dst = v
	return nil
}
