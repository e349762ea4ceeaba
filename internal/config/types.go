package config

import (
	"os"
	"strings"
	"time"
)

type globalConfig struct {
	InterfaceLanguage string `koanf:"interface_language"`
}

type CommandConfig struct {
	Enabled bool `koanf:"enabled"`
}

type ImagineConfig struct {
	CommandConfig
	TempDirectory string
	// Telegram accepts at most 10 items in one media group.
	MaxPerGroup int
}

type HTTPConfig struct {
	proxy   *string  `koanf:"proxy"`
	noProxy []string `koanf:"no_proxy"`
}

func NewHTTPConfig(proxy string, noProxy ...string) HTTPConfig {
	return HTTPConfig{proxy: &proxy, noProxy: noProxy}
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	if proxyURL := os.Getenv("HTTPS_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("https_proxy"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("HTTP_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("http_proxy"); proxyURL != "" {
		return proxyURL
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	if noProxy := os.Getenv("NO_PROXY"); noProxy != "" {
		return splitList(noProxy)
	}
	if noProxy := os.Getenv("no_proxy"); noProxy != "" {
		return splitList(noProxy)
	}
	return nil
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

type TelegramConfig struct {
	Token        string
	AllowedUsers []int64
	AllowedChats []int64
}

type PoeConfig struct {
	Cookie       string
	Headers      map[string]string
	DefaultModel string
	BaseURL      string
	// StreamURL overrides the websocket endpoint derived from the channel settings.
	StreamURL  string
	CatalogTTL time.Duration
}

type BingConfig struct {
	AuthCookie   string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

type DelayConfig struct {
	Min time.Duration
	Max time.Duration
}

func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
