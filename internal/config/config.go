package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	GLOBAL_LANGUAGE        = "global.interface_language"
	HTTP_PROXY             = "http.proxy"
	HTTP_NO_PROXY          = "http.no_proxy"
	TELEGRAM_TOKEN         = "telegram.token"
	TELEGRAM_ALLOWED_USERS = "telegram.allowed_users"
	TELEGRAM_ALLOWED_CHATS = "telegram.allowed_chats"
	POE_COOKIE             = "poe.cookie"
	POE_HEADERS            = "poe.headers"
	POE_DEFAULT_MODEL      = "poe.default_model"
	POE_BASE_URL           = "poe.base_url"
	POE_STREAM_URL         = "poe.stream_url"
	POE_CATALOG_TTL        = "poe.catalog_ttl"
	BING_AUTH_COOKIE       = "bing.auth_cookie"
	BING_BASE_URL          = "bing.base_url"
	BING_POLL_INTERVAL     = "bing.poll_interval"
	BING_TIMEOUT           = "bing.timeout"
	IMAGINE_TEMP_DIRECTORY = "imagine.temp_directory"
	DELAY_MIN              = "delay.min"
	DELAY_MAX              = "delay.max"
	DATABASE_DSN           = "database.dsn"
	LOGGING_LEVEL          = "logging.level"
	LOGGING_WRITE_IN_FILE  = "logging.write_in_file"
	LOGGING_FILE_PATH      = "logging.file_path"
)

const (
	DefaultModel = "capybara"
	// MemoryDSN keeps the database in process memory; point database.dsn at a
	// file to persist the user registry and catalog cache.
	MemoryDSN    = "file::memory:?cache=shared"
	envPrefix    = "POEGRAM_"
)

// Environment names understood without the POEGRAM_ prefix.
var envKeys = map[string]string{
	"BOT_TOKEN":        TELEGRAM_TOKEN,
	"POE_COOKIE":       POE_COOKIE,
	"POE_HEADERS":      POE_HEADERS,
	"DEFAULT_MODEL":    POE_DEFAULT_MODEL,
	"BING_AUTH_COOKIE": BING_AUTH_COOKIE,
	"ALLOWED_USERS":    TELEGRAM_ALLOWED_USERS,
	"ALLOWED_CHATS":    TELEGRAM_ALLOWED_CHATS,
}

var defaultSQLiteParams = map[string]string{
	"_journal":      "WAL",
	"_busy_timeout": "10000",
	"_synchronous":  "NORMAL",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func Load() (*Config, error) {
	return load(getConfigPaths(), ".env")
}

// FromMap builds a Config from defaults overlaid with values, ignoring files
// and the environment.
func FromMap(values map[string]any) (*Config, error) {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaultValues(), "."), nil)
	k.Load(confmap.Provider(values, "."), nil)

	cfg := &Config{k: k}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(configPaths []string, dotenvPath string) (*Config, error) {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaultValues(), "."), nil)

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		}
	}

	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			raw := koanf.New(".")
			if err := raw.Load(file.Provider(dotenvPath), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("error loading %s: %v", dotenvPath, err)
			}
			values := make(map[string]any)
			for name, value := range raw.All() {
				if key, v := mapEnv(name, fmt.Sprint(value)); key != "" {
					values[key] = v
				}
			}
			k.Load(confmap.Provider(values, "."), nil)
		}
	}

	k.Load(env.ProviderWithValue("", ".", mapEnv), nil)

	cfg := &Config{k: k}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultValues() map[string]any {
	return map[string]any{
		GLOBAL_LANGUAGE:                  "en",
		HTTP_PROXY:                       nil,
		TELEGRAM_TOKEN:                   "",
		POE_COOKIE:                       "",
		POE_DEFAULT_MODEL:                DefaultModel,
		POE_BASE_URL:                     "https://poe.com",
		POE_STREAM_URL:                   "",
		POE_CATALOG_TTL:                  1 * time.Hour,
		BING_AUTH_COOKIE:                 "",
		BING_BASE_URL:                    "https://www.bing.com",
		BING_POLL_INTERVAL:               2 * time.Second,
		BING_TIMEOUT:                     5 * time.Minute,
		IMAGINE_TEMP_DIRECTORY:           "",
		DELAY_MIN:                        500 * time.Millisecond,
		DELAY_MAX:                        2 * time.Second,
		DATABASE_DSN:                     MemoryDSN,
		LOGGING_LEVEL:                    "info",
		LOGGING_WRITE_IN_FILE:            false,
		"commands.start.enabled":         true,
		"commands.help.enabled":          true,
		"commands.reset.enabled":         true,
		"commands.purge.enabled":         true,
		"commands.select.enabled":        true,
		"commands.setcookie.enabled":     true,
		"commands.restart.enabled":       true,
		"commands.imagine.enabled":       true,
		"commands.imagine.max_per_group": 10,
	}
}

// mapEnv translates an environment variable into a config key. Unknown names
// map to "" and are skipped by the provider.
func mapEnv(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok {
		after, found := strings.CutPrefix(name, envPrefix)
		if !found {
			return "", nil
		}
		key = envKey(after)
	}
	switch key {
	case TELEGRAM_ALLOWED_USERS, TELEGRAM_ALLOWED_CHATS:
		return key, strings.Split(value, ",")
	}
	return key, value
}

// envKey resolves the part of a POEGRAM_ name after the prefix. A double
// underscore separates sections explicitly; otherwise known keys win, so
// LOGGING_WRITE_IN_FILE maps to logging.write_in_file.
func envKey(name string) string {
	name = strings.ToLower(name)
	if strings.Contains(name, "__") {
		return strings.ReplaceAll(name, "__", ".")
	}
	for _, key := range knownKeys() {
		if strings.ReplaceAll(key, ".", "_") == name {
			return key
		}
	}
	return strings.ReplaceAll(name, "_", ".")
}

func knownKeys() []string {
	keys := []string{
		HTTP_NO_PROXY,
		TELEGRAM_ALLOWED_USERS,
		TELEGRAM_ALLOWED_CHATS,
		POE_HEADERS,
		LOGGING_FILE_PATH,
	}
	for key := range defaultValues() {
		keys = append(keys, key)
	}
	return keys
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.k.String(TELEGRAM_TOKEN)) == "" {
		return fmt.Errorf("telegram bot token is required (set BOT_TOKEN)")
	}
	if strings.TrimSpace(c.k.String(POE_COOKIE)) == "" {
		return fmt.Errorf("poe cookie is required (set POE_COOKIE)")
	}
	if _, err := parseIDs(c.k.Strings(TELEGRAM_ALLOWED_USERS)); err != nil {
		return fmt.Errorf("invalid ALLOWED_USERS: %w", err)
	}
	if _, err := parseIDs(c.k.Strings(TELEGRAM_ALLOWED_CHATS)); err != nil {
		return fmt.Errorf("invalid ALLOWED_CHATS: %w", err)
	}
	if _, err := c.poeHeaders(); err != nil {
		return fmt.Errorf("invalid POE_HEADERS: %w", err)
	}
	if c.k.Duration(DELAY_MAX) < c.k.Duration(DELAY_MIN) {
		return fmt.Errorf("delay.max must not be lower than delay.min")
	}
	return nil
}

func (c *Config) GetCommandConfig(name string) *CommandConfig {
	return &CommandConfig{
		Enabled: c.k.Bool(fmt.Sprintf("commands.%s.enabled", name)),
	}
}

func (c *Config) Imagine() ImagineConfig {
	maxPerGroup := c.k.Int("commands.imagine.max_per_group")
	if maxPerGroup <= 0 || maxPerGroup > 10 {
		maxPerGroup = 10
	}
	return ImagineConfig{
		CommandConfig: *c.GetCommandConfig("imagine"),
		TempDirectory: c.k.String(IMAGINE_TEMP_DIRECTORY),
		MaxPerGroup:   maxPerGroup,
	}
}

func (c *Config) Telegram() TelegramConfig {
	users, _ := parseIDs(c.k.Strings(TELEGRAM_ALLOWED_USERS))
	chats, _ := parseIDs(c.k.Strings(TELEGRAM_ALLOWED_CHATS))
	return TelegramConfig{
		Token:        c.k.String(TELEGRAM_TOKEN),
		AllowedUsers: users,
		AllowedChats: chats,
	}
}

func (c *Config) Poe() PoeConfig {
	headers, _ := c.poeHeaders()
	return PoeConfig{
		Cookie:       c.k.String(POE_COOKIE),
		Headers:      headers,
		DefaultModel: c.defaultModel(),
		BaseURL:      strings.TrimSuffix(c.k.String(POE_BASE_URL), "/"),
		StreamURL:    c.k.String(POE_STREAM_URL),
		CatalogTTL:   c.k.Duration(POE_CATALOG_TTL),
	}
}

func (c *Config) Bing() BingConfig {
	return BingConfig{
		AuthCookie:   c.k.String(BING_AUTH_COOKIE),
		BaseURL:      strings.TrimSuffix(c.k.String(BING_BASE_URL), "/"),
		PollInterval: c.k.Duration(BING_POLL_INTERVAL),
		Timeout:      c.k.Duration(BING_TIMEOUT),
	}
}

func (c *Config) Delay() DelayConfig {
	return DelayConfig{
		Min: c.k.Duration(DELAY_MIN),
		Max: c.k.Duration(DELAY_MAX),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) Global() globalConfig {
	return globalConfig{
		InterfaceLanguage: c.k.String(GLOBAL_LANGUAGE),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue := c.k.Get(HTTP_PROXY); proxyValue != nil {
		proxy = fmt.Sprint(proxyValue)
	}

	return HTTPConfig{
		proxy:   &proxy,
		noProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func (c *Config) GetDatabaseDSN() string {
	dsn := c.k.String(DATABASE_DSN)
	parts := strings.Split(dsn, "?")
	path := parts[0]

	params := make(map[string]string)
	if len(parts) > 1 {
		for param := range strings.SplitSeq(parts[1], "&") {
			if kv := strings.Split(param, "="); len(kv) == 2 {
				params[kv[0]] = kv[1]
			}
		}
	}

	for k, v := range defaultSQLiteParams {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}

	var queryParams []string
	for k, v := range params {
		queryParams = append(queryParams, k+"="+v)
	}
	sort.Strings(queryParams)

	if len(queryParams) > 0 {
		return path + "?" + strings.Join(queryParams, "&")
	}
	return path
}

func (c *Config) defaultModel() string {
	if model := strings.TrimSpace(c.k.String(POE_DEFAULT_MODEL)); model != "" {
		return model
	}
	return DefaultModel
}

func (c *Config) poeHeaders() (map[string]string, error) {
	raw := c.k.Get(POE_HEADERS)
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		headers := make(map[string]string)
		if err := json.Unmarshal([]byte(v), &headers); err != nil {
			return nil, err
		}
		return headers, nil
	case map[string]any:
		headers := make(map[string]string, len(v))
		for key, value := range v {
			headers[key] = fmt.Sprint(value)
		}
		return headers, nil
	default:
		return nil, fmt.Errorf("unsupported headers value %T", raw)
	}
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", value, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"poegram.toml",
		"config.toml",
		filepath.Join(xdgConfig, "poegram", "config.toml"),
		"/etc/poegram/config.toml",
	}
}
