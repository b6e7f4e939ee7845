package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"docindex/internal/auth"
)

const (
	DefaultListenAddr  = "127.0.0.1:7333"
	DefaultPublicURL   = "http://127.0.0.1:7333"
	DefaultDBFileName  = ".docindex.db"
	DefaultBlobDirName = ".docindex-blobs"
	DefaultLogLevel    = "info"

	DefaultUploadMaxBytes           int64 = 100 * 1024 * 1024
	DefaultUploadMultipartMaxMemory int64 = 8 * 1024 * 1024
	DefaultCacheTTLSeconds                = 4 * 60 * 60
	DefaultCacheMaxObjectBytes      int64 = 8 * 1024 * 1024
	DefaultCacheMaxEntries                = 256

	configFileName           = ".docindex.toml"
	configDirEnvKey          = "DOCINDEX_CONFIG_DIR"
	trustProjectConfigEnvKey = "DOCINDEX_TRUST_PROJECT_CONFIG"
	apiURLEnvKey             = "DOCINDEX_API_URL"
)

// AuthConfig holds the shared secrets. The admin secret may be configured as
// plaintext or as a bcrypt hash, not both.
type AuthConfig struct {
	TeamSecret      string `toml:"team_secret"`
	AdminSecret     string `toml:"admin_secret"`
	AdminSecretHash string `toml:"admin_secret_hash"`
}

// UploadConfig bounds multipart uploads.
type UploadConfig struct {
	MaxBytes           int64 `toml:"max_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

// CacheConfig controls the file response cache.
type CacheConfig struct {
	Enabled        bool   `toml:"enabled"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	TTLSeconds     int    `toml:"ttl_seconds"`
	MaxObjectBytes int64  `toml:"max_object_bytes"`
	MaxEntries     int    `toml:"max_entries"`
}

// TelegramConfig enables the chat bridge when BotToken is set.
type TelegramConfig struct {
	BotToken      string `toml:"bot_token"`
	WebhookSecret string `toml:"webhook_secret"`
	APIBaseURL    string `toml:"api_base_url"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Config defines runtime configuration for docindex.
type Config struct {
	ListenAddr               string         `toml:"listen_addr"`
	PublicURL                string         `toml:"public_url"`
	DBPath                   string         `toml:"db_path"`
	BlobRoot                 string         `toml:"blob_root"`
	LogLevel                 string         `toml:"log_level"`
	LogFile                  string         `toml:"log_file"`
	Auth                     AuthConfig     `toml:"auth"`
	Upload                   UploadConfig   `toml:"upload"`
	Cache                    CacheConfig    `toml:"cache"`
	Telegram                 TelegramConfig `toml:"telegram"`
	Metrics                  MetricsConfig  `toml:"metrics"`
	TrustedProjectConfigPath string         `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		PublicURL:  DefaultPublicURL,
		LogLevel:   DefaultLogLevel,
		Upload: UploadConfig{
			MaxBytes:           DefaultUploadMaxBytes,
			MultipartMaxMemory: DefaultUploadMultipartMaxMemory,
		},
		Cache: CacheConfig{
			Enabled:        true,
			TTLSeconds:     DefaultCacheTTLSeconds,
			MaxObjectBytes: DefaultCacheMaxObjectBytes,
			MaxEntries:     DefaultCacheMaxEntries,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"listen_addr",
	"public_url",
	"db_path",
	"blob_root",
	"log_level",
	"log_file",
	"auth.team_secret",
	"auth.admin_secret",
	"auth.admin_secret_hash",
	"upload.max_bytes",
	"upload.multipart_max_memory",
	"cache.enabled",
	"cache.redis_addr",
	"cache.redis_password",
	"cache.redis_db",
	"cache.ttl_seconds",
	"cache.max_object_bytes",
	"cache.max_entries",
	"telegram.bot_token",
	"telegram.webhook_secret",
	"telegram.api_base_url",
	"metrics.enabled",
}

var secretKeys = map[string]struct{}{
	"auth.team_secret":        {},
	"auth.admin_secret":       {},
	"cache.redis_password":    {},
	"telegram.bot_token":      {},
	"telegram.webhook_secret": {},
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	_, ok := secretKeys[key]
	return ok
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "listen_addr":
		return c.ListenAddr, nil
	case "public_url":
		return c.PublicURL, nil
	case "db_path":
		return c.DBPath, nil
	case "blob_root":
		return c.BlobRoot, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "auth.team_secret":
		return c.Auth.TeamSecret, nil
	case "auth.admin_secret":
		return c.Auth.AdminSecret, nil
	case "auth.admin_secret_hash":
		return c.Auth.AdminSecretHash, nil
	case "upload.max_bytes":
		return strconv.FormatInt(c.Upload.MaxBytes, 10), nil
	case "upload.multipart_max_memory":
		return strconv.FormatInt(c.Upload.MultipartMaxMemory, 10), nil
	case "cache.enabled":
		return strconv.FormatBool(c.Cache.Enabled), nil
	case "cache.redis_addr":
		return c.Cache.RedisAddr, nil
	case "cache.redis_password":
		return c.Cache.RedisPassword, nil
	case "cache.redis_db":
		return strconv.Itoa(c.Cache.RedisDB), nil
	case "cache.ttl_seconds":
		return strconv.Itoa(c.Cache.TTLSeconds), nil
	case "cache.max_object_bytes":
		return strconv.FormatInt(c.Cache.MaxObjectBytes, 10), nil
	case "cache.max_entries":
		return strconv.Itoa(c.Cache.MaxEntries), nil
	case "telegram.bot_token":
		return c.Telegram.BotToken, nil
	case "telegram.webhook_secret":
		return c.Telegram.WebhookSecret, nil
	case "telegram.api_base_url":
		return c.Telegram.APIBaseURL, nil
	case "metrics.enabled":
		return strconv.FormatBool(c.Metrics.Enabled), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// Config may hold secrets.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
		if cfg.BlobRoot == "" {
			cfg.BlobRoot = filepath.Join(cwd, DefaultBlobDirName)
		}
	}

	cfg.applyEnv()
	cfg.normalizeDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"DOCINDEX_LISTEN_ADDR", &c.ListenAddr},
		{"DOCINDEX_PUBLIC_URL", &c.PublicURL},
		{"DOCINDEX_DB", &c.DBPath},
		{"DOCINDEX_BLOB_ROOT", &c.BlobRoot},
		{"DOCINDEX_LOG_LEVEL", &c.LogLevel},
		{"DOCINDEX_LOG_FILE", &c.LogFile},
		{"DOCINDEX_TEAM_SECRET", &c.Auth.TeamSecret},
		{"DOCINDEX_ADMIN_SECRET", &c.Auth.AdminSecret},
		{"DOCINDEX_ADMIN_SECRET_HASH", &c.Auth.AdminSecretHash},
		{"DOCINDEX_REDIS_ADDR", &c.Cache.RedisAddr},
		{"DOCINDEX_REDIS_PASSWORD", &c.Cache.RedisPassword},
		{"DOCINDEX_TELEGRAM_TOKEN", &c.Telegram.BotToken},
		{"DOCINDEX_TELEGRAM_WEBHOOK_SECRET", &c.Telegram.WebhookSecret},
	}
	for _, o := range overrides {
		if value := strings.TrimSpace(os.Getenv(o.key)); value != "" {
			*o.dst = value
		}
	}
}

func (c *Config) normalizeDefaults() {
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = DefaultUploadMaxBytes
	}
	if c.Upload.MultipartMaxMemory <= 0 {
		c.Upload.MultipartMaxMemory = DefaultUploadMultipartMaxMemory
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if c.Cache.MaxObjectBytes <= 0 {
		c.Cache.MaxObjectBytes = DefaultCacheMaxObjectBytes
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheMaxEntries
	}
}

// APIURL returns the base URL CLI commands talk to.
func (c *Config) APIURL() string {
	if value := strings.TrimSpace(os.Getenv(apiURLEnvKey)); value != "" {
		return strings.TrimRight(value, "/")
	}
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return DefaultPublicURL
}

// TelegramEnabled reports whether the chat bridge is configured.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.Telegram.BotToken) != ""
}

// Resolver builds the role resolver from the configured secrets.
func (c *Config) Resolver() auth.Resolver {
	resolver := auth.Resolver{}
	if c.Auth.TeamSecret != "" {
		resolver.Team = auth.PlainSecret(c.Auth.TeamSecret)
	}
	switch {
	case c.Auth.AdminSecretHash != "":
		resolver.Admin = auth.HashedSecret(c.Auth.AdminSecretHash)
	case c.Auth.AdminSecret != "":
		resolver.Admin = auth.PlainSecret(c.Auth.AdminSecret)
	}
	return resolver
}

// Validate checks the settings the server needs to start.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.TeamSecret == "" && c.Auth.AdminSecret == "" && c.Auth.AdminSecretHash == "" {
		errs = append(errs, fmt.Errorf("no secrets configured: set auth.team_secret and auth.admin_secret"))
	}
	if c.Auth.AdminSecret != "" && c.Auth.AdminSecretHash != "" {
		errs = append(errs, fmt.Errorf("auth.admin_secret and auth.admin_secret_hash are mutually exclusive"))
	}
	for key, value := range map[string]string{
		"auth.team_secret":  c.Auth.TeamSecret,
		"auth.admin_secret": c.Auth.AdminSecret,
	} {
		if value == "" {
			continue
		}
		if err := auth.ValidateSecret(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if c.Auth.TeamSecret != "" && c.Auth.TeamSecret == c.Auth.AdminSecret {
		errs = append(errs, fmt.Errorf("auth.team_secret must differ from auth.admin_secret"))
	}

	if c.TelegramEnabled() {
		if c.Auth.TeamSecret == "" {
			errs = append(errs, fmt.Errorf("telegram.bot_token requires auth.team_secret for file links"))
		}
		if c.PublicURL == "" {
			errs = append(errs, fmt.Errorf("telegram.bot_token requires public_url for file links"))
		}
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive"))
	}
	if c.Upload.MultipartMaxMemory <= 0 {
		errs = append(errs, fmt.Errorf("upload.multipart_max_memory must be positive"))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be positive"))
	}
	if c.Cache.MaxObjectBytes <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_object_bytes must be positive"))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("db_path is required"))
	}
	if c.BlobRoot == "" {
		errs = append(errs, fmt.Errorf("blob_root is required"))
	}

	return errors.Join(errs...)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "upload.max_bytes", "upload.multipart_max_memory", "cache.max_object_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "cache.ttl_seconds", "cache.max_entries":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "cache.redis_db":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return parsed, nil
	case "cache.enabled", "metrics.enabled":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "auth.team_secret", "auth.admin_secret":
		if err := auth.ValidateSecret(value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return value, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
