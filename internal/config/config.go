// Package config loads the seed-estimator configuration from defaults, an
// optional TOML file and SEED_ESTIMATOR_* environment variables, in that
// order of precedence (later wins).
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/a8m/envsubst"
)

// Variants of the web front end.
const (
	VariantOpen   = "open"
	VariantSecure = "secure"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEED_ESTIMATOR_"

// Config is the full runtime configuration.
type Config struct {
	Variant         string
	Addr            string
	UploadDir       string
	MaxUploadBytes  int64
	MaxPixels       int64
	Backend         string
	Preview         bool
	CORSOrigins     []string
	UsersFile       string
	SessionHashKey  string
	SessionBlockKey string
	SessionMaxAge   time.Duration
	CookieSecure    bool
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Variant:         VariantOpen,
		Addr:            ":8080",
		UploadDir:       "uploads",
		MaxUploadBytes:  10 << 20,
		MaxPixels:       4096 * 4096,
		Backend:         "native",
		CORSOrigins:     []string{"*"},
		UsersFile:       "users.json",
		SessionMaxAge:   24 * time.Hour,
		LogLevel:        "info",
		LogFormat:       "console",
		ShutdownTimeout: 10 * time.Second,
	}
}

type fileConfig struct {
	Variant         string   `toml:"variant"`
	Addr            string   `toml:"addr"`
	UploadDir       string   `toml:"upload_dir"`
	MaxUploadBytes  int64    `toml:"max_upload_bytes"`
	MaxPixels       int64    `toml:"max_pixels"`
	Backend         string   `toml:"backend"`
	Preview         bool     `toml:"preview"`
	CORSOrigins     []string `toml:"cors_origins"`
	UsersFile       string   `toml:"users_file"`
	SessionHashKey  string   `toml:"session_hash_key"`
	SessionBlockKey string   `toml:"session_block_key"`
	SessionMaxAge   string   `toml:"session_max_age"`
	CookieSecure    bool     `toml:"cookie_secure"`
	LogLevel        string   `toml:"log_level"`
	LogFormat       string   `toml:"log_format"`
	LogFile         string   `toml:"log_file"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
}

// Load builds the configuration. An empty path skips the file. ${VAR}
// references in the file are expanded before it is parsed.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("variant") {
		cfg.Variant = strings.ToLower(strings.TrimSpace(raw.Variant))
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("upload_dir") {
		cfg.UploadDir = strings.TrimSpace(raw.UploadDir)
	}
	if meta.IsDefined("max_upload_bytes") {
		cfg.MaxUploadBytes = raw.MaxUploadBytes
	}
	if meta.IsDefined("max_pixels") {
		cfg.MaxPixels = raw.MaxPixels
	}
	if meta.IsDefined("backend") {
		cfg.Backend = strings.TrimSpace(raw.Backend)
	}
	if meta.IsDefined("preview") {
		cfg.Preview = raw.Preview
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}
	if meta.IsDefined("users_file") {
		cfg.UsersFile = strings.TrimSpace(raw.UsersFile)
	}
	if meta.IsDefined("session_hash_key") {
		cfg.SessionHashKey = strings.TrimSpace(raw.SessionHashKey)
	}
	if meta.IsDefined("session_block_key") {
		cfg.SessionBlockKey = strings.TrimSpace(raw.SessionBlockKey)
	}
	if meta.IsDefined("session_max_age") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SessionMaxAge))
		if err != nil {
			return fmt.Errorf("failed to parse session_max_age: %w", err)
		}
		cfg.SessionMaxAge = d
	}
	if meta.IsDefined("cookie_secure") {
		cfg.CookieSecure = raw.CookieSecure
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ShutdownTimeout))
		if err != nil {
			return fmt.Errorf("failed to parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.Variant = strings.ToLower(getEnv("VARIANT", cfg.Variant))
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.Backend = getEnv("BACKEND", cfg.Backend)
	cfg.UsersFile = getEnv("USERS_FILE", cfg.UsersFile)
	cfg.SessionHashKey = getEnv("SESSION_HASH_KEY", cfg.SessionHashKey)
	cfg.SessionBlockKey = getEnv("SESSION_BLOCK_KEY", cfg.SessionBlockKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = normalizeList(strings.Split(v, ","))
	}
	if v := getEnv("PREVIEW", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sPREVIEW: %w", EnvPrefix, err)
		}
		cfg.Preview = b
	}
	if v := getEnv("COOKIE_SECURE", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sCOOKIE_SECURE: %w", EnvPrefix, err)
		}
		cfg.CookieSecure = b
	}
	if v := getEnv("MAX_UPLOAD_BYTES", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %sMAX_UPLOAD_BYTES: %w", EnvPrefix, err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := getEnv("MAX_PIXELS", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %sMAX_PIXELS: %w", EnvPrefix, err)
		}
		cfg.MaxPixels = n
	}
	if v := getEnv("SESSION_MAX_AGE", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sSESSION_MAX_AGE: %w", EnvPrefix, err)
		}
		cfg.SessionMaxAge = d
	}
	if v := getEnv("SHUTDOWN_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// getEnv returns the trimmed value of EnvPrefix+key, or defaultVal when unset or blank.
func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(EnvPrefix + key)); val != "" {
		return val
	}
	return defaultVal
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Variant {
	case VariantOpen, VariantSecure:
	default:
		return fmt.Errorf("config variant %q must be %q or %q", c.Variant, VariantOpen, VariantSecure)
	}
	if c.Addr == "" {
		return fmt.Errorf("config missing addr")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("config missing upload_dir")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("config max_pixels must be positive, got %d", c.MaxPixels)
	}
	if c.Backend == "" {
		return fmt.Errorf("config missing backend")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config log_format %q must be \"console\" or \"json\"", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config shutdown_timeout must be positive")
	}

	if c.Variant == VariantSecure {
		if c.UsersFile == "" {
			return fmt.Errorf("config missing users_file")
		}
		if c.SessionMaxAge <= 0 {
			return fmt.Errorf("config session_max_age must be positive")
		}
		if _, _, err := c.SessionKeys(); err != nil {
			return err
		}
	}
	return nil
}

// SessionKeys decodes the hex session keys. Either may be empty, meaning
// "generate one at startup". A hash key must be at least 32 bytes and a block
// key 16, 24 or 32 bytes.
func (c Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	if c.SessionHashKey != "" {
		hashKey, err = hex.DecodeString(c.SessionHashKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode session_hash_key: %w", err)
		}
		if len(hashKey) < 32 {
			return nil, nil, fmt.Errorf("session_hash_key must be at least 32 bytes, got %d", len(hashKey))
		}
	}
	if c.SessionBlockKey != "" {
		blockKey, err = hex.DecodeString(c.SessionBlockKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode session_block_key: %w", err)
		}
		switch len(blockKey) {
		case 16, 24, 32:
		default:
			return nil, nil, fmt.Errorf("session_block_key must be 16, 24 or 32 bytes, got %d", len(blockKey))
		}
	}
	return hashKey, blockKey, nil
}
