package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CONTACTFORM_"

// ThemeConfig selects theme tokens handed to renderers.
type ThemeConfig struct {
	Name    string            `yaml:"name"`
	Variant string            `yaml:"variant"`
	Tokens  map[string]string `yaml:"tokens"`
	CSSVars map[string]string `yaml:"css_vars"`
}

// RendererConfig converts the theme settings into what renderers consume. It
// returns nil when no theme is configured.
func (t ThemeConfig) RendererConfig() *theme.RendererConfig {
	if t.Name == "" && t.Variant == "" && len(t.Tokens) == 0 && len(t.CSSVars) == 0 {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   t.Name,
		Variant: t.Variant,
		Tokens:  make(map[string]string, len(t.Tokens)),
		CSSVars: make(map[string]string, len(t.CSSVars)),
	}
	for key, value := range t.Tokens {
		cfg.Tokens[key] = value
	}
	for key, value := range t.CSSVars {
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		cfg.CSSVars[key] = value
	}
	return cfg
}

// Config holds application configuration.
type Config struct {
	Addr             string        `yaml:"addr"`
	LogLevel         string        `yaml:"log_level"`
	Renderer         string        `yaml:"renderer"`
	TemplatesDir     string        `yaml:"templates_dir"`
	SchemaPath       string        `yaml:"schema_path"`
	OperationID      string        `yaml:"operation_id"`
	ValidateOnChange bool          `yaml:"validate_on_change"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	MaxSessions      int           `yaml:"max_sessions"`
	ShutdownGrace    time.Duration `yaml:"shutdown_grace"`
	MetricsEnabled   bool          `yaml:"metrics_enabled"`
	Theme            ThemeConfig   `yaml:"theme"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr:           ":8383",
		LogLevel:       "info",
		Renderer:       "vanilla",
		OperationID:    "contact:submit",
		SessionTTL:     30 * time.Minute,
		MaxSessions:    10000,
		ShutdownGrace:  5 * time.Second,
		MetricsEnabled: true,
	}
}

// Load layers defaults, the optional YAML file at path, an optional .env
// file and CONTACTFORM_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration values the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: session_ttl must be positive")
	}
	if c.MaxSessions < 0 {
		return errors.New("config: max_sessions must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Renderer = getEnv("RENDERER", cfg.Renderer)
	cfg.TemplatesDir = getEnv("TEMPLATES_DIR", cfg.TemplatesDir)
	cfg.SchemaPath = getEnv("SCHEMA_PATH", cfg.SchemaPath)
	cfg.OperationID = getEnv("OPERATION_ID", cfg.OperationID)
	cfg.ValidateOnChange = getEnvAsBool("VALIDATE_ON_CHANGE", cfg.ValidateOnChange)
	cfg.MetricsEnabled = getEnvAsBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.MaxSessions = getEnvAsInt("MAX_SESSIONS", cfg.MaxSessions)
	cfg.ShutdownGrace = getEnvAsDuration("SHUTDOWN_GRACE", cfg.ShutdownGrace)
	cfg.Theme.Name = getEnv("THEME", cfg.Theme.Name)
	cfg.Theme.Variant = getEnv("THEME_VARIANT", cfg.Theme.Variant)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
