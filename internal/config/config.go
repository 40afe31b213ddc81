// Package config loads taskflow settings from defaults, an optional YAML
// file and TASKFLOW_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TASKFLOW_DATABASE or
// TASKFLOW_REDIS_ADDR.
const EnvPrefix = "TASKFLOW"

// Config is the full taskflow configuration.
type Config struct {
	// Path to the SQLite database
	Database string `yaml:"database" mapstructure:"database"`

	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug|info|warn|error
	Format string `yaml:"format" mapstructure:"format"` // text|json
}

// HTTPConfig configures `taskflow serve`.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// RedisConfig configures the optional Redis stream sink.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Stream  string `yaml:"stream" mapstructure:"stream"`
	MaxLen  int64  `yaml:"max_len" mapstructure:"max_len"`
}

// DispatchConfig bounds event dispatch.
type DispatchConfig struct {
	MaxSteps int `yaml:"max_steps" mapstructure:"max_steps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: "taskflow.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Stream: "taskflow:events",
			MaxLen: 10000,
		},
		Dispatch: DispatchConfig{
			MaxSteps: 1000,
		},
	}
}

// Load merges the defaults, the file at path (skipped when path is empty)
// and the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database", cfg.Database)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("redis.enabled", cfg.Redis.Enabled)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.stream", cfg.Redis.Stream)
	v.SetDefault("redis.max_len", cfg.Redis.MaxLen)
	v.SetDefault("dispatch.max_steps", cfg.Dispatch.MaxSteps)
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("config: database must be set")
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("config: invalid log.level %q: must be one of %v", c.Log.Level, validLevels)
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("config: invalid log.format %q: must be one of %v", c.Log.Format, validFormats)
	}
	if c.Dispatch.MaxSteps < 1 {
		return fmt.Errorf("config: dispatch.max_steps must be positive, got %d", c.Dispatch.MaxSteps)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr must be set when redis is enabled")
	}
	return nil
}

// SlogLevel returns the configured slog level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in the configured format.
// verbose forces debug level.
func (c LogConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := c.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
