package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the service.
type Config struct {
	DatabaseURL        string        `yaml:"database_url"`
	ServerPort         int           `yaml:"server_port"`
	LogLevel           string        `yaml:"log_level"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	MetricsEnabled     bool          `yaml:"metrics_enabled"`
	R2                 R2Config      `yaml:"r2"`
	Shutdown           ShutdownLimit `yaml:"shutdown"`
}

type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	PublicBaseURL   string `yaml:"public_base_url"`
	Endpoint        string `yaml:"endpoint"`
}

type ShutdownLimit struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func defaults() *Config {
	return &Config{
		ServerPort:         8080,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		MetricsEnabled:     true,
		Shutdown:           ShutdownLimit{TimeoutSeconds: 15},
	}
}

// Load reads an optional .env file, then the YAML file named by CONFIG_FILE,
// then environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup("SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		cfg.ServerPort = port
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := lookup("METRICS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED environment variable: %w", err)
		}
		cfg.MetricsEnabled = enabled
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT_SECONDS"); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS environment variable: %w", err)
		}
		cfg.Shutdown.TimeoutSeconds = secs
	}

	r2 := map[string]*string{
		"R2_ACCOUNT_ID":        &cfg.R2.AccountID,
		"R2_ACCESS_KEY_ID":     &cfg.R2.AccessKeyID,
		"R2_SECRET_ACCESS_KEY": &cfg.R2.SecretAccessKey,
		"R2_BUCKET_NAME":       &cfg.R2.BucketName,
		"R2_PUBLIC_BASE_URL":   &cfg.R2.PublicBaseURL,
		"R2_ENDPOINT":          &cfg.R2.Endpoint,
	}
	for key, dst := range r2 {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Shutdown.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %d", c.Shutdown.TimeoutSeconds))
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
