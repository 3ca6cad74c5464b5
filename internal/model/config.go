package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// RetentionConfig holds the retention defaults used until the user
// changes them through the settings store.
type RetentionConfig struct {
	AutoCleanup bool `mapstructure:"auto_cleanup" yaml:"auto_cleanup"`
	Days        int  `mapstructure:"days" yaml:"days"`
}

// CleanupConfig controls how often the retention sweep is scheduled.
type CleanupConfig struct {
	Period     time.Duration `mapstructure:"period" yaml:"period"`
	Flex       time.Duration `mapstructure:"flex" yaml:"flex"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`

	// Location is the IANA time zone used for calendar-day cutoffs.
	// Empty means the local zone.
	Location string `mapstructure:"location" yaml:"location"`
}

// CaptureConfig controls which incoming events are persisted.
type CaptureConfig struct {
	IgnoredPackages []string `mapstructure:"ignored_packages" yaml:"ignored_packages"`
}

// ReporterConfig holds status rollup preferences.
type ReporterConfig struct {
	MaxIcons int `mapstructure:"max_icons" yaml:"max_icons"`
}

// LogConfig selects the log level and output format ("console" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig toggles prometheus instrumentation and its listen address.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup" yaml:"cleanup"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Reporter  ReporterConfig  `mapstructure:"reporter" yaml:"reporter"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// SystemPackage is the package name of platform-originated notifications.
const SystemPackage = "android"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notistore/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "notistore", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/notistore/notistore.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "notistore.db"
	}
	return filepath.Join(home, ".local", "share", "notistore", "notistore.db")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Retention: RetentionConfig{
			AutoCleanup: true,
			Days:        30,
		},
		Cleanup: CleanupConfig{
			Period:     24 * time.Hour,
			Flex:       15 * time.Minute,
			MaxRetries: 3,
		},
		Capture:  CaptureConfig{IgnoredPackages: []string{SystemPackage}},
		Reporter: ReporterConfig{MaxIcons: 10},
		Log:      LogConfig{Level: "info", Format: "console"},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("retention.auto_cleanup", d.Retention.AutoCleanup)
	v.SetDefault("retention.days", d.Retention.Days)
	v.SetDefault("cleanup.period", d.Cleanup.Period)
	v.SetDefault("cleanup.flex", d.Cleanup.Flex)
	v.SetDefault("cleanup.max_retries", d.Cleanup.MaxRetries)
	v.SetDefault("cleanup.location", "")
	v.SetDefault("capture.ignored_packages", d.Capture.IgnoredPackages)
	v.SetDefault("reporter.max_icons", d.Reporter.MaxIcons)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with NOTISTORE_* environment variables
// (NOTISTORE_RETENTION_DAYS and so on). A missing file yields defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("notistore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges that viper cannot express.
func (c *AppConfig) Validate() error {
	if c.Retention.Days < 1 {
		return fmt.Errorf("retention.days must be at least 1, got %d", c.Retention.Days)
	}
	if c.Cleanup.Period <= 0 {
		return fmt.Errorf("cleanup.period must be positive")
	}
	if c.Cleanup.Flex < 0 || c.Cleanup.Flex > c.Cleanup.Period {
		return fmt.Errorf("cleanup.flex must be between 0 and cleanup.period")
	}
	if c.Reporter.MaxIcons < 1 {
		return fmt.Errorf("reporter.max_icons must be at least 1")
	}
	if _, err := c.Cleanup.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// TimeLocation resolves the configured cleanup time zone.
func (c CleanupConfig) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("loading cleanup.location %q: %w", c.Location, err)
	}
	return loc, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("retention", cfg.Retention)
	v.Set("cleanup", map[string]any{
		"period":      cfg.Cleanup.Period.String(),
		"flex":        cfg.Cleanup.Flex.String(),
		"max_retries": cfg.Cleanup.MaxRetries,
		"location":    cfg.Cleanup.Location,
	})
	v.Set("capture", cfg.Capture)
	v.Set("reporter", cfg.Reporter)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
