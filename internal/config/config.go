// Package config loads webschedule settings from a YAML file, WEBSCHEDULE_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/webscheduleplus/webschedule/internal/calendar"
	"github.com/webscheduleplus/webschedule/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. WEBSCHEDULE_TIMEZONE.
const EnvPrefix = "WEBSCHEDULE"

// Config keys.
const (
	KeyProductID        = "product_id"
	KeyUIDDomain        = "uid_domain"
	KeyTimezone         = "timezone"
	KeyOutputDir        = "output_dir"
	KeyFilename         = "filename"
	KeyLineEnding       = "line_ending"
	KeyLogLevel         = "log_level"
	KeyProfessorDataDir = "professor_data_dir"
	KeyCaptureTimeout   = "capture_timeout"
	KeyWatchSchedule    = "watch_schedule"
	KeyStateDir         = "state_dir"
)

// Config is the resolved configuration.
type Config struct {
	ProductID        string        `mapstructure:"product_id"`
	UIDDomain        string        `mapstructure:"uid_domain"`
	Timezone         string        `mapstructure:"timezone"`
	OutputDir        string        `mapstructure:"output_dir"`
	Filename         string        `mapstructure:"filename"`
	LineEnding       string        `mapstructure:"line_ending"`
	LogLevel         string        `mapstructure:"log_level"`
	ProfessorDataDir string        `mapstructure:"professor_data_dir"`
	CaptureTimeout   time.Duration `mapstructure:"capture_timeout"`
	WatchSchedule    string        `mapstructure:"watch_schedule"`
	StateDir         string        `mapstructure:"state_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProductID:      calendar.DefaultProductID,
		UIDDomain:      calendar.DefaultUIDDomain,
		Timezone:       calendar.DefaultTimeZone,
		OutputDir:      ".",
		Filename:       "schedule.ics",
		LineEnding:     "lf",
		LogLevel:       "warn",
		CaptureTimeout: 30 * time.Second,
		WatchSchedule:  "@every 5m",
		StateDir:       "~/.local/share/webschedule",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/webschedule/config.yaml, or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "webschedule", "config.yaml")
}

// Load resolves configuration. An explicit path must exist; without one the
// default path is read if present. Flags that were set on the command line
// override file and environment values; their names are the keys with
// dashes ("output-dir").
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(DefaultPath())
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", DefaultPath(), err)
		}
	}

	if flags != nil {
		for _, key := range allKeys {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", logger.Fields{"path": used})
	}
	return &cfg, nil
}

var allKeys = []string{
	KeyProductID, KeyUIDDomain, KeyTimezone, KeyOutputDir, KeyFilename,
	KeyLineEnding, KeyLogLevel, KeyProfessorDataDir, KeyCaptureTimeout,
	KeyWatchSchedule, KeyStateDir,
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault(KeyProductID, d.ProductID)
	v.SetDefault(KeyUIDDomain, d.UIDDomain)
	v.SetDefault(KeyTimezone, d.Timezone)
	v.SetDefault(KeyOutputDir, d.OutputDir)
	v.SetDefault(KeyFilename, d.Filename)
	v.SetDefault(KeyLineEnding, d.LineEnding)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyProfessorDataDir, d.ProfessorDataDir)
	v.SetDefault(KeyCaptureTimeout, d.CaptureTimeout)
	v.SetDefault(KeyWatchSchedule, d.WatchSchedule)
	v.SetDefault(KeyStateDir, d.StateDir)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks enumerated and parseable fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LineEnding) {
	case "lf", "crlf":
	default:
		return fmt.Errorf("line_ending must be lf or crlf, got %q", c.LineEnding)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if c.CaptureTimeout <= 0 {
		return fmt.Errorf("capture_timeout must be positive, got %s", c.CaptureTimeout)
	}
	return nil
}

// EOL returns the calendar line terminator for LineEnding.
func (c *Config) EOL() string {
	if strings.EqualFold(c.LineEnding, "crlf") {
		return calendar.LineEndingCRLF
	}
	return calendar.LineEndingLF
}

// Level returns the parsed log level, INFO when unset or invalid.
func (c *Config) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// EncoderOptions maps the calendar settings onto encoder options.
func (c *Config) EncoderOptions() []calendar.Option {
	return []calendar.Option{
		calendar.WithProductID(c.ProductID),
		calendar.WithUIDDomain(c.UIDDomain),
		calendar.WithTimeZone(c.Timezone),
		calendar.WithLineEnding(c.EOL()),
	}
}

// fileConfig is the on-disk YAML layout.
type fileConfig struct {
	ProductID        string `yaml:"product_id"`
	UIDDomain        string `yaml:"uid_domain"`
	Timezone         string `yaml:"timezone"`
	OutputDir        string `yaml:"output_dir"`
	Filename         string `yaml:"filename"`
	LineEnding       string `yaml:"line_ending"`
	LogLevel         string `yaml:"log_level"`
	ProfessorDataDir string `yaml:"professor_data_dir"`
	CaptureTimeout   string `yaml:"capture_timeout"`
	WatchSchedule    string `yaml:"watch_schedule"`
	StateDir         string `yaml:"state_dir"`
}

// Save writes cfg as YAML atomically with 0600 permissions, creating the
// parent directory (0700) when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(fileConfig{
		ProductID:        cfg.ProductID,
		UIDDomain:        cfg.UIDDomain,
		Timezone:         cfg.Timezone,
		OutputDir:        cfg.OutputDir,
		Filename:         cfg.Filename,
		LineEnding:       cfg.LineEnding,
		LogLevel:         cfg.LogLevel,
		ProfessorDataDir: cfg.ProfessorDataDir,
		CaptureTimeout:   cfg.CaptureTimeout.String(),
		WatchSchedule:    cfg.WatchSchedule,
		StateDir:         cfg.StateDir,
	})
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".webschedule-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
