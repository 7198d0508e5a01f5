package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webscheduleplus/webschedule/internal/calendar"
	"github.com/webscheduleplus/webschedule/internal/logger"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, calendar.LineEndingLF, cfg.EOL())
	assert.Equal(t, logger.LevelWarn, cfg.Level())
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "product_id: Campus\nline_ending: crlf\ncapture_timeout: 45s\nfilename: spring.ics\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Campus", cfg.ProductID)
	assert.Equal(t, calendar.LineEndingCRLF, cfg.EOL())
	assert.Equal(t, 45*time.Second, cfg.CaptureTimeout)
	assert.Equal(t, "spring.ics", cfg.Filename)
	assert.Equal(t, calendar.DefaultUIDDomain, cfg.UIDDomain, "unset keys keep defaults")
}

func TestLoad_DefaultPathIsRead(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".config", "webschedule", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("uid_domain: example.edu\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "example.edu", cfg.UIDDomain)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("WEBSCHEDULE_TIMEZONE", "America/Denver")
	t.Setenv("WEBSCHEDULE_LOG_LEVEL", "debug")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", cfg.Timezone)
	assert.Equal(t, logger.LevelDebug, cfg.Level())
}

func TestLoad_FlagOverride(t *testing.T) {
	isolate(t)
	t.Setenv("WEBSCHEDULE_OUTPUT_DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	flags.String("filename", "ignored-default.ics", "")
	require.NoError(t, flags.Set("output-dir", "/from/flag"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.OutputDir)
	assert.Equal(t, "schedule.ics", cfg.Filename, "unchanged flags do not override defaults")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"line ending", func(c *Config) { c.LineEnding = "cr" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"capture timeout", func(c *Config) { c.CaptureTimeout = 0 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	want := Default()
	want.LineEnding = "crlf"
	want.CaptureTimeout = 90 * time.Second
	require.NoError(t, Save(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}

func TestEncoderOptions(t *testing.T) {
	cfg := Default()
	cfg.ProductID = "Campus"
	enc := calendar.NewEncoder(append(cfg.EncoderOptions(), calendar.WithUIDs(calendar.CounterUIDs("u")))...)
	assert.Contains(t, enc.Encode(nil), "PRODID:-//Campus//EN")
}
