package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o660))
	return path
}

func TestParseJson_OverlaysOnlyPresentFields(t *testing.T) {
	path := writeConfigFile(t, `{
		"database_dsn": "other.db",
		"debounce_window": "250ms",
		"session_ttl": "48h"
	}`)

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"cmd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "other.db", cfg.DatabaseDSN)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	// untouched fields keep their defaults
	assert.Equal(t, "profile", cfg.ProfileDir)
	assert.Equal(t, DefaultDeploymentVersion, cfg.DeploymentVersion)
}

func TestParseJson_NoFileFlagIsNoop(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"cmd"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "taskvault.db", cfg.DatabaseDSN)
}

func TestParseJson_BrokenFilePanics(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"cmd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(cfg) })
}
