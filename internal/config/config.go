// Package config holds runtime settings for the TaskVault CLI and the
// layered loading logic: defaults, then an optional JSON file, then flags.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for TaskVault.
//
// Fields:
//   - ProfileDir: root directory of the durable tier (per-profile JSON files).
//   - SessionDir: root of the ephemeral tier, wiped at process exit.
//   - FallbackFile: capped last-resort store used when richer tiers fail.
//   - DatabaseDSN: SQLite file backing the structured tier.
//   - DebounceWindow: autosave coalescing window.
//   - SessionTTL: login session inactivity expiry.
//   - DeploymentVersion: schema drift marker persisted next to state.
type Config struct {
	ProfileDir        string
	SessionDir        string
	FallbackFile      string
	DatabaseDSN       string
	DebounceWindow    time.Duration
	SessionTTL        time.Duration
	DeploymentVersion string
	MaxAuthBackups    int
}

// DefaultDeploymentVersion identifies the state schema produced by this
// build. Bumped on backward-incompatible state changes.
const DefaultDeploymentVersion = "2.1.0"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ProfileDir = "profile"
	c.SessionDir = filepath.Join(os.TempDir(), "taskvault-session")
	c.FallbackFile = "taskvault-fallback.json"
	c.DatabaseDSN = "taskvault.db"
	c.DebounceWindow = 500 * time.Millisecond
	c.SessionTTL = 24 * time.Hour
	c.DeploymentVersion = DefaultDeploymentVersion
	c.MaxAuthBackups = 3
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
