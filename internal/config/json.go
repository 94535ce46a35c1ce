package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/flagx"
	"github.com/dmitrijs2005/taskvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like
// "500ms" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ProfileDir        *string         `json:"profile_dir"`
	SessionDir        *string         `json:"session_dir"`
	FallbackFile      *string         `json:"fallback_file"`
	DatabaseDSN       *string         `json:"database_dsn"`
	DebounceWindow    *timex.Duration `json:"debounce_window"`
	SessionTTL        *timex.Duration `json:"session_ttl"`
	DeploymentVersion *string         `json:"deployment_version"`
	MaxAuthBackups    *int            `json:"max_auth_backups"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags();
// if no path is given, nothing is loaded. Absent JSON fields leave the
// corresponding Config fields untouched. Read or unmarshal errors panic
// (the process cannot do anything useful with a broken config file).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ProfileDir != nil {
		cfg.ProfileDir = *jc.ProfileDir
	}
	if jc.SessionDir != nil {
		cfg.SessionDir = *jc.SessionDir
	}
	if jc.FallbackFile != nil {
		cfg.FallbackFile = *jc.FallbackFile
	}
	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.DebounceWindow != nil {
		cfg.DebounceWindow = jc.DebounceWindow.Duration
	}
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.DeploymentVersion != nil {
		cfg.DeploymentVersion = *jc.DeploymentVersion
	}
	if jc.MaxAuthBackups != nil {
		cfg.MaxAuthBackups = *jc.MaxAuthBackups
	}
}
