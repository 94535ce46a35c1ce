package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-p string   profile directory for durable state (default from Config)
//	-d string   SQLite database file (default from Config)
//	-w int      autosave debounce window in milliseconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-p", "-d", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ProfileDir, "p", cfg.ProfileDir, "profile directory for durable state")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "sqlite database file")
	debounceMs := fs.Int("w", int(cfg.DebounceWindow.Milliseconds()), "autosave debounce window (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceWindow = time.Duration(*debounceMs) * time.Millisecond
}
