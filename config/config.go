// Package config loads and saves the debugger's session defaults from a
// TOML file in the user's config directory.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"bug65/log"
)

// Config holds the settings a debugging session falls back to when a
// command-line flag doesn't override them.
type Config struct {
	Debugger DebuggerConfig `toml:"debugger"`
	General  GeneralConfig  `toml:"general"`
}

// DebuggerConfig holds Controller defaults.
type DebuggerConfig struct {
	// SourceDir resolves relative file names from debug-info records
	// against a base directory, when the program's own working directory
	// isn't where the sources live.
	SourceDir string `toml:"source_dir"`

	// SPZPOverride, when nonzero, replaces the sp-zp byte a sim65 header
	// supplies, for images built against a nonstandard software-stack
	// location.
	SPZPOverride uint16 `toml:"sp_zp_override"`

	SliceSize int `toml:"slice_size"`
	MaxFrames int `toml:"max_frames"`
}

// GeneralConfig holds settings outside the debugger session itself.
type GeneralConfig struct {
	LogModules string `toml:"log_modules"`
}

// Default returns the built-in defaults, used when no config file exists
// or one fails to parse.
func Default() Config {
	return Config{
		Debugger: DebuggerConfig{
			SliceSize: 1000,
			MaxFrames: 64,
		},
	}
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("bug65")
	if err := configdir.MakePath(dir); err != nil {
		log.ModCLI.FatalZ("failed to create config directory").String("dir", dir).Error("err", err).End()
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadOrDefault loads the configuration from the bug65 config directory,
// or falls back to Default on any error.
func LoadOrDefault() Config {
	cfg := Default()
	if _, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg into the bug65 config directory.
func Save(cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ConfigDir, cfgFilename), buf.Bytes(), 0644)
}
