// Package config loads daemon configuration.
//
// Values come from the embedded default.toml, overlaid by the config
// file when it exists. The TOML decoder only touches keys present in
// the file, so a partial file keeps every other default. Flags and
// environment variables are applied on top by the command line.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/frobware/go-tracectl"
)

//go:embed default.toml
var defaultTOML string

// DefaultPath is where Load looks when given an empty path.
const DefaultPath = "/etc/tracectl/tracectl.toml"

// Config is the top-level daemon configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Daemon   DaemonConfig   `toml:"daemon"`
	Channels ChannelsConfig `toml:"channels"`
	Kernel   KernelConfig   `toml:"kernel"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// LoggingConfig is the [logging] section.
type LoggingConfig struct {
	// Level is a log spec such as "info,manager=debug".
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// Components is an alternative to per-component entries in Level.
	Components map[string]string `toml:"components"`
}

// Spec returns the log spec the section describes. Level wins over
// Components when both are set.
func (c *LoggingConfig) Spec() string {
	if c.Level != "" || len(c.Components) == 0 {
		return c.Level
	}
	parts := []string{"info"}
	for _, k := range slices.Sorted(maps.Keys(c.Components)) {
		parts = append(parts, k+"="+c.Components[k])
	}
	return strings.Join(parts, ",")
}

// DaemonConfig is the [daemon] section.
type DaemonConfig struct {
	RuntimeDir     string `toml:"runtime_dir"`
	TCPAddress     string `toml:"tcp_address"`
	MetricsAddress string `toml:"metrics_address"`
}

// ChannelsConfig is the [channels] section.
type ChannelsConfig struct {
	// Default is the channel used when an operation names none.
	Default string `toml:"default"`
}

// KernelConfig is the [kernel] section.
type KernelConfig struct {
	Tracefs string `toml:"tracefs"`
	// BTF enables symbol checks for function and probe events.
	BTF bool `toml:"btf"`
}

// CatalogConfig is the [catalog] section.
type CatalogConfig struct {
	// Path of the user-space tracepoint catalog. A missing file means
	// an empty catalog.
	Path string `toml:"path"`
}

// Default returns the embedded defaults.
func Default() Config {
	var cfg Config
	if _, err := toml.Decode(defaultTOML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default.toml: %v", err))
	}
	return cfg
}

// Load overlays the file at path onto the defaults. A missing file is
// not an error; an unreadable or invalid one is.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate checks values the daemon cannot start without.
func (c *Config) Validate() error {
	if c.Channels.Default == "" {
		return fmt.Errorf("channels.default must not be empty")
	}
	if len(c.Channels.Default) > tracectl.MaxNameLen {
		return fmt.Errorf("channels.default exceeds %d bytes", tracectl.MaxNameLen)
	}
	if _, err := NewRuntimeDirs(c.Daemon.RuntimeDir); err != nil {
		return fmt.Errorf("daemon.runtime_dir: %w", err)
	}
	return nil
}
