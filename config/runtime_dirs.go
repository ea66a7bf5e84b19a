package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RuntimeDirs holds the daemon's runtime paths, all derived from one
// base:
//
//	{base}/          runtime root
//	{base}/db/       state database
//	{base}/sock/     control socket
//	{base}/.lock     single-daemon lock
//
// RuntimeDirs is immutable; build one with NewRuntimeDirs.
type RuntimeDirs struct {
	base string
	db   string
	sock string
	lock string
}

// DefaultRuntimeDirs returns the production layout under /run/tracectl.
func DefaultRuntimeDirs() RuntimeDirs {
	dirs, err := NewRuntimeDirs("/run/tracectl")
	if err != nil {
		panic(err)
	}
	return dirs
}

// NewRuntimeDirs derives the layout from an absolute base path.
func NewRuntimeDirs(base string) (RuntimeDirs, error) {
	if base == "" {
		return RuntimeDirs{}, fmt.Errorf("base path cannot be empty")
	}
	if !filepath.IsAbs(base) {
		return RuntimeDirs{}, fmt.Errorf("base path must be absolute, got %q", base)
	}
	base = filepath.Clean(base)
	return RuntimeDirs{
		base: base,
		db:   filepath.Join(base, "db"),
		sock: filepath.Join(base, "sock"),
		lock: filepath.Join(base, ".lock"),
	}, nil
}

func (d RuntimeDirs) Base() string { return d.base }
func (d RuntimeDirs) DB() string   { return d.db }
func (d RuntimeDirs) Sock() string { return d.sock }
func (d RuntimeDirs) Lock() string { return d.lock }

// SocketPath is the control socket.
func (d RuntimeDirs) SocketPath() string {
	return filepath.Join(d.sock, "tracectl.sock")
}

// DBPath is the sqlite state database.
func (d RuntimeDirs) DBPath() string {
	return filepath.Join(d.db, "state.db")
}

// EnsureDirectories creates the runtime directories. Call it at startup
// to fail fast on permission problems.
func (d RuntimeDirs) EnsureDirectories() error {
	for _, dir := range []string{d.base, d.db, d.sock} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
