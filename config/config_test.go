package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "/run/tracectl", cfg.Daemon.RuntimeDir)
	assert.Equal(t, tracectl.DefaultChannelName, cfg.Channels.Default)
	assert.Equal(t, "/sys/kernel/tracing", cfg.Kernel.Tracefs)
	assert.True(t, cfg.Kernel.BTF)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracectl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
level = "warn,manager=debug"

[channels]
default = "main"

[kernel]
btf = false
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn,manager=debug", cfg.Logging.Spec())
	assert.Equal(t, "main", cfg.Channels.Default)
	assert.False(t, cfg.Kernel.BTF)
	assert.Equal(t, "/sys/kernel/tracing", cfg.Kernel.Tracefs, "keys absent from the file keep their default")
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_RejectsInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"syntax":           "[logging\nlevel=",
		"unknown key":      "[daemon]\nsocket = \"/tmp/x\"\n",
		"empty channel":    "[channels]\ndefault = \"\"\n",
		"relative runtime": "[daemon]\nruntime_dir = \"run\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tracectl.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoggingConfig_SpecFromComponents(t *testing.T) {
	c := config.LoggingConfig{Components: map[string]string{"store": "trace", "manager": "debug"}}
	assert.Equal(t, "info,manager=debug,store=trace", c.Spec())
}

func TestRuntimeDirs(t *testing.T) {
	d, err := config.NewRuntimeDirs("/run/tracectl-test/")
	require.NoError(t, err)
	assert.Equal(t, "/run/tracectl-test", d.Base())
	assert.Equal(t, "/run/tracectl-test/db/state.db", d.DBPath())
	assert.Equal(t, "/run/tracectl-test/sock/tracectl.sock", d.SocketPath())
	assert.Equal(t, "/run/tracectl-test/.lock", d.Lock())

	_, err = config.NewRuntimeDirs("relative")
	assert.Error(t, err)
	_, err = config.NewRuntimeDirs("")
	assert.Error(t, err)
}

func TestRuntimeDirs_EnsureDirectories(t *testing.T) {
	d, err := config.NewRuntimeDirs(filepath.Join(t.TempDir(), "rt"))
	require.NoError(t, err)
	require.NoError(t, d.EnsureDirectories())
	for _, dir := range []string{d.Base(), d.DB(), d.Sock()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
