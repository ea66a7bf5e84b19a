package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/client"
	"github.com/frobware/go-tracectl/config"
	"github.com/frobware/go-tracectl/lock"
	"github.com/frobware/go-tracectl/logging"
)

// CLI is the root command structure for tracectl.
type CLI struct {
	Out io.Writer `kong:"-"`

	Config     string `name:"config" help:"Config file path." default:"${default_config_path}"`
	Log        string `name:"log" help:"Log spec (e.g., 'info,manager=debug')." env:"TRACECTL_LOG"`
	Remote     string `name:"remote" short:"r" help:"Daemon endpoint (unix:///path or host:port). Without it the runtime directory's daemon is used, or an in-process service when none runs."`
	RuntimeDir string `name:"runtime-dir" help:"Runtime directory (overrides daemon.runtime_dir)."`

	Serve         ServeCmd         `cmd:"" help:"Start the control daemon."`
	Version       VersionCmd       `cmd:"" help:"Show version information."`
	Create        CreateCmd        `cmd:"" help:"Create a tracing session."`
	Destroy       DestroyCmd       `cmd:"" help:"Destroy a tracing session."`
	List          ListCmd          `cmd:"" help:"List sessions, channels, events, tracepoints or fields."`
	EnableChannel EnableChannelCmd `cmd:"" name:"enable-channel" help:"Create a channel in a session."`
	EnableEvent   EnableEventCmd   `cmd:"" name:"enable-event" help:"Enable events in a channel."`
	DisableEvent  DisableEventCmd  `cmd:"" name:"disable-event" help:"Disable events in a channel."`
	AddContext    AddContextCmd    `cmd:"" name:"add-context" help:"Add context fields to channels."`
}

// KongOptions returns the Kong configuration options for the CLI.
func KongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("tracectl"),
		kong.Description("Trace event control client and daemon."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.TypeMapper(reflect.TypeOf(tracectl.Context{}), contextMapper()),
		kong.Vars{
			"default_config_path": config.DefaultPath,
			"default_channel":     tracectl.DefaultChannelName,
		},
	}
}

// WriteOut writes b to the command output. A short write without an
// error is reported as io.ErrShortWrite.
func (c *CLI) WriteOut(b []byte) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	n, err := out.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// PrintOut writes s to the command output.
func (c *CLI) PrintOut(s string) error {
	return c.WriteOut([]byte(s))
}

// PrintOutf formats and writes to the command output.
func (c *CLI) PrintOutf(format string, args ...any) error {
	return c.WriteOut(fmt.Appendf(nil, format, args...))
}

// LoadConfig loads the configuration from the config file path.
func (c *CLI) LoadConfig() (config.Config, error) {
	return config.Load(c.Config)
}

// RuntimeDirs returns the runtime directories selected by
// --runtime-dir or the configuration.
func (c *CLI) RuntimeDirs(cfg config.Config) (config.RuntimeDirs, error) {
	base := c.RuntimeDir
	if base == "" {
		base = cfg.Daemon.RuntimeDir
	}
	return config.NewRuntimeDirs(base)
}

// Logger creates a logger for CLI commands.
// CLI commands default to WARN level for quieter output.
// Use LoggerFromConfig for long-running services like serve.
func (c *CLI) Logger() (*slog.Logger, error) {
	spec := c.Log
	if spec == "" {
		spec = "warn"
	}
	return c.newLogger(spec, os.Stderr)
}

// LoggerFromConfig creates a logger using config file settings.
// Used by long-running services (serve) where INFO level is appropriate.
// Output goes to stdout for daemon/container log collection.
func (c *CLI) LoggerFromConfig() (*slog.Logger, error) {
	return c.newLogger(c.Log, os.Stdout)
}

func (c *CLI) newLogger(spec string, out io.Writer) (*slog.Logger, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Options{
		CLISpec:    spec,
		ConfigSpec: cfg.Logging.Spec(),
		Format:     format,
		Output:     out,
	})
}

// Client returns a client appropriate for the configured transport.
// With --remote it dials that endpoint. Otherwise it runs the control
// service in-process, falling back to the daemon's socket when a
// daemon already holds the runtime directory.
// The returned client must be closed when no longer needed.
func (c *CLI) Client(ctx context.Context) (*client.Client, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	if c.Remote != "" {
		return client.Dial(c.Remote, client.WithLogger(logger))
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	dirs, err := c.RuntimeDirs(cfg)
	if err != nil {
		return nil, err
	}

	cl, err := client.Open(ctx,
		client.WithLogger(logger),
		client.WithConfig(cfg),
		client.WithRuntimeDir(dirs.Base()))
	if errors.Is(err, lock.ErrHeld) {
		logger.Debug("runtime directory in use, dialing daemon", "socket", dirs.SocketPath())
		return client.Dial(dirs.SocketPath(), client.WithLogger(logger))
	}
	return cl, err
}

// channelOrDefault returns name, or the configured default channel
// when name is empty.
func (c *CLI) channelOrDefault(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Channels.Default == "" {
		return tracectl.DefaultChannelName, nil
	}
	return cfg.Channels.Default, nil
}
