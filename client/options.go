package client

import (
	"log/slog"

	"google.golang.org/grpc"

	"github.com/frobware/go-tracectl/config"
	"github.com/frobware/go-tracectl/logging"
)

// DefaultSocketPath returns the control socket of a daemon using the
// default runtime directory.
func DefaultSocketPath() string {
	return config.DefaultRuntimeDirs().SocketPath()
}

// options is the union of what Dial and Open accept; each ignores the
// fields that do not concern it.
type options struct {
	logger *slog.Logger

	// Dial only.
	grpcOpts []grpc.DialOption

	// Open only.
	runtimeDir string
	config     config.Config
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: logging.Discard(),
		config: config.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures Dial or Open.
type Option func(*options)

// WithLogger sets the logger for client operations. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRuntimeDir sets the base runtime directory for Open, overriding
// daemon.runtime_dir of the configuration.
func WithRuntimeDir(path string) Option {
	return func(o *options) { o.runtimeDir = path }
}

// WithConfig sets the configuration Open builds its runtime from. The
// default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithDialOptions appends gRPC dial options, e.g. transport
// credentials for a TCP daemon. Open ignores them.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.grpcOpts = append(o.grpcOpts, opts...) }
}

// Dial connects to a tracectl daemon. The address is one of:
//   - "host:port" for TCP
//   - "unix:///path/to/socket"
//   - "/path/to/socket", shorthand for the above
//
// The connection is established lazily; use Ping to wait for the
// daemon. The returned client must be closed when no longer needed.
func Dial(address string, opts ...Option) (*Client, error) {
	o := newOptions(opts)
	return newRemote(address, o.logger, o.grpcOpts...)
}
