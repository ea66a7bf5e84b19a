// Package server implements the tracectl gRPC control server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/frobware/go-tracectl/config"
	"github.com/frobware/go-tracectl/logging"
	"github.com/frobware/go-tracectl/manager"
	"github.com/frobware/go-tracectl/wire"
)

// RunConfig configures the server daemon.
type RunConfig struct {
	Dirs config.RuntimeDirs
	// TCPAddress optionally exposes the control service on TCP
	// (e.g. ":7420") next to the unix socket.
	TCPAddress string
	// MetricsAddress optionally serves /metrics over HTTP.
	MetricsAddress string
	Logger         *slog.Logger
	Config         config.Config
}

// Run starts the tracectl daemon and blocks until ctx is cancelled or a
// listener fails. SIGHUP reloads the user-space catalog.
func Run(ctx context.Context, cfg RunConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	logger = logging.WithOpID(logger)

	rt, err := NewRuntime(ctx, cfg.Dirs, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := rt.ReloadCatalog(); err != nil {
					logger.Error("catalog reload failed", "error", err)
				}
			}
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := New(rt.Manager, WithLogger(logger), WithRegisterer(reg))
	return srv.serve(ctx, listenConfig{
		socketPath:  cfg.Dirs.SocketPath(),
		tcpAddr:     cfg.TCPAddress,
		metricsAddr: cfg.MetricsAddress,
		gatherer:    reg,
	})
}

// Server implements wire.ControlServer on top of a manager. Mutating
// calls are serialised; reads run concurrently.
type Server struct {
	mu        sync.RWMutex
	mgr       *manager.Manager
	health    *health.Server
	metrics   *metrics
	logger    *slog.Logger
	opCounter atomic.Uint64
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithLogger sets the server logger. Records logged while handling a
// request carry its op_id.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// WithRegisterer registers the request metrics with reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *serverOptions) { o.registerer = reg }
}

// New creates a server over mgr.
func New(mgr *manager.Manager, opts ...Option) *Server {
	o := serverOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}
	hs := health.NewServer()
	hs.SetServingStatus(wire.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return &Server{
		mgr:     mgr,
		health:  hs,
		metrics: newMetrics(o.registerer),
		logger:  logging.Component(logging.WithOpID(o.logger), "server"),
	}
}

// NewGRPCServer returns a grpc.Server with the control and health
// services registered and the request interceptor installed.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(s.interceptor())}, opts...)
	gs := grpc.NewServer(opts...)
	wire.RegisterControlServer(gs, s)
	healthpb.RegisterHealthServer(gs, s.health)
	return gs
}

// Shutdown marks the server as not serving; health checks report
// NOT_SERVING from then on.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

type listenConfig struct {
	socketPath  string
	tcpAddr     string
	metricsAddr string
	gatherer    prometheus.Gatherer
}

// serve runs the gRPC server on the unix socket and optionally on TCP,
// plus the metrics endpoint, until ctx is done or one of them fails.
func (s *Server) serve(ctx context.Context, lc listenConfig) error {
	if err := os.MkdirAll(filepath.Dir(lc.socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.RemoveAll(lc.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	var undo undoStack
	defer undo.unwind(s.logger)

	unixListener, err := net.Listen("unix", lc.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", lc.socketPath, err)
	}
	undo.push(func() error {
		if err := os.Remove(lc.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
	if err := os.Chmod(lc.socketPath, 0o660); err != nil {
		unixListener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	var tcpListener net.Listener
	if lc.tcpAddr != "" {
		if tcpListener, err = net.Listen("tcp", lc.tcpAddr); err != nil {
			unixListener.Close()
			return fmt.Errorf("failed to listen on TCP %s: %w", lc.tcpAddr, err)
		}
	}

	var metricsServer *http.Server
	var metricsListener net.Listener
	if lc.metricsAddr != "" && lc.gatherer != nil {
		if metricsListener, err = net.Listen("tcp", lc.metricsAddr); err != nil {
			unixListener.Close()
			if tcpListener != nil {
				tcpListener.Close()
			}
			return fmt.Errorf("metrics listen on %s: %w", lc.metricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(lc.gatherer, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	gs := s.NewGRPCServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(ctx, "tracectl gRPC server listening", "socket", lc.socketPath)
		if err := gs.Serve(unixListener); err != nil {
			return fmt.Errorf("unix socket server: %w", err)
		}
		return nil
	})
	if tcpListener != nil {
		g.Go(func() error {
			s.logger.InfoContext(ctx, "tracectl gRPC server listening", "tcp", tcpListener.Addr().String())
			if err := gs.Serve(tcpListener); err != nil {
				return fmt.Errorf("tcp server: %w", err)
			}
			return nil
		})
	}
	if metricsServer != nil {
		g.Go(func() error {
			s.logger.InfoContext(ctx, "metrics server listening", "address", metricsListener.Addr().String())
			if err := metricsServer.Serve(metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.logger.InfoContext(ctx, "shutting down gRPC server")
		s.Shutdown()
		gs.GracefulStop()
		if metricsServer != nil {
			metricsServer.Close()
		}
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// interceptor assigns a monotonic operation id to each request, logs
// failures, converts errors to gRPC status and records metrics.
func (s *Server) interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		opID := s.opCounter.Add(1)
		ctx = logging.ContextWithOpID(ctx, opID)
		start := time.Now()

		s.metrics.inflight.Inc()
		resp, err := handler(ctx, req)
		s.metrics.inflight.Dec()

		err = toStatus(err)
		s.metrics.observe(info.FullMethod, start, err)
		if err != nil {
			s.logger.ErrorContext(ctx, "grpc error", "method", info.FullMethod, "error", err)
		} else {
			s.logger.DebugContext(ctx, "grpc request", "method", info.FullMethod, "duration_ms", time.Since(start).Milliseconds())
		}
		return resp, err
	}
}
