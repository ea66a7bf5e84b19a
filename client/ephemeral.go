package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/frobware/go-tracectl/config"
	"github.com/frobware/go-tracectl/server"
)

// Open runs the control service in-process and returns a client
// connected to it over a private unix socket, so local use goes through
// the same handlers as a daemon. Open holds the runtime lock until
// Close and fails if a daemon owns the runtime directory.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	o := newOptions(opts)

	base := o.runtimeDir
	if base == "" {
		base = o.config.Daemon.RuntimeDir
	}
	dirs, err := config.NewRuntimeDirs(base)
	if err != nil {
		return nil, fmt.Errorf("runtime directory: %w", err)
	}

	rt, err := server.NewRuntime(ctx, dirs, o.config, o.logger)
	if err != nil {
		return nil, fmt.Errorf("setup runtime: %w", err)
	}

	srv := server.New(rt.Manager, server.WithLogger(o.logger))
	gs := srv.NewGRPCServer()

	// The socket is private to this process and never the daemon's.
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("tracectl-ephemeral-%d-%d.sock", os.Getpid(), time.Now().UnixNano()))
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("listen on socket %s: %w", socketPath, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gs.Serve(listener); err != nil {
			o.logger.Error("ephemeral server failed", "error", err)
		}
	}()

	stop := func() error {
		gs.GracefulStop()
		wg.Wait()
		err := rt.Close()
		if rmErr := os.Remove(socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			o.logger.Warn("failed to remove socket", "path", socketPath, "error", rmErr)
		}
		return err
	}

	c, err := newRemote(socketPath, o.logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect to ephemeral server: %w", err), stop())
	}
	c.release = stop
	return c, nil
}
