package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/config"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/catalog"
	"github.com/frobware/go-tracectl/interpreter/kernel"
	"github.com/frobware/go-tracectl/interpreter/store/sqlite"
	"github.com/frobware/go-tracectl/lock"
	"github.com/frobware/go-tracectl/logging"
	"github.com/frobware/go-tracectl/manager"
)

// Runtime is everything a control server needs on the host: the
// runtime lock, the state store, the tracers and the manager on top.
type Runtime struct {
	Dirs    config.RuntimeDirs
	Store   interpreter.Store
	Manager *manager.Manager

	catalogPath string
	ust         *catalog.Tracer
	jul         *catalog.Tracer
	logger      *slog.Logger
	undo        undoStack
}

// NewRuntime takes the runtime lock, opens the store and builds the
// manager from cfg. A second runtime on the same directories fails
// with lock.ErrHeld.
func NewRuntime(ctx context.Context, dirs config.RuntimeDirs, cfg config.Config, logger *slog.Logger) (_ *Runtime, err error) {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Runtime{Dirs: dirs, catalogPath: cfg.Catalog.Path, logger: logger}
	defer func() {
		if err != nil {
			_ = r.undo.unwind(logger)
		}
	}()

	if err := dirs.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("runtime directory setup failed: %w", err)
	}

	lk, err := lock.TryAcquire(dirs.Lock())
	if errors.Is(err, lock.ErrHeld) {
		return nil, fmt.Errorf("runtime %s is in use by another tracectl: %w", dirs.Base(), err)
	}
	if err != nil {
		return nil, err
	}
	r.undo.push(lk.Release)

	st, err := sqlite.New(ctx, dirs.DBPath(), logging.Component(logger, "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dirs.DBPath(), err)
	}
	r.undo.push(st.Close)
	r.Store = st

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	r.ust = catalog.NewTracer(cat, tracectl.DomainUST)
	r.jul = catalog.NewTracer(cat, tracectl.DomainJUL)

	kopts := []kernel.Option{kernel.WithLogger(logging.Component(logger, "kernel"))}
	if cfg.Kernel.BTF {
		kopts = append(kopts, kernel.WithSymbols(kernel.NewBTFResolver("")))
	}

	r.Manager = manager.New(st,
		manager.WithTracer(tracectl.DomainKernel, kernel.New(cfg.Kernel.Tracefs, kopts...)),
		manager.WithTracer(tracectl.DomainUST, r.ust),
		manager.WithTracer(tracectl.DomainJUL, r.jul),
		manager.WithDefaultChannel(cfg.Channels.Default),
		manager.WithLogger(logger),
	)
	return r, nil
}

// ReloadCatalog re-reads the user-space catalog. On error the previous
// catalog stays in place.
func (r *Runtime) ReloadCatalog() error {
	cat, err := catalog.Load(r.catalogPath)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	r.ust.Reload(cat)
	r.jul.Reload(cat)
	r.logger.Info("catalog reloaded", "path", r.catalogPath, "ust", len(cat.UST), "jul", len(cat.JUL))
	return nil
}

// Close releases the store and the lock.
func (r *Runtime) Close() error {
	return r.undo.unwind(r.logger)
}
