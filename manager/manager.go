// Package manager implements the event control operations on top of
// the store and the per-domain tracers, using the fetch/compute/execute
// pattern.
//
// # Atomicity
//
// Every mutating operation runs inside one store transaction: fetch
// the session, channel and event state, compute the actions, execute
// them against the transaction-bound store. A failure anywhere rolls
// the whole operation back, including a default channel the operation
// created implicitly on its way.
//
// # Concurrency
//
// The manager does not lock. The server serialises mutating calls
// and lets reads run concurrently.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/action"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// Manager carries out control operations.
type Manager struct {
	store          interpreter.Store
	tracers        map[tracectl.Domain]interpreter.Tracer
	defaultChannel string
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTracer registers the tracer backing domain d.
func WithTracer(d tracectl.Domain, t interpreter.Tracer) Option {
	return func(m *Manager) {
		m.tracers[d] = t
	}
}

// WithDefaultChannel sets the channel used when an operation names
// none. It defaults to tracectl.DefaultChannelName.
func WithDefaultChannel(name string) Option {
	return func(m *Manager) {
		m.defaultChannel = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager over st.
func New(st interpreter.Store, opts ...Option) *Manager {
	m := &Manager{
		store:          st,
		tracers:        make(map[tracectl.Domain]interpreter.Tracer),
		defaultChannel: tracectl.DefaultChannelName,
		logger:         slog.Default(),
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "manager")
	return m
}

// DefaultChannel returns the name used for implicit channels.
func (m *Manager) DefaultChannel() string {
	return m.defaultChannel
}

// inTx runs fn in a transaction with an executor bound to it.
func (m *Manager) inTx(ctx context.Context, fn func(tx interpreter.Store, exec interpreter.ActionExecutor) error) error {
	return m.store.RunInTransaction(ctx, func(tx interpreter.Store) error {
		return fn(tx, interpreter.NewExecutor(tx))
	})
}

// tracer returns the tracer for a domain.
func (m *Manager) tracer(d tracectl.Domain) (interpreter.Tracer, error) {
	t, ok := m.tracers[d]
	if !ok {
		return nil, tracectl.Errorf(tracectl.KindCommunication, "no tracer available for the %s domain", d)
	}
	return t, nil
}

// requireSession fetches the handle's session.
func requireSession(ctx context.Context, st interpreter.Store, h *tracectl.Handle) error {
	if _, err := st.GetSession(ctx, h.Session); err != nil {
		return storeError(err, fmt.Sprintf("session %q", h.Session))
	}
	return nil
}

// storeError maps store errors onto the error taxonomy. Errors that
// already carry a kind pass through.
func storeError(err error, what string) error {
	var te *tracectl.Error
	switch {
	case errors.As(err, &te):
		return err
	case errors.Is(err, store.ErrNotFound):
		return tracectl.Errorf(tracectl.KindNotFound, "%s not found", what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// tracerError classifies a tracer failure. Untyped failures mean the
// tracer could not be reached or read.
func tracerError(err error, d tracectl.Domain) error {
	var te *tracectl.Error
	if errors.As(err, &te) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return tracectl.Wrap(tracectl.KindCommunication, err, fmt.Sprintf("%s tracer", d))
}

// checkChannelName validates an optional channel name.
func checkChannelName(name string) error {
	if len(name) > tracectl.MaxNameLen {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "channel name exceeds %d bytes", tracectl.MaxNameLen)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == 0 || name[i] == '/' {
			return tracectl.Errorf(tracectl.KindInvalidArgument, "channel name %q contains a NUL or '/'", name)
		}
	}
	return nil
}

// resolveChannel finds the channel an operation targets. An empty name
// selects the default channel, which is created when create is set. A
// named channel must exist.
func (m *Manager) resolveChannel(ctx context.Context, tx interpreter.Store, exec interpreter.ActionExecutor, h *tracectl.Handle, name string, create bool) (store.ChannelRecord, error) {
	implicit := name == ""
	if implicit {
		name = m.defaultChannel
	}
	key := store.ChannelKey{Session: h.Session, Domain: h.Domain, Name: name}

	ch, err := tx.GetChannel(ctx, key)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, store.ErrNotFound) || !implicit || !create {
		return store.ChannelRecord{}, storeError(err, fmt.Sprintf("channel %q", name))
	}

	if err := exec.Execute(ctx, action.CreateChannel{Channel: key}); err != nil {
		return store.ChannelRecord{}, storeError(err, fmt.Sprintf("create channel %q", name))
	}
	m.logger.InfoContext(ctx, "created default channel", "session", h.Session, "domain", h.Domain, "channel", name)
	return tx.GetChannel(ctx, key)
}
