// Package interpreter holds the interfaces behind which all I/O
// happens, and the executor that turns reified actions into calls on
// them.
package interpreter

import (
	"context"
	"io"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// SessionStore persists sessions.
type SessionStore interface {
	// CreateSession returns store.ErrAlreadyExists if the name is taken.
	CreateSession(ctx context.Context, s tracectl.Session) error
	// GetSession returns store.ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, name string) (tracectl.Session, error)
	// DeleteSession removes the session with its channels, events and
	// contexts. Returns store.ErrNotFound if it does not exist.
	DeleteSession(ctx context.Context, name string) error
	ListSessions(ctx context.Context) ([]tracectl.Session, error)
}

// ChannelStore persists channels and their contexts.
type ChannelStore interface {
	// CreateChannel is a no-op if the channel already exists.
	CreateChannel(ctx context.Context, key store.ChannelKey) (store.ChannelRecord, error)
	// GetChannel returns store.ErrNotFound if the channel does not exist.
	GetChannel(ctx context.Context, key store.ChannelKey) (store.ChannelRecord, error)
	// ListChannels returns a domain's channels in creation order.
	ListChannels(ctx context.Context, session string, domain tracectl.Domain) ([]store.ChannelRecord, error)
	// AddContext is a no-op if an equal context is already attached.
	AddContext(ctx context.Context, channelID int64, c tracectl.Context) error
	ListContexts(ctx context.Context, channelID int64) ([]tracectl.Context, error)
}

// EventStore persists the events configured on channels.
type EventStore interface {
	// SaveEvent inserts or replaces the event with the same type and
	// name on the channel.
	SaveEvent(ctx context.Context, channelID int64, rec store.EventRecord) error
	// ListEvents returns a channel's events in creation order.
	ListEvents(ctx context.Context, channelID int64) ([]store.EventRecord, error)
	// SetEnabled flips every event called name, or every event on the
	// channel when name is empty. It returns the number of events
	// changed.
	SetEnabled(ctx context.Context, channelID int64, name string, enabled bool) (int64, error)
	CountEvents(ctx context.Context, channelID int64) (int, error)
}

// Store combines every store operation.
type Store interface {
	io.Closer
	SessionStore
	ChannelStore
	EventStore
	Transactional
}

// Transactional runs fn against a store bound to one transaction. The
// transaction commits if fn returns nil and rolls back otherwise.
type Transactional interface {
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}

// Tracer is the tracer side of one domain: what instrumentation exists
// and whether a given event can be instrumented.
type Tracer interface {
	// Tracepoints returns every instrumentation point the tracer
	// knows about.
	Tracepoints(ctx context.Context) ([]tracectl.Event, error)
	// Fields returns every field of every instrumentation point.
	Fields(ctx context.Context) ([]tracectl.Field, error)
	// CheckEvent reports whether ev can be enabled, for example that
	// the symbol of a function event exists.
	CheckEvent(ctx context.Context, ev tracectl.Event) error
}
