// Package action contains reified effects: descriptions of store
// changes computed by the manager and carried out by the executor.
// Actions are plain data.
package action

import (
	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// Action is an effect to be executed.
type Action interface {
	isAction()
}

// CreateSession records a new session.
type CreateSession struct {
	Session tracectl.Session
}

func (CreateSession) isAction() {}

// DeleteSession removes a session and everything under it.
type DeleteSession struct {
	Name string
}

func (DeleteSession) isAction() {}

// CreateChannel creates a channel. Creating an existing channel is a
// no-op.
type CreateChannel struct {
	Channel store.ChannelKey
}

func (CreateChannel) isAction() {}

// SaveEvent creates or replaces an event, keyed by type and name, on
// an existing channel.
type SaveEvent struct {
	Channel store.ChannelKey
	Event   store.EventRecord
}

func (SaveEvent) isAction() {}

// SetEnabled enables or disables the events called Name on a channel,
// or all of them when Name is empty.
type SetEnabled struct {
	Channel store.ChannelKey
	Name    string
	Enabled bool
}

func (SetEnabled) isAction() {}

// AddContext attaches a context to a channel.
type AddContext struct {
	Channel store.ChannelKey
	Context tracectl.Context
}

func (AddContext) isAction() {}

// Sequence groups actions that run in order.
type Sequence struct {
	Actions []Action
}

func (Sequence) isAction() {}
