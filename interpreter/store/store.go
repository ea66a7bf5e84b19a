// Package store defines the records persisted by the daemon and the
// errors every store implementation reports.
package store

import (
	"errors"
	"time"

	"github.com/frobware/go-tracectl"
)

var (
	// ErrNotFound is returned when a session or channel does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a session whose name
	// is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ChannelKey identifies a channel: session, domain and name.
type ChannelKey struct {
	Session string
	Domain  tracectl.Domain
	Name    string
}

func (k ChannelKey) String() string {
	return k.Session + "/" + k.Domain.String() + "/" + k.Name
}

// ChannelRecord is a stored channel.
type ChannelRecord struct {
	ID        int64
	Key       ChannelKey
	CreatedAt time.Time
}

// EventRecord is an event as configured on a channel, together with
// the out-of-band filter expression and exclusion patterns its flags
// refer to.
type EventRecord struct {
	Event      tracectl.Event
	Filter     string
	Exclusions []string
}

// Descriptor returns the event with HasFilter and HasExclusion
// reflecting the attached metadata.
func (r EventRecord) Descriptor() tracectl.Event {
	ev := r.Event.Clone()
	ev.HasFilter = r.Filter != ""
	ev.HasExclusion = len(r.Exclusions) > 0
	return ev
}
