package catalog

import (
	"context"
	"sync/atomic"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter"
)

// Tracer serves one domain of a catalog. The catalog can be swapped
// at runtime with Reload.
type Tracer struct {
	domain tracectl.Domain
	cat    atomic.Pointer[Catalog]
}

var _ interpreter.Tracer = (*Tracer)(nil)

// NewTracer returns a tracer for domain d backed by c.
func NewTracer(c *Catalog, d tracectl.Domain) *Tracer {
	t := &Tracer{domain: d}
	t.Reload(c)
	return t
}

// Reload replaces the catalog.
func (t *Tracer) Reload(c *Catalog) {
	if c == nil {
		c = &Catalog{}
	}
	t.cat.Store(c)
}

func (t *Tracer) Tracepoints(ctx context.Context) ([]tracectl.Event, error) {
	entries := t.cat.Load().entries(t.domain)
	out := make([]tracectl.Event, 0, len(entries))
	for _, e := range entries {
		ev, err := e.event(t.domain.Scale())
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (t *Tracer) Fields(ctx context.Context) ([]tracectl.Field, error) {
	var out []tracectl.Field
	for _, e := range t.cat.Load().entries(t.domain) {
		ev, err := e.event(t.domain.Scale())
		if err != nil {
			return nil, err
		}
		for _, f := range e.Fields {
			out = append(out, tracectl.Field{
				Name:     f.Name,
				Type:     f.Type,
				Event:    ev,
				Writable: !f.NoWrite,
			})
		}
	}
	return out, nil
}

// CheckEvent accepts any tracepoint: user-space applications register
// their instrumentation when they start, which may be after the event
// is enabled.
func (t *Tracer) CheckEvent(ctx context.Context, ev tracectl.Event) error {
	if ev.Type != tracectl.EventTypeTracepoint {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "%s domain has no %s events", t.domain, ev.Type)
	}
	return nil
}
