package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/action"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// MaxFilterLen bounds a filter expression.
const MaxFilterLen = 65535

// EnableEvent enables ev on a channel, creating it there if needed.
// An empty channel selects the default channel, created if missing.
func (m *Manager) EnableEvent(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel string) error {
	if ev == nil {
		if err := h.Validate(); err != nil {
			return err
		}
		return tracectl.Errorf(tracectl.KindInvalidArgument, "event is required")
	}
	return m.enable(ctx, h, ev, channel, "", nil)
}

// EnableEventWithFilter is EnableEvent with a filter expression
// attached. A nil ev enables every event already on the channel.
func (m *Manager) EnableEventWithFilter(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string) error {
	return m.enable(ctx, h, ev, channel, filter, nil)
}

// EnableEventWithExclusions is EnableEventWithFilter with name
// patterns excluded from a wildcard event. With a nil ev, events whose
// names match an exclusion are left alone.
func (m *Manager) EnableEventWithExclusions(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string, exclusions []string) error {
	return m.enable(ctx, h, ev, channel, filter, exclusions)
}

// enableRequest is a validated enable.
type enableRequest struct {
	event      *tracectl.Event
	filter     string
	exclusions *tracectl.Exclusions
}

// eventPattern is the name pattern an enable covers. A nil event
// addresses every event.
func eventPattern(ev *tracectl.Event) string {
	if ev == nil {
		return "*"
	}
	return ev.Name
}

func validateEnable(h *tracectl.Handle, ev *tracectl.Event, channel, filter string, exclusions []string) (enableRequest, error) {
	if err := h.Validate(); err != nil {
		return enableRequest{}, err
	}
	if ev != nil {
		if ev.Type == tracectl.EventTypeAll {
			return enableRequest{}, tracectl.Errorf(tracectl.KindInvalidArgument, "event type %s cannot be enabled", ev.Type)
		}
		if err := ev.Validate(); err != nil {
			return enableRequest{}, err
		}
		if !h.Domain.SupportsEvent(ev.Type) {
			return enableRequest{}, tracectl.Errorf(tracectl.KindInvalidArgument, "%s events are not supported in the %s domain", ev.Type, h.Domain)
		}
	}
	if err := checkChannelName(channel); err != nil {
		return enableRequest{}, err
	}
	if len(filter) > MaxFilterLen {
		return enableRequest{}, tracectl.Errorf(tracectl.KindInvalidArgument, "filter exceeds %d bytes", MaxFilterLen)
	}
	if strings.IndexByte(filter, 0) >= 0 {
		return enableRequest{}, tracectl.Errorf(tracectl.KindInvalidArgument, "filter contains a NUL byte")
	}
	excl, err := tracectl.CompileExclusions(exclusions)
	if err != nil {
		return enableRequest{}, err
	}
	if err := excl.CheckAgainst(eventPattern(ev)); err != nil {
		return enableRequest{}, err
	}
	return enableRequest{event: ev, filter: filter, exclusions: excl}, nil
}

func (m *Manager) enable(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string, exclusions []string) error {
	req, err := validateEnable(h, ev, channel, filter, exclusions)
	if err != nil {
		return err
	}
	var tr interpreter.Tracer
	if req.event != nil {
		if tr, err = m.tracer(h.Domain); err != nil {
			return err
		}
	}

	return m.inTx(ctx, func(tx interpreter.Store, exec interpreter.ActionExecutor) error {
		// FETCH
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}
		ch, err := m.resolveChannel(ctx, tx, exec, h, channel, true)
		if err != nil {
			return err
		}
		existing, err := tx.ListEvents(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("list events of %s: %w", ch.Key, err)
		}
		if req.event != nil {
			if err := tr.CheckEvent(ctx, *req.event); err != nil {
				return tracerError(err, h.Domain)
			}
		}

		// COMPUTE
		actions := computeEnableActions(ch.Key, existing, req)

		// EXECUTE
		if err := exec.ExecuteAll(ctx, actions); err != nil {
			return fmt.Errorf("enable on %s: %w", ch.Key, err)
		}
		if req.event != nil {
			m.logger.InfoContext(ctx, "enabled event", "channel", ch.Key.String(), "type", req.event.Type, "name", req.event.Name,
				"filter", req.filter != "", "exclusions", len(req.exclusions.Patterns()))
		} else {
			m.logger.InfoContext(ctx, "enabled channel events", "channel", ch.Key.String(), "actions", len(actions))
		}
		return nil
	})
}

// computeEnableActions is a pure function computing the store changes
// of an enable against the channel's current events.
//
// A nil event re-enables every existing event not matched by an
// exclusion and attaches the filter to it when one is given. A named
// event is created if absent. An existing event is only flipped to
// enabled when the call carries no filter or exclusions, and replaced
// with the new metadata otherwise.
func computeEnableActions(ch store.ChannelKey, existing []store.EventRecord, req enableRequest) []action.Action {
	var actions []action.Action

	if req.event == nil {
		for _, rec := range existing {
			if req.exclusions.Excludes(rec.Event.Name) {
				continue
			}
			if req.filter == "" {
				if rec.Event.Enabled != tracectl.Enabled {
					actions = append(actions, action.SaveEvent{Channel: ch, Event: withEnabled(rec)})
				}
				continue
			}
			updated := withEnabled(rec)
			updated.Filter = req.filter
			actions = append(actions, action.SaveEvent{Channel: ch, Event: updated})
		}
		return actions
	}

	ev := req.event.Clone()
	ev.Enabled = tracectl.Enabled
	rec := store.EventRecord{Event: ev, Filter: req.filter, Exclusions: req.exclusions.Patterns()}

	for _, cur := range existing {
		if cur.Event.Key() != ev.Key() {
			continue
		}
		if req.filter == "" && req.exclusions.Empty() {
			if cur.Event.Enabled == tracectl.Enabled {
				return nil
			}
			return []action.Action{action.SaveEvent{Channel: ch, Event: withEnabled(cur)}}
		}
		break
	}
	return append(actions, action.SaveEvent{Channel: ch, Event: rec})
}

func withEnabled(rec store.EventRecord) store.EventRecord {
	rec.Event = rec.Event.Clone()
	rec.Event.Enabled = tracectl.Enabled
	return rec
}

// DisableEvent disables the events called name on a channel, or every
// event there when name is empty. An empty channel selects the default
// channel. A missing event is not an error; events are never deleted.
func (m *Manager) DisableEvent(ctx context.Context, h *tracectl.Handle, name, channel string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if len(name) > tracectl.MaxNameLen {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "event name exceeds %d bytes", tracectl.MaxNameLen)
	}
	if err := checkChannelName(channel); err != nil {
		return err
	}

	return m.inTx(ctx, func(tx interpreter.Store, exec interpreter.ActionExecutor) error {
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}
		ch, err := m.resolveChannel(ctx, tx, exec, h, channel, false)
		if err != nil {
			return err
		}
		if err := exec.Execute(ctx, action.SetEnabled{Channel: ch.Key, Name: name, Enabled: false}); err != nil {
			return fmt.Errorf("disable on %s: %w", ch.Key, err)
		}
		m.logger.InfoContext(ctx, "disabled events", "channel", ch.Key.String(), "name", name)
		return nil
	})
}

// ListEvents returns the events configured on a channel, in creation
// order. The channel must be named.
func (m *Manager) ListEvents(ctx context.Context, h *tracectl.Handle, channel string) ([]tracectl.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if channel == "" {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "channel name is required")
	}
	if err := checkChannelName(channel); err != nil {
		return nil, err
	}

	var out []tracectl.Event
	err := m.inTx(ctx, func(tx interpreter.Store, _ interpreter.ActionExecutor) error {
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}
		ch, err := tx.GetChannel(ctx, store.ChannelKey{Session: h.Session, Domain: h.Domain, Name: channel})
		if err != nil {
			return storeError(err, fmt.Sprintf("channel %q", channel))
		}
		recs, err := tx.ListEvents(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("list events of %s: %w", ch.Key, err)
		}
		out = make([]tracectl.Event, 0, len(recs))
		for _, rec := range recs {
			out = append(out, rec.Descriptor())
		}
		return nil
	})
	return out, err
}

// ListTracepoints returns every instrumentation point the domain's
// tracer knows about. Session state plays no part.
func (m *Manager) ListTracepoints(ctx context.Context, h *tracectl.Handle) ([]tracectl.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	tr, err := m.tracer(h.Domain)
	if err != nil {
		return nil, err
	}
	events, err := tr.Tracepoints(ctx)
	if err != nil {
		return nil, tracerError(err, h.Domain)
	}
	for i := range events {
		events[i].Enabled = tracectl.NotApplicable
	}
	return events, nil
}

// ListTracepointFields returns every field the domain's tracer can
// enumerate.
func (m *Manager) ListTracepointFields(ctx context.Context, h *tracectl.Handle) ([]tracectl.Field, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	tr, err := m.tracer(h.Domain)
	if err != nil {
		return nil, err
	}
	fields, err := tr.Fields(ctx)
	if err != nil {
		return nil, tracerError(err, h.Domain)
	}
	return fields, nil
}
