package manager

import (
	"context"
	"fmt"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/action"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// EnableChannel creates a channel. Enabling an existing channel is a
// no-op.
func (m *Manager) EnableChannel(ctx context.Context, h *tracectl.Handle, name string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if name == "" {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "channel name is required")
	}
	if err := checkChannelName(name); err != nil {
		return err
	}
	key := store.ChannelKey{Session: h.Session, Domain: h.Domain, Name: name}
	return m.inTx(ctx, func(tx interpreter.Store, exec interpreter.ActionExecutor) error {
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}
		return exec.Execute(ctx, action.CreateChannel{Channel: key})
	})
}

// ListChannels returns the handle's channels with their contexts and
// event counts, in creation order.
func (m *Manager) ListChannels(ctx context.Context, h *tracectl.Handle) ([]tracectl.Channel, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	var out []tracectl.Channel
	err := m.inTx(ctx, func(tx interpreter.Store, _ interpreter.ActionExecutor) error {
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}
		chans, err := tx.ListChannels(ctx, h.Session, h.Domain)
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}
		for _, ch := range chans {
			contexts, err := tx.ListContexts(ctx, ch.ID)
			if err != nil {
				return fmt.Errorf("list contexts of %s: %w", ch.Key, err)
			}
			n, err := tx.CountEvents(ctx, ch.ID)
			if err != nil {
				return fmt.Errorf("count events of %s: %w", ch.Key, err)
			}
			out = append(out, tracectl.Channel{
				Name:     ch.Key.Name,
				Domain:   ch.Key.Domain,
				Contexts: contexts,
				Events:   n,
			})
		}
		return nil
	})
	return out, err
}

// AddContext attaches c to channels of the handle's domain. eventName
// is accepted for compatibility and ignored: contexts apply to whole
// channels.
//
// With an empty channel name the context goes to every channel of the
// domain, or to a freshly created default channel when there are none.
// A named channel must exist.
func (m *Manager) AddContext(ctx context.Context, h *tracectl.Handle, c tracectl.Context, eventName, channel string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if !h.Domain.SupportsContext(c.Type) {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "context %s is not supported in the %s domain", c.Type, h.Domain)
	}
	if err := checkChannelName(channel); err != nil {
		return err
	}

	return m.inTx(ctx, func(tx interpreter.Store, exec interpreter.ActionExecutor) error {
		if err := requireSession(ctx, tx, h); err != nil {
			return err
		}

		var targets []store.ChannelKey
		if channel != "" {
			ch, err := tx.GetChannel(ctx, store.ChannelKey{Session: h.Session, Domain: h.Domain, Name: channel})
			if err != nil {
				return storeError(err, fmt.Sprintf("channel %q", channel))
			}
			targets = append(targets, ch.Key)
		} else {
			chans, err := tx.ListChannels(ctx, h.Session, h.Domain)
			if err != nil {
				return fmt.Errorf("list channels: %w", err)
			}
			if len(chans) == 0 {
				ch, err := m.resolveChannel(ctx, tx, exec, h, "", true)
				if err != nil {
					return err
				}
				chans = append(chans, ch)
			}
			for _, ch := range chans {
				targets = append(targets, ch.Key)
			}
		}

		if err := exec.ExecuteAll(ctx, computeAddContextActions(targets, c)); err != nil {
			return fmt.Errorf("add context %s: %w", c, err)
		}
		m.logger.InfoContext(ctx, "added context", "session", h.Session, "domain", h.Domain, "context", c.String(), "channels", len(targets))
		return nil
	})
}

// computeAddContextActions attaches c to each channel.
func computeAddContextActions(targets []store.ChannelKey, c tracectl.Context) []action.Action {
	actions := make([]action.Action, 0, len(targets))
	for _, key := range targets {
		actions = append(actions, action.AddContext{Channel: key, Context: c})
	}
	return actions
}
