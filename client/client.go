// Package client is the caller side of the tracectl control service.
//
// Use Dial to connect to a running tracectl daemon:
//
//	c, err := client.Dial(client.DefaultSocketPath())
//	c, err := client.Dial("localhost:5566")
//
// Use Open to run the control service in-process against a runtime
// directory no daemon is using:
//
//	c, err := client.Open(ctx)
//	c, err := client.Open(ctx, client.WithRuntimeDir("/tmp/mytracectl"))
//
// Both return a Client that is used identically. Every operation
// validates its handle and descriptors before making a call; the
// client never retries.
package client

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/wire"
)

// Client issues control operations against one daemon connection.
type Client struct {
	conn    *grpc.ClientConn
	rpc     *wire.ControlClient
	health  healthpb.HealthClient
	logger  *slog.Logger
	release func() error
}

func newClient(conn *grpc.ClientConn, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		rpc:    wire.NewControlClient(conn),
		health: healthpb.NewHealthClient(conn),
		logger: logger,
	}
}

// Close releases the connection, and for an in-process client the
// server and runtime behind it.
func (c *Client) Close() error {
	err := c.conn.Close()
	if c.release != nil {
		err = errors.Join(err, c.release())
	}
	return err
}

// Ping waits until the daemon reports the control service as serving
// or ctx is done.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: wire.ServiceName}, grpc.WaitForReady(true))
	if err != nil {
		return fromStatus(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return tracectl.Errorf(tracectl.KindCommunication, "control service is %s", resp.Status)
	}
	return nil
}

// ListEvents returns the events configured on channel. The channel
// must be named.
func (c *Client) ListEvents(ctx context.Context, h *tracectl.Handle, channel string) ([]tracectl.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if channel == "" {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "channel name is required")
	}
	resp, err := c.rpc.ListEvents(ctx, &wire.ChannelRequest{Handle: wire.FromHandle(h), Channel: channel})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Events, nil
}

// ListTracepoints returns every instrumentation point of the handle's
// domain.
func (c *Client) ListTracepoints(ctx context.Context, h *tracectl.Handle) ([]tracectl.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.rpc.ListTracepoints(ctx, &wire.DomainRequest{Handle: wire.FromHandle(h)})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Events, nil
}

// ListTracepointFields returns every field of the handle's domain.
func (c *Client) ListTracepointFields(ctx context.Context, h *tracectl.Handle) ([]tracectl.Field, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.rpc.ListTracepointFields(ctx, &wire.DomainRequest{Handle: wire.FromHandle(h)})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Fields, nil
}

// AddContext attaches ctxDesc to channel, or to every channel of the
// domain when channel is empty. eventName is ignored.
func (c *Client) AddContext(ctx context.Context, h *tracectl.Handle, ctxDesc tracectl.Context, eventName, channel string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := ctxDesc.Validate(); err != nil {
		return err
	}
	_, err := c.rpc.AddContext(ctx, &wire.AddContextRequest{
		Handle:    wire.FromHandle(h),
		Context:   ctxDesc,
		EventName: eventName,
		Channel:   channel,
	})
	return fromStatus(err)
}

// EnableEvent enables ev on channel; an empty channel is the default
// channel. ev must not be nil.
func (c *Client) EnableEvent(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if ev == nil {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "event is required")
	}
	return c.enable(ctx, h, ev, channel, "", nil)
}

// EnableEventWithFilter enables ev with a filter expression. A nil ev
// enables every event already on the channel.
func (c *Client) EnableEventWithFilter(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return c.enable(ctx, h, ev, channel, filter, nil)
}

// EnableEventWithExclusions is EnableEventWithFilter with exclusion
// patterns.
func (c *Client) EnableEventWithExclusions(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string, exclusions []string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return c.enable(ctx, h, ev, channel, filter, exclusions)
}

func (c *Client) enable(ctx context.Context, h *tracectl.Handle, ev *tracectl.Event, channel, filter string, exclusions []string) error {
	if ev != nil {
		if err := ev.Validate(); err != nil {
			return err
		}
	}
	excl, err := tracectl.CompileExclusions(exclusions)
	if err != nil {
		return err
	}
	name := "*"
	if ev != nil {
		name = ev.Name
	}
	if err := excl.CheckAgainst(name); err != nil {
		return err
	}
	_, err = c.rpc.EnableEvent(ctx, &wire.EnableEventRequest{
		Handle:     wire.FromHandle(h),
		Event:      ev,
		Channel:    channel,
		Filter:     filter,
		Exclusions: exclusions,
	})
	return fromStatus(err)
}

// DisableEvent disables the events called name on channel, or all of
// them when name is empty.
func (c *Client) DisableEvent(ctx context.Context, h *tracectl.Handle, name, channel string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	_, err := c.rpc.DisableEvent(ctx, &wire.DisableEventRequest{Handle: wire.FromHandle(h), Name: name, Channel: channel})
	return fromStatus(err)
}

// EnableChannel creates a channel; an existing one is left as is.
func (c *Client) EnableChannel(ctx context.Context, h *tracectl.Handle, name string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	_, err := c.rpc.EnableChannel(ctx, &wire.ChannelRequest{Handle: wire.FromHandle(h), Channel: name})
	return fromStatus(err)
}

// ListChannels returns the channels of the handle's domain.
func (c *Client) ListChannels(ctx context.Context, h *tracectl.Handle) ([]tracectl.Channel, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.rpc.ListChannels(ctx, &wire.DomainRequest{Handle: wire.FromHandle(h)})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Channels, nil
}

// CreateSession creates a session. A taken name fails with an error
// satisfying errdefs.IsAlreadyExists.
func (c *Client) CreateSession(ctx context.Context, name string) (tracectl.Session, error) {
	resp, err := c.rpc.CreateSession(ctx, &wire.SessionRequest{Name: name})
	if err != nil {
		return tracectl.Session{}, fromStatus(err)
	}
	return resp.Session, nil
}

// DestroySession removes a session and everything configured under it.
func (c *Client) DestroySession(ctx context.Context, name string) error {
	_, err := c.rpc.DestroySession(ctx, &wire.SessionRequest{Name: name})
	return fromStatus(err)
}

// ListSessions returns every session.
func (c *Client) ListSessions(ctx context.Context) ([]tracectl.Session, error) {
	resp, err := c.rpc.ListSessions(ctx, &wire.Empty{})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Sessions, nil
}
