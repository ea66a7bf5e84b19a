package cli

import (
	"context"
	"fmt"

	"github.com/frobware/go-tracectl"
)

// ListCmd lists tracing state.
type ListCmd struct {
	Sessions    ListSessionsCmd    `cmd:"" default:"withargs" help:"List sessions."`
	Channels    ListChannelsCmd    `cmd:"" help:"List the channels of a session."`
	Events      ListEventsCmd      `cmd:"" help:"List the events of a channel."`
	Tracepoints ListTracepointsCmd `cmd:"" help:"List available instrumentation points."`
	Fields      ListFieldsCmd      `cmd:"" help:"List the fields of available instrumentation points."`
}

// ListSessionsCmd lists sessions.
type ListSessionsCmd struct {
	OutputFlags
}

// Run executes the list sessions command.
func (c *ListSessionsCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	sessions, err := b.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 && c.Format() == OutputFormatTable {
		return cli.PrintOut("No sessions found\n")
	}

	output, err := FormatSessions(sessions, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}

// ListChannelsCmd lists the channels of a session and domain.
type ListChannelsCmd struct {
	HandleFlags
	OutputFlags
}

// Run executes the list channels command.
func (c *ListChannelsCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	channels, err := b.ListChannels(ctx, h)
	if err != nil {
		return err
	}
	if len(channels) == 0 && c.Format() == OutputFormatTable {
		return cli.PrintOutf("No %s channels in session %s\n", h.Domain, h.Session)
	}

	output, err := FormatChannels(channels, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}

// ListEventsCmd lists the events enabled or disabled on a channel.
type ListEventsCmd struct {
	HandleFlags
	ChannelFlag
	OutputFlags
}

// Run executes the list events command.
func (c *ListEventsCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}
	channel, err := cli.channelOrDefault(c.Channel)
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	events, err := b.ListEvents(ctx, h, channel)
	if err != nil {
		return err
	}
	if len(events) == 0 && c.Format() == OutputFormatTable {
		return cli.PrintOutf("No events in channel %s\n", channel)
	}

	output, err := FormatEvents(events, h.Domain, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}

// ListTracepointsCmd lists the instrumentation points a domain offers.
type ListTracepointsCmd struct {
	HandleFlags
	OutputFlags
	Loglevel string `name:"loglevel" help:"Only show points at least as severe as LEVEL."`
}

// Run executes the list tracepoints command.
func (c *ListTracepointsCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	points, err := b.ListTracepoints(ctx, h)
	if err != nil {
		return err
	}
	if c.Loglevel != "" {
		points, err = FilterByLoglevel(points, h.Domain.Scale(), c.Loglevel)
		if err != nil {
			return err
		}
	}
	if len(points) == 0 && c.Format() == OutputFormatTable {
		return cli.PrintOutf("No %s tracepoints found\n", h.Domain)
	}

	output, err := FormatEvents(points, h.Domain, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}

// FilterByLoglevel keeps the events whose level passes a range filter
// at the named threshold.
func FilterByLoglevel(events []tracectl.Event, scale tracectl.Scale, level string) ([]tracectl.Event, error) {
	threshold, err := scale.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var out []tracectl.Event
	for _, e := range events {
		if scale.Match(tracectl.LoglevelRange, threshold, e.Loglevel) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListFieldsCmd lists the fields of every instrumentation point.
type ListFieldsCmd struct {
	HandleFlags
	OutputFlags
	Event string `name:"event" short:"e" help:"Only show fields of this event."`
}

// Run executes the list fields command.
func (c *ListFieldsCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	fields, err := b.ListTracepointFields(ctx, h)
	if err != nil {
		return err
	}
	if c.Event != "" {
		kept := fields[:0]
		for _, f := range fields {
			if f.Event.Name == c.Event {
				kept = append(kept, f)
			}
		}
		fields = kept
	}
	if len(fields) == 0 && c.Format() == OutputFormatTable {
		return cli.PrintOut("No fields found\n")
	}

	output, err := FormatFields(fields, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}
