package cli

import (
	"context"
	"fmt"

	"github.com/frobware/go-tracectl"
)

// DisableEventCmd disables events on a channel.
type DisableEventCmd struct {
	HandleFlags
	ChannelFlag

	Names []string `arg:"" optional:"" help:"Event names."`
	All   bool     `short:"a" name:"all" help:"Disable every event of the channel."`
}

// Run executes the disable-event command.
func (c *DisableEventCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}
	names, err := c.Targets()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	for _, name := range names {
		if err := b.DisableEvent(ctx, h, name, c.Channel); err != nil {
			return fmt.Errorf("disable %s event %q: %w", h.Domain, name, err)
		}
		label := name
		if label == "" {
			label = "all events"
		}
		if err := cli.PrintOutf("%s %s disabled in channel %s\n", h.Domain, label, channelLabel(c.Channel)); err != nil {
			return err
		}
	}
	return nil
}

// Targets returns the names to disable. The empty name stands for
// every event of the channel.
func (c *DisableEventCmd) Targets() ([]string, error) {
	switch {
	case c.All && len(c.Names) > 0:
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "--all takes no event names")
	case c.All:
		return []string{""}, nil
	case len(c.Names) == 0:
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "event name or --all is required")
	}
	return c.Names, nil
}
