package cli

import (
	"context"
	"fmt"

	"github.com/frobware/go-tracectl"
)

// AddContextCmd attaches context fields to channels.
type AddContextCmd struct {
	HandleFlags
	ChannelFlag

	Types []tracectl.Context `short:"t" name:"type" required:"" help:"Context type, e.g. vpid or perf:cpu:cpu-cycles (can be repeated)."`
	Event string             `short:"e" name:"event" help:"Restrict to this event."`
}

// Run executes the add-context command.
func (c *AddContextCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	target := c.Channel
	if target == "" {
		target = "all channels"
	}
	for _, ctxDesc := range c.Types {
		if err := b.AddContext(ctx, h, ctxDesc, c.Event, c.Channel); err != nil {
			return fmt.Errorf("add context %s: %w", ctxDesc, err)
		}
		if err := cli.PrintOutf("%s context %s added to %s\n", h.Domain, ctxDesc, target); err != nil {
			return err
		}
	}
	return nil
}
