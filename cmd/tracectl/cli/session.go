package cli

import (
	"context"
	"fmt"
)

// CreateCmd creates a tracing session.
type CreateCmd struct {
	Name string `arg:"" help:"Session name."`
}

// Run executes the create command.
func (c *CreateCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	s, err := b.CreateSession(ctx, c.Name)
	if err != nil {
		return err
	}
	return cli.PrintOutf("Session %s created (%s)\n", s.Name, s.ID)
}

// DestroyCmd destroys a tracing session with its channels and events.
type DestroyCmd struct {
	Name string `arg:"" help:"Session name."`
}

// Run executes the destroy command.
func (c *DestroyCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	if err := b.DestroySession(ctx, c.Name); err != nil {
		return err
	}
	return cli.PrintOutf("Session %s destroyed\n", c.Name)
}

// EnableChannelCmd creates a channel.
type EnableChannelCmd struct {
	HandleFlags
	Name string `arg:"" help:"Channel name."`
}

// Run executes the enable-channel command.
func (c *EnableChannelCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	if err := b.EnableChannel(ctx, h, c.Name); err != nil {
		return err
	}
	return cli.PrintOutf("%s channel %s enabled for session %s\n", h.Domain, c.Name, h.Session)
}
