package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/frobware/go-tracectl"
)

// EnableEventCmd enables one or more events on a channel.
type EnableEventCmd struct {
	HandleFlags
	ChannelFlag

	Names []string `arg:"" optional:"" help:"Event names or wildcard patterns."`
	All   bool     `short:"a" name:"all" help:"Enable every event of the selected kind."`

	Tracepoint bool   `name:"tracepoint" xor:"kind" help:"Tracepoint events (default)."`
	Syscall    bool   `name:"syscall" xor:"kind" help:"System call events (kernel only)."`
	Probe      string `name:"probe" xor:"kind" placeholder:"ADDR|SYM[+OFF]" help:"Dynamic probe at an address or symbol plus offset (kernel only)."`
	Function   string `name:"function" xor:"kind" placeholder:"SYM" help:"Function hook on a symbol (kernel only)."`

	Loglevel     string `name:"loglevel" xor:"loglevel" help:"Match events at least as severe as LEVEL."`
	LoglevelOnly string `name:"loglevel-only" xor:"loglevel" help:"Match events at exactly LEVEL."`

	Filter  string   `short:"f" name:"filter" help:"Filter expression attached to each enabled event."`
	Exclude []string `short:"x" name:"exclude" sep:"," help:"Comma-separated event name patterns to exclude from a wildcard."`
}

// Run executes the enable-event command.
func (c *EnableEventCmd) Run(cli *CLI, ctx context.Context) error {
	h, err := c.Handle()
	if err != nil {
		return err
	}
	events, err := c.Events(h.Domain)
	if err != nil {
		return err
	}

	b, err := cli.Client(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()

	for _, ev := range events {
		if err := b.EnableEventWithExclusions(ctx, h, ev, c.Channel, c.Filter, c.Exclude); err != nil {
			return fmt.Errorf("enable %s event %s: %w", h.Domain, ev.Name, err)
		}
		if err := cli.PrintOutf("%s event %s created in channel %s\n", h.Domain, ev.Name, channelLabel(c.Channel)); err != nil {
			return err
		}
	}
	return nil
}

// Events builds the descriptors the flags describe, one per name.
func (c *EnableEventCmd) Events(domain tracectl.Domain) ([]*tracectl.Event, error) {
	names := c.Names
	switch {
	case c.All && len(names) > 0:
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "--all takes no event names")
	case c.All:
		names = []string{"*"}
	case len(names) == 0:
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "event name or --all is required")
	}
	if (c.Probe != "" || c.Function != "") && len(names) != 1 {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "probe and function events take exactly one name")
	}

	template := tracectl.Event{Type: tracectl.EventTypeTracepoint, Enabled: tracectl.Enabled}
	switch {
	case c.Syscall:
		template.Type = tracectl.EventTypeSyscall
	case c.Probe != "":
		attr, err := ParseProbe(c.Probe)
		if err != nil {
			return nil, err
		}
		template.Type = tracectl.EventTypeProbe
		template.Attr = attr
	case c.Function != "":
		template.Type = tracectl.EventTypeFunction
		template.Attr = &tracectl.FunctionAttr{SymbolName: c.Function}
	}

	scale := domain.Scale()
	switch {
	case c.Loglevel != "":
		v, err := scale.ParseLevel(c.Loglevel)
		if err != nil {
			return nil, err
		}
		template.LoglevelType, template.Loglevel = tracectl.LoglevelRange, v
	case c.LoglevelOnly != "":
		v, err := scale.ParseLevel(c.LoglevelOnly)
		if err != nil {
			return nil, err
		}
		template.LoglevelType, template.Loglevel = tracectl.LoglevelSingle, v
	}

	events := make([]*tracectl.Event, 0, len(names))
	for _, name := range names {
		ev := template.Clone()
		ev.Name = name
		events = append(events, &ev)
	}
	return events, nil
}

// ParseProbe parses a probe location: an address ("0xffffffff81000000"
// or decimal), a symbol, or a symbol with an offset ("do_sys_open+0x10").
func ParseProbe(s string) (*tracectl.ProbeAttr, error) {
	if s == "" {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "empty probe location")
	}
	if addr, err := strconv.ParseUint(s, 0, 64); err == nil {
		return &tracectl.ProbeAttr{Addr: addr}, nil
	}
	sym, off, ok := strings.Cut(s, "+")
	if !ok {
		return &tracectl.ProbeAttr{SymbolName: s}, nil
	}
	if sym == "" {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "probe %q has no symbol", s)
	}
	offset, err := strconv.ParseUint(off, 0, 64)
	if err != nil {
		return nil, tracectl.Errorf(tracectl.KindInvalidArgument, "probe %q: bad offset %q", s, off)
	}
	return &tracectl.ProbeAttr{SymbolName: sym, Offset: offset}, nil
}

func channelLabel(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}
