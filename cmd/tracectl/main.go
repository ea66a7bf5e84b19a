// tracectl controls trace events in kernel, user-space and JUL tracing
// sessions, and runs the daemon that owns them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/cmd/tracectl/cli"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	c := cli.CLI{Out: os.Stdout}
	parser, err := kong.New(&c, cli.KongOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracectl: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			_ = perr.Context.PrintUsage(false)
		}
		return 1
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(&c); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if kind := tracectl.KindOf(err); kind != tracectl.KindUnknown {
			return -kind.Code()
		}
		return 1
	}
	return 0
}
