package cli

import (
	"strings"

	"github.com/alecthomas/kong"
)

// Set at link time with -ldflags "-X".
var (
	Version     = "0.1.0"
	VersionName = "Starling"
)

const (
	versionDescription = "Event control for kernel, user-space and JUL tracing domains."
	versionWebsite     = "https://github.com/frobware/go-tracectl"
	versionLicense     = "tracectl is free software under the Apache License 2.0."
)

// VersionCmd prints version information.
type VersionCmd struct {
	ListOptions bool `name:"list-options" help:"List the options of this command, one per line."`
}

// Run executes the version command.
func (c *VersionCmd) Run(cli *CLI, kctx *kong.Context) error {
	if c.ListOptions {
		return cli.PrintOut(listOptions(kctx.Selected()))
	}
	return cli.PrintOut(VersionText())
}

// VersionText returns the full version banner.
func VersionText() string {
	var b strings.Builder
	b.WriteString("tracectl version " + Version + " - " + VersionName + "\n\n")
	b.WriteString(versionDescription + "\n\n")
	b.WriteString("Web site: " + versionWebsite + "\n\n")
	b.WriteString(versionLicense + "\n")
	return b.String()
}

// listOptions renders the short and long spellings of the options a
// command accepts, help first.
func listOptions(node *kong.Node) string {
	var b strings.Builder
	b.WriteString("-h\n--help\n")
	if node == nil {
		return b.String()
	}
	for _, f := range node.Flags {
		if f.Hidden {
			continue
		}
		if f.Short != 0 {
			b.WriteString("-" + string(f.Short) + "\n")
		}
		b.WriteString("--" + f.Name + "\n")
	}
	return b.String()
}
