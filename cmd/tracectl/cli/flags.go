package cli

import (
	"strings"

	"github.com/frobware/go-tracectl"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatTable    OutputFormat = "table"
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatJSONPath OutputFormat = "jsonpath"
)

// OutputFlags provides output formatting flags.
type OutputFlags struct {
	Output string `short:"o" help:"Output format: table, json, jsonpath=EXPR." default:"table"`
}

// Format returns the base format type.
func (f *OutputFlags) Format() OutputFormat {
	switch {
	case f.Output == "json":
		return OutputFormatJSON
	case strings.HasPrefix(f.Output, "jsonpath=") && len(f.Output) > len("jsonpath="):
		return OutputFormatJSONPath
	default:
		return OutputFormatTable
	}
}

// JSONPathExpr returns the JSONPath expression if format is jsonpath=EXPR.
func (f *OutputFlags) JSONPathExpr() string {
	expr, _ := strings.CutPrefix(f.Output, "jsonpath=")
	if f.Format() != OutputFormatJSONPath {
		return ""
	}
	return expr
}

// SessionFlag selects the session a command applies to.
type SessionFlag struct {
	Session string `short:"s" name:"session" required:"" help:"Session name."`
}

// DomainFlags select the tracing domain. Exactly one is required.
type DomainFlags struct {
	Kernel    bool `short:"k" name:"kernel" xor:"domain" required:"" help:"Kernel domain."`
	Userspace bool `short:"u" name:"userspace" xor:"domain" required:"" help:"User-space domain."`
	JUL       bool `short:"j" name:"jul" xor:"domain" required:"" help:"Java util logging domain."`
}

// Domain returns the selected domain.
func (f *DomainFlags) Domain() tracectl.Domain {
	switch {
	case f.Userspace:
		return tracectl.DomainUST
	case f.JUL:
		return tracectl.DomainJUL
	default:
		return tracectl.DomainKernel
	}
}

// HandleFlags identify a session and domain.
type HandleFlags struct {
	SessionFlag
	DomainFlags
}

// Handle returns the validated handle the flags describe.
func (f *HandleFlags) Handle() (*tracectl.Handle, error) {
	return tracectl.NewHandle(f.Session, f.Domain())
}

// ChannelFlag selects a channel. Empty means the default channel.
type ChannelFlag struct {
	Channel string `short:"c" name:"channel" help:"Channel name (default: ${default_channel})."`
}
