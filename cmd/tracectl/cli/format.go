package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"k8s.io/client-go/util/jsonpath"

	"github.com/frobware/go-tracectl"
)

// format renders v as JSON or JSONPath, or with table when the flags
// select the table format.
func format(v any, flags *OutputFlags, table func() string) (string, error) {
	switch flags.Format() {
	case OutputFormatJSON:
		return formatJSON(v)
	case OutputFormatJSONPath:
		return formatJSONPath(v, flags.JSONPathExpr())
	default:
		return table(), nil
	}
}

func formatJSON(v any) (string, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output) + "\n", nil
}

func formatJSONPath(v any, expr string) (string, error) {
	jp := jsonpath.New("output")
	if err := jp.Parse(expr); err != nil {
		return "", fmt.Errorf("invalid jsonpath expression %q: %w", expr, err)
	}

	// jsonpath walks generic values, not our typed descriptors.
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}
	var data any
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return "", fmt.Errorf("failed to unmarshal: %w", err)
	}

	var buf bytes.Buffer
	if err := jp.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("jsonpath execution failed: %w", err)
	}
	return buf.String() + "\n", nil
}

// FormatSessions formats a session list.
func FormatSessions(sessions []tracectl.Session, flags *OutputFlags) (string, error) {
	return format(sessions, flags, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-24s %-36s %s\n", "NAME", "ID", "CREATED")
		for _, s := range sessions {
			fmt.Fprintf(&b, "%-24s %-36s %s\n", s.Name, s.ID, s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return b.String()
	})
}

// FormatChannels formats a channel list with its contexts.
func FormatChannels(channels []tracectl.Channel, flags *OutputFlags) (string, error) {
	return format(channels, flags, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-20s %-8s %-7s %s\n", "NAME", "DOMAIN", "EVENTS", "CONTEXTS")
		for _, c := range channels {
			names := make([]string, 0, len(c.Contexts))
			for _, ctx := range c.Contexts {
				names = append(names, ctx.String())
			}
			contexts := strings.Join(names, ",")
			if contexts == "" {
				contexts = "-"
			}
			fmt.Fprintf(&b, "%-20s %-8s %-7d %s\n", c.Name, c.Domain, c.Events, contexts)
		}
		return b.String()
	})
}

// FormatEvents formats an event list. Levels are named on the scale
// of domain.
func FormatEvents(events []tracectl.Event, domain tracectl.Domain, flags *OutputFlags) (string, error) {
	return format(events, flags, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-40s %-14s %-20s %-9s %s\n", "NAME", "TYPE", "LOGLEVEL", "STATE", "FLAGS")
		for _, e := range events {
			fmt.Fprintf(&b, "%-40s %-14s %-20s %-9s %s\n",
				e.Name, e.Type, loglevelString(e, domain), e.Enabled, eventFlags(e))
		}
		return b.String()
	})
}

// FormatFields formats a field list.
func FormatFields(fields []tracectl.Field, flags *OutputFlags) (string, error) {
	return format(fields, flags, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-40s %-24s %-8s %s\n", "EVENT", "FIELD", "TYPE", "WRITABLE")
		for _, f := range fields {
			fmt.Fprintf(&b, "%-40s %-24s %-8s %t\n", f.Event.Name, f.Name, f.Type, f.Writable)
		}
		return b.String()
	})
}

func loglevelString(e tracectl.Event, domain tracectl.Domain) string {
	name := domain.Scale().LevelName(e.Loglevel)
	switch e.LoglevelType {
	case tracectl.LoglevelRange:
		return "<= " + name
	case tracectl.LoglevelSingle:
		return "== " + name
	default:
		return "-"
	}
}

func eventFlags(e tracectl.Event) string {
	var flags []string
	if e.HasFilter {
		flags = append(flags, "filter")
	}
	if e.HasExclusion {
		flags = append(flags, "exclusion")
	}
	if e.Pid != 0 {
		flags = append(flags, fmt.Sprintf("pid=%d", e.Pid))
	}
	if sym := e.Symbol(); sym != "" {
		flags = append(flags, "symbol="+sym)
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
