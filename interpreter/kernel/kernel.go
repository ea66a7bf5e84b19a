// Package kernel discovers kernel instrumentation points from tracefs
// and checks probe and function symbols against kernel BTF.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter"
)

const syscallsGroup = "syscalls"

// tracer implements interpreter.Tracer for the kernel domain.
type tracer struct {
	fsys    fs.FS
	symbols SymbolResolver
	logger  *slog.Logger
}

// Option configures a kernel tracer.
type Option func(*tracer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *tracer) {
		t.logger = logger
	}
}

// WithSymbols sets the resolver used to check probe and function
// symbols. Without one, symbols are not checked.
func WithSymbols(r SymbolResolver) Option {
	return func(t *tracer) {
		t.symbols = r
	}
}

// WithFS reads tracefs from fsys instead of the host.
func WithFS(fsys fs.FS) Option {
	return func(t *tracer) {
		t.fsys = fsys
	}
}

// New returns a kernel tracer reading tracefs mounted at root.
func New(root string, opts ...Option) interpreter.Tracer {
	t := &tracer{
		fsys:   os.DirFS(root),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// entry is one event directory under events/.
type entry struct {
	group string
	name  string
}

func (e entry) dir() string {
	return path.Join("events", e.group, e.name)
}

// walk lists every event directory, groups and events in directory
// order.
func (t *tracer) walk(ctx context.Context) ([]entry, error) {
	groups, err := fs.ReadDir(t.fsys, "events")
	if err != nil {
		return nil, fmt.Errorf("read tracefs events: %w", err)
	}
	var out []entry
	for _, g := range groups {
		if !g.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := fs.ReadDir(t.fsys, path.Join("events", g.Name()))
		if err != nil {
			t.logger.Warn("skipping unreadable tracefs group", "group", g.Name(), "error", err)
			continue
		}
		for _, e := range events {
			if e.IsDir() {
				out = append(out, entry{group: g.Name(), name: e.Name()})
			}
		}
	}
	return out, nil
}

// syscallName maps sys_enter_X and sys_exit_X to X.
func syscallName(event string) (string, bool) {
	if name, ok := strings.CutPrefix(event, "sys_enter_"); ok {
		return name, true
	}
	if name, ok := strings.CutPrefix(event, "sys_exit_"); ok {
		return name, true
	}
	return "", false
}

func describe(e entry) (tracectl.Event, bool) {
	if e.group == syscallsGroup {
		name, ok := syscallName(e.name)
		if !ok {
			return tracectl.Event{}, false
		}
		return tracectl.Event{
			Type:    tracectl.EventTypeSyscall,
			Name:    name,
			Enabled: tracectl.NotApplicable,
		}, true
	}
	return tracectl.Event{
		Type:    tracectl.EventTypeTracepoint,
		Name:    e.name,
		Enabled: tracectl.NotApplicable,
	}, true
}

// Tracepoints lists tracepoints, then syscalls deduplicated by name.
func (t *tracer) Tracepoints(ctx context.Context) ([]tracectl.Event, error) {
	entries, err := t.walk(ctx)
	if err != nil {
		return nil, err
	}
	var tps, syscalls []tracectl.Event
	seen := make(map[string]bool)
	for _, e := range entries {
		ev, ok := describe(e)
		if !ok {
			continue
		}
		if ev.Type == tracectl.EventTypeSyscall {
			if seen[ev.Name] {
				continue
			}
			seen[ev.Name] = true
			syscalls = append(syscalls, ev)
			continue
		}
		tps = append(tps, ev)
	}
	t.logger.Debug("listed kernel tracepoints", "tracepoints", len(tps), "syscalls", len(syscalls))
	return append(tps, syscalls...), nil
}

// Fields parses the format file of every tracepoint. Syscalls report
// the fields of their entry event. Unparsable format files are skipped.
func (t *tracer) Fields(ctx context.Context) ([]tracectl.Field, error) {
	entries, err := t.walk(ctx)
	if err != nil {
		return nil, err
	}
	var out []tracectl.Field
	for _, e := range entries {
		if e.group == syscallsGroup && !strings.HasPrefix(e.name, "sys_enter_") {
			continue
		}
		ev, ok := describe(e)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(t.fsys, path.Join(e.dir(), "format"))
		if err != nil {
			t.logger.Debug("skipping event without format", "event", e.dir(), "error", err)
			continue
		}
		f, err := parseFormat(data)
		if err != nil {
			t.logger.Warn("skipping unparsable format", "event", e.dir(), "error", err)
			continue
		}
		for _, fld := range f.fields {
			out = append(out, tracectl.Field{
				Name:     fld.name,
				Type:     fld.fieldType(),
				Event:    ev,
				Writable: fld.writable(),
			})
		}
	}
	return out, nil
}

// CheckEvent verifies that a named tracepoint or syscall exists and
// that probe and function symbols resolve. Wildcard names are not
// checked.
func (t *tracer) CheckEvent(ctx context.Context, ev tracectl.Event) error {
	switch ev.Type {
	case tracectl.EventTypeTracepoint, tracectl.EventTypeSyscall:
		if ev.Name == "" || strings.Contains(ev.Name, "*") {
			return nil
		}
		known, err := t.Tracepoints(ctx)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(known, func(k tracectl.Event) bool { return k.Key() == ev.Key() }) {
			return tracectl.Errorf(tracectl.KindNotFound, "kernel %s %q not found", ev.Type, ev.Name)
		}
		return nil

	case tracectl.EventTypeProbe, tracectl.EventTypeFunction, tracectl.EventTypeFunctionEntry:
		sym := ev.Symbol()
		if sym == "" || t.symbols == nil {
			return nil
		}
		ok, err := t.symbols.HasFunction(sym)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				t.logger.Debug("kernel BTF unavailable, not checking symbol", "symbol", sym, "error", err)
				return nil
			}
			return err
		}
		if !ok {
			return tracectl.Errorf(tracectl.KindNotFound, "kernel function %q not found", sym)
		}
		return nil
	}
	return nil
}
