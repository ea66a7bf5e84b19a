// Package tracectl describes instrumentation points and the context
// attached to them, and defines the error taxonomy shared by the
// client and the daemon.
//
// The descriptors in this package are plain values. Their wire form is
// a frozen, fixed-size layout (see package wire); fields that are not
// yet assigned a meaning are carried in Reserved byte arrays so that
// a descriptor round-trips through older or newer peers unchanged.
package tracectl

import (
	"fmt"
	"strings"
)

// SymbolNameLen is the size of every bounded string on the wire,
// including its terminating NUL.
const SymbolNameLen = 256

// MaxNameLen is the longest name a bounded string can hold.
const MaxNameLen = SymbolNameLen - 1

// EventType identifies the kind of instrumentation point.
type EventType int32

const (
	// EventTypeAll matches every kind. It is only meaningful in
	// queries and is rejected by enable operations.
	EventTypeAll           EventType = -1
	EventTypeTracepoint    EventType = 0
	EventTypeProbe         EventType = 1
	EventTypeFunction      EventType = 2
	EventTypeFunctionEntry EventType = 3
	EventTypeNoop          EventType = 4
	EventTypeSyscall       EventType = 5
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventTypeAll:
		return "all"
	case EventTypeTracepoint:
		return "tracepoint"
	case EventTypeProbe:
		return "probe"
	case EventTypeFunction:
		return "function"
	case EventTypeFunctionEntry:
		return "function-entry"
	case EventTypeNoop:
		return "noop"
	case EventTypeSyscall:
		return "syscall"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EventType) UnmarshalText(text []byte) error {
	parsed, ok := ParseEventType(string(text))
	if !ok {
		return fmt.Errorf("invalid event type: %q", string(text))
	}
	*t = parsed
	return nil
}

// ParseEventType parses a string into an EventType.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "all":
		return EventTypeAll, true
	case "tracepoint":
		return EventTypeTracepoint, true
	case "probe":
		return EventTypeProbe, true
	case "function":
		return EventTypeFunction, true
	case "function-entry":
		return EventTypeFunctionEntry, true
	case "noop":
		return EventTypeNoop, true
	case "syscall":
		return EventTypeSyscall, true
	default:
		return EventTypeAll, false
	}
}

func (t EventType) valid() bool {
	return t >= EventTypeAll && t <= EventTypeSyscall
}

// EnabledState is the tri-state enabled flag of an event.
type EnabledState int32

const (
	NotApplicable EnabledState = -1
	Disabled      EnabledState = 0
	Enabled       EnabledState = 1
)

// String returns the string representation of the state.
func (s EnabledState) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "n/a"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s EnabledState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventAttr is the kind-specific payload of an Event. The concrete
// type is fixed by Event.Type: *ProbeAttr for probes, *FunctionAttr
// for function and function-entry hooks, nil for everything else.
type EventAttr interface {
	isEventAttr()
}

// ProbeAttr addresses a dynamic probe either by absolute address or by
// symbol plus offset. Exactly one of Addr and SymbolName is set.
type ProbeAttr struct {
	Addr       uint64 `json:"addr,omitempty"`
	Offset     uint64 `json:"offset,omitempty"`
	SymbolName string `json:"symbol_name,omitempty"`

	Reserved [16]byte `json:"-"`
}

func (*ProbeAttr) isEventAttr() {}

// FunctionAttr names the function a function or function-entry event
// hooks.
type FunctionAttr struct {
	SymbolName string `json:"symbol_name"`

	Reserved [16]byte `json:"-"`
}

func (*FunctionAttr) isEventAttr() {}

// Event describes one instrumentation point.
type Event struct {
	Type         EventType    `json:"type"`
	Name         string       `json:"name"`
	LoglevelType LoglevelType `json:"loglevel_type"`
	Loglevel     int32        `json:"loglevel"`
	Enabled      EnabledState `json:"enabled"`
	// Pid is set by the tracer for per-process user-space listings.
	Pid          int32     `json:"pid,omitempty"`
	HasFilter    bool      `json:"filter"`
	HasExclusion bool      `json:"exclusion"`
	Attr         EventAttr `json:"attr,omitempty"`

	Reserved [18]byte `json:"-"`
}

// Key is the identity of an event within a channel.
type Key struct {
	Type EventType
	Name string
}

// Key returns the (type, name) identity used for matching during
// enable and disable.
func (e Event) Key() Key {
	return Key{Type: e.Type, Name: e.Name}
}

// Validate checks the structural invariants of the descriptor: bounded
// names, a known kind, an attribute payload matching the kind, and a
// single probe addressing mode.
func (e Event) Validate() error {
	if !e.Type.valid() {
		return Errorf(KindInvalidArgument, "unknown event type %d", int32(e.Type))
	}
	if err := checkName("event name", e.Name); err != nil {
		return err
	}
	if !e.LoglevelType.valid() {
		return Errorf(KindInvalidArgument, "unknown loglevel type %d", int32(e.LoglevelType))
	}

	switch a := e.Attr.(type) {
	case nil:
		if e.Type == EventTypeProbe {
			return Errorf(KindInvalidArgument, "probe %q has no address or symbol", e.Name)
		}
		if e.Type == EventTypeFunction || e.Type == EventTypeFunctionEntry {
			return Errorf(KindInvalidArgument, "function event %q has no symbol", e.Name)
		}
	case *ProbeAttr:
		if e.Type != EventTypeProbe {
			return Errorf(KindInvalidArgument, "probe attributes on %s event %q", e.Type, e.Name)
		}
		return a.validate()
	case *FunctionAttr:
		if e.Type != EventTypeFunction && e.Type != EventTypeFunctionEntry {
			return Errorf(KindInvalidArgument, "function attributes on %s event %q", e.Type, e.Name)
		}
		if a.SymbolName == "" {
			return Errorf(KindInvalidArgument, "function event %q has no symbol", e.Name)
		}
		return checkName("function symbol", a.SymbolName)
	default:
		return Errorf(KindInvalidArgument, "unsupported attribute %T", a)
	}
	return nil
}

func (a *ProbeAttr) validate() error {
	switch {
	case a.Addr != 0 && a.SymbolName != "":
		return Errorf(KindInvalidArgument, "probe address %#x and symbol %q are mutually exclusive", a.Addr, a.SymbolName)
	case a.Addr == 0 && a.SymbolName == "":
		return Errorf(KindInvalidArgument, "probe needs an address or a symbol")
	case a.Addr != 0 && a.Offset != 0:
		return Errorf(KindInvalidArgument, "probe offset requires a symbol")
	}
	return checkName("probe symbol", a.SymbolName)
}

// Equal reports whether two events agree on every fixed field and on
// the active attribute payload. Reserved bytes are ignored.
func (e Event) Equal(o Event) bool {
	if e.Type != o.Type || e.Name != o.Name ||
		e.LoglevelType != o.LoglevelType || e.Loglevel != o.Loglevel ||
		e.Enabled != o.Enabled || e.Pid != o.Pid ||
		e.HasFilter != o.HasFilter || e.HasExclusion != o.HasExclusion {
		return false
	}
	switch a := e.Attr.(type) {
	case nil:
		return o.Attr == nil
	case *ProbeAttr:
		b, ok := o.Attr.(*ProbeAttr)
		return ok && a.Addr == b.Addr && a.Offset == b.Offset && a.SymbolName == b.SymbolName
	case *FunctionAttr:
		b, ok := o.Attr.(*FunctionAttr)
		return ok && a.SymbolName == b.SymbolName
	}
	return false
}

// Clone returns a deep copy of the event. The attribute is copied so
// the result shares no memory with e.
func (e Event) Clone() Event {
	switch a := e.Attr.(type) {
	case *ProbeAttr:
		c := *a
		e.Attr = &c
	case *FunctionAttr:
		c := *a
		e.Attr = &c
	}
	return e
}

// Symbol returns the symbol named by the attribute payload, if any.
func (e Event) Symbol() string {
	switch a := e.Attr.(type) {
	case *ProbeAttr:
		return a.SymbolName
	case *FunctionAttr:
		return a.SymbolName
	}
	return ""
}

func checkName(what, s string) error {
	if len(s) > MaxNameLen {
		return Errorf(KindInvalidArgument, "%s exceeds %d bytes", what, MaxNameLen)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return Errorf(KindInvalidArgument, "%s contains a NUL byte", what)
	}
	return nil
}
