// Package wire encodes descriptors in their frozen fixed-size layout
// and carries them between client and daemon over gRPC.
//
// Every layout below is little endian. Offsets before each padding
// region never move and sizes never change; new fields are carved out
// of the padding.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/frobware/go-tracectl"
)

// Descriptor sizes.
const (
	EventSize   = 584
	ContextSize = 312
	FieldSize   = 1144

	unionSize = 288
)

// Event layout.
const (
	evType         = 0
	evName         = 4
	evLoglevelType = evName + tracectl.SymbolNameLen // 260
	evLoglevel     = 264
	evEnabled      = 268
	evPid          = 272
	evFilter       = 276
	evExclusion    = 277
	evPadding      = 278
	evAttr         = 296

	probeAddr     = 0
	probeOffset   = 8
	probeSymbol   = 16
	probePadding  = probeSymbol + tracectl.SymbolNameLen // 272
	funcSymbol    = 0
	funcPadding   = tracectl.SymbolNameLen // 256
	attrPadLength = 16
)

// Context layout.
const (
	ctxType    = 0
	ctxPadding = 4
	ctxUnion   = 24

	perfType    = 0
	perfConfig  = 8
	perfName    = 16
	perfPadding = perfName + tracectl.SymbolNameLen // 272
)

// Field layout.
const (
	fieldName    = 0
	fieldType    = tracectl.SymbolNameLen // 256
	fieldPadding = 260
	fieldEvent   = 552
	fieldNoWrite = fieldEvent + EventSize // 1136
)

// ErrMalformed is wrapped by every decoding failure.
var ErrMalformed = errors.New("malformed descriptor")

var le = binary.LittleEndian

func putString(dst []byte, s string) error {
	if len(s) > len(dst)-1 {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "%q exceeds %d bytes", s, len(dst)-1)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return tracectl.Errorf(tracectl.KindInvalidArgument, "%q contains a NUL byte", s)
	}
	copy(dst, s)
	clear(dst[len(s):])
	return nil
}

func getString(src []byte) (string, error) {
	n := bytes.IndexByte(src, 0)
	if n < 0 {
		return "", fmt.Errorf("%w: string not terminated within %d bytes", ErrMalformed, len(src))
	}
	return string(src[:n]), nil
}

func putBool(dst []byte, v bool) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
}

// AppendEvent appends the wire form of ev to b.
func AppendEvent(b []byte, ev tracectl.Event) ([]byte, error) {
	start := len(b)
	b = append(b, make([]byte, EventSize)...)
	buf := b[start:]

	le.PutUint32(buf[evType:], uint32(ev.Type))
	if err := putString(buf[evName:evLoglevelType], ev.Name); err != nil {
		return b[:start], fmt.Errorf("event name: %w", err)
	}
	le.PutUint32(buf[evLoglevelType:], uint32(ev.LoglevelType))
	le.PutUint32(buf[evLoglevel:], uint32(ev.Loglevel))
	le.PutUint32(buf[evEnabled:], uint32(ev.Enabled))
	le.PutUint32(buf[evPid:], uint32(ev.Pid))
	putBool(buf[evFilter:], ev.HasFilter)
	putBool(buf[evExclusion:], ev.HasExclusion)
	copy(buf[evPadding:evAttr], ev.Reserved[:])

	attr := buf[evAttr : evAttr+unionSize]
	switch a := ev.Attr.(type) {
	case nil:
	case *tracectl.ProbeAttr:
		le.PutUint64(attr[probeAddr:], a.Addr)
		le.PutUint64(attr[probeOffset:], a.Offset)
		if err := putString(attr[probeSymbol:probePadding], a.SymbolName); err != nil {
			return b[:start], fmt.Errorf("probe symbol: %w", err)
		}
		copy(attr[probePadding:probePadding+attrPadLength], a.Reserved[:])
	case *tracectl.FunctionAttr:
		if err := putString(attr[funcSymbol:funcPadding], a.SymbolName); err != nil {
			return b[:start], fmt.Errorf("function symbol: %w", err)
		}
		copy(attr[funcPadding:funcPadding+attrPadLength], a.Reserved[:])
	default:
		return b[:start], tracectl.Errorf(tracectl.KindInvalidArgument, "unsupported event attribute %T", a)
	}
	return b, nil
}

// MarshalEvent returns the wire form of ev.
func MarshalEvent(ev tracectl.Event) ([]byte, error) {
	return AppendEvent(make([]byte, 0, EventSize), ev)
}

// UnmarshalEvent decodes an event. The attribute arm is selected by
// the event type; the union is ignored for kinds without attributes.
func UnmarshalEvent(buf []byte) (tracectl.Event, error) {
	var ev tracectl.Event
	if len(buf) != EventSize {
		return ev, fmt.Errorf("%w: event is %d bytes, want %d", ErrMalformed, len(buf), EventSize)
	}

	var err error
	ev.Type = tracectl.EventType(int32(le.Uint32(buf[evType:])))
	if ev.Name, err = getString(buf[evName:evLoglevelType]); err != nil {
		return ev, fmt.Errorf("event name: %w", err)
	}
	ev.LoglevelType = tracectl.LoglevelType(int32(le.Uint32(buf[evLoglevelType:])))
	ev.Loglevel = int32(le.Uint32(buf[evLoglevel:]))
	ev.Enabled = tracectl.EnabledState(int32(le.Uint32(buf[evEnabled:])))
	ev.Pid = int32(le.Uint32(buf[evPid:]))
	ev.HasFilter = buf[evFilter] != 0
	ev.HasExclusion = buf[evExclusion] != 0
	copy(ev.Reserved[:], buf[evPadding:evAttr])

	attr := buf[evAttr : evAttr+unionSize]
	switch ev.Type {
	case tracectl.EventTypeProbe:
		p := &tracectl.ProbeAttr{
			Addr:   le.Uint64(attr[probeAddr:]),
			Offset: le.Uint64(attr[probeOffset:]),
		}
		if p.SymbolName, err = getString(attr[probeSymbol:probePadding]); err != nil {
			return ev, fmt.Errorf("probe symbol: %w", err)
		}
		copy(p.Reserved[:], attr[probePadding:])
		ev.Attr = p
	case tracectl.EventTypeFunction, tracectl.EventTypeFunctionEntry:
		f := &tracectl.FunctionAttr{}
		if f.SymbolName, err = getString(attr[funcSymbol:funcPadding]); err != nil {
			return ev, fmt.Errorf("function symbol: %w", err)
		}
		copy(f.Reserved[:], attr[funcPadding:])
		ev.Attr = f
	}
	return ev, nil
}

// AppendContext appends the wire form of c to b.
func AppendContext(b []byte, c tracectl.Context) ([]byte, error) {
	start := len(b)
	b = append(b, make([]byte, ContextSize)...)
	buf := b[start:]

	le.PutUint32(buf[ctxType:], uint32(c.Type))
	copy(buf[ctxPadding:ctxUnion], c.Reserved[:])
	if p := c.Perf; p != nil {
		u := buf[ctxUnion : ctxUnion+unionSize]
		le.PutUint32(u[perfType:], p.Type)
		le.PutUint64(u[perfConfig:], p.Config)
		if err := putString(u[perfName:perfPadding], p.Name); err != nil {
			return b[:start], fmt.Errorf("perf counter name: %w", err)
		}
		copy(u[perfPadding:perfPadding+attrPadLength], p.Reserved[:])
	}
	return b, nil
}

// MarshalContext returns the wire form of c.
func MarshalContext(c tracectl.Context) ([]byte, error) {
	return AppendContext(make([]byte, 0, ContextSize), c)
}

// UnmarshalContext decodes a context. The perf arm is decoded only for
// the perf counter kinds.
func UnmarshalContext(buf []byte) (tracectl.Context, error) {
	var c tracectl.Context
	if len(buf) != ContextSize {
		return c, fmt.Errorf("%w: context is %d bytes, want %d", ErrMalformed, len(buf), ContextSize)
	}
	c.Type = tracectl.ContextType(int32(le.Uint32(buf[ctxType:])))
	copy(c.Reserved[:], buf[ctxPadding:ctxUnion])
	if c.Type.IsPerf() {
		u := buf[ctxUnion : ctxUnion+unionSize]
		p := &tracectl.PerfCounterAttr{
			Type:   le.Uint32(u[perfType:]),
			Config: le.Uint64(u[perfConfig:]),
		}
		var err error
		if p.Name, err = getString(u[perfName:perfPadding]); err != nil {
			return c, fmt.Errorf("perf counter name: %w", err)
		}
		copy(p.Reserved[:], u[perfPadding:])
		c.Perf = p
	}
	return c, nil
}

// AppendField appends the wire form of f to b. The owning event is
// embedded in full.
func AppendField(b []byte, f tracectl.Field) ([]byte, error) {
	start := len(b)
	b = append(b, make([]byte, FieldSize)...)
	buf := b[start:]

	if err := putString(buf[fieldName:fieldType], f.Name); err != nil {
		return b[:start], fmt.Errorf("field name: %w", err)
	}
	le.PutUint32(buf[fieldType:], uint32(f.Type))
	copy(buf[fieldPadding:fieldEvent], f.Reserved[:])
	if _, err := AppendEvent(buf[fieldEvent:fieldEvent], f.Event); err != nil {
		return b[:start], fmt.Errorf("field %q: %w", f.Name, err)
	}
	var nowrite uint32
	if !f.Writable {
		nowrite = 1
	}
	le.PutUint32(buf[fieldNoWrite:], nowrite)
	return b, nil
}

// MarshalField returns the wire form of f.
func MarshalField(f tracectl.Field) ([]byte, error) {
	return AppendField(make([]byte, 0, FieldSize), f)
}

// UnmarshalField decodes a field and its owning event.
func UnmarshalField(buf []byte) (tracectl.Field, error) {
	var f tracectl.Field
	if len(buf) != FieldSize {
		return f, fmt.Errorf("%w: field is %d bytes, want %d", ErrMalformed, len(buf), FieldSize)
	}
	var err error
	if f.Name, err = getString(buf[fieldName:fieldType]); err != nil {
		return f, fmt.Errorf("field name: %w", err)
	}
	f.Type = tracectl.FieldType(int32(le.Uint32(buf[fieldType:])))
	copy(f.Reserved[:], buf[fieldPadding:fieldEvent])
	if f.Event, err = UnmarshalEvent(buf[fieldEvent:fieldNoWrite]); err != nil {
		return f, fmt.Errorf("field %q: %w", f.Name, err)
	}
	f.Writable = le.Uint32(buf[fieldNoWrite:]) == 0
	return f, nil
}
