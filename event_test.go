package tracectl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
)

// TestProbe_AddressingModesAreExclusive verifies that:
//
//	Given a probe event,
//	When both an address and a symbol are set,
//	Then validation fails with InvalidArgument,
//	And setting exactly one of them succeeds.
func TestProbe_AddressingModesAreExclusive(t *testing.T) {
	tests := []struct {
		name    string
		attr    *tracectl.ProbeAttr
		wantErr bool
	}{
		{name: "both", attr: &tracectl.ProbeAttr{Addr: 0xffffffff81000000, SymbolName: "do_sys_open"}, wantErr: true},
		{name: "neither", attr: &tracectl.ProbeAttr{}, wantErr: true},
		{name: "address only", attr: &tracectl.ProbeAttr{Addr: 0xffffffff81000000}},
		{name: "symbol only", attr: &tracectl.ProbeAttr{SymbolName: "do_sys_open"}},
		{name: "symbol with offset", attr: &tracectl.ProbeAttr{SymbolName: "do_sys_open", Offset: 8}},
		{name: "address with offset", attr: &tracectl.ProbeAttr{Addr: 0x1000, Offset: 8}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tracectl.Event{Type: tracectl.EventTypeProbe, Name: "p", Attr: tt.attr}
			err := ev.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tracectl.ErrInvalidArgument)
			assert.True(t, errdefs.IsInvalidArgument(err), "should classify as errdefs invalid argument")
		})
	}
}

func TestEvent_ValidateAttrMatchesType(t *testing.T) {
	tests := []struct {
		name    string
		ev      tracectl.Event
		wantErr bool
	}{
		{name: "tracepoint without attr", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "sched_switch"}},
		{name: "syscall without attr", ev: tracectl.Event{Type: tracectl.EventTypeSyscall, Name: "openat"}},
		{name: "function with symbol", ev: tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f", Attr: &tracectl.FunctionAttr{SymbolName: "vfs_read"}}},
		{name: "function entry with symbol", ev: tracectl.Event{Type: tracectl.EventTypeFunctionEntry, Name: "f", Attr: &tracectl.FunctionAttr{SymbolName: "vfs_read"}}},
		{name: "function without attr", ev: tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f"}, wantErr: true},
		{name: "function with empty symbol", ev: tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f", Attr: &tracectl.FunctionAttr{}}, wantErr: true},
		{name: "probe attr on tracepoint", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "t", Attr: &tracectl.ProbeAttr{Addr: 1}}, wantErr: true},
		{name: "function attr on probe", ev: tracectl.Event{Type: tracectl.EventTypeProbe, Name: "p", Attr: &tracectl.FunctionAttr{SymbolName: "x"}}, wantErr: true},
		{name: "unknown type", ev: tracectl.Event{Type: 42, Name: "x"}, wantErr: true},
		{name: "unknown loglevel type", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "x", LoglevelType: 9}, wantErr: true},
		{name: "name at bound", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: strings.Repeat("a", tracectl.MaxNameLen)}},
		{name: "name past bound", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: strings.Repeat("a", tracectl.SymbolNameLen)}, wantErr: true},
		{name: "name with NUL", ev: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "a\x00b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, tracectl.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvent_EqualIgnoresReserved(t *testing.T) {
	a := tracectl.Event{
		Type: tracectl.EventTypeProbe,
		Name: "p",
		Attr: &tracectl.ProbeAttr{SymbolName: "do_sys_open", Offset: 4},
	}
	b := a.Clone()
	b.Reserved[0] = 0xff
	b.Attr.(*tracectl.ProbeAttr).Reserved[3] = 0xee

	assert.True(t, a.Equal(b))
	assert.Zero(t, a.Attr.(*tracectl.ProbeAttr).Reserved[3], "Clone must not share the attribute")

	b.Attr.(*tracectl.ProbeAttr).Offset = 8
	assert.False(t, a.Equal(b))
}

func TestEvent_EqualComparesActiveVariant(t *testing.T) {
	probe := tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f", Attr: &tracectl.FunctionAttr{SymbolName: "x"}}
	other := tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f", Attr: &tracectl.ProbeAttr{SymbolName: "x"}}
	assert.False(t, probe.Equal(other))
	assert.False(t, probe.Equal(tracectl.Event{Type: tracectl.EventTypeFunction, Name: "f"}))
}

func TestEventType_TextRoundTrip(t *testing.T) {
	for _, et := range []tracectl.EventType{
		tracectl.EventTypeAll, tracectl.EventTypeTracepoint, tracectl.EventTypeProbe,
		tracectl.EventTypeFunction, tracectl.EventTypeFunctionEntry, tracectl.EventTypeNoop,
		tracectl.EventTypeSyscall,
	} {
		text, err := et.MarshalText()
		require.NoError(t, err)
		var got tracectl.EventType
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, et, got)
	}

	var bad tracectl.EventType
	assert.Error(t, bad.UnmarshalText([]byte("kprobe")))
}

func TestError_KindsAndClasses(t *testing.T) {
	err := tracectl.Errorf(tracectl.KindNotFound, "channel %q not found", "c9")

	assert.ErrorIs(t, err, tracectl.ErrNotFound)
	assert.NotErrorIs(t, err, tracectl.ErrInvalidArgument)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Equal(t, tracectl.KindNotFound, tracectl.KindOf(err))
	assert.Equal(t, `channel "c9" not found`, err.Error())

	cause := errors.New("connection refused")
	wrapped := tracectl.Wrap(tracectl.KindCommunication, cause, "dial daemon")
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, errdefs.IsUnavailable(wrapped))
	assert.Equal(t, "dial daemon: connection refused", wrapped.Error())

	assert.Equal(t, tracectl.KindUnknown, tracectl.KindOf(cause))

	for k := tracectl.KindInvalidHandle; k <= tracectl.KindAllocation; k++ {
		parsed, ok := tracectl.ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
		assert.Negative(t, k.Code())
	}
}
