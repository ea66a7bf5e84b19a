package wire_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/wire"
)

var ignoreReserved = cmpopts.IgnoreFields(tracectl.Event{}, "Reserved")

func sampleEvents() []tracectl.Event {
	return []tracectl.Event{
		{Type: tracectl.EventTypeTracepoint, Name: "sched_switch", Enabled: tracectl.Enabled},
		{Type: tracectl.EventTypeSyscall, Name: "openat", Enabled: tracectl.Disabled, HasFilter: true},
		{
			Type: tracectl.EventTypeTracepoint, Name: "myapp:*",
			LoglevelType: tracectl.LoglevelRange, Loglevel: tracectl.LoglevelWarning,
			Enabled: tracectl.NotApplicable, Pid: 4242, HasExclusion: true,
		},
		{Type: tracectl.EventTypeProbe, Name: "open_probe", Attr: &tracectl.ProbeAttr{SymbolName: "do_sys_open", Offset: 16}},
		{Type: tracectl.EventTypeProbe, Name: "addr_probe", Attr: &tracectl.ProbeAttr{Addr: 0xffffffff81234560}},
		{Type: tracectl.EventTypeFunction, Name: "vfs", Attr: &tracectl.FunctionAttr{SymbolName: "vfs_read"}},
		{Type: tracectl.EventTypeFunctionEntry, Name: "vfs_w", Attr: &tracectl.FunctionAttr{SymbolName: "vfs_write"}},
		{Type: tracectl.EventTypeAll, Name: strings.Repeat("x", tracectl.MaxNameLen)},
	}
}

// TestEvent_RoundTrip verifies that:
//
//	Given any valid event descriptor,
//	When it is encoded to its wire form and decoded again,
//	Then every fixed field and the active attribute arm are preserved.
func TestEvent_RoundTrip(t *testing.T) {
	for _, ev := range sampleEvents() {
		t.Run(ev.Type.String()+"/"+ev.Name[:min(len(ev.Name), 16)], func(t *testing.T) {
			buf, err := wire.MarshalEvent(ev)
			require.NoError(t, err)
			require.Len(t, buf, wire.EventSize)

			got, err := wire.UnmarshalEvent(buf)
			require.NoError(t, err)
			assert.True(t, ev.Equal(got))
			if diff := cmp.Diff(ev, got, ignoreReserved, cmpopts.IgnoreFields(tracectl.ProbeAttr{}, "Reserved"), cmpopts.IgnoreFields(tracectl.FunctionAttr{}, "Reserved")); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvent_ReservedBytesRoundTripUnexamined(t *testing.T) {
	ev := tracectl.Event{Type: tracectl.EventTypeProbe, Name: "p", Attr: &tracectl.ProbeAttr{SymbolName: "s"}}
	for i := range ev.Reserved {
		ev.Reserved[i] = byte(i + 1)
	}
	ev.Attr.(*tracectl.ProbeAttr).Reserved[15] = 0xaa

	buf, err := wire.MarshalEvent(ev)
	require.NoError(t, err)
	got, err := wire.UnmarshalEvent(buf)
	require.NoError(t, err)

	assert.Equal(t, ev.Reserved, got.Reserved)
	assert.Equal(t, byte(0xaa), got.Attr.(*tracectl.ProbeAttr).Reserved[15])

	plain := ev.Clone()
	plain.Reserved = [18]byte{}
	assert.True(t, plain.Equal(got), "reserved bytes must not affect equality")
}

// TestEvent_FrozenOffsets pins the fixed header and probe arm offsets.
func TestEvent_FrozenOffsets(t *testing.T) {
	ev := tracectl.Event{
		Type:         tracectl.EventTypeProbe,
		Name:         "abc",
		LoglevelType: tracectl.LoglevelSingle,
		Loglevel:     7,
		Enabled:      tracectl.NotApplicable,
		Pid:          99,
		HasFilter:    true,
		HasExclusion: true,
		Attr:         &tracectl.ProbeAttr{Addr: 0x1122334455667788},
	}
	buf, err := wire.MarshalEvent(ev)
	require.NoError(t, err)

	le := binary.LittleEndian
	assert.Equal(t, uint32(1), le.Uint32(buf[0:]))
	assert.Equal(t, "abc\x00", string(buf[4:8]))
	assert.Equal(t, uint32(2), le.Uint32(buf[260:]))
	assert.Equal(t, uint32(7), le.Uint32(buf[264:]))
	assert.Equal(t, int32(-1), int32(le.Uint32(buf[268:])))
	assert.Equal(t, uint32(99), le.Uint32(buf[272:]))
	assert.Equal(t, byte(1), buf[276])
	assert.Equal(t, byte(1), buf[277])
	assert.Equal(t, uint64(0x1122334455667788), le.Uint64(buf[296:]))
	assert.Equal(t, make([]byte, 18), buf[278:296], "producers zero-fill padding")
}

func TestFunctionArm_Offsets(t *testing.T) {
	buf, err := wire.MarshalEvent(tracectl.Event{
		Type: tracectl.EventTypeFunction,
		Name: "f",
		Attr: &tracectl.FunctionAttr{SymbolName: "vfs_read"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vfs_read\x00", string(buf[296:296+9]))
}

func TestEvent_RejectsUnterminatedString(t *testing.T) {
	buf, err := wire.MarshalEvent(tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "x"})
	require.NoError(t, err)
	for i := 4; i < 260; i++ {
		buf[i] = 'a'
	}
	_, err = wire.UnmarshalEvent(buf)
	assert.ErrorIs(t, err, wire.ErrMalformed)
}

func TestEvent_RejectsWrongSize(t *testing.T) {
	_, err := wire.UnmarshalEvent(make([]byte, wire.EventSize-1))
	assert.ErrorIs(t, err, wire.ErrMalformed)
}

func TestEvent_MarshalRejectsOverlongName(t *testing.T) {
	_, err := wire.MarshalEvent(tracectl.Event{Name: strings.Repeat("n", tracectl.SymbolNameLen)})
	assert.ErrorIs(t, err, tracectl.ErrInvalidArgument)
}

func TestContext_RoundTrip(t *testing.T) {
	tests := []tracectl.Context{
		{Type: tracectl.ContextVPID},
		{Type: tracectl.ContextHostname},
		{Type: tracectl.ContextPerfCPUCounter, Perf: &tracectl.PerfCounterAttr{Type: 0, Config: 3, Name: "perf_cpu_cache_misses"}},
		{Type: tracectl.ContextPerfThreadCounter, Perf: &tracectl.PerfCounterAttr{Type: 4, Config: 0x13c, Name: "perf_thread_raw_r0013c_x"}},
	}
	for _, c := range tests {
		t.Run(c.String(), func(t *testing.T) {
			buf, err := wire.MarshalContext(c)
			require.NoError(t, err)
			require.Len(t, buf, wire.ContextSize)
			got, err := wire.UnmarshalContext(buf)
			require.NoError(t, err)
			assert.True(t, c.Equal(got), "got %+v", got)
		})
	}
}

func TestContext_PerfArmOffsets(t *testing.T) {
	buf, err := wire.MarshalContext(tracectl.Context{
		Type: tracectl.ContextPerfCPUCounter,
		Perf: &tracectl.PerfCounterAttr{Type: 1, Config: 0xdeadbeef, Name: "n"},
	})
	require.NoError(t, err)
	le := binary.LittleEndian
	assert.Equal(t, uint32(13), le.Uint32(buf[0:]))
	assert.Equal(t, uint32(1), le.Uint32(buf[24:]))
	assert.Equal(t, uint64(0xdeadbeef), le.Uint64(buf[32:]))
	assert.Equal(t, "n\x00", string(buf[40:42]))
}

func TestField_RoundTrip(t *testing.T) {
	owner := tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "sched:sched_switch", Enabled: tracectl.NotApplicable}
	for _, f := range []tracectl.Field{
		{Name: "prev_comm", Type: tracectl.FieldTypeString, Event: owner, Writable: true},
		{Name: "common_pid", Type: tracectl.FieldTypeInteger, Event: owner, Writable: false},
	} {
		buf, err := wire.MarshalField(f)
		require.NoError(t, err)
		require.Len(t, buf, wire.FieldSize)

		nowrite := binary.LittleEndian.Uint32(buf[1136:])
		assert.Equal(t, !f.Writable, nowrite == 1, "nowrite is the inverse of writable")

		got, err := wire.UnmarshalField(buf)
		require.NoError(t, err)
		assert.True(t, f.Equal(got), "got %+v", got)
	}
}
