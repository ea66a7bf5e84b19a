package tracectl

import "fmt"

// ContextType identifies a piece of execution context recorded with
// each event.
type ContextType int32

const (
	ContextPID               ContextType = 0
	ContextPerfCounter       ContextType = 1
	ContextProcname          ContextType = 2
	ContextPrio              ContextType = 3
	ContextNice              ContextType = 4
	ContextVPID              ContextType = 5
	ContextTID               ContextType = 6
	ContextVTID              ContextType = 7
	ContextPPID              ContextType = 8
	ContextVPPID             ContextType = 9
	ContextPthreadID         ContextType = 10
	ContextHostname          ContextType = 11
	ContextIP                ContextType = 12
	ContextPerfCPUCounter    ContextType = 13
	ContextPerfThreadCounter ContextType = 14
)

var contextNames = map[ContextType]string{
	ContextPID:               "pid",
	ContextPerfCounter:       "perf",
	ContextProcname:          "procname",
	ContextPrio:              "prio",
	ContextNice:              "nice",
	ContextVPID:              "vpid",
	ContextTID:               "tid",
	ContextVTID:              "vtid",
	ContextPPID:              "ppid",
	ContextVPPID:             "vppid",
	ContextPthreadID:         "pthread_id",
	ContextHostname:          "hostname",
	ContextIP:                "ip",
	ContextPerfCPUCounter:    "perf:cpu",
	ContextPerfThreadCounter: "perf:thread",
}

// String returns the string representation of the context type.
func (t ContextType) String() string {
	if n, ok := contextNames[t]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int32(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t ContextType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseContextType parses a non-perf context name such as "vpid".
func ParseContextType(s string) (ContextType, bool) {
	for t, n := range contextNames {
		if n == s {
			return t, true
		}
	}
	return 0, false
}

// IsPerf reports whether the context carries a perf counter payload.
func (t ContextType) IsPerf() bool {
	return t == ContextPerfCounter || t == ContextPerfCPUCounter || t == ContextPerfThreadCounter
}

// PerfCounterAttr identifies a perf counter by its perf_event_attr
// type and config, plus the name the counter is recorded under.
type PerfCounterAttr struct {
	Type   uint32 `json:"type"`
	Config uint64 `json:"config"`
	Name   string `json:"name"`

	Reserved [16]byte `json:"-"`
}

// Context describes one piece of execution context to attach to the
// events of a channel.
type Context struct {
	Type ContextType `json:"type"`
	// Perf is set for the perf counter kinds and nil otherwise.
	Perf *PerfCounterAttr `json:"perf,omitempty"`

	Reserved [20]byte `json:"-"`
}

// Validate checks that the payload matches the context type.
func (c Context) Validate() error {
	if _, ok := contextNames[c.Type]; !ok {
		return Errorf(KindInvalidArgument, "unknown context type %d", int32(c.Type))
	}
	if c.Type.IsPerf() {
		if c.Perf == nil {
			return Errorf(KindInvalidArgument, "%s context needs a perf counter", c.Type)
		}
		if c.Perf.Name == "" {
			return Errorf(KindInvalidArgument, "%s context needs a counter name", c.Type)
		}
		return checkName("perf counter name", c.Perf.Name)
	}
	if c.Perf != nil {
		return Errorf(KindInvalidArgument, "%s context takes no perf counter", c.Type)
	}
	return nil
}

// Equal compares type and active payload, ignoring reserved bytes.
func (c Context) Equal(o Context) bool {
	if c.Type != o.Type {
		return false
	}
	if c.Perf == nil || o.Perf == nil {
		return c.Perf == nil && o.Perf == nil
	}
	return c.Perf.Type == o.Perf.Type && c.Perf.Config == o.Perf.Config && c.Perf.Name == o.Perf.Name
}

// String renders the context the way the command line accepts it.
func (c Context) String() string {
	if c.Perf != nil {
		return c.Type.String() + ":" + c.Perf.Name
	}
	return c.Type.String()
}
