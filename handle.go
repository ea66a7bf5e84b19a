package tracectl

import (
	"fmt"
	"time"
)

// DefaultChannelName is the channel used when an operation is given
// an empty channel name.
const DefaultChannelName = "channel0"

// Domain is the instrumentation subsystem a handle targets.
type Domain int32

const (
	DomainKernel Domain = 1
	DomainUST    Domain = 2
	DomainJUL    Domain = 3
)

// String returns the string representation of the domain.
func (d Domain) String() string {
	switch d {
	case DomainKernel:
		return "kernel"
	case DomainUST:
		return "ust"
	case DomainJUL:
		return "jul"
	default:
		return fmt.Sprintf("unknown(%d)", int32(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Domain) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Domain) UnmarshalText(text []byte) error {
	parsed, ok := ParseDomain(string(text))
	if !ok {
		return fmt.Errorf("invalid domain: %q", string(text))
	}
	*d = parsed
	return nil
}

// ParseDomain parses a string into a Domain.
func ParseDomain(s string) (Domain, bool) {
	switch s {
	case "kernel", "k":
		return DomainKernel, true
	case "ust", "userspace", "u":
		return DomainUST, true
	case "jul", "j":
		return DomainJUL, true
	default:
		return 0, false
	}
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	return d >= DomainKernel && d <= DomainJUL
}

// Scale returns the severity scale loglevels are expressed in.
func (d Domain) Scale() Scale {
	if d == DomainJUL {
		return ScaleJUL
	}
	return ScaleStandard
}

// SupportsContext reports whether channels of this domain can record
// context of type t.
func (d Domain) SupportsContext(t ContextType) bool {
	switch d {
	case DomainKernel:
		switch t {
		case ContextPID, ContextPerfCounter, ContextPerfCPUCounter,
			ContextProcname, ContextPrio, ContextNice, ContextVPID,
			ContextTID, ContextVTID, ContextPPID, ContextVPPID,
			ContextHostname:
			return true
		}
	case DomainUST, DomainJUL:
		switch t {
		case ContextVPID, ContextVTID, ContextProcname, ContextPthreadID,
			ContextIP, ContextPerfThreadCounter:
			return true
		}
	}
	return false
}

// SupportsEvent reports whether events of type t exist in this domain.
func (d Domain) SupportsEvent(t EventType) bool {
	if d == DomainKernel {
		return true
	}
	return t == EventTypeTracepoint || t == EventTypeAll
}

// Handle identifies the session and domain a control operation
// applies to.
type Handle struct {
	Session string `json:"session"`
	Domain  Domain `json:"domain"`
}

// NewHandle returns a validated handle.
func NewHandle(session string, domain Domain) (*Handle, error) {
	h := &Handle{Session: session, Domain: domain}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate reports InvalidHandle for a nil or malformed handle.
func (h *Handle) Validate() error {
	switch {
	case h == nil:
		return Errorf(KindInvalidHandle, "handle is nil")
	case h.Session == "":
		return Errorf(KindInvalidHandle, "handle has no session name")
	case len(h.Session) > MaxNameLen:
		return Errorf(KindInvalidHandle, "session name exceeds %d bytes", MaxNameLen)
	case !h.Domain.Valid():
		return Errorf(KindInvalidHandle, "handle has unknown domain %d", int32(h.Domain))
	}
	return nil
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}
	return h.Session + "/" + h.Domain.String()
}

// Session is a tracing session as reported by the daemon.
type Session struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is a named group of events within a session and domain.
type Channel struct {
	Name     string    `json:"name"`
	Domain   Domain    `json:"domain"`
	Contexts []Context `json:"contexts,omitempty"`
	Events   int       `json:"events"`
}
