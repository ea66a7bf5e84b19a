package wire

import (
	"fmt"
	"time"

	"github.com/frobware/go-tracectl"
)

// Handle is the wire form of a session handle.
type Handle struct {
	Session string
	Domain  tracectl.Domain
}

// FromHandle converts a validated handle. A nil handle yields the zero
// value, which the daemon rejects.
func FromHandle(h *tracectl.Handle) Handle {
	if h == nil {
		return Handle{}
	}
	return Handle{Session: h.Session, Domain: h.Domain}
}

// Handle returns the handle as the core type.
func (h Handle) Handle() *tracectl.Handle {
	return &tracectl.Handle{Session: h.Session, Domain: h.Domain}
}

func (h *Handle) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, h.Session)
	e.int32(2, int32(h.Domain))
	return e.b, nil
}

func (h *Handle) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			h.Session = d.string(typ)
		case 2:
			h.Domain = tracectl.Domain(d.int32(typ))
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// Empty is the response of operations that only report a status.
type Empty struct{}

func (*Empty) Marshal() ([]byte, error) { return nil, nil }

func (*Empty) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		d.skip(num, typ)
	}
	return d.err
}

// DomainRequest addresses a domain of a session.
type DomainRequest struct {
	Handle Handle
}

func (r *DomainRequest) Marshal() ([]byte, error) {
	var e encoder
	if err := e.message(1, &r.Handle); err != nil {
		return nil, err
	}
	return e.b, nil
}

func (r *DomainRequest) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			d.message(typ, &r.Handle)
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// ChannelRequest addresses a channel of a session.
type ChannelRequest struct {
	Handle  Handle
	Channel string
}

func (r *ChannelRequest) Marshal() ([]byte, error) {
	var e encoder
	if err := e.message(1, &r.Handle); err != nil {
		return nil, err
	}
	e.string(2, r.Channel)
	return e.b, nil
}

func (r *ChannelRequest) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			d.message(typ, &r.Handle)
		case 2:
			r.Channel = d.string(typ)
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// EventList carries events in their fixed layout with an explicit
// count.
type EventList struct {
	Events []tracectl.Event
}

func (l *EventList) Marshal() ([]byte, error) {
	var e encoder
	e.varint(1, uint64(len(l.Events)))
	for i := range l.Events {
		buf, err := MarshalEvent(l.Events[i])
		if err != nil {
			return nil, err
		}
		e.bytes(2, buf)
	}
	return e.b, nil
}

func (l *EventList) Unmarshal(b []byte) error {
	var count uint64
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			count = d.varint(typ)
		case 2:
			buf := d.bytes(typ)
			if d.err != nil {
				break
			}
			ev, err := UnmarshalEvent(buf)
			if err != nil {
				return err
			}
			l.Events = append(l.Events, ev)
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return d.err
	}
	return checkCount("event", count, len(l.Events))
}

// FieldList carries fields in their fixed layout with an explicit
// count.
type FieldList struct {
	Fields []tracectl.Field
}

func (l *FieldList) Marshal() ([]byte, error) {
	var e encoder
	e.varint(1, uint64(len(l.Fields)))
	for i := range l.Fields {
		buf, err := MarshalField(l.Fields[i])
		if err != nil {
			return nil, err
		}
		e.bytes(2, buf)
	}
	return e.b, nil
}

func (l *FieldList) Unmarshal(b []byte) error {
	var count uint64
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			count = d.varint(typ)
		case 2:
			buf := d.bytes(typ)
			if d.err != nil {
				break
			}
			f, err := UnmarshalField(buf)
			if err != nil {
				return err
			}
			l.Fields = append(l.Fields, f)
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return d.err
	}
	return checkCount("field", count, len(l.Fields))
}

// AddContextRequest attaches a context to one or all channels.
type AddContextRequest struct {
	Handle    Handle
	Context   tracectl.Context
	EventName string
	Channel   string
}

func (r *AddContextRequest) Marshal() ([]byte, error) {
	var e encoder
	if err := e.message(1, &r.Handle); err != nil {
		return nil, err
	}
	buf, err := MarshalContext(r.Context)
	if err != nil {
		return nil, err
	}
	e.bytes(2, buf)
	e.string(3, r.EventName)
	e.string(4, r.Channel)
	return e.b, nil
}

func (r *AddContextRequest) Unmarshal(b []byte) error {
	seen := false
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			d.message(typ, &r.Handle)
		case 2:
			buf := d.bytes(typ)
			if d.err != nil {
				break
			}
			c, err := UnmarshalContext(buf)
			if err != nil {
				return err
			}
			r.Context, seen = c, true
		case 3:
			r.EventName = d.string(typ)
		case 4:
			r.Channel = d.string(typ)
		default:
			d.skip(num, typ)
		}
	}
	if d.err == nil && !seen {
		return fmt.Errorf("%w: add context request without context", ErrMalformed)
	}
	return d.err
}

// EnableEventRequest is shared by the plain, filtered and excluding
// enable operations. A nil Event broadcasts the enable to every event
// on the channel.
type EnableEventRequest struct {
	Handle     Handle
	Event      *tracectl.Event
	Channel    string
	Filter     string
	Exclusions []string
}

func (r *EnableEventRequest) Marshal() ([]byte, error) {
	var e encoder
	if err := e.message(1, &r.Handle); err != nil {
		return nil, err
	}
	if r.Event != nil {
		buf, err := MarshalEvent(*r.Event)
		if err != nil {
			return nil, err
		}
		e.bytes(2, buf)
	}
	e.string(3, r.Channel)
	e.string(4, r.Filter)
	for _, x := range r.Exclusions {
		e.bytes(5, []byte(x))
	}
	return e.b, nil
}

func (r *EnableEventRequest) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			d.message(typ, &r.Handle)
		case 2:
			buf := d.bytes(typ)
			if d.err != nil {
				break
			}
			ev, err := UnmarshalEvent(buf)
			if err != nil {
				return err
			}
			r.Event = &ev
		case 3:
			r.Channel = d.string(typ)
		case 4:
			r.Filter = d.string(typ)
		case 5:
			r.Exclusions = append(r.Exclusions, d.string(typ))
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// DisableEventRequest disables one event by name, or all of them.
type DisableEventRequest struct {
	Handle  Handle
	Name    string
	Channel string
}

func (r *DisableEventRequest) Marshal() ([]byte, error) {
	var e encoder
	if err := e.message(1, &r.Handle); err != nil {
		return nil, err
	}
	e.string(2, r.Name)
	e.string(3, r.Channel)
	return e.b, nil
}

func (r *DisableEventRequest) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			d.message(typ, &r.Handle)
		case 2:
			r.Name = d.string(typ)
		case 3:
			r.Channel = d.string(typ)
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// Channel is the wire form of a channel summary.
type Channel struct {
	tracectl.Channel
}

func (c *Channel) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, c.Name)
	e.int32(2, int32(c.Domain))
	e.varint(3, uint64(c.Events))
	for i := range c.Contexts {
		buf, err := MarshalContext(c.Contexts[i])
		if err != nil {
			return nil, err
		}
		e.bytes(4, buf)
	}
	return e.b, nil
}

func (c *Channel) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			c.Name = d.string(typ)
		case 2:
			c.Domain = tracectl.Domain(d.int32(typ))
		case 3:
			c.Events = int(d.varint(typ))
		case 4:
			buf := d.bytes(typ)
			if d.err != nil {
				break
			}
			ctx, err := UnmarshalContext(buf)
			if err != nil {
				return err
			}
			c.Contexts = append(c.Contexts, ctx)
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// ChannelList carries channel summaries with an explicit count.
type ChannelList struct {
	Channels []tracectl.Channel
}

func (l *ChannelList) Marshal() ([]byte, error) {
	var e encoder
	e.varint(1, uint64(len(l.Channels)))
	for i := range l.Channels {
		if err := e.message(2, &Channel{l.Channels[i]}); err != nil {
			return nil, err
		}
	}
	return e.b, nil
}

func (l *ChannelList) Unmarshal(b []byte) error {
	var count uint64
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			count = d.varint(typ)
		case 2:
			var c Channel
			d.message(typ, &c)
			if d.err == nil {
				l.Channels = append(l.Channels, c.Channel)
			}
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return d.err
	}
	return checkCount("channel", count, len(l.Channels))
}

// SessionRequest names a session.
type SessionRequest struct {
	Name string
}

func (r *SessionRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, r.Name)
	return e.b, nil
}

func (r *SessionRequest) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			r.Name = d.string(typ)
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// Session is the wire form of a session.
type Session struct {
	tracectl.Session
}

func (s *Session) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, s.Name)
	e.string(2, s.ID)
	if !s.CreatedAt.IsZero() {
		e.varint(3, uint64(s.CreatedAt.UnixNano()))
	}
	return e.b, nil
}

func (s *Session) Unmarshal(b []byte) error {
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			s.Name = d.string(typ)
		case 2:
			s.ID = d.string(typ)
		case 3:
			s.CreatedAt = time.Unix(0, int64(d.varint(typ))).UTC()
		default:
			d.skip(num, typ)
		}
	}
	return d.err
}

// SessionList carries sessions with an explicit count.
type SessionList struct {
	Sessions []tracectl.Session
}

func (l *SessionList) Marshal() ([]byte, error) {
	var e encoder
	e.varint(1, uint64(len(l.Sessions)))
	for i := range l.Sessions {
		if err := e.message(2, &Session{l.Sessions[i]}); err != nil {
			return nil, err
		}
	}
	return e.b, nil
}

func (l *SessionList) Unmarshal(b []byte) error {
	var count uint64
	d := decoder{b: b}
	for num, typ, ok := d.next(); ok; num, typ, ok = d.next() {
		switch num {
		case 1:
			count = d.varint(typ)
		case 2:
			var s Session
			d.message(typ, &s)
			if d.err == nil {
				l.Sessions = append(l.Sessions, s.Session)
			}
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return d.err
	}
	return checkCount("session", count, len(l.Sessions))
}
