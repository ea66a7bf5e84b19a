package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every request and response carried by the
// control service.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type encoder struct {
	b []byte
}

func (e *encoder) string(num protowire.Number, s string) {
	if s == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, s)
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) int32(num protowire.Number, v int32) {
	e.varint(num, uint64(int64(v)))
}

func (e *encoder) message(num protowire.Number, m Message) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	e.bytes(num, b)
	return nil
}

// decoder walks the fields of one message. The first failure sticks
// and ends the walk.
type decoder struct {
	b   []byte
	err error
}

func (d *decoder) next() (protowire.Number, protowire.Type, bool) {
	if d.err != nil || len(d.b) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0, 0, false
	}
	d.b = d.b[n:]
	return num, typ, true
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (d *decoder) expect(typ, want protowire.Type) bool {
	if typ != want {
		d.fail(fmt.Errorf("wire type %d, want %d", typ, want))
		return false
	}
	return true
}

func (d *decoder) bytes(typ protowire.Type) []byte {
	if !d.expect(typ, protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return nil
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) string(typ protowire.Type) string {
	return string(d.bytes(typ))
}

func (d *decoder) varint(typ protowire.Type) uint64 {
	if !d.expect(typ, protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) int32(typ protowire.Type) int32 {
	return int32(d.varint(typ))
}

func (d *decoder) message(typ protowire.Type, m Message) {
	b := d.bytes(typ)
	if d.err != nil {
		return
	}
	if err := m.Unmarshal(b); err != nil && d.err == nil {
		d.err = err
	}
}

// skip discards a field this version does not know.
func (d *decoder) skip(num protowire.Number, typ protowire.Type) {
	n := protowire.ConsumeFieldValue(num, typ, d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return
	}
	d.b = d.b[n:]
}

func checkCount(what string, count uint64, got int) error {
	if count != uint64(got) {
		return fmt.Errorf("%w: %s count %d does not match %d elements", ErrMalformed, what, count, got)
	}
	return nil
}
