package tracectl

import "fmt"

// FieldType is the primitive type of a traceable field.
type FieldType int32

const (
	FieldTypeOther   FieldType = 0
	FieldTypeInteger FieldType = 1
	FieldTypeEnum    FieldType = 2
	FieldTypeFloat   FieldType = 3
	FieldTypeString  FieldType = 4
)

// String returns the string representation of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldTypeOther:
		return "other"
	case FieldTypeInteger:
		return "integer"
	case FieldTypeEnum:
		return "enum"
	case FieldTypeFloat:
		return "float"
	case FieldTypeString:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, ok := ParseFieldType(string(text))
	if !ok {
		return fmt.Errorf("invalid field type: %q", string(text))
	}
	*t = parsed
	return nil
}

// ParseFieldType parses a string into a FieldType.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "other":
		return FieldTypeOther, true
	case "integer":
		return FieldTypeInteger, true
	case "enum":
		return FieldTypeEnum, true
	case "float":
		return FieldTypeFloat, true
	case "string":
		return FieldTypeString, true
	default:
		return FieldTypeOther, false
	}
}

// Field is one traceable field discovered on an instrumentation point.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Event is a copy of the owning event.
	Event Event `json:"event"`
	// Writable is false for fields the tracer describes but does not
	// record.
	Writable bool `json:"writable"`

	Reserved [292]byte `json:"-"`
}

// Equal compares every fixed field and the owning event, ignoring
// reserved bytes.
func (f Field) Equal(o Field) bool {
	return f.Name == o.Name && f.Type == o.Type && f.Writable == o.Writable && f.Event.Equal(o.Event)
}
