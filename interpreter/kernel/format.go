package kernel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/frobware/go-tracectl"
)

// formatField is one "field:" line of a tracefs format file.
type formatField struct {
	decl    string
	name    string
	offset  int
	size    int
	signed  bool
	array   bool
	dataloc bool
}

// format is the parsed content of events/<group>/<event>/format.
type format struct {
	name   string
	id     int
	fields []formatField
}

var errBadFormat = errors.New("bad format file")

// parseFormat parses a tracefs format file. The print fmt line is
// accepted and ignored.
func parseFormat(data []byte) (*format, error) {
	f := &format{}
	for n, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: missing ':' on line %d", errBadFormat, n+1)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			f.name = value
		case "ID":
			id, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad ID %q", errBadFormat, n+1, value)
			}
			f.id = id
		case "field":
			fld, err := parseField(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", errBadFormat, n+1, err)
			}
			f.fields = append(f.fields, fld)
		case "format", "print fmt":
		default:
			return nil, fmt.Errorf("%w: line %d: unexpected key %q", errBadFormat, n+1, key)
		}
	}
	return f, nil
}

// parseField parses everything after "field:", for example
// "char prev_comm[16];\toffset:8;\tsize:16;\tsigned:0;".
func parseField(line string) (formatField, error) {
	var fld formatField

	parts := strings.Split(line, ";")
	decl := strings.TrimSpace(parts[0])
	sp := strings.LastIndexAny(decl, " \t*")
	if sp < 0 || sp == len(decl)-1 {
		return fld, fmt.Errorf("missing field type and name in %q", decl)
	}
	fld.decl = strings.TrimSpace(decl[:sp+1])
	fld.name = decl[sp+1:]

	if b := strings.IndexByte(fld.name, '['); b >= 0 {
		if e := strings.IndexByte(fld.name, ']'); e < b {
			return fld, fmt.Errorf("expected ']' after '[' in %q", fld.name)
		}
		fld.array = true
		fld.name = fld.name[:b]
	}
	if rest, ok := strings.CutPrefix(fld.decl, "__data_loc "); ok {
		fld.dataloc = true
		fld.decl = rest
	}

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		k, v, ok := strings.Cut(attr, ":")
		if !ok {
			return fld, fmt.Errorf("missing ':' in field attribute %q", attr)
		}
		var err error
		switch strings.TrimSpace(k) {
		case "offset":
			fld.offset, err = strconv.Atoi(strings.TrimSpace(v))
		case "size":
			fld.size, err = strconv.Atoi(strings.TrimSpace(v))
		case "signed":
			fld.signed, err = strconv.ParseBool(strings.TrimSpace(v))
		default:
			err = fmt.Errorf("unknown field attribute %q", k)
		}
		if err != nil {
			return fld, err
		}
	}
	if fld.offset < 0 || fld.size < 0 {
		return fld, fmt.Errorf("negative offset or size for field %q", fld.name)
	}
	return fld, nil
}

// fieldType classifies a tracefs field declaration.
func (f formatField) fieldType() tracectl.FieldType {
	decl := f.decl
	switch {
	case f.dataloc || (f.array && strings.Contains(decl, "char")):
		return tracectl.FieldTypeString
	case f.array:
		return tracectl.FieldTypeOther
	case strings.HasPrefix(decl, "enum "):
		return tracectl.FieldTypeEnum
	case strings.Contains(decl, "float") || strings.Contains(decl, "double"):
		return tracectl.FieldTypeFloat
	case strings.HasPrefix(decl, "struct ") && !strings.HasSuffix(decl, "*"):
		return tracectl.FieldTypeOther
	case f.size == 1 || f.size == 2 || f.size == 4 || f.size == 8:
		return tracectl.FieldTypeInteger
	default:
		return tracectl.FieldTypeOther
	}
}

// writable reports whether the tracer records the field in the event
// payload. The common_ header fields are shared by every event.
func (f formatField) writable() bool {
	return !strings.HasPrefix(f.name, "common_")
}
