// Package catalog serves user-space and java.util.logging
// instrumentation points described in a TOML file.
//
// A catalog looks like:
//
//	[[ust]]
//	name = "myapp:request_start"
//	loglevel = "INFO"
//	fields = [
//	  { name = "id", type = "integer" },
//	  { name = "path", type = "string" },
//	]
//
//	[[jul]]
//	name = "org.example.Server"
//	loglevel = "WARNING"
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/frobware/go-tracectl"
)

// Catalog is a parsed catalog file.
type Catalog struct {
	UST []Entry `toml:"ust"`
	JUL []Entry `toml:"jul"`
}

// Entry is one instrumentation point.
type Entry struct {
	Name string `toml:"name"`
	// Loglevel is a level name or number on the domain's scale. Empty
	// means the point carries no loglevel.
	Loglevel string       `toml:"loglevel"`
	Fields   []FieldEntry `toml:"fields"`
}

// FieldEntry is one field of an instrumentation point.
type FieldEntry struct {
	Name    string             `toml:"name"`
	Type    tracectl.FieldType `toml:"type"`
	NoWrite bool               `toml:"nowrite"`
}

// Parse decodes a catalog and checks its names and loglevels.
func Parse(data string) (*Catalog, error) {
	var c Catalog
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog: unknown keys %v", undecoded)
	}
	for _, d := range []tracectl.Domain{tracectl.DomainUST, tracectl.DomainJUL} {
		for _, e := range c.entries(d) {
			if e.Name == "" {
				return nil, fmt.Errorf("catalog: %s entry without a name", d)
			}
			if _, err := e.event(d.Scale()); err != nil {
				return nil, fmt.Errorf("catalog: %s entry %q: %w", d, e.Name, err)
			}
		}
	}
	return &c, nil
}

// Load reads the catalog at path. A missing file yields an empty
// catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(string(data))
}

func (c *Catalog) entries(d tracectl.Domain) []Entry {
	switch d {
	case tracectl.DomainUST:
		return c.UST
	case tracectl.DomainJUL:
		return c.JUL
	}
	return nil
}

// event returns the descriptor an entry lists as. A named loglevel is
// reported as a SINGLE level.
func (e Entry) event(scale tracectl.Scale) (tracectl.Event, error) {
	ev := tracectl.Event{
		Type:    tracectl.EventTypeTracepoint,
		Name:    e.Name,
		Enabled: tracectl.NotApplicable,
	}
	if e.Loglevel != "" {
		lv, err := scale.ParseLevel(e.Loglevel)
		if err != nil {
			return tracectl.Event{}, err
		}
		ev.LoglevelType = tracectl.LoglevelSingle
		ev.Loglevel = lv
	}
	return ev, ev.Validate()
}
