package layout

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/ssargent/flatrec/pkg/codec"
	"github.com/ssargent/flatrec/pkg/schema"
)

// Entry is a compiled layout.
type Entry struct {
	*codec.Mapper

	Name        string
	Description string
	Match       codec.Pattern
	Type        reflect.Type
}

// New returns a pointer to a new zero record of the entry's type.
func (e *Entry) New() any {
	return reflect.New(e.Type).Interface()
}

// FromJSON reads a record from its JSON form.
func (e *Entry) FromJSON(data []byte) (any, error) {
	record := e.New()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("layout %s: invalid record: %w", e.Name, err)
	}
	return record, nil
}

// EncodeJSON encodes the JSON form of a record as a line.
func (e *Entry) EncodeJSON(data []byte) (string, error) {
	record, err := e.FromJSON(data)
	if err != nil {
		return "", err
	}
	return e.Aggregate(record)
}

// Set holds the compiled layouts of a document in document order.
type Set struct {
	builder *schema.Builder
	entries []*Entry
	byName  map[string]*Entry
}

// Compile turns every layout of doc into a record type, registers its
// layout in catalog and builds its schema with b. The source of b must
// consult catalog.
func Compile(doc *Document, catalog *schema.Catalog, b *schema.Builder) (*Set, error) {
	s := &Set{builder: b, byName: make(map[string]*Entry, len(doc.Layouts))}
	c := &compiler{catalog: catalog}

	for _, def := range doc.Layouts {
		if def.Name == "" {
			return nil, fmt.Errorf("layout %d has no name", len(s.entries)+1)
		}
		if _, ok := s.byName[def.Name]; ok {
			return nil, fmt.Errorf("layout %s is declared twice", def.Name)
		}

		t, err := c.record(def.Name, def.Fields, def.Trailing)
		if err != nil {
			return nil, fmt.Errorf("layout %w", err)
		}
		root, err := b.Build(t)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", def.Name, err)
		}

		e := &Entry{
			Mapper:      codec.NewMapper(root),
			Name:        def.Name,
			Description: def.Description,
			Match:       codec.Pattern(def.Match),
			Type:        t,
		}
		s.entries = append(s.entries, e)
		s.byName[def.Name] = e
	}
	return s, nil
}

// Get returns the layout called name.
func (s *Set) Get(name string) (*Entry, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Entries returns the layouts in document order.
func (s *Set) Entries() []*Entry {
	return s.entries
}

// Names returns the layout names in document order.
func (s *Set) Names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Name
	}
	return out
}

// Poly returns a dispatcher over every layout declaring a match pattern,
// tried in document order.
func (s *Set) Poly() (*codec.Poly, error) {
	var routes []codec.Route
	for _, e := range s.entries {
		if e.Match != "" {
			routes = append(routes, codec.Route{Pattern: e.Match, Type: e.Type})
		}
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no layout declares a match pattern")
	}
	return codec.NewPoly(s.builder, routes...)
}

// Column is the slot of one fragment on a line, named by its JSON path.
type Column struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Columns returns the fragment slots of the layout in column order.
// Fillers are not listed.
func (e *Entry) Columns() []Column {
	var out []Column
	columns(e.Schema(), "", 0, &out)
	return out
}

func columns(n schema.Node, path string, offset int, out *[]Column) {
	switch n := n.(type) {
	case *schema.RecordNode:
		for _, c := range n.Children() {
			if name := accessor(c); name != "" {
				columns(c, dotted(path, jsonName(n.Type, name)), offset, out)
			}
			offset += c.Width()
		}
	case *schema.OccurrenceNode:
		w := n.Item.Width()
		for i := 0; i < n.Count; i++ {
			columns(n.Item, fmt.Sprintf("%s[%d]", path, i), offset+i*w, out)
		}
	case *schema.FragmentNode:
		*out = append(*out, Column{Path: path, Offset: offset, Length: n.Length})
	}
}

func accessor(n schema.Node) string {
	switch n := n.(type) {
	case *schema.RecordNode:
		return n.Accessor
	case *schema.FragmentNode:
		return n.Accessor
	case *schema.OccurrenceNode:
		return n.Accessor
	}
	return ""
}

func jsonName(owner reflect.Type, field string) string {
	if sf, ok := owner.FieldByName(field); ok {
		if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
	}
	return field
}

func dotted(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
