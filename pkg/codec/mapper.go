package codec

import (
	"github.com/ssargent/flatrec/pkg/schema"
)

// Mapper is the untyped counterpart of Codec, for record types only known at
// run time. Records are pointers to values of the schema's type.
type Mapper struct {
	root *schema.RecordNode
}

// NewMapper returns a mapper over an already built schema tree.
func NewMapper(root *schema.RecordNode) *Mapper {
	return &Mapper{root: root}
}

// Schema returns the schema tree.
func (m *Mapper) Schema() *schema.RecordNode {
	return m.root
}

// Width returns the length of every line.
func (m *Mapper) Width() int {
	return m.root.Width()
}

// MapLine decodes one line. lineNumber is only used in errors.
func (m *Mapper) MapLine(line string, lineNumber int) (any, error) {
	record, err := Decode(m.root, line)
	if err != nil {
		return nil, atLine(err, lineNumber)
	}
	return record, nil
}

// Aggregate encodes one record.
func (m *Mapper) Aggregate(record any) (string, error) {
	return Encode(m.root, record)
}
