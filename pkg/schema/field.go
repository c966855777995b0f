package schema

import (
	"fmt"
	"strings"

	"github.com/ssargent/flatrec/pkg/types"
)

// Alignment is the side of a slot that receives padding.
type Alignment int

const (
	// AlignNone pads nothing. It is rejected when a schema is built.
	AlignNone Alignment = iota
	// AlignLeft puts padding before the value: the value is right-justified.
	AlignLeft
	// AlignRight puts padding after the value: the value is left-justified.
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignNone:
		return "none"
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	default:
		return fmt.Sprintf("alignment(%d)", int(a))
	}
}

// ParseAlignment parses "left", "right" or "none" (case insensitive).
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return AlignLeft, nil
	case "right":
		return AlignRight, nil
	case "none":
		return AlignNone, nil
	default:
		return AlignNone, fmt.Errorf("unknown alignment %q", s)
	}
}

// DefaultPadder fills slots and fillers that declare no padder.
const DefaultPadder = ' '

// FieldKind says what a declared field contributes to the layout.
type FieldKind int

const (
	// FieldFillers contributes only its leading fillers.
	FieldFillers FieldKind = iota
	// FieldFragment is a scalar slot, or a repeated scalar slot.
	FieldFragment
	// FieldRecord is a nested record, or a repeated nested record.
	FieldRecord
)

// Filler is a literal zone of Length copies of Padder.
type Filler struct {
	Length int
	Padder rune
}

// Fill declares a filler.
func Fill(length int, padder rune) Filler {
	return Filler{Length: length, Padder: padder}
}

// Field describes one declared field of a record type. Name is the Go struct
// field name the field binds to; fields of kind FieldFillers need no name.
type Field struct {
	Name      string
	Kind      FieldKind
	Length    int
	Padder    rune
	Alignment Alignment
	Format    string
	Optional  bool

	// Occurrences is the repetition count of a slice or array field.
	Occurrences int

	// Converter builds a field specific handler; ConverterName looks one up
	// in the registry. Converter wins when both are set.
	Converter     types.Factory
	ConverterName string

	// Fillers are emitted before the field's own content.
	Fillers []Filler
}

// Fragment declares a scalar slot of the given length, left aligned and
// space padded.
func Fragment(name string, length int) Field {
	return Field{
		Name:      name,
		Kind:      FieldFragment,
		Length:    length,
		Padder:    DefaultPadder,
		Alignment: AlignLeft,
	}
}

// Record declares a nested record field.
func Record(name string) Field {
	return Field{Name: name, Kind: FieldRecord}
}

// Fillers declares a field that only contributes literal zones.
func Fillers(fillers ...Filler) Field {
	return Field{Kind: FieldFillers, Fillers: fillers}
}

// Pad sets the padder.
func (f Field) Pad(padder rune) Field {
	f.Padder = padder
	return f
}

// Align sets the alignment.
func (f Field) Align(a Alignment) Field {
	f.Alignment = a
	return f
}

// WithFormat sets the handler format string.
func (f Field) WithFormat(format string) Field {
	f.Format = format
	return f
}

// Opt marks the field optional.
func (f Field) Opt() Field {
	f.Optional = true
	return f
}

// Occurs sets the repetition count.
func (f Field) Occurs(n int) Field {
	f.Occurrences = n
	return f
}

// Convert attaches a converter factory.
func (f Field) Convert(factory types.Factory) Field {
	f.Converter = factory
	return f
}

// ConvertNamed attaches a converter by registry name.
func (f Field) ConvertNamed(name string) Field {
	f.ConverterName = name
	return f
}

// Leading adds fillers emitted before the field.
func (f Field) Leading(fillers ...Filler) Field {
	f.Fillers = append(append([]Filler(nil), f.Fillers...), fillers...)
	return f
}

// Layout is the ordered description of a record type.
type Layout struct {
	Fields []Field
	// Trailing fillers are appended after every field.
	Trailing []Filler
}
