package layout

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/ssargent/flatrec/pkg/schema"
	"github.com/ssargent/flatrec/pkg/types"
)

// TagLayout is the struct tag holding the layout path of a compiled field.
// It keeps compiled types of different layouts distinct even when their
// columns are the same.
const TagLayout = "flatlayout"

// DefaultType is the type of a fragment declaring none.
const DefaultType = "string"

var scalarTypes = map[string]reflect.Type{
	"string":   reflect.TypeOf(""),
	"char":     reflect.TypeOf(types.Char(0)),
	"tiny":     reflect.TypeOf(int8(0)),
	"short":    reflect.TypeOf(int16(0)),
	"integer":  reflect.TypeOf(int32(0)),
	"long":     reflect.TypeOf(int64(0)),
	"byte":     reflect.TypeOf(uint8(0)),
	"unsigned": reflect.TypeOf(uint64(0)),
	"bigint":   reflect.TypeOf((*big.Int)(nil)),
	"date":     reflect.TypeOf(time.Time{}),
	"decimal":  reflect.TypeOf((*apd.Decimal)(nil)),
	"bool":     reflect.TypeOf(false),
}

// Types lists the type names a fragment may declare.
func Types() []string {
	out := make([]string, 0, len(scalarTypes))
	for name := range scalarTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// compiler turns one layout definition into struct types, registering the
// layout of each in catalog.
type compiler struct {
	catalog *schema.Catalog
}

func (c *compiler) record(path string, defs []FieldDef, trailing []FillDef) (reflect.Type, error) {
	var (
		fields  []schema.Field
		structs []reflect.StructField
		names   = make(map[string]string)
	)

	for i, def := range defs {
		fillers, err := compileFillers(def.Fillers)
		if err != nil {
			return nil, fmt.Errorf("%s: field %d: %w", path, i+1, err)
		}

		if def.Name == "" {
			if def.Type != "" || len(def.Fields) > 0 || def.Length != 0 {
				return nil, fmt.Errorf("%s: field %d has no name", path, i+1)
			}
			if len(fillers) == 0 {
				return nil, fmt.Errorf("%s: field %d declares nothing", path, i+1)
			}
			fields = append(fields, schema.Fillers(fillers...))
			continue
		}

		goName := exportedName(def.Name)
		if other, ok := names[goName]; ok {
			return nil, fmt.Errorf("%s: fields %q and %q collide", path, other, def.Name)
		}
		names[goName] = def.Name

		field, ft, err := c.field(path+"."+def.Name, goName, def)
		if err != nil {
			return nil, err
		}
		field.Fillers = fillers
		fields = append(fields, field)
		structs = append(structs, reflect.StructField{
			Name: goName,
			Type: ft,
			Tag:  reflect.StructTag(fmt.Sprintf(`json:%q %s:%q`, def.Name, TagLayout, path)),
		})
	}
	if len(structs) == 0 {
		return nil, fmt.Errorf("%s: no named fields", path)
	}

	tail, err := compileFillers(trailing)
	if err != nil {
		return nil, fmt.Errorf("%s: trailing: %w", path, err)
	}

	t := reflect.StructOf(structs)
	c.catalog.Register(t, schema.Layout{Fields: fields, Trailing: tail})
	return t, nil
}

func (c *compiler) field(path, goName string, def FieldDef) (schema.Field, reflect.Type, error) {
	var (
		field schema.Field
		ft    reflect.Type
	)

	if len(def.Fields) > 0 {
		if def.Type != "" || def.Length != 0 {
			return field, nil, fmt.Errorf("%s: a record cannot declare a type or a length", path)
		}
		nested, err := c.record(path, def.Fields, nil)
		if err != nil {
			return field, nil, err
		}
		field, ft = schema.Record(goName), nested
		if def.Optional {
			ft = reflect.PointerTo(ft)
		}
	} else {
		typeName := def.Type
		if typeName == "" {
			typeName = DefaultType
		}
		base, ok := scalarTypes[typeName]
		if !ok {
			return field, nil, fmt.Errorf("%s: unknown type %q", path, def.Type)
		}
		if def.Optional && base.Kind() != reflect.Pointer {
			base = reflect.PointerTo(base)
		}

		field, ft = schema.Fragment(goName, def.Length).WithFormat(def.Format), base
		if def.Optional {
			field = field.Opt()
		}
		if def.Padder != "" {
			r, err := singleRune(def.Padder)
			if err != nil {
				return field, nil, fmt.Errorf("%s: padder: %w", path, err)
			}
			field = field.Pad(r)
		}
		if def.Align != "" {
			a, err := schema.ParseAlignment(def.Align)
			if err != nil {
				return field, nil, fmt.Errorf("%s: %w", path, err)
			}
			field = field.Align(a)
		}
		if def.Converter != "" {
			field = field.ConvertNamed(def.Converter)
		}
	}

	if def.Occurs != 0 {
		field = field.Occurs(def.Occurs)
		ft = reflect.SliceOf(ft)
	}
	return field, ft, nil
}

// compileFillers expands filler definitions. A padder of several characters
// is literal text, written one filler per character.
func compileFillers(defs []FillDef) ([]schema.Filler, error) {
	var out []schema.Filler
	for _, def := range defs {
		n := utf8.RuneCountInString(def.Padder)
		if n <= 1 {
			padder := schema.DefaultPadder
			if n == 1 {
				padder, _ = utf8.DecodeRuneInString(def.Padder)
			}
			out = append(out, schema.Fill(def.Length, padder))
			continue
		}
		if def.Length != 0 && def.Length != n {
			return nil, fmt.Errorf("literal %q holds %d characters, length says %d", def.Padder, n, def.Length)
		}
		for _, r := range def.Padder {
			out = append(out, schema.Fill(1, r))
		}
	}
	return out, nil
}

func singleRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("want a single character, got %q", s)
	}
	return r, nil
}

// exportedName turns a layout field name such as "payer_id" into an exported
// Go identifier such as "PayerId".
func exportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		default:
			upper = true
		}
	}
	out := b.String()
	if out == "" {
		return "F"
	}
	if first, _ := utf8.DecodeRuneInString(out); !unicode.IsUpper(first) {
		out = "F" + out
	}
	return out
}
