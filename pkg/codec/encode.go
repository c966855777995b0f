package codec

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/flatrec/pkg/schema"
)

// Encode formats record, a value or pointer of root.Type, as a line of
// exactly root.Width() characters.
func Encode(root *schema.RecordNode, record any) (string, error) {
	src := reflect.ValueOf(record)
	for src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return "", schema.Errorf(schema.KindInvalidValue, "%s: nil record", root.Type)
		}
		src = src.Elem()
	}
	if !src.IsValid() || src.Type() != root.Type {
		return "", schema.Errorf(schema.KindInvalidValue, "%s: can't encode %T", root.Type, record)
	}
	return encodeFrom(root, src)
}

func encodeFrom(root *schema.RecordNode, src reflect.Value) (string, error) {
	e := &encoder{}
	e.out.Grow(root.Width())
	if err := e.record(root, src, ""); err != nil {
		return "", err
	}

	line := e.out.String()
	if n := utf8.RuneCountInString(line); n != root.Width() {
		return "", schema.Errorf(schema.KindInvalidValue,
			"%s: produced %d characters, %d expected", root.Type, n, root.Width())
	}
	return line, nil
}

type encoder struct {
	out strings.Builder
}

// node writes n from src. An invalid src stands for an absent value: its
// fragments are written empty and fully padded.
func (e *encoder) node(n schema.Node, src reflect.Value, path string) error {
	switch n := n.(type) {
	case *schema.FillerNode:
		e.pad(n.Padder, n.Length)
		return nil
	case *schema.FragmentNode:
		return e.fragment(n, src, path)
	case *schema.RecordNode:
		return e.record(n, resolve(src), path)
	case *schema.OccurrenceNode:
		return e.occurrence(n, src, path)
	default:
		return schema.Errorf(schema.KindInvalidValue, "unknown node %T", n)
	}
}

func (e *encoder) record(n *schema.RecordNode, src reflect.Value, path string) error {
	for _, c := range n.Children() {
		if f, ok := c.(*schema.FillerNode); ok {
			e.pad(f.Padder, f.Length)
			continue
		}
		index, name := locate(c)
		field := reflect.Value{}
		if src.IsValid() {
			field = src.FieldByIndex(index)
		}
		if err := e.node(c, field, join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) occurrence(n *schema.OccurrenceNode, src reflect.Value, path string) error {
	size := 0
	if src.IsValid() {
		size = src.Len()
	}
	if size > n.Count {
		return schema.Errorf(schema.KindDataOverflow,
			"%s holds %d items, %d occurrences declared", path, size, n.Count).WithField(path)
	}
	for i := 0; i < n.Count; i++ {
		item := reflect.Value{}
		if i < size {
			item = src.Index(i)
		}
		if err := e.node(n.Item, item, indexed(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) fragment(n *schema.FragmentNode, src reflect.Value, path string) error {
	var v any
	if src = resolve(src); src.IsValid() {
		v = src.Interface()
	}

	text, err := n.Handler.Write(v, n.Format)
	if err != nil {
		return schema.Wrap(schema.KindInvalidValue, err, "%s: can't write value", n.Identity()).WithField(path)
	}

	size := utf8.RuneCountInString(text)
	if size > n.Length {
		return schema.Errorf(schema.KindDataOverflow,
			"%s length (%d) greater than fragment length definition (%d)", n.Identity(), size, n.Length).WithField(path)
	}

	switch n.Alignment {
	case schema.AlignRight:
		e.out.WriteString(text)
		e.pad(n.Padder, n.Length-size)
	default:
		e.pad(n.Padder, n.Length-size)
		e.out.WriteString(text)
	}
	return nil
}

func (e *encoder) pad(padder rune, count int) {
	for i := 0; i < count; i++ {
		e.out.WriteRune(padder)
	}
}

// resolve dereferences src. Nil pointers resolve to the invalid value.
func resolve(src reflect.Value) reflect.Value {
	for src.IsValid() && src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return reflect.Value{}
		}
		src = src.Elem()
	}
	return src
}
