package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/flatrec/pkg/schema"
)

// Decode parses line against root and returns a pointer to a new value of
// root.Type. The line must hold exactly root.Width() characters. Nothing is
// returned unless every field decodes.
func Decode(root *schema.RecordNode, line string) (any, error) {
	dst := reflect.New(root.Type)
	if err := decodeInto(root, line, dst.Elem()); err != nil {
		return nil, err
	}
	return dst.Interface(), nil
}

func decodeInto(root *schema.RecordNode, line string, dst reflect.Value) error {
	n := utf8.RuneCountInString(line)
	switch {
	case n < root.Width():
		return schema.Errorf(schema.KindTruncatedLine,
			"%s: line holds %d characters, %d expected", root.Type, n, root.Width())
	case n > root.Width():
		return schema.Errorf(schema.KindLineOverflow,
			"%s: line holds %d characters, %d expected", root.Type, n, root.Width())
	}

	d := &decoder{line: []rune(line)}
	return d.record(root, dst, "")
}

// decoder holds the read cursor. It is advanced, never recomputed.
type decoder struct {
	line []rune
	pos  int
}

func (d *decoder) node(n schema.Node, dst reflect.Value, path string) error {
	switch n := n.(type) {
	case *schema.FillerNode:
		d.pos += n.Length
		return nil
	case *schema.FragmentNode:
		return d.fragment(n, dst, path)
	case *schema.RecordNode:
		return d.record(n, settle(dst), path)
	case *schema.OccurrenceNode:
		return d.occurrence(n, dst, path)
	default:
		return schema.Errorf(schema.KindInvalidValue, "unknown node %T", n)
	}
}

func (d *decoder) record(n *schema.RecordNode, dst reflect.Value, path string) error {
	for _, c := range n.Children() {
		if f, ok := c.(*schema.FillerNode); ok {
			d.pos += f.Length
			continue
		}
		index, name := locate(c)
		if err := d.node(c, dst.FieldByIndex(index), join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) occurrence(n *schema.OccurrenceNode, dst reflect.Value, path string) error {
	if dst.Kind() == reflect.Slice {
		dst.Set(reflect.MakeSlice(dst.Type(), n.Count, n.Count))
	}
	for i := 0; i < n.Count; i++ {
		if err := d.node(n.Item, dst.Index(i), indexed(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) fragment(n *schema.FragmentNode, dst reflect.Value, path string) error {
	slot := string(d.line[d.pos : d.pos+n.Length])
	d.pos += n.Length

	text := trim(slot, n.Padder, n.Alignment)
	if text == "" && !n.Optional && isDigit(n.Padder) {
		text = string(n.Padder)
	}
	if text == "" {
		if n.Optional {
			return nil
		}
		return schema.Errorf(schema.KindEmptyFragment, "%s: empty fragment", n.Identity()).WithField(path)
	}

	v, err := n.Handler.Read(text, n.Format)
	if err != nil {
		if n.Optional {
			return nil
		}
		return schema.Wrap(schema.KindParse, err, "%s: can't read %q", n.Identity(), text).WithField(path)
	}
	if err := assign(dst, v); err != nil {
		return schema.Wrap(schema.KindInvalidValue, err, "%s: can't set value", n.Identity()).WithField(path)
	}
	return nil
}

// trim removes the padding the encoder adds: padding precedes the value for
// left alignment and follows it for right alignment.
func trim(slot string, padder rune, align schema.Alignment) string {
	cut := string(padder)
	switch align {
	case schema.AlignLeft:
		return strings.TrimLeft(slot, cut)
	case schema.AlignRight:
		return strings.TrimRight(slot, cut)
	default:
		return slot
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// assign stores a handler result in dst, allocating pointers on the way and
// converting between compatible kinds.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	src := reflect.ValueOf(v)

	for dst.Kind() == reflect.Pointer {
		if src.Type().AssignableTo(dst.Type()) {
			dst.Set(src)
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	for src.Kind() == reflect.Pointer && !src.Type().AssignableTo(dst.Type()) {
		if src.IsNil() {
			return nil
		}
		src = src.Elem()
	}

	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.String && src.Kind() != reflect.String:
		return fmt.Errorf("%s is not assignable to %s", src.Type(), dst.Type())
	case src.Type().ConvertibleTo(dst.Type()):
		if overflows(src, dst) {
			return fmt.Errorf("%v overflows %s", src.Interface(), dst.Type())
		}
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("%s is not assignable to %s", src.Type(), dst.Type())
	}
	return nil
}

func overflows(src, dst reflect.Value) bool {
	switch {
	case src.CanInt() && dst.CanInt():
		return dst.OverflowInt(src.Int())
	case src.CanUint() && dst.CanUint():
		return dst.OverflowUint(src.Uint())
	case src.CanInt() && dst.CanUint():
		return src.Int() < 0 || dst.OverflowUint(uint64(src.Int()))
	case src.CanUint() && dst.CanInt():
		return src.Uint() > uint64(1<<63-1) || dst.OverflowInt(int64(src.Uint()))
	}
	return false
}

// settle dereferences dst, allocating nil pointers.
func settle(dst reflect.Value) reflect.Value {
	for dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	return dst
}

// locate returns the field index and accessor of a bound child.
func locate(n schema.Node) ([]int, string) {
	switch n := n.(type) {
	case *schema.FragmentNode:
		return n.Binding.Index, n.Accessor
	case *schema.RecordNode:
		return n.Binding.Index, n.Accessor
	case *schema.OccurrenceNode:
		return n.Binding.Index, n.Accessor
	}
	return nil, ""
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func indexed(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
