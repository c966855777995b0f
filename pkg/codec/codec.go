package codec

import (
	"errors"
	"reflect"

	"github.com/ssargent/flatrec/pkg/schema"
)

// Codec maps lines to values of T and back using one schema tree.
type Codec[T any] struct {
	root *schema.RecordNode
}

// New builds the schema of T with b and returns a codec for it.
func New[T any](b *schema.Builder) (*Codec[T], error) {
	root, err := schema.BuildFor[T](b)
	if err != nil {
		return nil, err
	}
	return &Codec[T]{root: root}, nil
}

// Schema returns the schema tree of T.
func (c *Codec[T]) Schema() *schema.RecordNode {
	return c.root
}

// Width returns the length of every line of T.
func (c *Codec[T]) Width() int {
	return c.root.Width()
}

// MapLine decodes one line. lineNumber is only used in errors.
func (c *Codec[T]) MapLine(line string, lineNumber int) (*T, error) {
	record := new(T)
	if err := decodeInto(c.root, line, reflect.ValueOf(record).Elem()); err != nil {
		return nil, atLine(err, lineNumber)
	}
	return record, nil
}

// Aggregate encodes one record.
func (c *Codec[T]) Aggregate(record *T) (string, error) {
	if record == nil {
		return "", schema.Errorf(schema.KindInvalidValue, "%s: nil record", c.root.Type)
	}
	return encodeFrom(c.root, reflect.ValueOf(record).Elem())
}

// atLine tags schema errors with the line they were raised for.
func atLine(err error, lineNumber int) error {
	var se *schema.Error
	if lineNumber > 0 && errors.As(err, &se) {
		return se.WithLine(lineNumber)
	}
	return err
}
