// Package types converts between the text of a fixed-width slot and typed Go values.
//
// A Handler is stateless: it reports whether it can serve a Go type and
// converts text to a value and back, optionally guided by a format string
// whose meaning is handler specific (a time layout for dates, implied
// decimal places for decimals, and so on).
//
// A Registry holds the built-in handlers plus any caller supplied ones and
// resolves the handler for a field type. The handler list is fixed once a
// Registry is constructed; named converters may still be registered later.
// Registries are safe for concurrent use.
package types

import (
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"
)

// Handler converts between slot text and a typed value.
type Handler interface {
	// Accept reports whether the handler can read and write values of t.
	// The registry dereferences pointers and strips one level of slice or
	// array before asking.
	Accept(t reflect.Type) bool

	// Read parses non-empty text into a value. The returned value must be
	// assignable or convertible to the accepted type, or a pointer to it.
	Read(text, format string) (any, error)

	// Write formats v. A nil v yields the empty string.
	Write(v any, format string) (string, error)
}

// Factory builds a Handler for a single field. It is called once per field
// when the schema is built.
type Factory func() (Handler, error)

// Char is a single character slot. It exists so that character fields can be
// told apart from int32 fields, which rune aliases.
type Char rune

// MarshalText renders c as a one character string.
func (c Char) MarshalText() ([]byte, error) {
	return []byte(string(rune(c))), nil
}

// UnmarshalText reads a one character string.
func (c *Char) UnmarshalText(text []byte) error {
	r, size := utf8.DecodeRune(text)
	if size == 0 || size != len(text) || r == utf8.RuneError {
		return fmt.Errorf("character: want a single character, got %q", text)
	}
	*c = Char(r)
	return nil
}

var (
	// ErrUnsupportedType is returned when no handler accepts a type.
	ErrUnsupportedType = errors.New("no type handler accepts type")
	// ErrUnknownConverter is returned when a named converter is not registered.
	ErrUnknownConverter = errors.New("unknown converter")
)

// elem unwraps a field type to the type a handler converts: pointers are
// dereferenced and one level of slice or array is stripped, since repetition
// is expressed by an occurrence node and never by a handler.
func elem(t reflect.Type) reflect.Type {
	t = deref(t)
	if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = deref(t.Elem())
	}
	return t
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

