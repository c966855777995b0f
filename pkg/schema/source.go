package schema

import (
	"errors"
	"reflect"
	"sync"
)

// Source supplies the layout of a record type. Implementations return an
// error matching ErrNotARecord when t is not a record they know about.
type Source interface {
	Layout(t reflect.Type) (*Layout, error)
}

// Catalog is a Source fed by explicit registration.
type Catalog struct {
	mu      sync.RWMutex
	layouts map[reflect.Type]*Layout
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{layouts: make(map[reflect.Type]*Layout)}
}

// Register records the layout of t, replacing any previous one. Pointer
// types are registered under their element type.
func (c *Catalog) Register(t reflect.Type, layout Layout) {
	t = derefType(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	l := layout
	c.layouts[t] = &l
}

// Layout implements Source.
func (c *Catalog) Layout(t reflect.Type) (*Layout, error) {
	t = derefType(t)
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.layouts[t]
	if !ok {
		return nil, Errorf(KindNotARecord, "%s is not a registered record", typeName(t))
	}
	return l, nil
}

// Types lists every registered type.
func (c *Catalog) Types() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]reflect.Type, 0, len(c.layouts))
	for t := range c.layouts {
		out = append(out, t)
	}
	return out
}

// Register records the layout of T in c.
func Register[T any](c *Catalog, fields ...Field) {
	c.Register(reflect.TypeOf((*T)(nil)).Elem(), Layout{Fields: fields})
}

// RegisterLayout records a full layout, trailing fillers included, for T.
func RegisterLayout[T any](c *Catalog, layout Layout) {
	c.Register(reflect.TypeOf((*T)(nil)).Elem(), layout)
}

// Chain asks each source in turn; the first one that knows the type wins.
type Chain []Source

// Layout implements Source.
func (c Chain) Layout(t reflect.Type) (*Layout, error) {
	var last error = Errorf(KindNotARecord, "%s is not a record", typeName(t))
	for _, s := range c {
		l, err := s.Layout(t)
		if err == nil {
			return l, nil
		}
		if !isKind(err, KindNotARecord) {
			return nil, err
		}
		last = err
	}
	return nil, last
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func derefType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
