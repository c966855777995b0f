package types

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry resolves the handler for a field type. Extra handlers given to
// NewRegistry are consulted before the built-ins, in the order given.
type Registry struct {
	handlers []Handler

	mu         sync.RWMutex
	converters map[string]Factory
}

// NewRegistry creates a registry holding the built-in handlers and extra.
func NewRegistry(extra ...Handler) *Registry {
	handlers := make([]Handler, 0, len(extra)+12)
	handlers = append(handlers, extra...)
	handlers = append(handlers, builtins()...)
	return &Registry{
		handlers:   handlers,
		converters: make(map[string]Factory),
	}
}

// Resolve returns the first handler accepting the element type of t.
func (r *Registry) Resolve(t reflect.Type) (Handler, error) {
	target := elem(t)
	if target == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrUnsupportedType)
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	for _, h := range r.handlers {
		if h.Accept(target) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// Accepts reports whether h accepts the element type of t, applying the same
// unwrapping as Resolve.
func Accepts(h Handler, t reflect.Type) bool {
	target := elem(t)
	if target == nil {
		return false
	}
	return h.Accept(target)
}

// RegisterConverter makes a converter factory available by name, so layouts
// declared as data (struct tags, YAML) can reference it.
func (r *Registry) RegisterConverter(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = factory
}

// Converter returns the factory registered under name.
func (r *Registry) Converter(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.converters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, name)
	}
	return f, nil
}

// Converters lists the registered converter names in sorted order.
func (r *Registry) Converters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
