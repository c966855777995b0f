package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/ssargent/flatrec/pkg/types"
)

// Builder turns record layouts into schema trees. Completed trees are cached
// per record type for the life of the builder, so building a type twice
// returns the same tree. A Builder is safe for concurrent use.
type Builder struct {
	source   Source
	registry *types.Registry

	mu    sync.RWMutex
	cache map[reflect.Type]*RecordNode
}

// NewBuilder creates a builder reading layouts from source and resolving
// handlers from registry.
func NewBuilder(source Source, registry *types.Registry) *Builder {
	return &Builder{
		source:   source,
		registry: registry,
		cache:    make(map[reflect.Type]*RecordNode),
	}
}

// Registry returns the handler registry the builder resolves from.
func (b *Builder) Registry() *types.Registry {
	return b.registry
}

// Build returns the schema tree of record type t. Pointer types are built
// as their element type.
func (b *Builder) Build(t reflect.Type) (*RecordNode, error) {
	t = derefType(t)

	b.mu.RLock()
	root, ok := b.cache[t]
	b.mu.RUnlock()
	if ok {
		return root, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.build(t, make(map[reflect.Type]bool))
}

// BuildFor returns the schema tree of T.
func BuildFor[T any](b *Builder) (*RecordNode, error) {
	return b.Build(reflect.TypeOf((*T)(nil)).Elem())
}

// build must be called with mu held.
func (b *Builder) build(t reflect.Type, building map[reflect.Type]bool) (*RecordNode, error) {
	if root, ok := b.cache[t]; ok {
		return root, nil
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, Errorf(KindNotARecord, "%s is not a record", typeName(t))
	}
	if building[t] {
		return nil, Errorf(KindRecursiveRecord, "%s contains itself", typeName(t))
	}
	building[t] = true
	defer delete(building, t)

	layout, err := b.source.Layout(t)
	if err != nil {
		return nil, err
	}

	root := &RecordNode{Type: t, Binding: Binding{Type: t}}
	for _, f := range layout.Fields {
		for _, fl := range f.Fillers {
			n, err := fillerNode(fl)
			if err != nil {
				return nil, err.WithField(qualified(t, f.Name))
			}
			root.children = append(root.children, n)
		}
		if f.Kind == FieldFillers {
			continue
		}
		n, err := b.field(t, f, building)
		if err != nil {
			return nil, err
		}
		root.children = append(root.children, n)
	}
	for _, fl := range layout.Trailing {
		n, err := fillerNode(fl)
		if err != nil {
			return nil, err.WithField(typeName(t))
		}
		root.children = append(root.children, n)
	}

	for _, c := range root.children {
		root.width += c.Width()
	}
	if root.width < 1 {
		return nil, Errorf(KindInvalidLength, "%s has no columns", typeName(t))
	}

	b.cache[t] = root
	return root, nil
}

// viaPointer reports whether the path to a promoted field passes through an
// embedded pointer.
func viaPointer(owner reflect.Type, index []int) bool {
	t := owner
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() == reflect.Pointer {
			return true
		}
	}
	return false
}

func (b *Builder) field(owner reflect.Type, f Field, building map[reflect.Type]bool) (Node, error) {
	id := qualified(owner, f.Name)
	sf, ok := owner.FieldByName(f.Name)
	if !ok || f.Name == "" {
		return nil, Errorf(KindUnknownField, "%s: no such field", id)
	}
	if !sf.IsExported() {
		return nil, Errorf(KindUnknownField, "%s: field is not exported", id)
	}
	if viaPointer(owner, sf.Index) {
		return nil, Errorf(KindUnknownField, "%s: field is promoted through an embedded pointer", id)
	}

	repeated := sf.Type.Kind() == reflect.Slice || sf.Type.Kind() == reflect.Array
	itemType := sf.Type
	if repeated {
		itemType = sf.Type.Elem()
	}

	var item Node
	switch f.Kind {
	case FieldRecord:
		rt := derefType(itemType)
		if rt.Kind() != reflect.Struct {
			return nil, Errorf(KindNotARecord, "%s: %s is not a record", id, itemType)
		}
		nested, err := b.build(rt, building)
		if err != nil {
			return nil, err
		}
		item = &RecordNode{
			Accessor: f.Name,
			Type:     rt,
			Binding:  Binding{Type: itemType},
			children: nested.children,
			width:    nested.width,
		}
	case FieldFragment:
		n, err := b.fragment(owner, sf, f, itemType)
		if err != nil {
			return nil, err
		}
		item = n
	default:
		return nil, Errorf(KindInvalidValue, "%s: unknown field kind %d", id, f.Kind)
	}

	if !repeated {
		if f.Occurrences != 0 {
			return nil, Errorf(KindInvalidOccurrence, "%s: occurrences declared on a field that is not a slice or array", id)
		}
		bind(item, sf.Index)
		return item, nil
	}

	switch {
	case f.Occurrences == 0:
		return nil, Errorf(KindMissingOccurrence, "%s: repeated field requires a number of occurrences", id)
	case f.Occurrences < 1:
		return nil, Errorf(KindInvalidOccurrence, "%s: natural number of occurrences expected, got %d", id, f.Occurrences)
	case sf.Type.Kind() == reflect.Array && sf.Type.Len() != f.Occurrences:
		return nil, Errorf(KindInvalidOccurrence, "%s: %d occurrences declared on an array of %d", id, f.Occurrences, sf.Type.Len())
	}
	return &OccurrenceNode{
		Accessor: f.Name,
		Count:    f.Occurrences,
		Item:     item,
		Binding:  Binding{Index: sf.Index, Type: sf.Type},
	}, nil
}

func (b *Builder) fragment(owner reflect.Type, sf reflect.StructField, f Field, itemType reflect.Type) (*FragmentNode, error) {
	id := qualified(owner, f.Name)
	if f.Length < 1 {
		return nil, Errorf(KindInvalidLength, "%s: length must be a positive value, got %d", id, f.Length)
	}
	if f.Alignment != AlignLeft && f.Alignment != AlignRight {
		return nil, Errorf(KindInvalidAlignment, "%s: alignment must be left or right, got %s", id, f.Alignment)
	}

	h, err := b.handler(id, sf, f)
	if err != nil {
		return nil, err
	}
	if !types.Accepts(h, sf.Type) {
		return nil, Errorf(KindUnacceptedType, "%s: handler %T can't manage %s", id, h, sf.Type)
	}

	padder := f.Padder
	if padder == 0 {
		padder = DefaultPadder
	}
	return &FragmentNode{
		Accessor:  f.Name,
		Length:    f.Length,
		Padder:    padder,
		Alignment: f.Alignment,
		Format:    f.Format,
		Optional:  f.Optional,
		Handler:   h,
		Binding:   Binding{Type: itemType},
		Owner:     owner,
	}, nil
}

func (b *Builder) handler(id string, sf reflect.StructField, f Field) (types.Handler, error) {
	factory := f.Converter
	if factory == nil && f.ConverterName != "" {
		named, err := b.registry.Converter(f.ConverterName)
		if err != nil {
			return nil, Wrap(KindConverter, err, "%s: can't find converter", id)
		}
		factory = named
	}
	if factory != nil {
		h, err := construct(factory)
		if err != nil {
			return nil, Wrap(KindConverter, err, "%s: can't instantiate converter", id)
		}
		return h, nil
	}

	h, err := b.registry.Resolve(sf.Type)
	if err != nil {
		return nil, Wrap(KindUnsupportedType, err, "%s: no handler for %s", id, sf.Type)
	}
	return h, nil
}

func construct(factory types.Factory) (h types.Handler, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("converter panicked: %v", r)
		}
	}()
	h, err = factory()
	if err == nil && h == nil {
		err = errors.New("converter factory returned no handler")
	}
	return h, err
}

func fillerNode(f Filler) (*FillerNode, *Error) {
	if f.Length < 1 {
		return nil, Errorf(KindInvalidLength, "filler length must be a positive value, got %d", f.Length)
	}
	padder := f.Padder
	if padder == 0 {
		padder = DefaultPadder
	}
	return &FillerNode{Length: f.Length, Padder: padder}, nil
}

// bind attaches the struct field index of a non-repeated node.
func bind(n Node, index []int) {
	switch n := n.(type) {
	case *RecordNode:
		n.Binding.Index = index
	case *FragmentNode:
		n.Binding.Index = index
	}
}

func qualified(owner reflect.Type, name string) string {
	if name == "" {
		return typeName(owner)
	}
	return typeName(owner) + "." + name
}
