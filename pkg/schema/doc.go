// Package schema models the layout of fixed-width records.
//
// A record type is described by a Layout: an ordered list of Field
// descriptors plus trailing fillers. Layouts come from a Source, either a
// Catalog fed by explicit registration or the Tags source reading struct
// tags. The Builder turns a layout into an immutable tree of four node
// kinds:
//
//   - RecordNode: ordered children; the root of every tree
//   - FragmentNode: one scalar slot with its length, padder, alignment,
//     format and handler
//   - FillerNode: a literal zone that is never bound to a field
//   - OccurrenceNode: a fragment or record repeated a fixed number of times
//
// Column order is declaration order, and the width of a record is the sum
// of the widths of its children. The width of the root is the width of
// every line using that schema.
//
// # Building
//
//	catalog := schema.NewCatalog()
//	schema.Register[Payment](catalog,
//		schema.Fragment("ID", 5).Pad('0'),
//		schema.Fragment("Currency", 3).Leading(schema.Fill(3, '#')),
//	)
//	builder := schema.NewBuilder(catalog, types.NewRegistry())
//	root, err := schema.BuildFor[Payment](builder)
//
// Struct fields are resolved when the tree is built, and each node keeps
// the index path of its field, so codecs never look fields up by name.
//
// # Errors
//
// Every failure is an *Error whose Kind can be matched with errors.Is
// against the exported sentinels, for example ErrInvalidLength or
// ErrMissingOccurrence. Decoders and encoders in package codec report
// their failures with the same type.
package schema
