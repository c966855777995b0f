// Package codec maps fixed-width text lines to Go records and back.
//
// A line is a run of fixed-width slots laid out by a schema tree built with
// package schema. The codec walks that tree once per line, depth first and
// in column order, carrying a single cursor: fillers skip or emit literal
// characters, fragments convert one slot through their type handler, nested
// records recurse and occurrences repeat their item.
//
// # Line Format
//
// For a record declared as
//
//	schema.Register[Payment](catalog,
//		schema.Fragment("ID", 5).Pad('0'),
//		schema.Fragment("Code", 3).Leading(schema.Fill(3, '#')),
//	)
//
// the line is 11 characters wide:
//
//	00042###EUR
//	[ID  ][F][Code]
//
// Widths count characters (runes), not bytes, so a '€' padder occupies a
// single column.
//
// # Alignment and Padding
//
// Left alignment places the padding before the value and right alignment
// places it after:
//
//	Fragment("ID", 5).Pad('0')                        42 -> "00042"
//	Fragment("Name", 10).Pad('_').Align(AlignRight)   "Ada" -> "Ada_______"
//
// Decoding strips the padding from the side the encoder put it on. When a
// slot padded with a digit holds nothing but padding, one padder digit is
// kept, so 0 survives a round trip through '0' padding.
//
// # Usage
//
// Typed codecs are the line I/O boundary of a batch job:
//
//	payments, err := codec.New[Payment](builder)
//	if err != nil {
//	    return err
//	}
//
//	// Decode a line; the line number only appears in errors
//	p, err := payments.MapLine("00042###EUR", 1)
//	if err != nil {
//	    return err
//	}
//
//	// Encode it back
//	line, err := payments.Aggregate(p)
//
// Streams mixing record kinds use a Poly, which routes each line by prefix
// pattern and each record by type:
//
//	poly, err := codec.NewPoly(builder,
//	    codec.RouteOf[Header]("HDR*"),
//	    codec.RouteOf[Detail]("DTL*"),
//	)
//	record, err := poly.MapLine(line, n) // *Header or *Detail
//
// Decode and Encode work on a schema tree directly and are what the typed
// codecs use underneath. They serve record types only known at run time,
// such as the ones compiled by package layout.
//
// # Error Handling
//
// Every failure is a *schema.Error:
//   - ErrTruncatedLine and ErrLineOverflow when a line is not exactly as
//     wide as the schema
//   - ErrEmptyFragment when a required slot holds only padding
//   - ErrParse when a handler rejects the text of a slot
//   - ErrDataOverflow when a value is wider than its slot, or a slice holds
//     more items than its occurrences
//   - ErrNoMatchingSchema when a Poly has no route for a line or record
//
// Optional fragments decode empty or unreadable slots as absent values.
// Decoding is all or nothing: a record is only returned when every slot
// decoded. Encoding never truncates.
//
// # Thread Safety
//
// Schema trees are immutable once built. Codec, Poly, Decode and Encode
// keep no state between calls and are safe for concurrent use.
package codec
