package codec

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"

	"github.com/ssargent/flatrec/pkg/schema"
	"github.com/ssargent/flatrec/pkg/types"
)

type childPojo struct {
	Total int64
	Label string
}

type rootPojo struct {
	ID      int64
	Child   childPojo
	Counter int
	Values  []int64
}

func rootBuilder() *schema.Builder {
	c := schema.NewCatalog()
	schema.Register[childPojo](c,
		schema.Fragment("Total", 6),
		schema.Fragment("Label", 3),
	)
	schema.RegisterLayout[rootPojo](c, schema.Layout{
		Fields: []schema.Field{
			schema.Fragment("ID", 5),
			schema.Record("Child").Leading(schema.Fill(3, '0'), schema.Fill(2, '#')),
			schema.Fragment("Counter", 3),
			schema.Fragment("Values", 5).Pad('0').Occurs(3).Leading(schema.Fill(3, ' ')),
		},
		Trailing: []schema.Filler{schema.Fill(5, '_')},
	})
	return schema.NewBuilder(c, types.NewRegistry())
}

func TestCodec_MapLine(t *testing.T) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Width() != 45 {
		t.Errorf("Width = %d, want 45", c.Width())
	}

	got, err := c.MapLine("01985000##114273EUR567   100011000210003_____", 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}

	want := &rootPojo{
		ID:      1985,
		Child:   childPojo{Total: 114273, Label: "EUR"},
		Counter: 567,
		Values:  []int64{10001, 10002, 10003},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapLine mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	testCases := []struct {
		name   string
		record rootPojo
		line   string
	}{
		{
			name: "full record",
			record: rootPojo{
				ID:      1985,
				Child:   childPojo{Total: 114273, Label: "EUR"},
				Counter: 567,
				Values:  []int64{10001, 10002, 10003},
			},
			line: " 1985000##114273EUR567   100011000210003_____",
		},
		{
			name: "zero values",
			record: rootPojo{
				Child:  childPojo{Total: 1, Label: "X"},
				Values: []int64{0, 0, 7},
			},
			line: "    0000##     1  X  0   000000000000007_____",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := c.Aggregate(&tc.record)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if line != tc.line {
				t.Errorf("Aggregate = %q, want %q", line, tc.line)
			}

			back, err := c.MapLine(line, 1)
			if err != nil {
				t.Fatalf("MapLine failed: %v", err)
			}
			if diff := cmp.Diff(&tc.record, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type simplePojo struct {
	ID      int64
	Name    string
	Surname string
	Date    time.Time
	Octet   uint8
	Car     types.Char
	Values  []int64
}

func TestCodec_Aggregate(t *testing.T) {
	cat := schema.NewCatalog()
	schema.RegisterLayout[simplePojo](cat, schema.Layout{
		Fields: []schema.Field{
			schema.Fragment("ID", 7).Pad('0'),
			schema.Fragment("Name", 10).Leading(schema.Fill(3, '#'), schema.Fill(2, '|')),
			schema.Fragment("Surname", 10).Pad('_').Align(schema.AlignRight),
			schema.Fragment("Date", 4).WithFormat("0601"),
			schema.Fragment("Octet", 2).Pad('$'),
			schema.Fragment("Car", 2).Pad('€'),
			schema.Fragment("Values", 5).Occurs(3),
		},
		Trailing: []schema.Filler{schema.Fill(3, '€')},
	})
	c, err := New[simplePojo](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	item := &simplePojo{
		ID:      777,
		Name:    "CHAUVET",
		Surname: "Guillaume",
		Date:    time.Date(1999, time.July, 18, 0, 0, 0, 0, time.UTC),
		Octet:   5,
		Car:     'C',
		Values:  []int64{2, 4, 6},
	}
	line, err := c.Aggregate(item)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	want := "0000777###||   CHAUVETGuillaume_9907$5€C    2    4    6€€€"
	if line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	back, err := c.MapLine(line, 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	item.Date = time.Date(1999, time.July, 1, 0, 0, 0, 0, time.UTC)
	if diff := cmp.Diff(item, back); diff != "" {
		t.Errorf("MapLine mismatch (-want +got):\n%s", diff)
	}
}

type overflowPojo struct {
	Good     string
	Overflow string
}

func TestCodec_AggregateOverflow(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[overflowPojo](cat,
		schema.Fragment("Good", 2),
		schema.Fragment("Overflow", 3),
	)
	c, err := New[overflowPojo](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Aggregate(&overflowPojo{Good: "OK", Overflow: "TEST"})
	if !errors.Is(err, schema.ErrDataOverflow) {
		t.Fatalf("expected data overflow, got %v", err)
	}
	want := "codec.overflowPojo.Overflow length (4) greater than fragment length definition (3) (at Overflow)"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

type scenario struct {
	ID     int64
	Code   string
	Values []int64
}

func TestCodec_FixedWidthScenarios(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[scenario](cat,
		schema.Fragment("ID", 5).Pad('0'),
		schema.Fragment("Code", 3).Leading(schema.Fill(3, '#')),
		schema.Fragment("Values", 5).Pad('0').Occurs(3),
	)
	c, err := New[scenario](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	line, err := c.Aggregate(&scenario{ID: 42, Code: "EUR", Values: []int64{1, 2, 3}})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := "00042###EUR" + "000010000200003"; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	// Missing occurrences are written as padding only.
	line, err = c.Aggregate(&scenario{ID: 42, Code: "EUR", Values: []int64{1}})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := "00042###EUR" + "000010000000000"; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	_, err = c.Aggregate(&scenario{ID: 42, Code: "EUR", Values: []int64{1, 2, 3, 4}})
	if !errors.Is(err, schema.ErrDataOverflow) {
		t.Errorf("expected data overflow for extra items, got %v", err)
	}
}

type prefixed struct {
	Number int64
}

func TestCodec_RightAlignedZeroPadded(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[prefixed](cat,
		schema.Fragment("Number", 20).Pad('0').Align(schema.AlignRight).
			Leading(schema.Fill(1, 'B'), schema.Fill(1, 'A'), schema.Fill(1, 'R')),
	)
	c, err := New[prefixed](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, err := c.MapLine("BAR00000000000018071985", 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if got.Number != 18071985 {
		t.Errorf("Number = %d, want 18071985", got.Number)
	}
}

func TestCodec_RightAlignedZeroPaddedTrailingZero(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[prefixed](cat,
		schema.Fragment("Number", 20).Pad('0').Align(schema.AlignRight).
			Leading(schema.Fill(1, 'B'), schema.Fill(1, 'A'), schema.Fill(1, 'R')),
	)
	c, err := New[prefixed](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Trailing zeros of the value are indistinguishable from padding.
	got, err := c.MapLine("BAR00000000000018071980", 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if got.Number != 1807198 {
		t.Errorf("Number = %d, want 1807198", got.Number)
	}

	line, err := c.Aggregate(&prefixed{Number: 18071980})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := "BAR18071980000000000000"; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	left := schema.NewCatalog()
	schema.Register[prefixed](left,
		schema.Fragment("Number", 20).Pad('0').
			Leading(schema.Fill(1, 'B'), schema.Fill(1, 'A'), schema.Fill(1, 'R')),
	)
	lc, err := New[prefixed](schema.NewBuilder(left, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	line, err = lc.Aggregate(&prefixed{Number: 18071980})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	back, err := lc.MapLine(line, 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if back.Number != 18071980 {
		t.Errorf("left aligned round trip = %d, want 18071980", back.Number)
	}
}

type promoted struct {
	Code int64
}

type viaPointer struct {
	*promoted
	Count int64
}

type viaValue struct {
	promoted
	Count int64
}

func TestCodec_PromotedFields(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[viaPointer](cat, schema.Fragment("Code", 3).Pad('0'), schema.Fragment("Count", 3).Pad('0'))
	schema.Register[viaValue](cat, schema.Fragment("Code", 3).Pad('0'), schema.Fragment("Count", 3).Pad('0'))
	b := schema.NewBuilder(cat, types.NewRegistry())

	if _, err := New[viaPointer](b); !errors.Is(err, schema.ErrUnknownField) {
		t.Errorf("expected unknown field for a field behind an embedded pointer, got %v", err)
	}

	c, err := New[viaValue](b)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	got, err := c.MapLine("001002", 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	want := &viaValue{promoted: promoted{Code: 1}, Count: 2}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(viaValue{})); diff != "" {
		t.Errorf("MapLine mismatch (-want +got):\n%s", diff)
	}
	line, err := c.Aggregate(want)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if line != "001002" {
		t.Errorf("Aggregate = %q, want %q", line, "001002")
	}
}

type optionals struct {
	Name   *string
	Count  *int
	Amount *apd.Decimal
	Big    *big.Int
	When   *time.Time
	Child  *childPojo
}

func optionalBuilder() *schema.Builder {
	cat := schema.NewCatalog()
	schema.Register[childPojo](cat,
		schema.Fragment("Total", 6).Pad('0'),
		schema.Fragment("Label", 3).Opt(),
	)
	schema.Register[optionals](cat,
		schema.Fragment("Name", 4).Opt(),
		schema.Fragment("Count", 3).Opt(),
		schema.Fragment("Amount", 7).Pad('0').WithFormat("2").Opt(),
		schema.Fragment("Big", 25).Pad('0').Opt(),
		schema.Fragment("When", 8).WithFormat("20060102").Opt(),
		schema.Record("Child"),
	)
	return schema.NewBuilder(cat, types.NewRegistry())
}

func TestCodec_Optional(t *testing.T) {
	c, err := New[optionals](optionalBuilder())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	line, err := c.Aggregate(&optionals{})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := "       " + "0000000" + "0000000000000000000000000" + "        " + "000000   "; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	got, err := c.MapLine(line, 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if got.Name != nil || got.Count != nil || got.When != nil {
		t.Errorf("expected absent values, got %+v", got)
	}
	if got.Amount != nil || got.Big != nil {
		t.Errorf("expected absent numbers, got %v %v", got.Amount, got.Big)
	}
	if got.Child == nil || got.Child.Total != 0 || got.Child.Label != "" {
		t.Errorf("expected zero child, got %+v", got.Child)
	}

	// Unreadable optional slots are absent too.
	got, err = c.MapLine("ABCDxyz00012342" + "0000000000000000000000009" + "2025AB01" + "000001EUR", 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if got.Count != nil || got.When != nil {
		t.Errorf("expected unreadable values to be absent, got %v %v", got.Count, got.When)
	}
	if got.Name == nil || *got.Name != "ABCD" {
		t.Errorf("Name = %v, want ABCD", got.Name)
	}
	if got.Amount == nil || got.Amount.String() != "123.42" {
		t.Errorf("Amount = %v, want 123.42", got.Amount)
	}
	if got.Big == nil || got.Big.Int64() != 9 {
		t.Errorf("Big = %v, want 9", got.Big)
	}
}

func TestCodec_PointersRoundTrip(t *testing.T) {
	c, err := New[optionals](optionalBuilder())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	name, count := "ADA", 12
	when := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	huge, _ := new(big.Int).SetString("123456789012345678901234", 10)
	amount, _, _ := apd.NewFromString("-1.5")
	record := &optionals{
		Name:   &name,
		Count:  &count,
		Amount: amount,
		Big:    huge,
		When:   &when,
		Child:  &childPojo{Total: 42, Label: "USD"},
	}

	line, err := c.Aggregate(record)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := " ADA" + " 12" + "000-150" + "0123456789012345678901234" + "20250314" + "000042USD"; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	c, err := New[scenario](func() *schema.Builder {
		cat := schema.NewCatalog()
		schema.Register[scenario](cat,
			schema.Fragment("ID", 5).Pad('0'),
			schema.Fragment("Code", 3),
			schema.Fragment("Values", 2).Occurs(2),
		)
		return schema.NewBuilder(cat, types.NewRegistry())
	}())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	testCases := []struct {
		name  string
		line  string
		want  error
		field string
	}{
		{"truncated", "00042EUR 1", schema.ErrTruncatedLine, ""},
		{"too long", "00042EUR 1 2 3", schema.ErrLineOverflow, ""},
		{"empty fragment", "00042    1 2", schema.ErrEmptyFragment, "Code"},
		{"malformed number", "0004xEUR 1 2", schema.ErrParse, "ID"},
		{"malformed occurrence", "00042EUR 1 x", schema.ErrParse, "Values[1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.MapLine(tc.line, 7)
			if got != nil {
				t.Errorf("expected no record, got %+v", got)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var se *schema.Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *schema.Error, got %T", err)
			}
			if se.Line != 7 {
				t.Errorf("Line = %d, want 7", se.Line)
			}
			if se.Field != tc.field {
				t.Errorf("Field = %q, want %q", se.Field, tc.field)
			}
		})
	}
}

type wide struct {
	Label string
	Items [2]childPojo
}

func TestCodec_RuneWidthsAndArrays(t *testing.T) {
	cat := schema.NewCatalog()
	schema.Register[childPojo](cat,
		schema.Fragment("Total", 2).Pad('0'),
		schema.Fragment("Label", 2).Pad('·').Align(schema.AlignRight),
	)
	schema.Register[wide](cat,
		schema.Fragment("Label", 4).Pad('€'),
		schema.Record("Items").Occurs(2),
	)
	c, err := New[wide](schema.NewBuilder(cat, types.NewRegistry()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	record := &wide{Label: "é", Items: [2]childPojo{{Total: 1, Label: "ü"}, {Total: 22, Label: "ab"}}}
	line, err := c.Aggregate(record)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if want := "€€€é01ü·22ab"; line != want {
		t.Errorf("Aggregate = %q, want %q", line, want)
	}

	back, err := c.MapLine(line, 1)
	if err != nil {
		t.Fatalf("MapLine failed: %v", err)
	}
	if diff := cmp.Diff(record, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEncode_Untyped(t *testing.T) {
	root, err := schema.BuildFor[rootPojo](rootBuilder())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	v, err := Decode(root, "01985000##114273EUR567   100011000210003_____")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	record, ok := v.(*rootPojo)
	if !ok {
		t.Fatalf("Decode returned %T", v)
	}

	for _, in := range []any{record, *record} {
		line, err := Encode(root, in)
		if err != nil {
			t.Fatalf("Encode(%T) failed: %v", in, err)
		}
		if line != " 1985000##114273EUR567   100011000210003_____" {
			t.Errorf("Encode(%T) = %q", in, line)
		}
	}

	if _, err := Encode(root, &childPojo{}); !errors.Is(err, schema.ErrInvalidValue) {
		t.Errorf("expected invalid value for a foreign type, got %v", err)
	}
	if _, err := Encode(root, (*rootPojo)(nil)); !errors.Is(err, schema.ErrInvalidValue) {
		t.Errorf("expected invalid value for a nil record, got %v", err)
	}
}

func TestCodec_ConcurrentUse(t *testing.T) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := &rootPojo{ID: int64(i), Child: childPojo{Total: int64(i), Label: "GO"}, Values: []int64{int64(i)}}
			for j := 0; j < 100; j++ {
				line, err := c.Aggregate(record)
				if err != nil {
					t.Errorf("Aggregate failed: %v", err)
					return
				}
				back, err := c.MapLine(line, j+1)
				if err != nil {
					t.Errorf("MapLine failed: %v", err)
					return
				}
				if back.ID != record.ID || back.Child != record.Child {
					t.Errorf("round trip mismatch: %+v != %+v", back, record)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
