//go:build fuzz
// +build fuzz

package codec

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/ssargent/flatrec/pkg/schema"
)

// FuzzCodec_RoundTrip tests the round trip law with random field values
func FuzzCodec_RoundTrip(f *testing.F) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		f.Fatal(err)
	}

	// Add seed corpus
	f.Add(int64(1985), int64(114273), "EUR", 567, int64(10001))
	f.Add(int64(0), int64(0), "", 0, int64(0))
	f.Add(int64(-1), int64(-99999), "€€", -99, int64(99999))

	f.Fuzz(func(t *testing.T, id, total int64, label string, counter int, value int64) {
		record := &rootPojo{
			ID:      id,
			Child:   childPojo{Total: total, Label: label},
			Counter: counter,
			Values:  []int64{value, value, value},
		}

		line, err := c.Aggregate(record)
		if err != nil {
			if !errors.Is(err, schema.ErrDataOverflow) && !errors.Is(err, schema.ErrInvalidValue) {
				t.Fatalf("unexpected Aggregate error: %v", err)
			}
			t.Skip("value does not fit its slot")
		}

		// Every encoded line has the schema width
		if n := utf8.RuneCountInString(line); n != c.Width() {
			t.Fatalf("line %q holds %d characters, want %d", line, n, c.Width())
		}

		back, err := c.MapLine(line, 1)
		if err != nil {
			// Values made only of padding, or starting with it, do not survive
			t.Skip("value is indistinguishable from padding")
		}
		if back.ID != record.ID || back.Counter != record.Counter || back.Child.Total != record.Child.Total {
			t.Errorf("round trip mismatch: got %+v, want %+v", back, record)
		}
	})
}

// FuzzCodec_MapLine tests that arbitrary lines never panic
func FuzzCodec_MapLine(f *testing.F) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		f.Fatal(err)
	}

	// Add seed corpus
	f.Add("01985000##114273EUR567   100011000210003_____")
	f.Add("")
	f.Add("€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€€")

	f.Fuzz(func(t *testing.T, line string) {
		record, err := c.MapLine(line, 1)
		if err != nil {
			var se *schema.Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *schema.Error, got %T: %v", err, err)
			}
			if record != nil {
				t.Fatalf("record returned along with error %v", err)
			}
			return
		}

		if utf8.RuneCountInString(line) != c.Width() {
			t.Fatalf("line of %d characters decoded", utf8.RuneCountInString(line))
		}
	})
}
