//go:build bench
// +build bench

package codec

import (
	"testing"
)

func BenchmarkCodec_MapLine(b *testing.B) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		b.Fatal(err)
	}
	line := "01985000##114273EUR567   100011000210003_____"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.MapLine(line, i); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Aggregate(b *testing.B) {
	c, err := New[rootPojo](rootBuilder())
	if err != nil {
		b.Fatal(err)
	}
	record := &rootPojo{
		ID:      1985,
		Child:   childPojo{Total: 114273, Label: "EUR"},
		Counter: 567,
		Values:  []int64{10001, 10002, 10003},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Aggregate(record); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPoly_MapLine(b *testing.B) {
	benchmarks := []struct {
		name string
		line string
	}{
		{name: "first route", line: "MY123TEST           VALUE"},
		{name: "second route", line: "YOUR567 TEST07890"},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			p := newTestPoly(b)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := p.MapLine(bm.line, i); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
