package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLines returns a Sink writing each value as one JSON document per line.
func JSONLines(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return func(_ context.Context, value any, _ int) error {
		return enc.Encode(value)
	}
}

// Lines returns a Sink writing each value, which must be a string, as a line
// of w.
func Lines(w *Writer) Sink {
	return func(_ context.Context, value any, n int) error {
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("line %d: expected text, got %T", n, value)
		}
		return w.WriteLine(text)
	}
}
