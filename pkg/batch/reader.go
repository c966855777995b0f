package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/transform"

	"github.com/ssargent/flatrec/pkg/config"
)

// MaxLineSize bounds a single line in bytes after decoding.
const MaxLineSize = 1 << 20

// Reader yields the lines of a flat file decoded to UTF-8, numbered from 1.
// Both LF and CRLF terminators are accepted.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	text    string
}

// NewReader returns a Reader decoding r from charset.
func NewReader(r io.Reader, charset string) (*Reader, error) {
	enc, err := Charset(charset)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(transform.NewReader(r, enc.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{scanner: scanner}, nil
}

// Next advances to the next line. It returns false at the end of input or
// on a read error, reported by Err.
func (r *Reader) Next() bool {
	if !r.scanner.Scan() {
		return false
	}
	r.line++
	r.text = strings.TrimSuffix(r.scanner.Text(), "\r")
	return true
}

// Line returns the current line number and text.
func (r *Reader) Line() (int, string) {
	return r.line, r.text
}

// Err returns the first read error.
func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read line %d: %w", r.line+1, err)
	}
	return nil
}

// Writer writes lines encoded in a charset with a fixed terminator. Close
// must be called to flush.
type Writer struct {
	encoder io.WriteCloser
	buf     *bufio.Writer
	eol     string
	lines   int
}

// NewWriter returns a Writer encoding lines to w in charset, terminated by
// lineEnding ("lf" or "crlf").
func NewWriter(w io.Writer, charset, lineEnding string) (*Writer, error) {
	enc, err := Charset(charset)
	if err != nil {
		return nil, err
	}

	var eol string
	switch strings.ToLower(lineEnding) {
	case "", config.LineEndingLF:
		eol = "\n"
	case config.LineEndingCRLF:
		eol = "\r\n"
	default:
		return nil, fmt.Errorf("unknown line ending %q", lineEnding)
	}

	encoder := transform.NewWriter(w, enc.NewEncoder())
	return &Writer{encoder: encoder, buf: bufio.NewWriter(encoder), eol: eol}, nil
}

// WriteLine writes text followed by the line terminator.
func (w *Writer) WriteLine(text string) error {
	if _, err := w.buf.WriteString(text); err != nil {
		return fmt.Errorf("failed to write line %d: %w", w.lines+1, err)
	}
	if _, err := w.buf.WriteString(w.eol); err != nil {
		return fmt.Errorf("failed to write line %d: %w", w.lines+1, err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written.
func (w *Writer) Lines() int {
	return w.lines
}

// Close flushes buffered lines through the encoder. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush lines: %w", err)
	}
	if err := w.encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush lines: %w", err)
	}
	return nil
}
