package schema

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a schema, decode or encode failure.
type ErrorKind int

const (
	KindNotARecord ErrorKind = iota + 1
	KindInvalidLength
	KindMissingOccurrence
	KindInvalidOccurrence
	KindUnsupportedType
	KindUnacceptedType
	KindConverter
	KindInvalidAlignment
	KindRecursiveRecord
	KindUnknownField
	KindTruncatedLine
	KindLineOverflow
	KindEmptyFragment
	KindParse
	KindDataOverflow
	KindNoMatchingSchema
	KindInvalidValue
)

var kindNames = map[ErrorKind]string{
	KindNotARecord:        "not a record",
	KindInvalidLength:     "invalid length",
	KindMissingOccurrence: "missing occurrences",
	KindInvalidOccurrence: "invalid occurrences",
	KindUnsupportedType:   "unsupported type",
	KindUnacceptedType:    "unaccepted type",
	KindConverter:         "converter construction failed",
	KindInvalidAlignment:  "invalid alignment",
	KindRecursiveRecord:   "recursive record",
	KindUnknownField:      "unknown field",
	KindTruncatedLine:     "truncated line",
	KindLineOverflow:      "line too long",
	KindEmptyFragment:     "empty fragment",
	KindParse:             "parse failure",
	KindDataOverflow:      "data overflow",
	KindNoMatchingSchema:  "no matching schema",
	KindInvalidValue:      "invalid value",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type raised while building schemas and while
// decoding or encoding lines.
type Error struct {
	Kind  ErrorKind
	Field string // dotted path of the offending field, when known
	Line  int    // line number, when known
	Msg   string
	Err   error
}

// Sentinel errors, matched with errors.Is on Kind.
var (
	ErrNotARecord        = &Error{Kind: KindNotARecord}
	ErrInvalidLength     = &Error{Kind: KindInvalidLength}
	ErrMissingOccurrence = &Error{Kind: KindMissingOccurrence}
	ErrInvalidOccurrence = &Error{Kind: KindInvalidOccurrence}
	ErrUnsupportedType   = &Error{Kind: KindUnsupportedType}
	ErrUnacceptedType    = &Error{Kind: KindUnacceptedType}
	ErrConverter         = &Error{Kind: KindConverter}
	ErrInvalidAlignment  = &Error{Kind: KindInvalidAlignment}
	ErrRecursiveRecord   = &Error{Kind: KindRecursiveRecord}
	ErrUnknownField      = &Error{Kind: KindUnknownField}
	ErrTruncatedLine     = &Error{Kind: KindTruncatedLine}
	ErrLineOverflow      = &Error{Kind: KindLineOverflow}
	ErrEmptyFragment     = &Error{Kind: KindEmptyFragment}
	ErrParse             = &Error{Kind: KindParse}
	ErrDataOverflow      = &Error{Kind: KindDataOverflow}
	ErrNoMatchingSchema  = &Error{Kind: KindNoMatchingSchema}
	ErrInvalidValue      = &Error{Kind: KindInvalidValue}
)

// Errorf builds an Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (at %s)", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithField returns a copy of e carrying the dotted field path.
func (e *Error) WithField(path string) *Error {
	c := *e
	c.Field = path
	return &c
}

// WithLine returns a copy of e carrying the line number.
func (e *Error) WithLine(line int) *Error {
	c := *e
	c.Line = line
	return &c
}
