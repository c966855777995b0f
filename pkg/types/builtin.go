package types

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// DefaultDateLayout is the date layout used when a date field has no format.
const DefaultDateLayout = "2006-01-02"

// DefaultBoolFormat holds the true and false runes of a boolean slot.
const DefaultBoolFormat = "YN"

var (
	timeType    = reflect.TypeOf(time.Time{})
	bigIntType  = reflect.TypeOf(big.Int{})
	decimalType = reflect.TypeOf(apd.Decimal{})
	charType    = reflect.TypeOf(Char(0))
)

// builtins returns the handlers every registry starts with.
func builtins() []Handler {
	return []Handler{
		stringHandler{},
		charHandler{},
		signedHandler{name: "tiny", bits: 8, kinds: []reflect.Kind{reflect.Int8}},
		signedHandler{name: "short", bits: 16, kinds: []reflect.Kind{reflect.Int16}},
		signedHandler{name: "integer", bits: 32, kinds: []reflect.Kind{reflect.Int32}},
		signedHandler{name: "long", bits: 64, kinds: []reflect.Kind{reflect.Int64, reflect.Int}},
		unsignedHandler{name: "byte", bits: 8, kinds: []reflect.Kind{reflect.Uint8}},
		unsignedHandler{name: "unsigned", bits: 64, kinds: []reflect.Kind{reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint}},
		bigIntHandler{},
		dateHandler{},
		decimalHandler{},
		boolHandler{},
	}
}

type stringHandler struct{}

func (stringHandler) Accept(t reflect.Type) bool {
	return t.Kind() == reflect.String
}

func (stringHandler) Read(text, _ string) (any, error) {
	return text, nil
}

func (stringHandler) Write(v any, _ string) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", fmt.Errorf("string handler cannot write %T", v)
	}
	return rv.String(), nil
}

type charHandler struct{}

func (charHandler) Accept(t reflect.Type) bool {
	return t == charType
}

func (charHandler) Read(text, _ string) (any, error) {
	r, _ := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return nil, fmt.Errorf("invalid character %q", text)
	}
	return Char(r), nil
}

func (charHandler) Write(v any, _ string) (string, error) {
	switch c := v.(type) {
	case nil:
		return "", nil
	case Char:
		return string(rune(c)), nil
	default:
		return "", fmt.Errorf("character handler cannot write %T", v)
	}
}

// signedHandler serves signed integer kinds of at most bits width.
type signedHandler struct {
	name  string
	bits  int
	kinds []reflect.Kind
}

func (h signedHandler) Accept(t reflect.Type) bool {
	return hasKind(h.kinds, t.Kind())
}

func (h signedHandler) Read(text, _ string) (any, error) {
	n, err := strconv.ParseInt(text, 10, h.bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.name, err)
	}
	return n, nil
}

func (h signedHandler) Write(v any, _ string) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if !h.Accept(rv.Type()) {
		return "", fmt.Errorf("%s handler cannot write %T", h.name, v)
	}
	return strconv.FormatInt(rv.Int(), 10), nil
}

// unsignedHandler serves unsigned integer kinds of at most bits width.
type unsignedHandler struct {
	name  string
	bits  int
	kinds []reflect.Kind
}

func (h unsignedHandler) Accept(t reflect.Type) bool {
	return hasKind(h.kinds, t.Kind())
}

func (h unsignedHandler) Read(text, _ string) (any, error) {
	n, err := strconv.ParseUint(text, 10, h.bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.name, err)
	}
	return n, nil
}

func (h unsignedHandler) Write(v any, _ string) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if !h.Accept(rv.Type()) {
		return "", fmt.Errorf("%s handler cannot write %T", h.name, v)
	}
	return strconv.FormatUint(rv.Uint(), 10), nil
}

func hasKind(kinds []reflect.Kind, k reflect.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

type bigIntHandler struct{}

func (bigIntHandler) Accept(t reflect.Type) bool {
	return t == bigIntType
}

func (bigIntHandler) Read(text, _ string) (any, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("big integer: invalid syntax %q", text)
	}
	return n, nil
}

func (bigIntHandler) Write(v any, _ string) (string, error) {
	switch n := v.(type) {
	case nil:
		return "", nil
	case *big.Int:
		if n == nil {
			return "", nil
		}
		return n.String(), nil
	case big.Int:
		return n.String(), nil
	default:
		return "", fmt.Errorf("big integer handler cannot write %T", v)
	}
}

// dateHandler reads and writes calendar dates. The format is a Go time layout.
type dateHandler struct{}

func (dateHandler) Accept(t reflect.Type) bool {
	return t == timeType
}

func (dateHandler) Read(text, format string) (any, error) {
	t, err := time.Parse(dateLayout(format), text)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	return t, nil
}

func (dateHandler) Write(v any, format string) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		return t.Format(dateLayout(format)), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return t.Format(dateLayout(format)), nil
	default:
		return "", fmt.Errorf("date handler cannot write %T", v)
	}
}

func dateLayout(format string) string {
	if format == "" {
		return DefaultDateLayout
	}
	return format
}

// decimalHandler reads and writes apd decimals. A numeric format gives the
// number of implied decimal places: the slot holds digits only.
type decimalHandler struct{}

var decimalContext = apd.BaseContext.WithPrecision(64)

func (decimalHandler) Accept(t reflect.Type) bool {
	return t == decimalType
}

func (decimalHandler) Read(text, format string) (any, error) {
	places, err := impliedPlaces(format)
	if err != nil {
		return nil, err
	}
	if places > 0 && strings.ContainsAny(text, ".eE") {
		return nil, fmt.Errorf("decimal: %q has an explicit point but %d places are implied", text, places)
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("decimal: %w", err)
	}
	d.Exponent -= places
	return d, nil
}

func (decimalHandler) Write(v any, format string) (string, error) {
	var d *apd.Decimal
	switch x := v.(type) {
	case nil:
		return "", nil
	case *apd.Decimal:
		if x == nil {
			return "", nil
		}
		d = x
	case apd.Decimal:
		d = &x
	default:
		return "", fmt.Errorf("decimal handler cannot write %T", v)
	}
	places, err := impliedPlaces(format)
	if err != nil {
		return "", err
	}
	if places == 0 && format == "" {
		return d.Text('f'), nil
	}
	var q apd.Decimal
	if _, err := decimalContext.Quantize(&q, d, -places); err != nil {
		return "", fmt.Errorf("decimal: %w", err)
	}
	digits := q.Coeff.String()
	if q.Negative && !q.IsZero() {
		digits = "-" + digits
	}
	return digits, nil
}

func impliedPlaces(format string) (int32, error) {
	if format == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(format, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("decimal: format %q is not a number of implied places", format)
	}
	return int32(n), nil
}

// boolHandler maps a boolean to one of two runes, true first.
type boolHandler struct{}

func (boolHandler) Accept(t reflect.Type) bool {
	return t.Kind() == reflect.Bool
}

func (boolHandler) Read(text, format string) (any, error) {
	yes, no, err := boolRunes(format)
	if err != nil {
		return nil, err
	}
	switch text {
	case string(yes):
		return true, nil
	case string(no):
		return false, nil
	default:
		return nil, fmt.Errorf("boolean: %q is neither %q nor %q", text, yes, no)
	}
}

func (boolHandler) Write(v any, format string) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return "", fmt.Errorf("boolean handler cannot write %T", v)
	}
	yes, no, err := boolRunes(format)
	if err != nil {
		return "", err
	}
	if rv.Bool() {
		return string(yes), nil
	}
	return string(no), nil
}

func boolRunes(format string) (rune, rune, error) {
	if format == "" {
		format = DefaultBoolFormat
	}
	r := []rune(format)
	if len(r) != 2 || r[0] == r[1] {
		return 0, 0, fmt.Errorf("boolean: format %q must hold two distinct runes", format)
	}
	return r[0], r[1], nil
}
