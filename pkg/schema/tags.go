package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Struct tag keys read by Tags.
const (
	TagFlat = "flat"
	TagFill = "fill"
)

// Tags is a Source reading layouts from struct tags:
//
//	type Payment struct {
//		ID       int64     `flat:"len=5,pad=0"`
//		Currency string    `flat:"len=3,align=right" fill:"2:#"`
//		Values   []int64   `flat:"len=5,pad=0,occurs=3"`
//		Payer    Party     `flat:"record"`
//		Date     time.Time `flat:"len=8,format=20060102"`
//		_        struct{}  `fill:"5:_"`
//	}
//
// Fragment options are len, pad, align (left, right), optional, occurs,
// converter and format. format must come last since its value may hold
// commas. fill holds length:padder pairs separated by semicolons; a blank
// field carrying only fill marks a literal zone at its position. A struct is
// a record when at least one of its fields is tagged.
type Tags struct{}

// Layout implements Source.
func (Tags) Layout(t reflect.Type) (*Layout, error) {
	t = derefType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, Errorf(KindNotARecord, "%s is not a struct", typeName(t))
	}

	layout := &Layout{}
	tagged := false
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		flat, hasFlat := sf.Tag.Lookup(TagFlat)
		fill, hasFill := sf.Tag.Lookup(TagFill)
		if !hasFlat && !hasFill || flat == "-" {
			continue
		}
		tagged = true

		fillers, err := parseFillers(fill)
		if err != nil {
			return nil, Wrap(KindInvalidLength, err, "%s.%s: bad fill tag", typeName(t), sf.Name)
		}

		if !hasFlat {
			layout.Fields = append(layout.Fields, Fillers(fillers...))
			continue
		}
		if sf.Name == "_" {
			return nil, Errorf(KindUnknownField, "%s: blank field cannot carry a flat tag", typeName(t))
		}

		field, perr := parseFlat(sf.Name, flat)
		if perr != nil {
			return nil, perr.WithField(typeName(t) + "." + sf.Name)
		}
		field.Fillers = fillers
		layout.Fields = append(layout.Fields, field)
	}
	if !tagged {
		return nil, Errorf(KindNotARecord, "%s has no flat tags", typeName(t))
	}
	return layout, nil
}

func parseFlat(name, tag string) (Field, *Error) {
	field := Field{Name: name, Kind: FieldFragment, Padder: DefaultPadder, Alignment: AlignLeft}
	rest := tag
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		var opt string
		if strings.HasPrefix(rest, "format=") {
			opt, rest = rest, ""
		} else {
			opt, rest, _ = strings.Cut(rest, ",")
		}
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "":
		case "record":
			field.Kind = FieldRecord
		case "len":
			n, err := strconv.Atoi(value)
			if err != nil {
				return field, Wrap(KindInvalidLength, err, "bad len %q", value)
			}
			field.Length = n
		case "pad":
			r, size := utf8.DecodeRuneInString(value)
			if size == 0 || size != len(value) {
				return field, Errorf(KindInvalidValue, "pad must be a single character, got %q", value)
			}
			field.Padder = r
		case "align":
			a, err := ParseAlignment(value)
			if err != nil {
				return field, Wrap(KindInvalidAlignment, err, "bad align")
			}
			field.Alignment = a
		case "optional":
			field.Optional = true
		case "occurs":
			n, err := strconv.Atoi(value)
			if err != nil {
				return field, Wrap(KindInvalidOccurrence, err, "bad occurs %q", value)
			}
			field.Occurrences = n
		case "converter":
			field.ConverterName = value
		case "format":
			field.Format = value
		default:
			return field, Errorf(KindInvalidValue, "unknown flat option %q", key)
		}
	}
	return field, nil
}

// parseFillers reads "3:#;2:|" into fillers. A missing padder means space.
func parseFillers(tag string) ([]Filler, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, nil
	}
	var out []Filler
	for _, part := range strings.Split(tag, ";") {
		lenText, padText, hasPad := strings.Cut(part, ":")
		n, err := strconv.Atoi(strings.TrimSpace(lenText))
		if err != nil {
			return nil, fmt.Errorf("bad filler length %q", lenText)
		}
		padder := rune(DefaultPadder)
		if hasPad && padText != "" {
			r, size := utf8.DecodeRuneInString(padText)
			if size != len(padText) {
				return nil, fmt.Errorf("filler padder must be a single character, got %q", padText)
			}
			padder = r
		}
		out = append(out, Filler{Length: n, Padder: padder})
	}
	return out, nil
}
