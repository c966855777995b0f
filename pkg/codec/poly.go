package codec

import (
	"reflect"

	"github.com/ssargent/flatrec/pkg/schema"
)

// Route binds a line pattern to the record type of the lines it matches.
type Route struct {
	Pattern Pattern
	Type    reflect.Type
}

// RouteOf returns the route of pattern to T.
func RouteOf[T any](pattern string) Route {
	return Route{Pattern: Pattern(pattern), Type: reflect.TypeOf((*T)(nil)).Elem()}
}

type route struct {
	Route
	root *schema.RecordNode
}

// Poly decodes and encodes a stream mixing several record kinds. Lines are
// routed by pattern, first registered route first, so overlapping patterns
// must be registered most specific first. Records are routed by their type.
type Poly struct {
	routes []route
	byType map[reflect.Type]*schema.RecordNode
}

// NewPoly builds the schema of every route with b. All routes share the
// cache of b, so record types common to several kinds are built once.
func NewPoly(b *schema.Builder, routes ...Route) (*Poly, error) {
	p := &Poly{byType: make(map[reflect.Type]*schema.RecordNode, len(routes))}
	for _, r := range routes {
		root, err := b.Build(r.Type)
		if err != nil {
			return nil, err
		}
		p.routes = append(p.routes, route{Route: r, root: root})
		if _, ok := p.byType[root.Type]; !ok {
			p.byType[root.Type] = root
		}
	}
	return p, nil
}

// Routes lists the routes in matching order.
func (p *Poly) Routes() []Route {
	out := make([]Route, len(p.routes))
	for i, r := range p.routes {
		out[i] = r.Route
	}
	return out
}

// Match returns the schema of the first route whose pattern matches line.
func (p *Poly) Match(line string) (*schema.RecordNode, bool) {
	for _, r := range p.routes {
		if r.Pattern.Match(line) {
			return r.root, true
		}
	}
	return nil, false
}

// MapLine decodes line with the schema of the first matching route and
// returns a pointer to the new record.
func (p *Poly) MapLine(line string, lineNumber int) (any, error) {
	root, ok := p.Match(line)
	if !ok {
		return nil, atLine(schema.Errorf(schema.KindNoMatchingSchema, "no pattern matches %q", preview(line)), lineNumber)
	}
	record, err := Decode(root, line)
	if err != nil {
		return nil, atLine(err, lineNumber)
	}
	return record, nil
}

// Aggregate encodes record with the schema registered for its type.
func (p *Poly) Aggregate(record any) (string, error) {
	t := reflect.TypeOf(record)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	root, ok := p.byType[t]
	if !ok {
		return "", schema.Errorf(schema.KindNoMatchingSchema, "no schema registered for %T", record)
	}
	return Encode(root, record)
}

func preview(line string) string {
	const limit = 16
	r := []rune(line)
	if len(r) <= limit {
		return line
	}
	return string(r[:limit]) + "..."
}
