package schema

import (
	"reflect"

	"github.com/ssargent/flatrec/pkg/types"
)

// Node is one element of a schema tree. The set of node kinds is closed:
// *RecordNode, *FragmentNode, *FillerNode and *OccurrenceNode.
type Node interface {
	// Width is the number of characters the node occupies on a line.
	Width() int
	node()
}

// Binding locates the Go value a node reads and writes, relative to the
// struct value of the enclosing record.
type Binding struct {
	Index []int        // struct field index path; nil for occurrence items
	Type  reflect.Type // declared Go type of the bound field or element
}

// RecordNode is a composite of ordered children. Its accessor is empty for
// the root of a tree.
type RecordNode struct {
	Accessor string
	Type     reflect.Type // struct type backing the record
	Binding  Binding
	children []Node
	width    int
}

// Children returns the ordered children. The slice must not be modified.
func (n *RecordNode) Children() []Node { return n.children }

// Width implements Node.
func (n *RecordNode) Width() int { return n.width }

func (*RecordNode) node() {}

// FragmentNode is a single scalar slot.
type FragmentNode struct {
	Accessor  string
	Length    int
	Padder    rune
	Alignment Alignment
	Format    string
	Optional  bool
	Handler   types.Handler
	Binding   Binding
	// Owner is the struct type declaring the field; Owner and Accessor
	// together identify the field in messages.
	Owner reflect.Type
}

// Width implements Node.
func (n *FragmentNode) Width() int { return n.Length }

// Identity returns the qualified field name, such as "bank.Payment.Amount".
func (n *FragmentNode) Identity() string {
	if n.Owner == nil {
		return n.Accessor
	}
	return n.Owner.String() + "." + n.Accessor
}

func (*FragmentNode) node() {}

// FillerNode is a literal zone. It has no accessor and no binding.
type FillerNode struct {
	Length int
	Padder rune
}

// Width implements Node.
func (n *FillerNode) Width() int { return n.Length }

func (*FillerNode) node() {}

// OccurrenceNode repeats Item Count times. Repetition i is addressed as
// Accessor[i].
type OccurrenceNode struct {
	Accessor string
	Count    int
	Item     Node
	Binding  Binding
}

// Width implements Node.
func (n *OccurrenceNode) Width() int { return n.Count * n.Item.Width() }

func (*OccurrenceNode) node() {}
