package layout

import "go.bytecodealliance.org/wit"

// Shape tells how a WIT type maps onto a memory descriptor.
type Shape uint8

const (
	// ShapeOpaque types are exposed as a fixed-size byte buffer.
	ShapeOpaque Shape = iota
	// ShapeScalar types map to a builtin numeric scalar named by Info.Scalar.
	ShapeScalar
	// ShapeRecord types (records and tuples) become a record descriptor.
	ShapeRecord
	// ShapeSlice types (strings and lists) are a {ptr, len} pair of u32.
	ShapeSlice
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeRecord:
		return "record"
	case ShapeSlice:
		return "slice"
	}
	return "opaque"
}

// Field is one laid-out member of a record or tuple.
type Field struct {
	Type   wit.Type
	Name   string
	Offset uint32
}

// Info is the memory layout of one type.
type Info struct {
	Scalar string
	Fields []Field
	Size   uint32
	Align  uint32
	Shape  Shape
}

// Offset returns the offset of the named field.
func (i Info) Offset(name string) (uint32, bool) {
	for _, f := range i.Fields {
		if f.Name == name {
			return f.Offset, true
		}
	}
	return 0, false
}
