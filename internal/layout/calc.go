package layout

import (
	"strconv"

	"github.com/wippyai/cwrap/internal/abi"
	"go.bytecodealliance.org/wit"
)

// Calculator computes layouts and memoizes them per type definition.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.Bool, wit.U8:
		return scalar("$u8", 1)
	case wit.S8:
		return scalar("$i8", 1)
	case wit.U16:
		return scalar("$u16", 2)
	case wit.S16:
		return scalar("$i16", 2)
	case wit.U32, wit.Char:
		return scalar("$u32", 4)
	case wit.S32:
		return scalar("$i32", 4)
	case wit.F32:
		return scalar("$flt", 4)
	case wit.U64:
		return scalar("$u64", 8)
	case wit.S64:
		return scalar("$i64", 8)
	case wit.F64:
		return scalar("$dbl", 8)
	case wit.String:
		return slice()
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func scalar(name string, size uint32) Info {
	return Info{Shape: ShapeScalar, Scalar: name, Size: size, Align: size}
}

// slice is the in-memory [ptr: u32, len: u32] pair of strings and lists.
func slice() Info {
	return Info{
		Shape: ShapeSlice,
		Size:  8,
		Align: 4,
		Fields: []Field{
			{Name: "ptr", Type: wit.U32{}, Offset: 0},
			{Name: "len", Type: wit.U32{}, Offset: 4},
		},
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		names := make([]string, len(kind.Fields))
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			names[i] = f.Name
			types[i] = f.Type
		}
		info = c.sequence(names, types)
	case *wit.Tuple:
		names := make([]string, len(kind.Types))
		for i := range kind.Types {
			names[i] = strconv.Itoa(i + 1)
		}
		info = c.sequence(names, kind.Types)
	case *wit.List:
		info = slice()
	case *wit.Enum:
		info = c.calculateEnum(kind)
	case *wit.Flags:
		info = c.calculateFlags(kind)
	case *wit.Variant:
		info = c.calculateVariant(kind)
	case *wit.Option:
		info = c.calculateOption(kind)
	case *wit.Result:
		info = c.calculateResult(kind)
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

// sequence lays out record fields and tuple elements.
func (c *Calculator) sequence(names []string, types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Shape: ShapeRecord, Size: 0, Align: 1}
	}

	fields := make([]Field, len(types))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, typ := range types {
		fieldLayout := c.Calculate(typ)

		offset = abi.AlignTo(offset, fieldLayout.Align)
		fields[i] = Field{Name: names[i], Type: typ, Offset: offset}

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	return Info{
		Shape:  ShapeRecord,
		Size:   abi.AlignTo(offset, maxAlign),
		Align:  maxAlign,
		Fields: fields,
	}
}

func (c *Calculator) calculateEnum(e *wit.Enum) Info {
	switch abi.DiscriminantSize(len(e.Cases)) {
	case 1:
		return scalar("$u8", 1)
	case 2:
		return scalar("$u16", 2)
	}
	return scalar("$u32", 4)
}

func (c *Calculator) calculateFlags(f *wit.Flags) Info {
	numFlags := len(f.Flags)

	switch {
	case numFlags == 0:
		return Info{Size: 0, Align: 1}
	case numFlags <= 8:
		return scalar("$u8", 1)
	case numFlags <= 16:
		return scalar("$u16", 2)
	case numFlags <= 32:
		return scalar("$u32", 4)
	case numFlags <= 64:
		return scalar("$u64", 8)
	}

	// >64 flags: a run of u32 words, kept opaque
	numU32s := (numFlags + 31) / 32
	return Info{Size: uint32(numU32s * 4), Align: 4}
}

// payload lays out a discriminant followed by the largest of cases.
func (c *Calculator) payload(discSize uint32, cases []wit.Type) Info {
	maxAlign := discSize
	maxSize := uint32(0)

	for _, typ := range cases {
		if typ == nil {
			continue
		}
		caseLayout := c.Calculate(typ)
		if caseLayout.Align > maxAlign {
			maxAlign = caseLayout.Align
		}
		if caseLayout.Size > maxSize {
			maxSize = caseLayout.Size
		}
	}

	payloadOffset := abi.AlignTo(discSize, maxAlign)
	return Info{
		Size:  abi.AlignTo(payloadOffset+maxSize, maxAlign),
		Align: maxAlign,
	}
}

func (c *Calculator) calculateVariant(v *wit.Variant) Info {
	if len(v.Cases) == 0 {
		return Info{Size: 0, Align: 1}
	}
	cases := make([]wit.Type, len(v.Cases))
	for i, cs := range v.Cases {
		cases[i] = cs.Type
	}
	return c.payload(abi.DiscriminantSize(len(v.Cases)), cases)
}

func (c *Calculator) calculateOption(o *wit.Option) Info {
	return c.payload(1, []wit.Type{o.Type})
}

func (c *Calculator) calculateResult(r *wit.Result) Info {
	return c.payload(1, []wit.Type{r.OK, r.Err})
}
