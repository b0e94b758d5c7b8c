package cwrap

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
	"github.com/wippyai/cwrap/memory"
)

// PointerSize is the size of the $ptr type.
const PointerSize = uint32(unsafe.Sizeof(uintptr(0)))

// numeric describes one builtin C scalar.
type numeric struct {
	name   string
	size   uint32
	signed bool
	float  bool
}

// Builtin scalars use C layout on LP64 targets: int is 4 bytes, long 8.
var numerics = []numeric{
	{name: "$i8", size: 1, signed: true},
	{name: "$u8", size: 1},
	{name: "$i16", size: 2, signed: true},
	{name: "$u16", size: 2},
	{name: "$i32", size: 4, signed: true},
	{name: "$u32", size: 4},
	{name: "$i64", size: 8, signed: true},
	{name: "$u64", size: 8},
	{name: "$int", size: 4, signed: true},
	{name: "$uint", size: 4},
	{name: "$long", size: 8, signed: true},
	{name: "$ulong", size: 8},
	{name: "$flt", size: 4, float: true},
	{name: "$dbl", size: 8, float: true},
}

func registerBuiltins(r *Runtime) {
	for _, n := range numerics {
		r.mustRegister(BasicDescriptor(n.name, n.size, n.getter(), n.setter()))
	}
	r.mustRegister(BasicDescriptor("$ptr", PointerSize, getPointer, setPointer))
	r.mustRegister(BasicDescriptor("$ref", 4, getReference, setReference))
}

func (r *Runtime) mustRegister(d *Descriptor) {
	if _, err := r.register(d); err != nil {
		panic(err)
	}
}

// getter returns int64 for signed, uint64 for unsigned and float64 for
// floating point scalars.
func (n numeric) getter() Getter {
	return func(c Cell) (any, error) {
		u := loadUint(c.Data)
		switch {
		case n.float && n.size == 4:
			return float64(math.Float32frombits(uint32(u))), nil
		case n.float:
			return math.Float64frombits(u), nil
		case n.signed:
			shift := 64 - 8*n.size
			return int64(u<<shift) >> shift, nil
		}
		return u, nil
	}
}

// setter converts with C cast semantics: integers wrap, floats truncate
// toward zero. nil stores zero.
func (n numeric) setter() Setter {
	return func(c Cell, value any) error {
		if p, ok := value.(Pointer); ok {
			value = uint64(p)
		}
		if value == nil {
			value = 0
		}
		if !abi.IsNumber(value) {
			return errors.TypeMismatch(errors.PhaseWrite, nil, abi.TypeName(value), n.name)
		}

		var u uint64
		switch {
		case n.float && n.size == 4:
			f, _ := abi.CoerceToFloat64(value)
			u = uint64(math.Float32bits(float32(f)))
		case n.float:
			f, _ := abi.CoerceToFloat64(value)
			u = math.Float64bits(f)
		case n.signed:
			i, _ := abi.CoerceToInt64(value)
			u = uint64(i)
		default:
			u, _ = abi.CoerceToUint64(value)
		}
		storeUint(c.Data, u)
		return nil
	}
}

func loadUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.NativeEndian.Uint16(b))
	case 4:
		return uint64(binary.NativeEndian.Uint32(b))
	case 8:
		return binary.NativeEndian.Uint64(b)
	}
	return 0
}

func storeUint(b []byte, u uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(u)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(u))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(u))
	case 8:
		binary.NativeEndian.PutUint64(b, u)
	}
}

// setPointer stores the address of value and anchors value at the field,
// so it stays alive and reads back as itself. Numbers and nil store a raw
// address and clear the anchor.
func setPointer(c Cell, value any) error {
	var (
		addr   uint64
		anchor any
	)
	switch v := value.(type) {
	case nil:
	case Pointer:
		addr = uint64(v)
	case string:
		// C strings are NUL terminated
		buf := append([]byte(v), 0)
		addr = memory.AddressOf(buf)
		anchor = pinned{value: v, keep: buf}
	case []byte:
		addr = memory.AddressOf(v)
		anchor = v
	case *Object:
		if v == nil {
			break
		}
		if v.Released() {
			return errors.Released(errors.PhaseWrite, v.desc.name)
		}
		addr = v.Addr()
		anchor = v
	case Address:
		addr = v.Ptr
		anchor = v
	case *Reference:
		addr = uint64(uint32(v.Ref()))
		anchor = v
	default:
		if !abi.IsNumber(value) {
			return errors.TypeMismatch(errors.PhaseWrite, nil, abi.TypeName(value), "$ptr")
		}
		addr, _ = abi.CoerceToUint64(value)
	}

	storeUint(c.Data, addr)
	c.SetAnchor(anchor)
	return nil
}

// getPointer returns the anchored value, or the raw address when nothing
// is anchored.
func getPointer(c Cell) (any, error) {
	if v, ok := c.Anchor(); ok {
		return v, nil
	}
	raw := loadUint(c.Data)
	if raw == 0 {
		return nil, nil
	}
	return Pointer(raw), nil
}

// setReference captures value in the runtime's reference table and stores
// the handle. The capture outlives the field until released explicitly.
func setReference(c Cell, value any) error {
	var h int32
	switch v := value.(type) {
	case nil:
	case *Reference:
		h = v.Ref()
	default:
		rt := c.Runtime()
		if rt == nil {
			return errors.InvalidInput(errors.PhaseWrite, "capture needs a runtime")
		}
		ref, err := rt.CreateReference(value)
		if err != nil {
			return err
		}
		h = ref
	}
	storeUint(c.Data, uint64(uint32(h)))
	return nil
}

func getReference(c Cell) (any, error) {
	h := int32(loadUint(c.Data))
	if h == 0 {
		return nil, nil
	}
	rt := c.Runtime()
	if rt == nil {
		return nil, errors.InvalidInput(errors.PhaseRead, "capture needs a runtime")
	}
	return rt.PushReference(h), nil
}
