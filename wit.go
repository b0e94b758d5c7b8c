package cwrap

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/layout"
)

// RegisterWIT registers a type laid out the way the Canonical ABI stores t in
// linear memory, for views onto a wasm guest's memory.
//
// Records and tuples become record types, with nested records registered as
// "name.field" and tuple members named "1", "2", ... Strings and lists are
// records of two $u32 members, ptr and len. Enums and flags map to unsigned
// scalars. Variants, options and results are opaque buffers of their full
// size.
func (r *Runtime) RegisterWIT(name string, t wit.Type) (*Type, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "nil wit type")
	}

	var descs []*Descriptor
	calc := layout.NewCalculator()
	if _, err := r.witType(calc, name, t, &descs, true); err != nil {
		return nil, err
	}
	if err := r.registerAll(descs); err != nil {
		return nil, err
	}
	return r.Lookup(name)
}

func (r *Runtime) witType(calc *layout.Calculator, name string, t wit.Type, out *[]*Descriptor, top bool) (string, error) {
	info := calc.Calculate(t)

	var d *Descriptor
	switch info.Shape {
	case layout.ShapeScalar:
		if !top {
			return info.Scalar, nil
		}
		// a named alias of a scalar
		sd, err := r.Resolve(info.Scalar)
		if err != nil {
			return "", err
		}
		d = BasicDescriptor(name, sd.size, sd.get, sd.set)
	case layout.ShapeRecord, layout.ShapeSlice:
		members := make([]Member, 0, len(info.Fields))
		for _, f := range info.Fields {
			if calc.Calculate(f.Type).Size == 0 {
				continue
			}
			tn, err := r.witType(calc, name+"."+f.Name, f.Type, out, false)
			if err != nil {
				return "", errors.WithPath(err, f.Name)
			}
			members = append(members, Member{Name: f.Name, TypeName: tn, Offset: f.Offset})
		}
		d = RecordDescriptor(name, info.Size, members)
	default:
		d = BufferDescriptor(name, info.Size)
	}

	d.dynamic = true
	*out = append(*out, d)
	return name, nil
}
