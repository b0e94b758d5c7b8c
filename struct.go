package cwrap

import (
	"math"
	"reflect"

	"github.com/wippyai/cwrap/errors"
)

var pointerType = reflect.TypeOf(Pointer(0))

// RegisterStruct registers a record type whose layout is that of the Go
// struct t, which must match the C declaration it mirrors.
//
// Fixed-size fields map to the builtin scalars, pointers and Pointer to
// $ptr. Nested structs and arrays are registered as well, under
// "name.field"; array elements that are structs under "name.field[]".
// A `cwrap:"alias"` tag renames a member and `cwrap:"-"` or a blank name
// skips it. Strings, slices, maps and other Go-managed kinds are rejected.
func (r *Runtime) RegisterStruct(name string, t reflect.Type) (*Type, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "nil struct type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var descs []*Descriptor
	if err := structDescriptors(name, t, &descs); err != nil {
		return nil, err
	}
	if err := r.registerAll(descs); err != nil {
		return nil, err
	}
	return r.Lookup(name)
}

func structDescriptors(name string, t reflect.Type, out *[]*Descriptor) error {
	if t.Kind() != reflect.Struct {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			HostType(t.String()).
			TypeName(name).
			Detail("struct type expected").
			Build()
	}
	if t.Size() > math.MaxUint32 {
		return errors.Overflow(errors.PhaseRegister, nil, t.Size(), name)
	}

	members := make([]Member, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		mname := f.Name
		if tag, ok := f.Tag.Lookup("cwrap"); ok {
			if tag == "-" {
				continue
			}
			mname = tag
		}
		if mname == "_" || f.Type.Size() == 0 {
			continue
		}

		tn, err := fieldType(name+"."+mname, f.Type, out)
		if err != nil {
			return errors.WithPath(err, mname)
		}
		members = append(members, Member{Name: mname, TypeName: tn, Offset: uint32(f.Offset)})
	}

	d := RecordDescriptor(name, uint32(t.Size()), members)
	d.dynamic = true
	*out = append(*out, d)
	return nil
}

// fieldType returns the type name for a struct field of type t, adding
// descriptors for nested aggregates to out.
func fieldType(name string, t reflect.Type, out *[]*Descriptor) (string, error) {
	if t == pointerType {
		return "$ptr", nil
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Uint8:
		return "$u8", nil
	case reflect.Int8:
		return "$i8", nil
	case reflect.Int16:
		return "$i16", nil
	case reflect.Uint16:
		return "$u16", nil
	case reflect.Int32:
		return "$i32", nil
	case reflect.Uint32:
		return "$u32", nil
	case reflect.Int64:
		return "$i64", nil
	case reflect.Uint64:
		return "$u64", nil
	case reflect.Int:
		if t.Size() == 8 {
			return "$i64", nil
		}
		return "$i32", nil
	case reflect.Uint, reflect.Uintptr:
		if t.Size() == 8 {
			return "$u64", nil
		}
		return "$u32", nil
	case reflect.Float32:
		return "$flt", nil
	case reflect.Float64:
		return "$dbl", nil
	case reflect.Pointer, reflect.UnsafePointer:
		return "$ptr", nil
	case reflect.Struct:
		if err := structDescriptors(name, t, out); err != nil {
			return "", err
		}
		return name, nil
	case reflect.Array:
		elem, err := fieldType(name+"[]", t.Elem(), out)
		if err != nil {
			return "", err
		}
		d := ArrayDescriptor(name, uint32(t.Len()), elem)
		d.dynamic = true
		*out = append(*out, d)
		return name, nil
	}

	return "", errors.New(errors.PhaseRegister, errors.KindUnsupported).
		HostType(t.String()).
		TypeName(name).
		Detail("field of kind %s has no C layout", t.Kind()).
		Build()
}
