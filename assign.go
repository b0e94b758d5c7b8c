package cwrap

import (
	"reflect"
	"runtime"
	"sort"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
)

// Assign sets the whole object from value and returns the object.
//
//   - nil is a no-op.
//   - A map with string keys assigns record members one by one, in sorted
//     key order. A slice assigns array elements from index 1 up to the first
//     nil. A failing member write leaves earlier writes in place.
//   - A string or []byte is copied into an array, truncated to its size,
//     without clearing the remainder.
//   - An *Object of the same descriptor is copied byte for byte together
//     with the anchors inside its span. Any other descriptor is
//     ErrIncompatible.
//   - A number is stored through the setter of a basic object.
func (o *Object) Assign(value any) (*Object, error) {
	defer o.rt.leave(o.rt.enter("assign"))
	defer runtime.KeepAlive(o)
	return o.assign(value)
}

// Dup returns a boxed copy of the object, including its anchors.
func (o *Object) Dup() (*Object, error) {
	defer o.rt.leave(o.rt.enter("dup"))
	defer runtime.KeepAlive(o)
	return o.rt.newBoxed(o.desc, o)
}

func (o *Object) assign(value any) (*Object, error) {
	if o.h.done.Load() {
		return o, errors.Released(errors.PhaseAssign, o.desc.name)
	}
	if value == nil {
		return o, nil
	}

	d := o.desc
	switch v := value.(type) {
	case *Object:
		return o, o.copyFrom(v)
	case string:
		return o, o.assignBytes([]byte(v))
	case []byte:
		return o, o.assignBytes(v)
	}

	if abi.IsNumber(value) {
		if d.class == ClassBasic {
			return o, o.write(0, d, value)
		}
		return o, errors.Unsupported(errors.PhaseAssign, d.name, "assigning a number to a "+d.class.String())
	}

	if keys, get, ok := mapInit(value); ok {
		switch d.class {
		case ClassRecord:
			for _, k := range keys {
				if err := o.set(k, get(k)); err != nil {
					return o, err
				}
			}
			return o, nil
		case ClassArray:
			return o, errors.New(errors.PhaseAssign, errors.KindInvalidInput).
				HostType(abi.TypeName(value)).
				TypeName(d.name).
				Detail("array initializer must be a slice").
				Build()
		}
		return o, errors.Unsupported(errors.PhaseAssign, d.name, "setting a "+d.class.String()+" from an aggregate")
	}

	if elems, ok := sliceInit(value); ok {
		switch d.class {
		case ClassRecord, ClassArray:
			for i, e := range elems {
				if e == nil {
					break
				}
				if err := o.set(i+1, e); err != nil {
					return o, err
				}
			}
			return o, nil
		}
		return o, errors.Unsupported(errors.PhaseAssign, d.name, "setting a "+d.class.String()+" from an aggregate")
	}

	return o, errors.TypeMismatch(errors.PhaseAssign, nil, abi.TypeName(value), d.name)
}

// assignBytes copies a byte sequence into an array without zero padding.
func (o *Object) assignBytes(src []byte) error {
	if o.desc.class != ClassArray {
		return errors.Unsupported(errors.PhaseAssign, o.desc.name, "assigning a byte sequence to a "+o.desc.class.String())
	}
	data, err := o.bytes(errors.PhaseAssign)
	if err != nil {
		return err
	}
	copy(data, src)
	return nil
}

// copyFrom copies src's bytes and the anchors within its span.
func (o *Object) copyFrom(src *Object) error {
	defer runtime.KeepAlive(src)
	if src.desc != o.desc {
		return errors.Incompatible(o.desc.name, src.desc.name)
	}
	from, err := src.bytes(errors.PhaseAssign)
	if err != nil {
		return err
	}
	to, err := o.bytes(errors.PhaseAssign)
	if err != nil {
		return err
	}
	copy(to, from)
	copyAnchors(o, src)
	return nil
}

// copyAnchors copies the anchors inside src's span to the same relative
// offsets in dst, replacing dst's anchors in that span.
func copyAnchors(dst, src *Object) int {
	size := src.desc.Size()
	n := dst.h.blk.anchors.CopyFrom(&src.h.blk.anchors, src.abs(), size, dst.abs())
	if n > 0 {
		debugf("copied %d anchors %s -> %s", n, src.desc.name, dst.desc.name)
	}
	return n
}

// mapInit returns the sorted keys of a map with string keys and an accessor
// for its values.
func mapInit(value any) ([]string, func(string) any, bool) {
	if m, ok := value.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) any { return m[k] }, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	kt := rv.Type().Key()
	return keys, func(k string) any {
		return rv.MapIndex(reflect.ValueOf(k).Convert(kt)).Interface()
	}, true
}

// sliceInit returns the elements of a slice or array initializer.
func sliceInit(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
