package cwrap

import (
	"runtime"
	"strconv"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
)

// Reserved member names available on objects.
const (
	// KeyPtr returns the object's physical address on every class.
	KeyPtr = "__ptr"
	// KeyDup returns a Method duplicating a record object.
	KeyDup = "__dup"
	// KeyGet and KeySet return accessor Methods on basic and buffer objects.
	KeyGet = "get"
	KeySet = "set"
)

// Get reads a member of a record, an element of an array, or a reserved
// key. Reads are permissive: an unknown record member or an out of range
// array index yields nil without an error.
//
// Basic members and elements are converted to host values, buffers to a
// copy of their bytes, and record or array members to a new view chained
// to the same owner.
func (o *Object) Get(key any) (any, error) {
	defer o.rt.leave(o.rt.enter("get"))
	defer runtime.KeepAlive(o)
	return o.get(key)
}

// Member reads a record member or reserved key and reports an unknown name
// as an error instead of nil.
func (o *Object) Member(name string) (any, error) {
	defer o.rt.leave(o.rt.enter("member"))
	defer runtime.KeepAlive(o)
	v, err := o.get(name)
	if err != nil || v != nil {
		return v, err
	}
	if o.desc.class == ClassRecord && o.desc.findMember(name) == nil {
		if _, ok := o.method(name); !ok && name != KeyDup && name != KeyPtr {
			return nil, errors.UnknownMember(errors.PhaseRead, []string{name}, o.desc.name, name)
		}
	}
	return nil, nil
}

// Set writes a record member or an array element. Writes are strict: an
// unknown record member is ErrUnknownMember and an index outside 1..Len()
// is ErrOutOfBounds.
func (o *Object) Set(key, value any) error {
	defer o.rt.leave(o.rt.enter("set"))
	defer runtime.KeepAlive(o)
	return o.set(key, value)
}

func (o *Object) get(key any) (any, error) {
	if o.h.done.Load() {
		return nil, errors.Released(errors.PhaseRead, o.desc.name)
	}

	d := o.desc
	name, named := keyName(key)

	switch d.class {
	case ClassRecord:
		if !named {
			break
		}
		if m := d.findMember(name); m != nil {
			md, err := d.memberType(m)
			if err != nil {
				return nil, errors.WithPath(err, name)
			}
			v, err := o.read(m.Offset, md)
			return v, errors.WithPath(err, name)
		}
		if name == KeyDup {
			return Method(func(...any) (any, error) { return o.Dup() }), nil
		}
		if fn, ok := o.method(name); ok {
			return fn, nil
		}
	case ClassArray:
		if _, isString := key.(string); isString {
			break
		}
		idx, ok := keyIndex(key)
		if !ok {
			break
		}
		ed, err := d.elemType()
		if err != nil {
			return nil, err
		}
		if idx < 1 || idx > int64(d.count) {
			return nil, nil
		}
		v, err := o.read(uint32(idx-1)*d.elemSize, ed)
		return v, errors.WithPath(err, strconv.FormatInt(idx, 10))
	case ClassBasic, ClassBuffer:
		switch name {
		case KeyGet:
			return Method(func(...any) (any, error) { return o.Value() }), nil
		case KeySet:
			return Method(func(args ...any) (any, error) {
				if len(args) != 1 {
					return nil, errors.InvalidInput(errors.PhaseWrite, "set expects exactly one value")
				}
				return o, o.SetValue(args[0])
			}), nil
		}
	}

	if named && name == KeyPtr {
		return o.Pointer(), nil
	}
	return nil, nil
}

// method returns a user method bound to o.
func (o *Object) method(name string) (Method, bool) {
	if o.typ == nil {
		return nil, false
	}
	fn, ok := o.typ.Method(name)
	if !ok {
		return nil, false
	}
	return func(args ...any) (any, error) { return fn(o, args...) }, true
}

func (o *Object) set(key, value any) error {
	if o.h.done.Load() {
		return errors.Released(errors.PhaseWrite, o.desc.name)
	}

	d := o.desc
	switch d.class {
	case ClassRecord:
		name, _ := keyName(key)
		m := d.findMember(name)
		if m == nil {
			return errors.UnknownMember(errors.PhaseWrite, []string{name}, d.name, name)
		}
		md, err := d.memberType(m)
		if err != nil {
			return errors.WithPath(err, name)
		}
		return errors.WithPath(o.write(m.Offset, md, value), name)
	case ClassArray:
		idx, ok := keyIndex(key)
		if !ok {
			return errors.New(errors.PhaseWrite, errors.KindInvalidInput).
				HostType(abi.TypeName(key)).
				TypeName(d.name).
				Detail("integer index expected").
				Build()
		}
		if idx < 1 || idx > int64(d.count) {
			return errors.OutOfBounds(errors.PhaseWrite, nil, int(idx), int(d.count))
		}
		ed, err := d.elemType()
		if err != nil {
			return err
		}
		pos := strconv.FormatInt(idx, 10)
		return errors.WithPath(o.write(uint32(idx-1)*d.elemSize, ed, value), pos)
	}
	return errors.Unsupported(errors.PhaseWrite, d.name, "basic and buffer objects have no members, use the set method")
}

// read converts the member of type d at rel bytes into o.
func (o *Object) read(rel uint32, d *Descriptor) (any, error) {
	abs := o.abs() + rel
	switch d.class {
	case ClassBasic:
		data, err := o.h.blk.view(errors.PhaseRead, abs, d.size)
		if err != nil {
			return nil, err
		}
		return d.get(Cell{Data: data, Offset: abs, blk: o.h.blk})
	case ClassBuffer:
		data, err := o.h.blk.view(errors.PhaseRead, abs, d.size)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}
	v, err := o.embed(abs, d)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// write stores value into the member of type d at rel bytes into o.
func (o *Object) write(rel uint32, d *Descriptor, value any) error {
	abs := o.abs() + rel
	switch d.class {
	case ClassBasic:
		data, err := o.h.blk.view(errors.PhaseWrite, abs, d.size)
		if err != nil {
			return err
		}
		return d.set(Cell{Data: data, Offset: abs, blk: o.h.blk}, value)
	case ClassBuffer:
		data, err := o.h.blk.view(errors.PhaseWrite, abs, d.size)
		if err != nil {
			return err
		}
		return fillBuffer(data, value, d.name)
	}

	v, err := o.embed(abs, d)
	if err != nil {
		return err
	}
	defer v.Release()
	_, err = v.assign(value)
	return err
}

// fillBuffer copies a byte sequence into data, truncating it to the buffer
// size and zeroing the remainder. Numbers are stored as their decimal text.
func fillBuffer(data []byte, value any, typeName string) error {
	var n int
	switch v := value.(type) {
	case nil:
	case string:
		n = copy(data, v)
	case []byte:
		n = copy(data, v)
	default:
		s, ok := numberText(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseWrite, nil, abi.TypeName(value), typeName)
		}
		n = copy(data, s)
	}
	clear(data[n:])
	return nil
}

// Value returns the host value of a basic or buffer object. Record and
// array objects return themselves.
func (o *Object) Value() (any, error) {
	defer o.rt.leave(o.rt.enter("value"))
	defer runtime.KeepAlive(o)
	if o.h.done.Load() {
		return nil, errors.Released(errors.PhaseRead, o.desc.name)
	}
	switch o.desc.class {
	case ClassBasic, ClassBuffer:
		return o.read(0, o.desc)
	}
	return o, nil
}

// SetValue stores a host value into a basic or buffer object. For record
// and array objects it is Assign.
func (o *Object) SetValue(value any) error {
	defer o.rt.leave(o.rt.enter("setvalue"))
	defer runtime.KeepAlive(o)
	if o.h.done.Load() {
		return errors.Released(errors.PhaseWrite, o.desc.name)
	}
	switch o.desc.class {
	case ClassBasic, ClassBuffer:
		return o.write(0, o.desc, value)
	}
	_, err := o.assign(value)
	return err
}

// keyName converts a member key to a name. Integer keys name tuple-like
// members "1", "2", ...
func keyName(key any) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case nil:
		return "", false
	}
	if i, ok := keyIndex(key); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

// keyIndex converts an integer key to an array index.
func keyIndex(key any) (int64, bool) {
	switch key.(type) {
	case string, bool, nil:
		return 0, false
	}
	return abi.CoerceToInt64(key)
}
