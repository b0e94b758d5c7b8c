package cwrap

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
)

// RegisterBasic registers a runtime-created basic type.
func (r *Runtime) RegisterBasic(name string, size uint32, get Getter, set Setter) (*Type, error) {
	if get == nil || set == nil {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			TypeName(name).
			Detail("basic type needs a getter and a setter").
			Build()
	}
	d := BasicDescriptor(name, size, get, set)
	d.dynamic = true
	return r.register(d)
}

// RegisterRecord registers a runtime-created record type. Member types are
// resolved on first access, so members may name types registered later.
func (r *Runtime) RegisterRecord(name string, size uint32, members []Member) (*Type, error) {
	d := RecordDescriptor(name, size, members)
	d.dynamic = true
	return r.register(d)
}

// RegisterArray registers a runtime-created array type. The element type
// must already be registered.
func (r *Runtime) RegisterArray(name string, count uint32, elemType string) (*Type, error) {
	d := ArrayDescriptor(name, count, elemType)
	d.dynamic = true
	return r.register(d)
}

// RegisterBuffer registers a runtime-created buffer type.
func (r *Runtime) RegisterBuffer(name string, size uint32) (*Type, error) {
	d := BufferDescriptor(name, size)
	d.dynamic = true
	return r.register(d)
}

// RegisterType registers a descriptor built with one of the Descriptor
// constructors. Such descriptors are static: they are not reference counted
// and live as long as the caller keeps them.
func (r *Runtime) RegisterType(d *Descriptor) (*Type, error) {
	if d == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "nil descriptor")
	}
	if d.rt != nil {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			TypeName(d.name).
			Detail("descriptor already registered with a runtime").
			Build()
	}
	return r.register(d)
}

func (r *Runtime) register(d *Descriptor) (*Type, error) {
	defer r.leave(r.enter("register"))

	if d.name == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "empty type name")
	}

	switch d.class {
	case ClassArray:
		if d.elemName == "" {
			return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				TypeName(d.name).
				Detail("array needs an element type").
				Build()
		}
		elem, err := r.Resolve(d.elemName)
		if err != nil {
			return nil, errors.WithPath(err, d.name)
		}
		d.elemSize = elem.Size()
		d.elem.Store(elem)
		if _, ok := abi.SafeMulU32(d.count, d.elemSize); !ok {
			return nil, errors.Overflow(errors.PhaseRegister, nil, uint64(d.count)*uint64(d.elemSize), d.name)
		}
	case ClassRecord:
		for _, m := range d.members {
			if m.Name == "" || m.TypeName == "" {
				return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
					TypeName(d.name).
					Detail("member needs a name and a type").
					Build()
			}
			if m.Offset >= d.size {
				return nil, errors.New(errors.PhaseRegister, errors.KindOutOfBounds).
					Path(d.name, m.Name).
					TypeName(d.name).
					Detail("member offset %d outside record of %d bytes", m.Offset, d.size).
					Build()
			}
			// members of unregistered types are checked when first resolved
			if md, err := r.Resolve(m.TypeName); err == nil {
				if err := d.checkMember(errors.PhaseRegister, m, md); err != nil {
					return nil, err
				}
			}
		}
	}

	if size := uint64(d.Size()); size > uint64(r.maxSize) {
		return nil, errors.AllocationFailed(d.name, size, r.maxSize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.Released(errors.PhaseRegister, d.name)
	}
	if _, ok := r.types[d.name]; ok {
		return nil, errors.DuplicateType(d.name)
	}

	d.rt = r
	t := &Type{rt: r, desc: d}
	r.types[d.name] = t
	if d.dynamic {
		// the registry's hold
		d.refs.Store(1)
		r.stats.descriptors.Add(1)
	}

	r.log.Debug("type registered", zapType(d), zap.Stringer("class", d.class), zap.Uint32("size", d.Size()))
	return t, nil
}

// Resolve returns the descriptor registered under name.
func (r *Runtime) Resolve(name string) (*Descriptor, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.desc, nil
}

// Lookup returns the type registered under name.
func (r *Runtime) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownType(errors.PhaseResolve, name)
	}
	return t, nil
}

// Unregister removes a type from the registry. A dynamic descriptor is freed
// once every object using it has been released too.
func (r *Runtime) Unregister(name string) error {
	r.mu.Lock()
	t, ok := r.types[name]
	if ok {
		delete(r.types, name)
		for size, bt := range r.buffers {
			if bt == t {
				delete(r.buffers, size)
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return errors.UnknownType(errors.PhaseRegister, name)
	}
	r.log.Debug("type unregistered", zapType(t.desc))
	t.desc.release()
	return nil
}

// Types returns the registered type names in sorted order.
func (r *Runtime) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BufferType returns the buffer type of the given size, registering it as
// "$buf<size>" on first use.
func (r *Runtime) BufferType(size uint32) (*Type, error) {
	r.mu.RLock()
	t, ok := r.buffers[size]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	name := "$buf" + strconv.FormatUint(uint64(size), 10)
	t, err := r.Lookup(name)
	if err != nil {
		if t, err = r.RegisterBuffer(name, size); err != nil {
			return nil, err
		}
	} else if t.desc.class != ClassBuffer || t.desc.size != size {
		return nil, errors.DuplicateType(name)
	}

	r.mu.Lock()
	r.buffers[size] = t
	r.mu.Unlock()
	return t, nil
}

// CreateBuffer returns a new zeroed boxed buffer of size bytes.
func (r *Runtime) CreateBuffer(size uint32) (*Object, error) {
	t, err := r.BufferType(size)
	if err != nil {
		return nil, err
	}
	return t.New(nil)
}

// registerAll registers descs in order, dependencies first. If one fails the
// ones already registered are removed again.
func (r *Runtime) registerAll(descs []*Descriptor) error {
	for i, d := range descs {
		if _, err := r.register(d); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = r.Unregister(descs[j].name)
			}
			return err
		}
	}
	return nil
}
