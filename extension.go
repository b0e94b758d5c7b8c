package cwrap

import (
	"github.com/wippyai/cwrap/errors"
)

// ExtensionVersion is the version of the Extension function table.
const ExtensionVersion = 2

// Extension is the function table offered to code that extends a runtime
// with its own types, such as generated bindings. Consumers check Version
// with Require before using any field.
type Extension struct {
	RegisterBasic    func(d *Descriptor) (*Type, error)
	RegisterType     func(d *Descriptor) (*Type, error)
	CheckType        func(obj *Object, d *Descriptor) (uint64, error)
	PushTypedPointer func(d *Descriptor, addr uint64) (*Object, error)
	PushBoxedObject  func(d *Descriptor, fill int) (*Object, error)
	CreateReference  func(value any) (int32, error)
	PushReference    func(ref int32) *Reference
	DefineConstants  func(constants map[string]uint32) error
	Descriptor       func(obj *Object) *Descriptor
	DescriptorByName func(name string) (*Descriptor, error)
	Anchor           func(obj *Object, offset uint32) (any, bool)
	SetAnchor        func(obj *Object, offset uint32, value any) error
	RemoveAnchor     func(obj *Object, offset uint32) error
	CopyAnchors      func(dst, src *Object) (int, error)
	BaseAddress      func(obj *Object) (uint64, error)
	Version          int
}

// Require fails with ErrVersion unless the table has the given version.
func (e *Extension) Require(version int) error {
	if e == nil {
		return errors.VersionMismatch(version, 0)
	}
	if e.Version != version {
		return errors.VersionMismatch(version, e.Version)
	}
	return nil
}

// Extension returns the runtime's extension function table.
func (r *Runtime) Extension() *Extension {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ext == nil {
		r.ext = &Extension{
			Version: ExtensionVersion,
			RegisterBasic: func(d *Descriptor) (*Type, error) {
				if d != nil && d.class != ClassBasic {
					return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
						TypeName(d.name).
						Detail("expected a basic descriptor, got %s", d.class).
						Build()
				}
				return r.RegisterType(d)
			},
			RegisterType:     r.RegisterType,
			CheckType:        r.CheckType,
			PushTypedPointer: r.PushTypedPointer,
			PushBoxedObject:  r.PushBoxedObject,
			CreateReference:  r.CreateReference,
			PushReference:    r.PushReference,
			DefineConstants:  r.DefineConstants,
			Descriptor: func(obj *Object) *Descriptor {
				if obj == nil {
					return nil
				}
				return obj.desc
			},
			DescriptorByName: r.Resolve,
			Anchor:           r.Anchor,
			SetAnchor:        r.SetAnchor,
			RemoveAnchor:     r.RemoveAnchor,
			CopyAnchors:      r.CopyAnchors,
			BaseAddress:      r.BaseAddress,
		}
	}
	return r.ext
}

// CheckType verifies that obj is of descriptor d and returns the address of
// its first byte.
func (r *Runtime) CheckType(obj *Object, d *Descriptor) (uint64, error) {
	if obj == nil {
		return 0, errors.InvalidInput(errors.PhaseRuntime, "nil object")
	}
	if obj.desc != d {
		want := "nil"
		if d != nil {
			want = d.name
		}
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			TypeName(want).
			Detail("expected <%s> but got <%s>", want, obj.desc.name).
			Build()
	}
	return r.BaseAddress(obj)
}

// BaseAddress returns the address of obj's first byte, for boxed and
// embedded objects alike.
func (r *Runtime) BaseAddress(obj *Object) (uint64, error) {
	if obj == nil {
		return 0, errors.InvalidInput(errors.PhaseRuntime, "nil object")
	}
	if obj.Released() {
		return 0, errors.Released(errors.PhaseRuntime, obj.desc.name)
	}
	return obj.Addr(), nil
}

// PushTypedPointer creates a view of descriptor d at a host address. The
// view does not own the memory.
func (r *Runtime) PushTypedPointer(d *Descriptor, addr uint64) (*Object, error) {
	defer r.leave(r.enter("pushtypedpointer"))
	if err := r.checkOwn(d); err != nil {
		return nil, err
	}
	return r.attachHost(d, addr)
}

// PushBoxedObject allocates a boxed object of descriptor d with every byte
// set to fill.
func (r *Runtime) PushBoxedObject(d *Descriptor, fill int) (*Object, error) {
	defer r.leave(r.enter("pushboxedobject"))
	if err := r.checkOwn(d); err != nil {
		return nil, err
	}
	return r.newBoxed(d, fill)
}

func (r *Runtime) checkOwn(d *Descriptor) error {
	if d == nil {
		return errors.InvalidInput(errors.PhaseRuntime, "nil descriptor")
	}
	if d.rt != r {
		return errors.New(errors.PhaseRuntime, errors.KindUnknownType).
			TypeName(d.name).
			Detail("descriptor is not registered with this runtime").
			Build()
	}
	if d.Freed() {
		return errors.Released(errors.PhaseRuntime, d.name)
	}
	return nil
}
