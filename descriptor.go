package cwrap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
)

// TypeClass identifies which variant a Descriptor is.
type TypeClass uint8

const (
	ClassBasic TypeClass = iota + 1
	ClassRecord
	ClassArray
	ClassBuffer
)

func (c TypeClass) String() string {
	switch c {
	case ClassBasic:
		return "basic"
	case ClassRecord:
		return "record"
	case ClassArray:
		return "array"
	case ClassBuffer:
		return "buffer"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Getter converts the bytes of a basic field into a host value.
type Getter func(c Cell) (any, error)

// Setter stores a host value into the bytes of a basic field.
type Setter func(c Cell, value any) error

// Member describes one named field of a record.
type Member struct {
	Name     string
	TypeName string
	Offset   uint32
}

// member is a Member with its lazily resolved type.
type member struct {
	desc atomic.Pointer[Descriptor]
	Member
}

// Descriptor describes the layout and class of one registered type.
//
// Basic descriptors carry a getter/setter pair. Record descriptors carry an
// ordered member list, array descriptors an element count and element type.
// Buffer descriptors are opaque byte spans.
//
// Descriptors created at runtime are reference counted by the registry and
// by every object using them; they are freed exactly once when the last
// holder lets go.
type Descriptor struct {
	elem     atomic.Pointer[Descriptor]
	get      Getter
	set      Setter
	rt       *Runtime
	free     sync.Once
	name     string
	elemName string
	members  []*member
	refs     atomic.Int32
	size     uint32
	count    uint32
	elemSize uint32
	class    TypeClass
	dynamic  bool
	freed    atomic.Bool
}

// BasicDescriptor creates a static basic descriptor for RegisterType.
func BasicDescriptor(name string, size uint32, get Getter, set Setter) *Descriptor {
	return &Descriptor{class: ClassBasic, name: name, size: size, get: get, set: set}
}

// RecordDescriptor creates a static record descriptor for RegisterType.
// Member types are resolved on first access.
func RecordDescriptor(name string, size uint32, members []Member) *Descriptor {
	d := &Descriptor{class: ClassRecord, name: name, size: size}
	d.members = make([]*member, len(members))
	for i, m := range members {
		d.members[i] = &member{Member: m}
	}
	return d
}

// ArrayDescriptor creates a static array descriptor for RegisterType. The
// element type is resolved when the descriptor is registered.
func ArrayDescriptor(name string, count uint32, elemType string) *Descriptor {
	return &Descriptor{class: ClassArray, name: name, count: count, elemName: elemType}
}

// BufferDescriptor creates a static buffer descriptor for RegisterType.
func BufferDescriptor(name string, size uint32) *Descriptor {
	return &Descriptor{class: ClassBuffer, name: name, size: size}
}

// Name returns the registered type name.
func (d *Descriptor) Name() string { return d.name }

// Class returns the type class. It never changes after construction.
func (d *Descriptor) Class() TypeClass { return d.class }

// Size returns the byte size of one instance. For arrays this is
// count*elemSize.
func (d *Descriptor) Size() uint32 {
	if d.class == ClassArray {
		return d.count * d.elemSize
	}
	return d.size
}

// Len mirrors Size except that arrays report their element count.
func (d *Descriptor) Len() uint32 {
	if d.class == ClassArray {
		return d.count
	}
	return d.size
}

// Count returns the element count of an array descriptor.
func (d *Descriptor) Count() uint32 { return d.count }

// ElemSize returns the element size of an array descriptor.
func (d *Descriptor) ElemSize() uint32 { return d.elemSize }

// ElemType returns the element type name of an array descriptor.
func (d *Descriptor) ElemType() string { return d.elemName }

// Members returns a copy of the record member list in declaration order.
func (d *Descriptor) Members() []Member {
	out := make([]Member, len(d.members))
	for i, m := range d.members {
		out[i] = m.Member
	}
	return out
}

// Dynamic reports whether the descriptor was created at runtime and is
// reference counted.
func (d *Descriptor) Dynamic() bool { return d.dynamic }

// Freed reports whether a dynamic descriptor has been released by all of
// its holders.
func (d *Descriptor) Freed() bool { return d.freed.Load() }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s, %d bytes)", d.name, d.class, d.Size())
}

func (d *Descriptor) findMember(name string) *member {
	for _, m := range d.members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// memberType resolves and caches the descriptor of a record member.
func (d *Descriptor) memberType(m *member) (*Descriptor, error) {
	if md := m.desc.Load(); md != nil {
		return md, nil
	}
	md, err := d.rt.Resolve(m.TypeName)
	if err != nil {
		return nil, err
	}
	if err := d.checkMember(errors.PhaseResolve, m, md); err != nil {
		return nil, err
	}
	m.desc.CompareAndSwap(nil, md)
	return m.desc.Load(), nil
}

// checkMember fails unless a member of type md at m.Offset ends inside d.
func (d *Descriptor) checkMember(phase errors.Phase, m *member, md *Descriptor) error {
	end, ok := abi.SafeAddU32(m.Offset, md.Size())
	if ok && end <= d.size {
		return nil
	}
	return errors.New(phase, errors.KindOutOfBounds).
		Path(d.name, m.Name).
		TypeName(md.name).
		Detail("member at offset %d with %d bytes exceeds record of %d bytes", m.Offset, md.Size(), d.size).
		Build()
}

// elemType resolves and caches the element descriptor of an array.
func (d *Descriptor) elemType() (*Descriptor, error) {
	if ed := d.elem.Load(); ed != nil {
		return ed, nil
	}
	ed, err := d.rt.Resolve(d.elemName)
	if err != nil {
		return nil, err
	}
	d.elem.CompareAndSwap(nil, ed)
	return d.elem.Load(), nil
}

func (d *Descriptor) retain() {
	if d.dynamic {
		d.refs.Add(1)
	}
}

func (d *Descriptor) release() {
	if !d.dynamic {
		return
	}
	if d.refs.Add(-1) == 0 {
		d.free.Do(func() {
			d.freed.Store(true)
			d.rt.stats.descriptorsFreed.Add(1)
			d.rt.log.Debug("descriptor freed", zapType(d))
		})
	}
}
