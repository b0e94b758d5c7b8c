package cwrap

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
	"github.com/wippyai/cwrap/internal/anchor"
	"github.com/wippyai/cwrap/memory"
)

// block is the root of an ownership chain: either bytes owned by a boxed
// object or a window onto foreign memory. It carries the anchor table of
// every object viewing it.
type block struct {
	rt      *Runtime
	mem     memory.Memory
	keep    any
	name    string
	data    []byte
	anchors anchor.Table
	base    uint64
	refs    atomic.Int32
	free    sync.Once
	freed   atomic.Bool
	owned   bool
}

func (r *Runtime) newOwnedBlock(size uint32, name string) *block {
	b := &block{rt: r, name: name, data: make([]byte, size), owned: true}
	b.refs.Store(1)
	r.stats.blocks.Add(1)
	return b
}

func (r *Runtime) newForeignBlock(mem memory.Memory, base uint64, keep any, name string) *block {
	b := &block{rt: r, name: name, mem: mem, base: base, keep: keep}
	b.refs.Store(1)
	r.stats.blocks.Add(1)
	return b
}

// view returns the n bytes at off, aliasing the underlying memory.
func (b *block) view(phase errors.Phase, off, n uint32) ([]byte, error) {
	if b.freed.Load() {
		return nil, errors.Released(phase, b.name)
	}
	if b.owned {
		if !abi.InRange(off, n, uint32(len(b.data))) {
			return nil, errors.OutOfBounds(phase, nil, int(off)+int(n), len(b.data))
		}
		return b.data[off : off+n : off+n], nil
	}
	data, err := b.mem.View(b.base+uint64(off), n)
	if err != nil {
		return nil, errors.New(phase, errors.KindOutOfBounds).
			TypeName(b.name).
			Cause(err).
			Detail("foreign memory access failed").
			Build()
	}
	return data, nil
}

// addr returns the address of the byte at off in the block's memory space.
func (b *block) addr(off uint32) uint64 {
	if b.owned {
		if len(b.data) == 0 {
			return 0
		}
		return memory.AddressOf(b.data) + uint64(off)
	}
	return b.base + uint64(off)
}

func (b *block) retain() {
	b.refs.Add(1)
}

func (b *block) release() {
	if b.refs.Add(-1) != 0 {
		return
	}
	b.free.Do(func() {
		b.freed.Store(true)
		anchors := b.anchors.Len()
		b.anchors.Reset()
		b.data = nil
		b.keep = nil
		b.rt.stats.blocksFreed.Add(1)
		b.rt.log.Debug("block freed", zap.String("type", b.name), zap.Bool("owned", b.owned), zap.Int("anchors", anchors))
	})
}

// handle is what an object's cleanup releases. It must not point back at
// the object.
type handle struct {
	blk  *block
	desc *Descriptor
	done atomic.Bool
}

func (h *handle) release() bool {
	if !h.done.CompareAndSwap(false, true) {
		return false
	}
	h.blk.release()
	h.desc.release()
	return true
}

// Object is a typed window onto memory. A boxed object owns its bytes; an
// embedded object is a view at an offset inside an outer object, or onto
// foreign memory, and keeps its owner alive for as long as it exists.
//
// Objects are released when the garbage collector finds them unreachable,
// or earlier by an explicit Release.
type Object struct {
	rt      *Runtime
	typ     *Type
	desc    *Descriptor
	outer   *Object
	h       *handle
	cleanup runtime.Cleanup
	offset  uint32
}

func (r *Runtime) newObject(d *Descriptor, blk *block, outer *Object, offset uint32) *Object {
	d.retain()
	o := &Object{
		rt:     r,
		typ:    r.typeOf(d),
		desc:   d,
		outer:  outer,
		offset: offset,
		h:      &handle{blk: blk, desc: d},
	}
	o.cleanup = runtime.AddCleanup(o, func(h *handle) { h.release() }, o.h)
	return o
}

// typeOf returns the method table registered for d, if it is still
// registered.
func (r *Runtime) typeOf(d *Descriptor) *Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[d.name]; ok && t.desc == d {
		return t
	}
	return nil
}

func (r *Runtime) newBoxed(d *Descriptor, init any) (*Object, error) {
	size := d.Size()
	if size > r.maxSize {
		return nil, errors.AllocationFailed(d.name, uint64(size), r.maxSize)
	}

	blk := r.newOwnedBlock(size, d.name)
	if abi.IsNumber(init) {
		fill, _ := abi.CoerceToInt64(init)
		if b := byte(fill); b != 0 {
			for i := range blk.data {
				blk.data[i] = b
			}
		}
		init = nil
	}

	o := r.newObject(d, blk, nil, 0)
	debugf("new %s (%d bytes)", d.name, size)
	if init == nil {
		return o, nil
	}
	if _, err := o.assign(init); err != nil {
		o.Release()
		return nil, err
	}
	return o, nil
}

func (r *Runtime) attach(d *Descriptor, source any) (*Object, error) {
	switch src := source.(type) {
	case *Object:
		if src == nil {
			return nil, errors.InvalidAttach("nil")
		}
		if src.Released() {
			return nil, errors.Released(errors.PhaseAttach, src.desc.name)
		}
		abs := src.abs()
		if _, err := src.h.blk.view(errors.PhaseAttach, abs, d.Size()); err != nil {
			return nil, errors.Wrap(errors.PhaseAttach, errors.KindInvalidAttach, err,
				"view exceeds the source object")
		}
		root := src.root()
		src.h.blk.retain()
		return r.newObject(d, src.h.blk, root, abs-root.offset), nil
	case Address:
		if src.Mem == nil {
			return nil, errors.New(errors.PhaseAttach, errors.KindInvalidAttach).
				HostType("cwrap.Address").
				Detail("address without memory").
				Build()
		}
		return r.attachForeign(d, src.Mem, src.Ptr, nil)
	case []byte:
		return r.attachForeign(d, memory.Bytes(src), 0, src)
	case Pointer:
		return r.attachHost(d, uint64(src))
	case uintptr:
		return r.attachHost(d, uint64(src))
	case bool, float32, float64:
		return nil, errors.InvalidAttach(abi.TypeName(source))
	}

	if abi.IsNumber(source) {
		addr, _ := abi.CoerceToUint64(source)
		return r.attachHost(d, addr)
	}
	return nil, errors.InvalidAttach(abi.TypeName(source))
}

func (r *Runtime) attachHost(d *Descriptor, addr uint64) (*Object, error) {
	if addr == 0 {
		return nil, errors.New(errors.PhaseAttach, errors.KindInvalidAttach).
			TypeName(d.name).
			Detail("nil address").
			Build()
	}
	return r.attachForeign(d, memory.Host(), addr, nil)
}

func (r *Runtime) attachForeign(d *Descriptor, mem memory.Memory, addr uint64, keep any) (*Object, error) {
	if !memory.IsHost(mem) {
		if _, err := mem.View(addr, d.Size()); err != nil {
			return nil, errors.Wrap(errors.PhaseAttach, errors.KindInvalidAttach, err,
				"view exceeds the source memory")
		}
	}
	blk := r.newForeignBlock(mem, addr, keep, d.name)
	return r.newObject(d, blk, nil, 0), nil
}

// Descriptor returns the object's type descriptor.
func (o *Object) Descriptor() *Descriptor { return o.desc }

// Type returns the object's method table, or nil if its type is no longer
// registered.
func (o *Object) Type() *Type { return o.typ }

// Runtime returns the runtime that created the object.
func (o *Object) Runtime() *Runtime { return o.rt }

// Outer returns the object this view points into, or nil for roots.
func (o *Object) Outer() *Object { return o.outer }

// IsBoxed reports whether the object owns its bytes.
func (o *Object) IsBoxed() bool {
	return o.outer == nil && o.h.blk.owned
}

// Offset returns the object's byte offset from the start of its root.
func (o *Object) Offset() uint32 { return o.abs() }

// Len returns the element count for arrays and the byte size otherwise.
func (o *Object) Len() int { return int(o.desc.Len()) }

// Released reports whether Release has been called or the object's memory
// is gone.
func (o *Object) Released() bool {
	return o.h.done.Load() || o.h.blk.freed.Load()
}

// Release drops the object's hold on its owner and descriptor. Views taken
// from a boxed object keep the bytes alive after the boxed object itself is
// released. Release is idempotent.
func (o *Object) Release() {
	if o.h.release() {
		o.cleanup.Stop()
	}
}

// Addr returns the physical address of the object's first byte. For views
// onto foreign memory it is an address in that memory.
func (o *Object) Addr() uint64 {
	defer runtime.KeepAlive(o)
	return o.h.blk.addr(o.abs())
}

// Pointer returns the object's address as a host value: a Pointer for host
// memory, or an Address for foreign memory.
func (o *Object) Pointer() any {
	defer runtime.KeepAlive(o)
	addr := o.Addr()
	if o.h.blk.owned || memory.IsHost(o.h.blk.mem) {
		return Pointer(addr)
	}
	return Address{Mem: o.h.blk.mem, Ptr: addr}
}

// Bytes returns a copy of the object's bytes.
func (o *Object) Bytes() ([]byte, error) {
	defer runtime.KeepAlive(o)
	data, err := o.bytes(errors.PhaseRead)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// abs walks the outer chain summing offsets.
func (o *Object) abs() uint32 {
	off := o.offset
	for p := o.outer; p != nil; p = p.outer {
		off += p.offset
	}
	return off
}

func (o *Object) root() *Object {
	r := o
	for r.outer != nil {
		r = r.outer
	}
	return r
}

// bytes returns the object's bytes, aliasing the underlying memory.
func (o *Object) bytes(phase errors.Phase) ([]byte, error) {
	if o.h.done.Load() {
		return nil, errors.Released(phase, o.desc.name)
	}
	return o.h.blk.view(phase, o.abs(), o.desc.Size())
}

// embed creates a view of type d at the absolute offset abs of o's root.
func (o *Object) embed(abs uint32, d *Descriptor) (*Object, error) {
	if _, err := o.h.blk.view(errors.PhaseRead, abs, d.Size()); err != nil {
		return nil, err
	}
	root := o.root()
	o.h.blk.retain()
	return o.rt.newObject(d, o.h.blk, root, abs-root.offset), nil
}
