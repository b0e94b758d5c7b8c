package cwrap

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/cwrap/errors"
)

// Cell is the memory of one basic field handed to a Getter or Setter.
//
// Offset is the field's position inside its anchor owner, the root of the
// object chain, so the same field reached through different views shares
// one anchor slot.
type Cell struct {
	blk    *block
	Data   []byte
	Offset uint32
}

// Anchor returns the host value anchored at the cell.
func (c Cell) Anchor() (any, bool) {
	if c.blk == nil {
		return nil, false
	}
	v, ok := c.blk.anchors.Get(c.Offset)
	return unpin(v), ok
}

// SetAnchor keeps value alive for as long as the cell's owner lives. A nil
// value removes the anchor.
func (c Cell) SetAnchor(value any) {
	if c.blk == nil {
		return
	}
	c.blk.anchors.Set(c.Offset, value)
}

// Runtime returns the runtime owning the cell, or nil for detached cells.
func (c Cell) Runtime() *Runtime {
	if c.blk == nil {
		return nil
	}
	return c.blk.rt
}

// pinned anchors a host value together with the memory whose address was
// stored for it.
type pinned struct {
	value any
	keep  []byte
}

func unpin(v any) any {
	if p, ok := v.(pinned); ok {
		return p.value
	}
	return v
}

// Anchor returns the host value anchored at offset bytes into obj.
func (r *Runtime) Anchor(obj *Object, offset uint32) (any, bool) {
	defer runtime.KeepAlive(obj)
	if obj == nil || obj.Released() {
		return nil, false
	}
	v, ok := obj.h.blk.anchors.Get(obj.abs() + offset)
	return unpin(v), ok
}

// SetAnchor anchors value at offset bytes into obj. The table lives on the
// root of obj's chain and is created on first use. A nil value removes the
// anchor.
func (r *Runtime) SetAnchor(obj *Object, offset uint32, value any) error {
	defer r.leave(r.enter("setanchor"))
	defer runtime.KeepAlive(obj)
	if err := r.checkAnchor(obj, offset); err != nil {
		return err
	}
	abs := obj.abs() + offset
	obj.h.blk.anchors.Set(abs, value)
	r.log.Debug("anchor set", zapType(obj.desc), zap.Uint32("offset", abs), zap.Bool("cleared", value == nil))
	return nil
}

// RemoveAnchor drops the anchor at offset bytes into obj.
func (r *Runtime) RemoveAnchor(obj *Object, offset uint32) error {
	defer r.leave(r.enter("removeanchor"))
	defer runtime.KeepAlive(obj)
	if err := r.checkAnchor(obj, offset); err != nil {
		return err
	}
	obj.h.blk.anchors.Remove(obj.abs() + offset)
	return nil
}

// CopyAnchors copies the anchors inside src's span into dst at the same
// relative offsets and returns how many were copied. Both objects must
// share a descriptor.
func (r *Runtime) CopyAnchors(dst, src *Object) (int, error) {
	defer r.leave(r.enter("copyanchors"))
	defer runtime.KeepAlive(src)
	defer runtime.KeepAlive(dst)
	if dst == nil || src == nil {
		return 0, errors.InvalidInput(errors.PhaseRuntime, "nil object")
	}
	if dst.Released() {
		return 0, errors.Released(errors.PhaseRuntime, dst.desc.name)
	}
	if src.Released() {
		return 0, errors.Released(errors.PhaseRuntime, src.desc.name)
	}
	if dst.desc != src.desc {
		return 0, errors.Incompatible(dst.desc.name, src.desc.name)
	}
	return copyAnchors(dst, src), nil
}

func (r *Runtime) checkAnchor(obj *Object, offset uint32) error {
	if obj == nil {
		return errors.InvalidInput(errors.PhaseRuntime, "nil object")
	}
	if obj.Released() {
		return errors.Released(errors.PhaseRuntime, obj.desc.name)
	}
	if size := obj.desc.Size(); offset >= size {
		return errors.OutOfBounds(errors.PhaseRuntime, nil, int(offset), int(size))
	}
	return nil
}
