package cwrap

import (
	"fmt"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/resource"
)

// Reference is a host value captured in a runtime's reference table. Its
// lifetime is managed by the caller and is not tied to any object holding
// the handle.
type Reference struct {
	table  *resource.Table
	handle resource.Handle
}

// Value returns the captured value, or nil once released.
func (r *Reference) Value() any {
	v, _ := r.table.Get(r.handle)
	return v
}

// Ref returns the numeric handle stored in memory.
func (r *Reference) Ref() int32 {
	return int32(r.handle)
}

func (r *Reference) String() string {
	return fmt.Sprintf("ref(%d)", r.handle)
}

// Valid reports whether the handle still refers to a captured value.
func (r *Reference) Valid() bool {
	_, ok := r.table.Get(r.handle)
	return ok
}

// Release drops the captured value from the table.
func (r *Reference) Release() {
	r.table.Release(r.handle)
}

// Get gives member-style access: "value", "ref" and "release".
func (r *Reference) Get(key string) (any, error) {
	switch key {
	case "value":
		return r.Value(), nil
	case "ref":
		return r.Ref(), nil
	case "release":
		return Method(func(...any) (any, error) {
			r.Release()
			return nil, nil
		}), nil
	}
	return nil, errors.UnknownMember(errors.PhaseRead, []string{key}, "$ref", key)
}

// CreateReference captures value and returns its handle.
func (r *Runtime) CreateReference(value any) (int32, error) {
	h, err := r.refs.Create(value)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "capture table")
	}
	return int32(h), nil
}

// PushReference wraps an existing handle.
func (r *Runtime) PushReference(ref int32) *Reference {
	return &Reference{table: r.refs, handle: resource.Handle(ref)}
}
