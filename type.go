package cwrap

import (
	"github.com/wippyai/cwrap/errors"
)

// Type is the method table of a registered descriptor. It creates objects
// and carries user methods that record objects expose through Get.
type Type struct {
	rt      *Runtime
	desc    *Descriptor
	methods map[string]MethodFunc
}

// Descriptor returns the type's descriptor.
func (t *Type) Descriptor() *Descriptor { return t.desc }

// Name returns the registered type name.
func (t *Type) Name() string { return t.desc.name }

// Runtime returns the runtime the type is registered with.
func (t *Type) Runtime() *Runtime { return t.rt }

// New allocates a boxed object. A numeric init fills every byte with its
// low byte; any other non-nil init is assigned as with Set.
func (t *Type) New(init any) (*Object, error) {
	defer t.rt.leave(t.rt.enter("new"))
	return t.rt.newBoxed(t.desc, init)
}

// Attach creates a view of this type over memory the caller does not own.
// Valid sources are an *Object, a Pointer or integer host address, an
// Address inside a foreign memory, or a []byte.
func (t *Type) Attach(source any) (*Object, error) {
	defer t.rt.leave(t.rt.enter("attach"))
	return t.rt.attach(t.desc, source)
}

// Dup creates a boxed copy of obj, which must be of this type.
func (t *Type) Dup(obj *Object) (*Object, error) {
	if obj == nil {
		return nil, errors.InvalidInput(errors.PhaseAssign, "nil object")
	}
	if obj.desc != t.desc {
		return nil, errors.Incompatible(t.desc.name, obj.desc.name)
	}
	return obj.Dup()
}

// Set assigns value to obj and returns obj.
func (t *Type) Set(obj *Object, value any) (*Object, error) {
	if obj == nil {
		return nil, errors.InvalidInput(errors.PhaseAssign, "nil object")
	}
	if obj.desc != t.desc {
		return obj, errors.New(errors.PhaseAssign, errors.KindInvalidInput).
			TypeName(t.desc.name).
			Detail("expected <%s> but got <%s>", t.desc.name, obj.desc.name).
			Build()
	}
	return obj.Assign(value)
}

// SetMethod adds a user method to the type's method table. Record objects
// return it, bound to themselves, for member names that are not fields.
// A nil fn removes the method.
func (t *Type) SetMethod(name string, fn MethodFunc) {
	if fn == nil {
		delete(t.methods, name)
		return
	}
	if t.methods == nil {
		t.methods = make(map[string]MethodFunc)
	}
	t.methods[name] = fn
}

// Method returns a user method from the type's method table.
func (t *Type) Method(name string) (MethodFunc, bool) {
	fn, ok := t.methods[name]
	return fn, ok
}
