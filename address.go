package cwrap

import (
	"fmt"

	"github.com/wippyai/cwrap/memory"
)

// Pointer is an untyped address in the host process.
type Pointer uintptr

func (p Pointer) String() string {
	return fmt.Sprintf("%#x", uintptr(p))
}

// Address locates a byte inside a foreign memory, such as a wazero guest's
// linear memory.
type Address struct {
	Mem memory.Memory
	Ptr uint64
}

func (a Address) String() string {
	return fmt.Sprintf("%#x", a.Ptr)
}

// Method is a callable returned by member access, bound to its object.
type Method func(args ...any) (any, error)

// MethodFunc is a user method stored in a type's method table. It receives
// the object it was looked up on.
type MethodFunc func(self *Object, args ...any) (any, error)
