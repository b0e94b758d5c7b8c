// Package memory provides the foreign memory backends objects can be attached to.
package memory

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a requested range does not fit the memory.
var ErrOutOfBounds = errors.New("memory access out of bounds")

// Memory is an addressable byte space that is owned elsewhere.
//
// View returns a slice aliasing length bytes starting at addr. Writes to the
// slice must be visible through later views. A view is only valid until the
// next operation that may grow or remap the memory.
type Memory interface {
	View(addr uint64, length uint32) ([]byte, error)
}

func outOfBounds(addr uint64, length uint32) error {
	return fmt.Errorf("%w: addr=%#x, length=%d", ErrOutOfBounds, addr, length)
}
