package memory

import (
	"errors"
	"unsafe"
)

// ErrNilAddress is returned for views at address zero in the host address space.
var ErrNilAddress = errors.New("nil address")

var host Memory = hostMemory{}

// Host returns the process address space. Addresses are raw pointers, so the
// caller is responsible for keeping the pointed-to memory alive.
func Host() Memory {
	return host
}

// IsHost reports whether m is the process address space.
func IsHost(m Memory) bool {
	_, ok := m.(hostMemory)
	return ok
}

type hostMemory struct{}

func (hostMemory) View(addr uint64, length uint32) ([]byte, error) {
	if addr == 0 {
		return nil, ErrNilAddress
	}
	if uint64(uintptr(addr)) != addr || uint64(^uintptr(0))-addr < uint64(length) {
		return nil, outOfBounds(addr, length)
	}
	if length == 0 {
		return []byte{}, nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length), nil
}

// AddressOf returns the host address of the first byte of b, or 0 for an
// empty slice.
func AddressOf(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}
