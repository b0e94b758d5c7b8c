package memory

import (
	"github.com/tetratelabs/wazero/api"
)

// Wrap adapts a wazero guest linear memory. Addresses are guest offsets.
func Wrap(mem api.Memory) Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the Memory interface.
type Wrapper struct {
	Mem api.Memory
}

// View returns a slice aliasing the guest memory. It is invalidated when the
// guest grows its memory.
func (m *Wrapper) View(addr uint64, length uint32) ([]byte, error) {
	if addr > uint64(^uint32(0)) {
		return nil, outOfBounds(addr, length)
	}
	data, ok := m.Mem.Read(uint32(addr), length)
	if !ok {
		return nil, outOfBounds(addr, length)
	}
	return data, nil
}

// Size returns the current size of the guest memory in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}
