package memory

// Bytes is a Memory over a Go byte slice, addressed from zero. It is useful
// for attaching to buffers received from files or sockets without resorting
// to raw host pointers.
type Bytes []byte

// View implements Memory.
func (b Bytes) View(addr uint64, length uint32) ([]byte, error) {
	end := addr + uint64(length)
	if end < addr || end > uint64(len(b)) {
		return nil, outOfBounds(addr, length)
	}
	return b[addr:end:end], nil
}
