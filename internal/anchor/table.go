package anchor

import "sort"

// Table maps byte offsets to retained host values. The zero value is empty
// and ready to use; the backing map is created on first Set.
type Table struct {
	entries map[uint32]any
}

// Get returns the value anchored at offset.
func (t *Table) Get(offset uint32) (any, bool) {
	if t == nil || t.entries == nil {
		return nil, false
	}
	v, ok := t.entries[offset]
	return v, ok
}

// Set anchors value at offset, replacing any previous entry. A nil value
// removes the entry.
func (t *Table) Set(offset uint32, value any) {
	if value == nil {
		t.Remove(offset)
		return
	}
	if t.entries == nil {
		t.entries = make(map[uint32]any)
	}
	t.entries[offset] = value
}

// Remove drops the entry at offset and reports whether one existed.
func (t *Table) Remove(offset uint32) bool {
	if t == nil || t.entries == nil {
		return false
	}
	if _, ok := t.entries[offset]; !ok {
		return false
	}
	delete(t.entries, offset)
	return true
}

// Entry is one anchored value with its offset relative to a range base.
type Entry struct {
	Value  any
	Offset uint32
}

// Range returns the entries whose offset lies in [base, base+size), with
// offsets made relative to base, in ascending order.
func (t *Table) Range(base, size uint32) []Entry {
	if t == nil || len(t.entries) == 0 {
		return nil
	}
	var out []Entry
	for _, off := range t.Offsets() {
		if off < base || off-base >= size {
			continue
		}
		out = append(out, Entry{Offset: off - base, Value: t.entries[off]})
	}
	return out
}

// CopyFrom copies the entries of src whose offset lies in [base, base+size)
// into t, rebased to dstBase. Existing destination entries in the target
// span are dropped first, so src and t may be the same table. It returns the
// number of entries copied.
func (t *Table) CopyFrom(src *Table, base, size, dstBase uint32) int {
	entries := src.Range(base, size)
	t.ClearRange(dstBase, size)
	for _, e := range entries {
		t.Set(dstBase+e.Offset, e.Value)
	}
	return len(entries)
}

// ClearRange removes every entry with an offset in [base, base+size).
func (t *Table) ClearRange(base, size uint32) int {
	if t == nil || len(t.entries) == 0 {
		return 0
	}
	n := 0
	for off := range t.entries {
		if off >= base && off-base < size {
			delete(t.entries, off)
			n++
		}
	}
	return n
}

// Len returns the number of anchored values.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Offsets returns the anchored offsets in ascending order.
func (t *Table) Offsets() []uint32 {
	if t == nil || len(t.entries) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(t.entries))
	for off := range t.entries {
		out = append(out, off)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset drops every entry.
func (t *Table) Reset() {
	if t != nil {
		t.entries = nil
	}
}
