// Package anchor implements the per-owner side table that keeps host values
// alive while a raw memory field refers to them.
//
// A Table maps a byte offset inside its owner's memory to the host value
// last stored through the field at that offset:
//
//	var t anchor.Table
//	t.Set(8, "hello")      // field at offset 8 now anchors "hello"
//	v, ok := t.Get(8)      // "hello", true
//	t.Remove(8)            // field cleared
//
// CopyFrom implements value semantics for whole-object assignment: only
// entries whose offset lies inside the copied span are transferred, and the
// destination gets its own entries rather than sharing the source table.
//
// Tables are not safe for concurrent use.
package anchor
