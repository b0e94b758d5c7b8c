// Package layout computes Canonical ABI layouts for WIT types.
//
// Record descriptors derived from WIT definitions use these offsets, so a
// view attached to guest linear memory reads fields exactly where the
// component wrote them.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records and tuples: fields laid out sequentially with padding for alignment
//   - Variants, options and results: discriminant followed by largest payload case
//   - Lists/Strings: (pointer, length) pair in memory, content elsewhere
//
// # Usage
//
//	c := layout.NewCalculator()
//	info := c.Calculate(witType)
//	// info.Size, info.Align, info.FieldOffs available
package layout
