// Package layout computes Canonical ABI size, alignment and element offsets
// for WIT types.
//
// Layout rules:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8)
//   - Records and tuples: elements laid out in order, padded for alignment
//   - Variants, options and results: discriminant, then the largest payload
//   - Lists and strings: a (pointer, length) pair of u32
//   - Resource handles: a u32 index
//
// A Calculator caches results per *wit.TypeDef and is not safe for concurrent use.
package layout
