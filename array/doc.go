// Package array provides the minimal in-memory columnar arrays that colenc
// encodes from and assembles into.
//
// The model follows the Arrow layout closely enough to exercise every
// encoding-tree variant:
//
//   - Fixed: fixed-width values stored row-major in a byte slice
//   - Boolean: one bit per row
//   - List: variable-length lists delimited by uint64 offsets over a child array
//   - FixedSizeList: lists of a constant dimension over a child array
//   - Struct: a set of equally long field arrays
//
// Validity is held in a *bitset.BitSet where bit i set means row i is valid.
// A nil bitset means every row is valid.
//
// # Invariants
//
// List arrays are kept normalized: offsets start at zero, end at the child
// length, and null rows cover an empty range. Constructors reject anything
// else with errs.ErrInvalidArray, so encoders never need to compact a child.
//
// Arrays are immutable after construction and safe for concurrent reads.
package array
