// Package encoding implements the encoding tree that describes how one
// column's values are laid out across buffers.
//
// A tree is a recursive tagged structure. Each node is one of four array
// encodings:
//   - Basic: fixed-width values or bitmaps, with a NoNulls, SomeNulls or
//     AllNulls nullability shape
//   - FixedSizeList: lists of a constant dimension over an items subtree
//   - List: variable-length list offsets that also encode null lists
//   - Struct: a shredded struct whose fields are sibling columns
//
// Leaves are BufferRefs, (scope, index) lookup keys resolved through a
// Locator. The tree never owns buffer bytes and never stores row counts;
// the container supplies both through a DecodeContext.
//
// # Decoding
//
//	loc := encoding.NewBufferTableFrom(pageBuffers, columnBuffers, fileBuffers)
//	value, err := encoding.Decode(loc, tree, encoding.DecodeContext{NumRows: n})
//	if err != nil {
//	    return err
//	}
//	arr, err := encoding.Assemble(value, array.FixedType(4))
//
// Every error returned by Decode wraps one of errs.ErrUnresolvedBuffer,
// errs.ErrLengthMismatch, errs.ErrInvalidOffsets, errs.ErrDimensionMismatch or
// errs.ErrUnsupportedEncoding. Unknown or unset variants are always rejected,
// never read as absent data.
//
// # Encoding
//
//	enc, _ := encoding.NewEncoder()
//	table := encoding.NewBufferTable()
//	col, err := enc.Encode(arr, table)
//
// Trees serialize with Marshal and MarshalColumn using protobuf wire format.
// Field numbers are stable; see wire.go.
package encoding
