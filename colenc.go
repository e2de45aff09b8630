// Package colenc encodes in-memory columnar arrays as trees of buffer
// encodings and decodes them back.
//
// An encoding tree describes how a column's bytes are laid out (nullability,
// list offsets, fixed-size lists, structs) without holding any bytes itself:
// its leaves reference buffers by scope and index, and a container resolves
// those references on read.
//
// # Basic Usage
//
// One-call round trip through an in-memory buffer table:
//
//	import "github.com/arloliu/colenc"
//
//	scores := array.FromValues([]int32{90, 0, 75}, []bool{true, false, true})
//	encoded, _ := colenc.EncodeArray(scores)
//	fmt.Println(encoding.Describe(encoded.Column.Tree))
//	// Basic(SomeNulls(validity=Bitmap(Page[0]), values=Value(Page[1], 4)))
//
//	decoded, _ := colenc.DecodeArray(encoded)
//
// Writing and reading a container file:
//
//	w, _ := colenc.NewWriter(container.WithCompression(format.CompressionZstd))
//	_ = w.WritePage("scores", scores)
//	file, _ := w.Bytes()
//
//	r, _ := colenc.OpenFile(file)
//	pages, _ := r.DecodeColumn(ctx, "scores")
//
// # Package Structure
//
// This package provides convenient top-level wrappers. The encoding package
// holds the tree model and codecs, and the container package holds the file
// format. Use them directly for fine-grained control.
package colenc

import (
	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/container"
	"github.com/arloliu/colenc/encoding"
	"github.com/cockroachdb/errors"
)

// EncodedArray is an array encoded into an in-memory buffer table, together
// with the encoded child columns its tree does not cover.
type EncodedArray struct {
	// DataType is the logical type of the encoded array.
	DataType array.DataType
	// Column holds the encoding tree and the counts needed to decode it.
	Column *encoding.EncodedColumn
	// Children are the encoded list-item and struct-field columns, in order.
	Children []*EncodedArray
	// Buffers holds every buffer of this array and its children.
	Buffers *encoding.BufferTable
}

// EncodeArray encodes arr and, recursively, its child columns into one
// in-memory buffer table.
//
// Parameters:
//   - arr: Array to encode
//   - opts: Encoder options (encoding.WithScope, encoding.WithLogger)
//
// Returns:
//   - *EncodedArray: The encoded array
//   - error: Encoder option or encoding errors
func EncodeArray(arr array.Array, opts ...encoding.EncoderOption) (*EncodedArray, error) {
	enc, err := encoding.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return encodeArray(enc, arr, encoding.NewBufferTable())
}

func encodeArray(enc *encoding.Encoder, arr array.Array, table *encoding.BufferTable) (*EncodedArray, error) {
	col, err := enc.Encode(arr, table)
	if err != nil {
		return nil, err
	}

	out := &EncodedArray{DataType: arr.DataType(), Column: col, Buffers: table}
	for i, child := range col.Children {
		encoded, err := encodeArray(enc, child, table)
		if err != nil {
			return nil, errors.Wrapf(err, "child column %d", i)
		}
		out.Children = append(out.Children, encoded)
	}

	return out, nil
}

// DecodeArray decodes an encoded array and its children and assembles the
// in-memory array.
//
// Parameters:
//   - e: Result of EncodeArray
//
// Returns:
//   - array.Array: The decoded array
//   - error: Decode or assembly errors
func DecodeArray(e *EncodedArray) (array.Array, error) {
	value, err := encoding.Decode(e.Buffers, e.Column.Tree, e.Column.DecodeContext())
	if err != nil {
		return nil, err
	}

	children := make([]array.Array, len(e.Children))
	for i, child := range e.Children {
		if children[i], err = DecodeArray(child); err != nil {
			return nil, errors.Wrapf(err, "child column %d", i)
		}
	}

	return encoding.Assemble(value, e.DataType, children...)
}

// NewWriter creates a container writer.
//
// Parameters:
//   - opts: Writer options (container.WithCompression, container.WithEndian, ...)
//
// Returns:
//   - *container.Writer: The writer
//   - error: Returned when an option is invalid
func NewWriter(opts ...container.WriterOption) (*container.Writer, error) {
	return container.NewWriter(opts...)
}

// OpenFile opens a container file held in memory.
func OpenFile(data []byte, opts ...container.ReaderOption) (*container.Reader, error) {
	return container.Open(data, opts...)
}
