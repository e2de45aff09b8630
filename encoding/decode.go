package encoding

import (
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
)

// DecodeContext carries the counts a tree does not store about itself.
type DecodeContext struct {
	// NumRows is the row count of the node being decoded.
	NumRows uint64
	// NumItems is the column's total list item count, threaded unchanged to
	// every List node.
	NumItems uint64
}

// ArrayValue is the decoded form of one tree node. The implementations are
// *BasicValue, *FixedSizeListValue, *ListValue and *StructValue.
type ArrayValue interface {
	Len() uint64
	Type() format.ArrayEncodingType
}

func (*BasicValue) Type() format.ArrayEncodingType { return format.ArrayBasic }

func (*FixedSizeListValue) Type() format.ArrayEncodingType { return format.ArrayFixedSizeList }

func (*ListValue) Type() format.ArrayEncodingType { return format.ArrayList }

func (*StructValue) Type() format.ArrayEncodingType { return format.ArrayStruct }

// Decode walks tree top-down, resolving buffers through loc, and returns the
// decoded value of the root.
//
// Errors are detected eagerly on the affected node and returned unchanged in
// kind: ErrUnresolvedBuffer, ErrLengthMismatch, ErrInvalidOffsets,
// ErrDimensionMismatch or ErrUnsupportedEncoding. No partial result is
// returned.
//
// Decode has no shared state; independent trees can be decoded concurrently.
//
// Parameters:
//   - loc: Locator resolving buffer references for this column or page
//   - tree: Root of the encoding tree
//   - ctx: Row count and list item count supplied by the container
//
// Returns:
//   - ArrayValue: Decoded root value
//   - error: One of the read-path errors above, wrapped with context
func Decode(loc Locator, tree ArrayEncoding, ctx DecodeContext) (ArrayValue, error) {
	return decode(loc, tree, ctx)
}

func decode(loc Locator, tree ArrayEncoding, ctx DecodeContext) (ArrayValue, error) {
	switch e := arrayOrNil(tree).(type) {
	case *BasicEncoding:
		return decodeBasic(loc, e, ctx.NumRows)
	case *FixedSizeListEncoding:
		return decodeFixedSizeList(loc, e, ctx)
	case *ListEncoding:
		return decodeList(loc, e, ctx)
	case *StructEncoding:
		return &StructValue{NumRows: ctx.NumRows}, nil
	case nil:
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "array encoding is unset")
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized array encoding %T", tree)
	}
}
