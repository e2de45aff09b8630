package encoding

import (
	"math/bits"

	"github.com/arloliu/colenc/errs"
	"github.com/cockroachdb/errors"
)

// FixedSizeListEncoding encodes lists that all hold Dimension items. Row i
// owns child rows [i*Dimension, (i+1)*Dimension) of Items.
//
// The node has no null concept. A nullable fixed-size list is carried by an
// enclosing BasicEncoding whose value width spans a whole row.
type FixedSizeListEncoding struct {
	Dimension uint32
	Items     ArrayEncoding
}

// FixedSizeListValue is a decoded fixed-size list column.
type FixedSizeListValue struct {
	NumRows   uint64
	Dimension uint32
	Items     ArrayValue
}

// Len returns the number of rows.
func (v *FixedSizeListValue) Len() uint64 { return v.NumRows }

// ItemRange returns the child row range [start, end) of row i.
func (v *FixedSizeListValue) ItemRange(i uint64) (start, end uint64) {
	d := uint64(v.Dimension)
	return i * d, (i + 1) * d
}

func decodeFixedSizeList(loc Locator, enc *FixedSizeListEncoding, ctx DecodeContext) (*FixedSizeListValue, error) {
	if enc.Dimension == 0 {
		return nil, errors.Wrap(errs.ErrDimensionMismatch, "dimension is 0")
	}

	hi, childRows := bits.Mul64(ctx.NumRows, uint64(enc.Dimension))
	if hi != 0 {
		return nil, errors.Wrapf(errs.ErrDimensionMismatch, "%d rows of dimension %d overflow", ctx.NumRows, enc.Dimension)
	}

	items, err := decode(loc, enc.Items, DecodeContext{NumRows: childRows, NumItems: ctx.NumItems})
	if err != nil {
		return nil, errors.Wrap(err, "fixed-size list items")
	}
	if items.Len() != childRows {
		return nil, errors.Wrapf(errs.ErrDimensionMismatch,
			"items decoded to %d rows, want %d rows of dimension %d", items.Len(), ctx.NumRows, enc.Dimension)
	}

	return &FixedSizeListValue{NumRows: ctx.NumRows, Dimension: enc.Dimension, Items: items}, nil
}
