package encoding

import (
	"math"
	"math/bits"

	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// ListEncoding encodes the offsets of a variable-length list column.
//
// Offsets decodes to numRows+1 unsigned values, never null, starting at 0.
// A valid row adds its length to the previous offset and a null row adds
// numItems, the column's total item count. Reading back, the raw delta
// between neighbours tells the rows apart:
//
//	delta == 0         empty list
//	delta == numItems  null list
//	otherwise          list of delta mod numItems items
//
// so null lists need no validity buffer. The items themselves are a sibling
// column and are not part of this node.
type ListEncoding struct {
	Offsets ArrayEncoding
}

// ListValue is a decoded list column.
type ListValue struct {
	NumRows  uint64
	NumItems uint64
	// Offsets holds NumRows+1 boundaries into the item column. Null rows
	// cover an empty range.
	Offsets []uint64
	// Validity is nil when no list is null.
	Validity *bitset.BitSet
}

// Len returns the number of rows.
func (v *ListValue) Len() uint64 { return v.NumRows }

// IsNull reports whether row i is null.
func (v *ListValue) IsNull(i uint64) bool {
	return v.Validity != nil && !v.Validity.Test(uint(i))
}

// Length returns the number of items of row i.
func (v *ListValue) Length(i uint64) uint64 {
	return v.Offsets[i+1] - v.Offsets[i]
}

// EncodeOffsets computes the encoded offsets of a list column.
//
// Parameters:
//   - lengths: Item count per row; ignored for null rows
//   - nulls: Null flag per row, or nil when no row is null
//   - numItems: Total item count; must equal the sum of valid lengths
//
// Returns:
//   - []uint64: len(lengths)+1 offsets
//   - error: ErrInvalidOffsets when the column cannot be represented
//
// Two shapes are unrepresentable. With numItems == 0 a null list cannot be
// told apart from an empty one. A valid list holding all numItems items
// alongside a null list produces two rows with delta == numItems.
func EncodeOffsets(lengths []uint64, nulls []bool, numItems uint64) ([]uint64, error) {
	if nulls != nil && len(nulls) != len(lengths) {
		return nil, errors.AssertionFailedf("%d null flags for %d rows", len(nulls), len(lengths))
	}

	isNull := func(i int) bool { return nulls != nil && nulls[i] }

	var total uint64
	hasNull, hasFull := false, false
	for i, l := range lengths {
		if isNull(i) {
			hasNull = true
			continue
		}
		total += l
		if numItems > 0 && l == numItems {
			hasFull = true
		}
	}

	if total != numItems {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "lists hold %d items, num_items is %d", total, numItems)
	}
	if hasNull && numItems == 0 {
		return nil, errors.Wrap(errs.ErrInvalidOffsets, "a null list cannot be represented when num_items is 0")
	}
	if hasNull && hasFull {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "a list of all %d items is indistinguishable from a null list", numItems)
	}

	offsets := make([]uint64, len(lengths)+1)
	for i, l := range lengths {
		delta := l
		if isNull(i) {
			delta = numItems
		}

		next, carry := bits.Add64(offsets[i], delta, 0)
		if carry != 0 {
			return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offset overflow at row %d", i)
		}
		offsets[i+1] = next
	}

	return offsets, nil
}

// DecodeOffsets validates encoded offsets and resolves each row's length and
// null status.
//
// The raw delta is compared against 0 and numItems before any modulus is
// taken. Offsets are rejected with ErrInvalidOffsets when offsets[0] != 0,
// when a delta is negative or above 2*numItems, or when the valid lengths
// do not add up to numItems.
//
// When numItems is 0 every row decodes as an empty list. When exactly one row
// has delta == numItems and no other row holds items, that row is the list
// holding every item rather than a null list.
func DecodeOffsets(offsets []uint64, numItems uint64) (*ListValue, error) {
	if len(offsets) == 0 {
		return nil, errors.Wrap(errs.ErrInvalidOffsets, "offsets are empty")
	}
	if offsets[0] != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets[0] is %d, want 0", offsets[0])
	}

	numRows := uint64(len(offsets) - 1)
	maxDelta := uint64(math.MaxUint64)
	if numItems <= math.MaxUint64/2 {
		maxDelta = 2 * numItems
	}

	out := &ListValue{
		NumRows:  numRows,
		NumItems: numItems,
		Offsets:  make([]uint64, len(offsets)),
	}

	var (
		validity   *bitset.BitSet
		nullRows   []uint64
		total      uint64
		lengthsBuf = make([]uint64, numRows)
	)
	for i := range numRows {
		if offsets[i+1] < offsets[i] {
			return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets decrease at row %d (%d -> %d)", i, offsets[i], offsets[i+1])
		}

		delta := offsets[i+1] - offsets[i]
		if delta > maxDelta {
			return nil, errors.Wrapf(errs.ErrInvalidOffsets, "row %d: delta %d exceeds 2*num_items (%d)", i, delta, numItems)
		}

		switch {
		case delta == 0:
			lengthsBuf[i] = 0
		case delta == numItems:
			nullRows = append(nullRows, i)
		default:
			lengthsBuf[i] = delta % numItems
			total += lengthsBuf[i]
		}
	}

	if len(nullRows) == 1 && total == 0 && numItems > 0 {
		lengthsBuf[nullRows[0]] = numItems
		total = numItems
		nullRows = nil
	}

	if total != numItems {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets reference %d items, num_items is %d", total, numItems)
	}

	if len(nullRows) > 0 {
		validity = bitset.New(uint(numRows))
		validity.FlipRange(0, uint(numRows))
		for _, r := range nullRows {
			validity.Clear(uint(r))
		}
	}

	for i := range numRows {
		out.Offsets[i+1] = out.Offsets[i] + lengthsBuf[i]
	}
	out.Validity = validity

	return out, nil
}

// offsetWidth returns the smallest of 1, 2, 4 or 8 bytes that holds v.
func offsetWidth(v uint64) uint64 {
	switch {
	case v < 1<<8:
		return 1
	case v < 1<<16:
		return 2
	case v < 1<<32:
		return 4
	default:
		return 8
	}
}

func decodeList(loc Locator, enc *ListEncoding, ctx DecodeContext) (*ListValue, error) {
	if ctx.NumRows == math.MaxUint64 {
		return nil, errors.Wrap(errs.ErrInvalidOffsets, "row count overflows the offsets length")
	}

	decoded, err := decode(loc, enc.Offsets, DecodeContext{NumRows: ctx.NumRows + 1, NumItems: ctx.NumItems})
	if err != nil {
		return nil, errors.Wrap(err, "list offsets")
	}

	raw, err := offsetsFromValue(decoded)
	if err != nil {
		return nil, err
	}

	return DecodeOffsets(raw, ctx.NumItems)
}

// offsetsFromValue reads a decoded offsets node as little-endian unsigned integers.
func offsetsFromValue(v ArrayValue) ([]uint64, error) {
	basic, ok := v.(*BasicValue)
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets must be a basic array, got %s", v.Type())
	}
	if basic.Nullability != format.NoNulls {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets must not be null, got %s", basic.Nullability)
	}
	if basic.Values.Encoding != format.BufferValue {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offsets must be a value buffer, got %s", basic.Values.Encoding)
	}

	width := basic.Values.Width
	if width == 0 || width > 8 {
		return nil, errors.Wrapf(errs.ErrInvalidOffsets, "offset width %d is not in [1, 8]", width)
	}

	engine := endian.GetLittleEndianEngine()
	out := make([]uint64, basic.NumRows)
	for i := range out {
		start := uint64(i) * width
		out[i] = endian.UintN(engine, basic.Values.Data[start:start+width], int(width))
	}

	return out, nil
}
