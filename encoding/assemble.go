package encoding

import (
	"math"
	"math/bits"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// Assemble builds an in-memory array of type dt from a decoded value.
//
// The tree carries no logical type, so the caller supplies it. Columns that
// Encode returned as children (list items, struct fields) must be decoded and
// assembled separately and passed in children, in the same order.
//
// Rows of an AllNulls value are filled with zero bytes and marked null.
//
// Parameters:
//   - value: Result of Decode
//   - dt: Logical type of the column
//   - children: Assembled child columns, for lists and structs
//
// Returns:
//   - array.Array: The assembled array
//   - error: ErrDataTypeMismatch when value does not have the shape dt requires
func Assemble(value ArrayValue, dt array.DataType, children ...array.Array) (array.Array, error) {
	arr, rest, err := assemble(value, dt, children)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%d unused child arrays for %s", len(rest), dt)
	}

	return arr, nil
}

// assemble returns the assembled array and the children it did not consume.
func assemble(value ArrayValue, dt array.DataType, children []array.Array) (array.Array, []array.Array, error) {
	switch dt.Kind {
	case array.KindFixed:
		basic, err := asBasic(value, dt)
		if err != nil {
			return nil, nil, err
		}
		arr, err := assembleFixed(basic, dt.Width)

		return arr, children, err
	case array.KindBoolean:
		basic, err := asBasic(value, dt)
		if err != nil {
			return nil, nil, err
		}
		arr, err := assembleBoolean(basic)

		return arr, children, err
	case array.KindFixedSizeList:
		return assembleFixedSizeList(value, dt, children)
	case array.KindList:
		return assembleList(value, dt, children)
	case array.KindStruct:
		return assembleStruct(value, dt, children)
	default:
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "unknown data type %s", dt)
	}
}

func asBasic(value ArrayValue, dt array.DataType) (*BasicValue, error) {
	basic, ok := value.(*BasicValue)
	if !ok {
		return nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s needs a basic encoding, got %s", dt, typeName(value))
	}

	return basic, nil
}

func typeName(value ArrayValue) string {
	if value == nil {
		return "nothing"
	}

	return value.Type().String()
}

func assembleFixed(v *BasicValue, width int) (array.Array, error) {
	if v.Nullability == format.AllNulls {
		size, err := rowBytes(v.NumRows, width)
		if err != nil {
			return nil, err
		}

		return array.NewFixed(width, make([]byte, size), v.Validity)
	}
	if v.Values.Encoding != format.BufferValue || v.Values.Width != uint64(width) { //nolint:gosec
		return nil, errors.Wrapf(errs.ErrDataTypeMismatch,
			"fixed<%d> needs a value buffer of width %d, got %s of width %d", width, width, v.Values.Encoding, v.Values.Width)
	}

	return array.NewFixed(width, v.Values.Data, v.Validity)
}

func assembleBoolean(v *BasicValue) (array.Array, error) {
	n, err := rowCount(v.NumRows)
	if err != nil {
		return nil, err
	}
	if v.Nullability == format.AllNulls {
		if _, err := rowBytes(v.NumRows, 1); err != nil {
			return nil, err
		}

		return array.NewBooleanFromBits(bitset.New(uint(n)), n, v.Validity), nil
	}
	if v.Values.Encoding != format.BufferBitmap {
		return nil, errors.Wrapf(errs.ErrDataTypeMismatch, "bool needs a bitmap buffer, got %s", v.Values.Encoding)
	}

	return array.NewBooleanFromBits(v.Values.Bits, n, v.Validity), nil
}

func assembleFixedSizeList(value ArrayValue, dt array.DataType, children []array.Array) (array.Array, []array.Array, error) {
	switch v := value.(type) {
	case *FixedSizeListValue:
		if int(v.Dimension) != dt.Dimension {
			return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s decoded with dimension %d", dt, v.Dimension)
		}
		child, rest, err := assemble(v.Items, *dt.Elem, children)
		if err != nil {
			return nil, nil, errors.Wrap(err, "fixed-size list items")
		}
		arr, err := array.NewFixedSizeList(dt.Dimension, child, nil)

		return arr, rest, err
	case *BasicValue:
		// A nullable fixed-size list folds each row into one wide value.
		if dt.Elem.Kind != array.KindFixed {
			return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s cannot be folded into a basic encoding", dt)
		}
		rowWidth := dt.Dimension * dt.Elem.Width

		var data []byte
		switch {
		case v.Nullability == format.AllNulls:
			size, err := rowBytes(v.NumRows, rowWidth)
			if err != nil {
				return nil, nil, err
			}
			data = make([]byte, size)
		case v.Values.Encoding == format.BufferValue && v.Values.Width == uint64(rowWidth): //nolint:gosec
			data = v.Values.Data
		default:
			return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch,
				"%s needs a value buffer of width %d, got %s of width %d", dt, rowWidth, v.Values.Encoding, v.Values.Width)
		}

		child, err := array.NewFixed(dt.Elem.Width, data, nil)
		if err != nil {
			return nil, nil, err
		}
		arr, err := array.NewFixedSizeList(dt.Dimension, child, v.Validity)

		return arr, children, err
	default:
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s decoded as %s", dt, typeName(value))
	}
}

func assembleList(value ArrayValue, dt array.DataType, children []array.Array) (array.Array, []array.Array, error) {
	v, ok := value.(*ListValue)
	if !ok {
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s decoded as %s", dt, typeName(value))
	}
	if len(children) == 0 {
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s needs its item array", dt)
	}

	items := children[0]
	if !items.DataType().Equal(*dt.Elem) {
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s got items of type %s", dt, items.DataType())
	}
	if uint64(items.Len()) != v.NumItems { //nolint:gosec
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s got %d items, offsets reference %d", dt, items.Len(), v.NumItems)
	}

	arr, err := array.NewList(v.Offsets, items, v.Validity)

	return arr, children[1:], err
}

func assembleStruct(value ArrayValue, dt array.DataType, children []array.Array) (array.Array, []array.Array, error) {
	v, ok := value.(*StructValue)
	if !ok {
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s decoded as %s", dt, typeName(value))
	}
	if len(children) < len(dt.Fields) {
		return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s needs %d fields, got %d", dt, len(dt.Fields), len(children))
	}

	fields := children[:len(dt.Fields)]
	for i, f := range fields {
		if !f.DataType().Equal(dt.Fields[i]) {
			return nil, nil, errors.Wrapf(errs.ErrDataTypeMismatch, "%s field %d has type %s", dt, i, f.DataType())
		}
	}

	n, err := rowCount(v.NumRows)
	if err != nil {
		return nil, nil, err
	}
	arr, err := array.NewStruct(n, fields, nil)

	return arr, children[len(dt.Fields):], err
}

func rowCount(numRows uint64) (int, error) {
	if numRows > math.MaxInt {
		return 0, errors.Wrapf(errs.ErrLengthMismatch, "%d rows do not fit in memory", numRows)
	}

	return int(numRows), nil
}

// rowBytes sizes the zero fill of an AllNulls value. It fails past MaxRows
// or when numRows*width overflows an int.
func rowBytes(numRows uint64, width int) (int, error) {
	if numRows > MaxRows {
		return 0, errors.Wrapf(errs.ErrLengthMismatch, "all-nulls value with %d rows exceeds %d", numRows, uint64(MaxRows))
	}
	hi, size := bits.Mul64(numRows, uint64(width)) //nolint:gosec
	if hi != 0 || size > math.MaxInt {
		return 0, errors.Wrapf(errs.ErrLengthMismatch, "%d rows of %d bytes do not fit in memory", numRows, width)
	}

	return int(size), nil
}
