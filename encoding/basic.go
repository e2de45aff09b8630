package encoding

import (
	"math"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// Nullability is the nullability shape of a basic array. Exactly one of
// *NoNulls, *SomeNulls or *AllNulls is active.
type Nullability interface {
	Type() format.NullabilityType
	isNullability()
}

// NoNulls means every row is present.
type NoNulls struct {
	Values BufferEncoding
}

// SomeNulls pairs a validity bitmap with the values. Bit i set means row i
// is valid. Values still holds placeholder rows for invalid rows.
type SomeNulls struct {
	Validity BufferEncoding
	Values   BufferEncoding
}

// AllNulls stores no buffers; every one of the enclosing numRows rows is null.
type AllNulls struct{}

func (*NoNulls) Type() format.NullabilityType { return format.NoNulls }

func (*SomeNulls) Type() format.NullabilityType { return format.SomeNulls }

func (*AllNulls) Type() format.NullabilityType { return format.AllNulls }

func (*NoNulls) isNullability()   {}
func (*SomeNulls) isNullability() {}
func (*AllNulls) isNullability()  {}

// MaxRows is the largest row count an AllNulls node decodes, and the largest
// page a container accepts. An AllNulls node stores no buffer, so nothing
// else bounds its row count.
const MaxRows = math.MaxUint32

// BasicEncoding encodes a primitive-like array: fixed-width values, booleans,
// or fixed-size lists of fixed-width values folded into a wider value.
type BasicEncoding struct {
	Nullability Nullability
}

// BasicValue is a decoded basic array.
type BasicValue struct {
	NumRows     uint64
	Nullability format.NullabilityType
	// Values is empty for AllNulls; the assembler default-fills those rows.
	Values Values
	// Validity is nil for NoNulls, meaning every row is valid.
	Validity *bitset.BitSet
}

// Len returns the number of rows.
func (v *BasicValue) Len() uint64 { return v.NumRows }

// IsValid reports whether row i is valid.
func (v *BasicValue) IsValid(i uint64) bool {
	return v.Validity == nil || v.Validity.Test(uint(i))
}

// SelectNullability picks the nullability shape for a column from its null
// count alone: no nulls, every row null, or anything in between. An empty
// column has no nulls.
func SelectNullability(nullCount, numRows uint64) format.NullabilityType {
	switch nullCount {
	case 0:
		return format.NoNulls
	case numRows:
		return format.AllNulls
	default:
		return format.SomeNulls
	}
}

func decodeBasic(loc Locator, enc *BasicEncoding, numRows uint64) (*BasicValue, error) {
	out := &BasicValue{NumRows: numRows}

	switch n := nullabilityOrNil(enc.Nullability).(type) {
	case *NoNulls:
		vals, err := decodeBuffer(loc, n.Values, numRows)
		if err != nil {
			return nil, errors.Wrap(err, "no-nulls values")
		}
		out.Nullability = format.NoNulls
		out.Values = vals
	case *SomeNulls:
		validity, ok := n.Validity.(*BitmapBuffer)
		if !ok || validity == nil {
			return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "validity must be a bitmap buffer, got %s", bufferTypeName(n.Validity))
		}
		bits, err := DecodeBitmap(loc, validity, numRows)
		if err != nil {
			return nil, errors.Wrap(err, "some-nulls validity")
		}
		vals, err := decodeBuffer(loc, n.Values, numRows)
		if err != nil {
			return nil, errors.Wrap(err, "some-nulls values")
		}
		out.Nullability = format.SomeNulls
		out.Values = vals
		out.Validity = bits
	case *AllNulls:
		if numRows > MaxRows {
			return nil, errors.Wrapf(errs.ErrLengthMismatch, "all-nulls node with %d rows exceeds %d", numRows, uint64(MaxRows))
		}
		out.Nullability = format.AllNulls
		out.Validity = bitset.New(uint(numRows))
	case nil:
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "basic nullability is unset")
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized nullability %T", enc.Nullability)
	}

	return out, nil
}

func bufferTypeName(enc BufferEncoding) string {
	if bufferOrNil(enc) == nil {
		return "unset"
	}

	return enc.Type().String()
}
