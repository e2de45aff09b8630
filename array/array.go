package array

import (
	"encoding/binary"

	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// Array is a read-only columnar sequence of typed values with a validity concept.
type Array interface {
	// DataType returns the logical type of the array.
	DataType() DataType
	// Len returns the number of rows.
	Len() int
	// NullCount returns the number of null rows.
	NullCount() int
	// IsNull reports whether row i is null.
	IsNull(i int) bool
	// Validity returns the validity bitmap, or nil when every row is valid.
	Validity() *bitset.BitSet
}

// Integer is the set of element types accepted by FromValues.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type validity struct {
	bits      *bitset.BitSet
	nullCount int
}

func newValidity(bits *bitset.BitSet, n int) validity {
	if bits == nil {
		return validity{}
	}

	valid := 0
	if n > 0 {
		// Rank counts set bits in [0, n), ignoring any bits past the row count.
		valid = int(bits.Rank(uint(n - 1))) //nolint:gosec
	}

	return validity{bits: bits, nullCount: n - valid}
}

func (v validity) NullCount() int {
	return v.nullCount
}

func (v validity) IsNull(i int) bool {
	return v.bits != nil && !v.bits.Test(uint(i))
}

func (v validity) Validity() *bitset.BitSet {
	return v.bits
}

// ValidityFromBools builds a validity bitmap from per-row flags. It returns nil
// when valid is nil.
func ValidityFromBools(valid []bool) *bitset.BitSet {
	if valid == nil {
		return nil
	}

	bits := bitset.New(uint(len(valid)))
	for i, ok := range valid {
		if ok {
			bits.Set(uint(i))
		}
	}

	return bits
}

// AllNull returns a validity bitmap of n rows with every row null.
func AllNull(n int) *bitset.BitSet {
	return bitset.New(uint(n))
}

// Fixed is an array of fixed-width values stored row-major.
type Fixed struct {
	validity
	width int
	data  []byte
	n     int
}

var _ Array = (*Fixed)(nil)

// NewFixed creates a fixed-width array over data. The row count is len(data)/width.
func NewFixed(width int, data []byte, valid *bitset.BitSet) (*Fixed, error) {
	if width <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "fixed width %d must be positive", width)
	}
	if len(data)%width != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "data length %d is not a multiple of width %d", len(data), width)
	}

	n := len(data) / width

	return &Fixed{validity: newValidity(valid, n), width: width, data: data, n: n}, nil
}

// FromValues creates a little-endian fixed-width array from integer values.
// valid may be nil when every row is valid.
func FromValues[T Integer](values []T, valid []bool) *Fixed {
	data, err := binary.Append(nil, endian.GetLittleEndianEngine(), values)
	if err != nil {
		// binary.Append only fails for non fixed-size types, which Integer excludes.
		panic(err)
	}

	var zero T
	width := binary.Size(zero)

	return &Fixed{validity: newValidity(ValidityFromBools(valid), len(values)), width: width, data: data, n: len(values)}
}

func (a *Fixed) DataType() DataType { return FixedType(a.width) }
func (a *Fixed) Len() int           { return a.n }

// Width returns the number of bytes per value.
func (a *Fixed) Width() int { return a.width }

// Data returns the row-major value bytes, including placeholder bytes at null rows.
func (a *Fixed) Data() []byte { return a.data }

// Value returns the bytes of row i.
func (a *Fixed) Value(i int) []byte {
	return a.data[i*a.width : (i+1)*a.width]
}

// Uint64 returns row i as a little-endian unsigned integer. Width must be at most 8.
func (a *Fixed) Uint64(i int) uint64 {
	return endian.UintN(endian.GetLittleEndianEngine(), a.Value(i), a.width)
}

// Boolean is an array of one bit per row.
type Boolean struct {
	validity
	values *bitset.BitSet
	n      int
}

var _ Array = (*Boolean)(nil)

// NewBoolean creates a boolean array. valid may be nil when every row is valid.
func NewBoolean(values []bool, valid []bool) *Boolean {
	return &Boolean{
		validity: newValidity(ValidityFromBools(valid), len(values)),
		values:   ValidityFromBools(values),
		n:        len(values),
	}
}

// NewBooleanFromBits creates an n-row boolean array over packed bits.
func NewBooleanFromBits(values *bitset.BitSet, n int, valid *bitset.BitSet) *Boolean {
	if values == nil {
		values = bitset.New(uint(n))
	}

	return &Boolean{validity: newValidity(valid, n), values: values, n: n}
}

func (a *Boolean) DataType() DataType { return BooleanType() }
func (a *Boolean) Len() int           { return a.n }

// Value returns row i.
func (a *Boolean) Value(i int) bool { return a.values.Test(uint(i)) }

// Bits returns the value bitmap.
func (a *Boolean) Bits() *bitset.BitSet { return a.values }

// List is an array of variable-length lists over a child array.
type List struct {
	validity
	offsets []uint64
	child   Array
}

var _ Array = (*List)(nil)

// NewList creates a list array. offsets has one more entry than the row count,
// starts at zero, never decreases and ends at child.Len(). Null rows must
// cover an empty range.
func NewList(offsets []uint64, child Array, valid *bitset.BitSet) (*List, error) {
	if len(offsets) == 0 {
		return nil, errors.Wrap(errs.ErrInvalidArray, "list offsets must hold at least one entry")
	}
	if offsets[0] != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "list offsets start at %d, want 0", offsets[0])
	}
	if last := offsets[len(offsets)-1]; last != uint64(child.Len()) {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "list offsets end at %d, child has %d rows", last, child.Len())
	}

	n := len(offsets) - 1
	v := newValidity(valid, n)
	for i := range n {
		if offsets[i+1] < offsets[i] {
			return nil, errors.Wrapf(errs.ErrInvalidArray, "list offsets decrease at row %d", i)
		}
		if v.IsNull(i) && offsets[i+1] != offsets[i] {
			return nil, errors.Wrapf(errs.ErrInvalidArray, "null list at row %d covers %d items", i, offsets[i+1]-offsets[i])
		}
	}

	return &List{validity: v, offsets: offsets, child: child}, nil
}

func (a *List) DataType() DataType { return ListOf(a.child.DataType()) }
func (a *List) Len() int           { return len(a.offsets) - 1 }

// Offsets returns the row boundaries into the child array.
func (a *List) Offsets() []uint64 { return a.offsets }

// Child returns the item array.
func (a *List) Child() Array { return a.child }

// ValueRange returns the child row range [start, end) of row i.
func (a *List) ValueRange(i int) (start, end int) {
	return int(a.offsets[i]), int(a.offsets[i+1])
}

// FixedSizeList is an array of lists that all hold Dimension items.
type FixedSizeList struct {
	validity
	dimension int
	child     Array
	n         int
}

var _ Array = (*FixedSizeList)(nil)

// NewFixedSizeList creates a fixed-size list array with child.Len()/dimension rows.
func NewFixedSizeList(dimension int, child Array, valid *bitset.BitSet) (*FixedSizeList, error) {
	if dimension <= 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "fixed-size list dimension %d must be positive", dimension)
	}
	if child.Len()%dimension != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArray, "child length %d is not a multiple of dimension %d", child.Len(), dimension)
	}

	n := child.Len() / dimension

	return &FixedSizeList{validity: newValidity(valid, n), dimension: dimension, child: child, n: n}, nil
}

func (a *FixedSizeList) DataType() DataType { return FixedSizeListOf(a.dimension, a.child.DataType()) }
func (a *FixedSizeList) Len() int           { return a.n }

// Dimension returns the number of items per row.
func (a *FixedSizeList) Dimension() int { return a.dimension }

// Child returns the item array.
func (a *FixedSizeList) Child() Array { return a.child }

// Struct is an array of rows whose fields live in separate arrays.
type Struct struct {
	validity
	fields []Array
	n      int
}

var _ Array = (*Struct)(nil)

// NewStruct creates a struct array of n rows. Every field must hold n rows.
func NewStruct(n int, fields []Array, valid *bitset.BitSet) (*Struct, error) {
	for i, f := range fields {
		if f.Len() != n {
			return nil, errors.Wrapf(errs.ErrInvalidArray, "struct field %d has %d rows, want %d", i, f.Len(), n)
		}
	}

	return &Struct{validity: newValidity(valid, n), fields: fields, n: n}, nil
}

func (a *Struct) DataType() DataType {
	fields := make([]DataType, len(a.fields))
	for i, f := range a.fields {
		fields[i] = f.DataType()
	}

	return StructOf(fields...)
}

func (a *Struct) Len() int { return a.n }

// Fields returns the field arrays.
func (a *Struct) Fields() []Array { return a.fields }
