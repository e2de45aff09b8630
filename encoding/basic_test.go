package encoding

import (
	"math"
	"testing"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestSelectNullability(t *testing.T) {
	for rows := range uint64(20) {
		for nulls := range rows + 1 {
			got := SelectNullability(nulls, rows)
			switch {
			case nulls == 0:
				require.Equal(t, format.NoNulls, got, "nulls=%d rows=%d", nulls, rows)
			case nulls == rows:
				require.Equal(t, format.AllNulls, got, "nulls=%d rows=%d", nulls, rows)
			default:
				require.Equal(t, format.SomeNulls, got, "nulls=%d rows=%d", nulls, rows)
			}
		}
	}
}

func TestDecode_BasicNoNulls(t *testing.T) {
	table := NewBufferTable()
	ref := table.Put(format.ScopePage, []byte{1, 0, 2, 0, 3, 0})
	tree := &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: 2}}}

	value, err := Decode(table, tree, DecodeContext{NumRows: 3})
	require.NoError(t, err)

	basic, ok := value.(*BasicValue)
	require.True(t, ok)
	require.Equal(t, format.ArrayBasic, basic.Type())
	require.Equal(t, format.NoNulls, basic.Nullability)
	require.Equal(t, uint64(3), basic.Len())
	require.Nil(t, basic.Validity)
	require.Equal(t, []byte{1, 0, 2, 0, 3, 0}, basic.Values.Data)
	for i := range uint64(3) {
		require.True(t, basic.IsValid(i))
	}
}

func TestDecode_BasicSomeNulls(t *testing.T) {
	table := NewBufferTable()
	validity := table.Put(format.ScopePage, []byte{0b101})
	values := table.Put(format.ScopeColumnMetadata, []byte{7, 0, 9})
	tree := &BasicEncoding{Nullability: &SomeNulls{
		Validity: &BitmapBuffer{Buffer: validity},
		Values:   &ValueBuffer{Buffer: values, BytesPerValue: 1},
	}}

	value, err := Decode(table, tree, DecodeContext{NumRows: 3})
	require.NoError(t, err)

	basic := value.(*BasicValue)
	require.Equal(t, format.SomeNulls, basic.Nullability)
	require.True(t, basic.IsValid(0))
	require.False(t, basic.IsValid(1))
	require.True(t, basic.IsValid(2))
	require.Equal(t, []byte{7, 0, 9}, basic.Values.Data)
}

func TestDecode_BasicBooleanValues(t *testing.T) {
	table := NewBufferTable()
	ref := table.Put(format.ScopePage, []byte{0b0110})
	tree := &BasicEncoding{Nullability: &NoNulls{Values: &BitmapBuffer{Buffer: ref}}}

	value, err := Decode(table, tree, DecodeContext{NumRows: 4})
	require.NoError(t, err)

	basic := value.(*BasicValue)
	require.Equal(t, format.BufferBitmap, basic.Values.Encoding)
	require.False(t, basic.Values.Bits.Test(0))
	require.True(t, basic.Values.Bits.Test(1))
	require.True(t, basic.Values.Bits.Test(2))
	require.False(t, basic.Values.Bits.Test(3))
}

// An all-null column decodes to invalid rows without touching any buffer.
func TestDecode_BasicAllNulls(t *testing.T) {
	loc := &countingLocator{Locator: NewBufferTable()}
	tree := &BasicEncoding{Nullability: &AllNulls{}}

	value, err := Decode(loc, tree, DecodeContext{NumRows: 3})
	require.NoError(t, err)
	require.Empty(t, loc.calls)

	basic := value.(*BasicValue)
	require.Equal(t, format.AllNulls, basic.Nullability)
	require.Equal(t, uint64(3), basic.Len())
	for i := range uint64(3) {
		require.False(t, basic.IsValid(i))
	}
	require.Nil(t, basic.Values.Data)
}

func TestDecode_BasicAllNullsRowLimit(t *testing.T) {
	tree := &BasicEncoding{Nullability: &AllNulls{}}

	for _, rows := range []uint64{MaxRows + 1, 1<<61 + 3, math.MaxUint64} {
		_, err := Decode(NewBufferTable(), tree, DecodeContext{NumRows: rows})
		require.True(t, errors.Is(err, errs.ErrLengthMismatch), "rows=%d: got %v", rows, err)
	}

	value, err := Decode(NewBufferTable(), tree, DecodeContext{NumRows: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(0), value.Len())
}

func TestDecode_BasicErrors(t *testing.T) {
	table := NewBufferTable()
	three := table.Put(format.ScopePage, []byte{1, 2, 3})
	empty := table.Put(format.ScopePage, nil)

	tests := []struct {
		name string
		tree *BasicEncoding
		want error
	}{
		{
			name: "unset nullability",
			tree: &BasicEncoding{},
			want: errs.ErrUnsupportedEncoding,
		},
		{
			name: "unset values",
			tree: &BasicEncoding{Nullability: &NoNulls{}},
			want: errs.ErrUnsupportedEncoding,
		},
		{
			name: "reserved values",
			tree: &BasicEncoding{Nullability: &NoNulls{Values: &ReservedBuffer{Kind: format.BufferConstant}}},
			want: errs.ErrUnsupportedEncoding,
		},
		{
			name: "value validity",
			tree: &BasicEncoding{Nullability: &SomeNulls{
				Validity: &ValueBuffer{Buffer: three, BytesPerValue: 1},
				Values:   &ValueBuffer{Buffer: three, BytesPerValue: 1},
			}},
			want: errs.ErrUnsupportedEncoding,
		},
		{
			name: "short values",
			tree: &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: three, BytesPerValue: 2}}},
			want: errs.ErrLengthMismatch,
		},
		{
			name: "short validity",
			tree: &BasicEncoding{Nullability: &SomeNulls{
				Validity: &BitmapBuffer{Buffer: empty},
				Values:   &ValueBuffer{Buffer: three, BytesPerValue: 1},
			}},
			want: errs.ErrLengthMismatch,
		},
		{
			name: "dangling validity",
			tree: &BasicEncoding{Nullability: &SomeNulls{
				Validity: &BitmapBuffer{Buffer: BufferRef{Index: 5, Scope: format.ScopeFileMetadata}},
				Values:   &ValueBuffer{Buffer: three, BytesPerValue: 1},
			}},
			want: errs.ErrUnresolvedBuffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(table, tt.tree, DecodeContext{NumRows: 3})
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
