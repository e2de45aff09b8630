package encoding

import (
	"testing"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDecode_FixedSizeList(t *testing.T) {
	table := NewBufferTable()
	ref := table.Put(format.ScopePage, []byte{1, 2, 3, 4, 5, 6})
	tree := &FixedSizeListEncoding{
		Dimension: 3,
		Items:     &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: 1}}},
	}

	value, err := Decode(table, tree, DecodeContext{NumRows: 2})
	require.NoError(t, err)

	fsl, ok := value.(*FixedSizeListValue)
	require.True(t, ok)
	require.Equal(t, format.ArrayFixedSizeList, fsl.Type())
	require.Equal(t, uint64(2), fsl.Len())
	require.Equal(t, uint64(6), fsl.Items.Len())

	start, end := fsl.ItemRange(1)
	require.Equal(t, uint64(3), start)
	require.Equal(t, uint64(6), end)
}

// The items subtree always decodes to exactly numRows*dimension rows.
func TestDecode_FixedSizeListLaw(t *testing.T) {
	for dim := uint32(1); dim <= 4; dim++ {
		for rows := range uint64(5) {
			table := NewBufferTable()
			ref := table.Put(format.ScopePage, make([]byte, rows*uint64(dim)*2))
			tree := &FixedSizeListEncoding{
				Dimension: dim,
				Items:     &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: 2}}},
			}

			value, err := Decode(table, tree, DecodeContext{NumRows: rows})
			require.NoError(t, err)
			require.Equal(t, rows*uint64(dim), value.(*FixedSizeListValue).Items.Len())

			// One row more than the buffer holds.
			_, err = Decode(table, tree, DecodeContext{NumRows: rows + 1})
			require.True(t, errors.Is(err, errs.ErrLengthMismatch))
		}
	}
}

func TestDecode_FixedSizeListNested(t *testing.T) {
	table := NewBufferTable()
	ref := table.Put(format.ScopePage, make([]byte, 12))
	tree := &FixedSizeListEncoding{
		Dimension: 2,
		Items: &FixedSizeListEncoding{
			Dimension: 3,
			Items:     &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: 1}}},
		},
	}

	value, err := Decode(table, tree, DecodeContext{NumRows: 2})
	require.NoError(t, err)

	outer := value.(*FixedSizeListValue)
	inner := outer.Items.(*FixedSizeListValue)
	require.Equal(t, uint64(4), inner.Len())
	require.Equal(t, uint64(12), inner.Items.Len())
}

func TestDecode_FixedSizeListErrors(t *testing.T) {
	table := NewBufferTable()
	ref := table.Put(format.ScopePage, make([]byte, 6))

	_, err := Decode(table, &FixedSizeListEncoding{
		Dimension: 0,
		Items:     &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: 1}}},
	}, DecodeContext{NumRows: 2})
	require.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = Decode(table, &FixedSizeListEncoding{
		Dimension: 1 << 31,
		Items:     &BasicEncoding{Nullability: &AllNulls{}},
	}, DecodeContext{NumRows: 1 << 40})
	require.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = Decode(table, &FixedSizeListEncoding{Dimension: 3}, DecodeContext{NumRows: 2})
	require.True(t, errors.Is(err, errs.ErrUnsupportedEncoding))
}
