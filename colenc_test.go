package colenc

import (
	"context"
	"testing"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/container"
	"github.com/arloliu/colenc/encoding"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestEncodeArray_RoundTrip(t *testing.T) {
	items := array.FromValues([]uint16{1, 2, 3, 4}, []bool{true, true, false, true})
	tags, err := array.NewList([]uint64{0, 1, 1, 4}, items, array.ValidityFromBools([]bool{true, false, true}))
	require.NoError(t, err)
	record, err := array.NewStruct(3, []array.Array{array.FromValues([]int64{7, 8, 9}, nil), tags}, nil)
	require.NoError(t, err)

	arrays := []array.Array{
		array.FromValues([]int32{90, 0, 75}, []bool{true, false, true}),
		array.NewBoolean([]bool{true, false}, nil),
		tags,
		record,
	}

	for _, arr := range arrays {
		t.Run(arr.DataType().String(), func(t *testing.T) {
			encoded, err := EncodeArray(arr)
			require.NoError(t, err)

			decoded, err := DecodeArray(encoded)
			require.NoError(t, err)
			require.True(t, array.Equal(arr, decoded))
		})
	}
}

func TestEncodeArray_Children(t *testing.T) {
	items := array.FromValues([]uint8{1, 2, 3}, nil)
	list, err := array.NewList([]uint64{0, 2, 3}, items, nil)
	require.NoError(t, err)

	encoded, err := EncodeArray(list, encoding.WithScope(format.ScopeFileMetadata))
	require.NoError(t, err)

	require.Equal(t, uint64(2), encoded.Column.NumRows)
	require.Equal(t, uint64(3), encoded.Column.NumItems)
	require.Len(t, encoded.Children, 1)
	require.Same(t, encoded.Buffers, encoded.Children[0].Buffers)
	require.Equal(t, 2, encoded.Buffers.Len(format.ScopeFileMetadata))
	require.Zero(t, encoded.Buffers.Len(format.ScopePage))
	require.Equal(t, "Basic(NoNulls(values=Value(FileMetadata[1], 1)))", encoding.Describe(encoded.Children[0].Column.Tree))
}

func TestEncodeArray_Errors(t *testing.T) {
	_, err := EncodeArray(array.FromValues([]int8{1}, nil), encoding.WithScope(format.BufferScope(9)))
	require.Error(t, err)

	s, err := array.NewStruct(1, nil, array.ValidityFromBools([]bool{false}))
	require.NoError(t, err)
	_, err = EncodeArray(s)
	require.True(t, errors.Is(err, errs.ErrUnsupportedEncoding))
}

func TestWriterAndOpenFile(t *testing.T) {
	scores := array.FromValues([]int32{90, 0, 75}, []bool{true, false, true})

	w, err := NewWriter(container.WithCompression(format.CompressionS2))
	require.NoError(t, err)
	require.NoError(t, w.WritePage("scores", scores))
	file, err := w.Bytes()
	require.NoError(t, err)

	r, err := OpenFile(file)
	require.NoError(t, err)

	pages, err := r.DecodeColumn(context.Background(), "scores")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.True(t, array.Equal(scores, pages[0]))
}
