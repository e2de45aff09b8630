package container

import (
	"testing"

	"github.com/arloliu/colenc/array"
	"github.com/stretchr/testify/require"
)

func mustList(t *testing.T, offsets []uint64, child array.Array, valid []bool) *array.List {
	t.Helper()

	arr, err := array.NewList(offsets, child, array.ValidityFromBools(valid))
	require.NoError(t, err)

	return arr
}

func mustFixedSizeList(t *testing.T, dim int, child array.Array, valid []bool) *array.FixedSizeList {
	t.Helper()

	arr, err := array.NewFixedSizeList(dim, child, array.ValidityFromBools(valid))
	require.NoError(t, err)

	return arr
}

func mustStruct(t *testing.T, n int, fields ...array.Array) *array.Struct {
	t.Helper()

	arr, err := array.NewStruct(n, fields, nil)
	require.NoError(t, err)

	return arr
}

// samplePages returns arrays of one type, one per page.
func samplePages(t *testing.T) map[string][]array.Array {
	t.Helper()

	return map[string][]array.Array{
		"ints": {
			array.FromValues([]int32{1, -2, 3}, nil),
			array.FromValues([]int32{4, 5}, []bool{false, true}),
			array.FromValues([]int32{0, 0}, []bool{false, false}),
		},
		"flags": {
			array.NewBoolean([]bool{true, false, true, true}, []bool{true, true, false, true}),
		},
		"tags": {
			mustList(t, []uint64{0, 2, 2, 5}, array.FromValues([]uint16{1, 2, 3, 4, 5}, nil), []bool{true, false, true}),
			mustList(t, []uint64{0, 0, 1}, array.FromValues([]uint16{9}, nil), nil),
		},
		"points": {
			mustFixedSizeList(t, 2, array.FromValues([]uint8{1, 2, 3, 4, 5, 6}, nil), []bool{true, false, true}),
		},
		"vectors": {
			mustFixedSizeList(t, 3, array.FromValues([]uint32{1, 2, 3, 4, 5, 6}, nil), nil),
		},
		"records": {
			mustStruct(t, 2,
				array.FromValues([]int64{10, 20}, nil),
				mustList(t, []uint64{0, 1, 3}, array.FromValues([]uint8{7, 8, 9}, []bool{true, false, true}), nil),
			),
		},
		"nested": {
			mustList(t, []uint64{0, 2, 3},
				mustList(t, []uint64{0, 1, 1, 3}, array.FromValues([]uint32{1, 2, 3}, nil), []bool{true, false, true}),
				nil),
		},
	}
}
