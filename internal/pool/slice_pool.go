package pool

import "sync"

var uint64SlicePool = sync.Pool{
	New: func() any { return &[]uint64{} },
}

// GetUint64Slice retrieves a uint64 slice of exactly size elements from the pool.
//
// The contents are not zeroed. The caller must call the returned cleanup
// function, typically with defer, once it no longer references the slice.
//
// Example:
//
//	offsets, cleanup := pool.GetUint64Slice(numRows + 1)
//	defer cleanup()
func GetUint64Slice(size int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)

	slice := *ptr
	if cap(slice) < size {
		slice = make([]uint64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { uint64SlicePool.Put(ptr) }
}
