package pool

import "sync"

// Typed slice pools used while decoding columns and resolving cardinalities.
var (
	uint64SlicePool = sync.Pool{
		New: func() any { return &[]uint64{} },
	}
	intSlicePool = sync.Pool{
		New: func() any { return &[]int{} },
	}
)

// GetUint64Slice retrieves a uint64 slice of length size from the pool.
//
// The contents are not zeroed. The caller must call the returned cleanup
// function, typically with defer, to give the slice back.
//
// Example:
//
//	codes, cleanup := pool.GetUint64Slice(n)
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

// GetIntSlice retrieves an int slice of length size from the pool.
// See GetUint64Slice for the cleanup contract.
func GetIntSlice(size int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	slice := *ptr
	if cap(slice) < size {
		slice = make([]int, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { intSlicePool.Put(ptr) }
}
