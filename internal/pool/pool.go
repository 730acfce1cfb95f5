// Package pool provides bucketed sync.Pool instances for the scratch rows of
// the predictor stage. Buffers are organized by size class to minimize waste.
package pool

import "sync"

// Size classes for bucketed pools, in elements.
const (
	Size256 = 256
	Size1K  = 1024
	Size4K  = 4096
	Size16K = 16384
	Size64K = 65536
)

const numBuckets = 5

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	switch {
	case size <= Size256:
		return 0
	case size <= Size1K:
		return 1
	case size <= Size4K:
		return 2
	case size <= Size16K:
		return 3
	default:
		return 4
	}
}

var sizes = [numBuckets]int{Size256, Size1K, Size4K, Size16K, Size64K}

var (
	uint32Pools [numBuckets]sync.Pool
	uint8Pools  [numBuckets]sync.Pool
)

func init() {
	for i := range sizes {
		sz := sizes[i]
		uint32Pools[i] = sync.Pool{
			New: func() any {
				b := make([]uint32, sz)
				return &b
			},
		}
		uint8Pools[i] = sync.Pool{
			New: func() any {
				b := make([]uint8, sz)
				return &b
			},
		}
	}
}

// GetUint32 returns a zeroed uint32 slice of the requested length from the
// pool. The caller must call PutUint32 when done.
func GetUint32(length int) []uint32 {
	bp := uint32Pools[bucketIndex(length)].Get().(*[]uint32)
	b := *bp
	if cap(b) < length {
		return make([]uint32, length)
	}
	b = b[:length]
	clear(b)
	return b
}

// PutUint32 returns a slice obtained from GetUint32 to the pool. Slices
// smaller than Size256 are not pooled.
func PutUint32(b []uint32) {
	c := cap(b)
	if c < Size256 {
		return
	}
	b = b[:c]
	uint32Pools[bucketIndex(c)].Put(&b)
}

// GetUint8 returns a zeroed byte slice of the requested length from the
// pool. The caller must call PutUint8 when done.
func GetUint8(length int) []uint8 {
	bp := uint8Pools[bucketIndex(length)].Get().(*[]uint8)
	b := *bp
	if cap(b) < length {
		return make([]uint8, length)
	}
	b = b[:length]
	clear(b)
	return b
}

// PutUint8 returns a slice obtained from GetUint8 to the pool. Slices smaller
// than Size256 are not pooled.
func PutUint8(b []uint8) {
	c := cap(b)
	if c < Size256 {
		return
	}
	b = b[:c]
	uint8Pools[bucketIndex(c)].Put(&b)
}
