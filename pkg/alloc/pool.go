package alloc

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	// DefaultMinClass is the smallest pooled buffer size.
	DefaultMinClass = 64

	// DefaultMaxClass is the largest pooled buffer size; bigger requests
	// bypass the pool.
	DefaultMaxClass = 64 * 1024
)

// bufferPool maintains a pool of byte slices of one capacity class.
type bufferPool struct {
	pool sync.Pool
	size int
}

func newBufferPool(size int) *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
		size: size,
	}
}

func (p *bufferPool) get() []byte {
	buffer := *(p.pool.Get().(*[]byte))
	if cap(buffer) < p.size {
		buffer = make([]byte, p.size)
	}
	// No need to zero the buffer, content beyond the logical length of a
	// string is never read.
	return buffer[:p.size]
}

func (p *bufferPool) put(buffer []byte) {
	buffer = buffer[:p.size]
	p.pool.Put(&buffer)
}

// PoolStats extends Stats with pool reuse counters.
type PoolStats struct {
	Stats
	Oversized int64
}

// Pool is a size-class allocator. Requests are rounded up to the next power
// of two between the min and max class and served from a sync.Pool per
// class. Requests above the max class go straight to the Go heap.
type Pool struct {
	classes  []*bufferPool
	minShift int

	allocs    atomic.Int64
	frees     atomic.Int64
	inUse     atomic.Int64
	oversized atomic.Int64
}

// NewPool creates a pool with power-of-two classes covering [minClass, maxClass].
// Both bounds are rounded up to a power of two; zero picks the defaults.
func NewPool(minClass, maxClass int) *Pool {
	if minClass <= 0 {
		minClass = DefaultMinClass
	}
	if maxClass <= 0 {
		maxClass = DefaultMaxClass
	}
	minShift := ceilShift(minClass)
	maxShift := ceilShift(maxClass)
	if maxShift < minShift {
		maxShift = minShift
	}

	p := &Pool{minShift: minShift}
	for s := minShift; s <= maxShift; s++ {
		p.classes = append(p.classes, newBufferPool(1<<s))
	}
	return p
}

func ceilShift(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// classFor returns the pool serving size, or nil when size is above the
// largest class.
func (p *Pool) classFor(size int) *bufferPool {
	idx := ceilShift(size) - p.minShift
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.classes) {
		return nil
	}
	return p.classes[idx]
}

func (p *Pool) Alloc(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	p.allocs.Add(1)

	bp := p.classFor(size)
	if bp == nil {
		p.oversized.Add(1)
		p.inUse.Add(int64(size))
		return make([]byte, size), nil
	}
	p.inUse.Add(int64(bp.size))
	return bp.get()[:size], nil
}

func (p *Pool) Free(buf []byte) {
	if buf == nil {
		return
	}
	p.frees.Add(1)

	c := cap(buf)
	bp := p.classFor(c)
	if bp == nil || bp.size != c {
		// Oversized or foreign buffer, let the GC have it.
		p.inUse.Add(-int64(len(buf)))
		return
	}
	p.inUse.Add(-int64(c))
	bp.put(buf)
}

// Stats returns the current counters. BytesInUse counts whole class sizes.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Stats: Stats{
			Allocs:     p.allocs.Load(),
			Frees:      p.frees.Load(),
			BytesInUse: p.inUse.Load(),
		},
		Oversized: p.oversized.Load(),
	}
}
