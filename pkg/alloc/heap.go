package alloc

import "sync/atomic"

// Stats is a snapshot of allocator activity.
type Stats struct {
	Allocs     int64
	Frees      int64
	BytesInUse int64
}

// Heap allocates from the Go runtime. Free only drops the accounting; the
// garbage collector reclaims the memory once the caller lets go of it.
type Heap struct {
	allocs atomic.Int64
	frees  atomic.Int64
	inUse  atomic.Int64
}

// NewHeap returns a heap allocator with zeroed counters.
func NewHeap() *Heap {
	return &Heap{}
}

func (h *Heap) Alloc(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	h.allocs.Add(1)
	h.inUse.Add(int64(size))
	return make([]byte, size), nil
}

func (h *Heap) Free(buf []byte) {
	if buf == nil {
		return
	}
	h.frees.Add(1)
	h.inUse.Add(-int64(cap(buf)))
}

// Stats returns the current counters.
func (h *Heap) Stats() Stats {
	return Stats{
		Allocs:     h.allocs.Load(),
		Frees:      h.frees.Load(),
		BytesInUse: h.inUse.Load(),
	}
}
