package alloc

// DefaultChunkSize is the arena chunk size used when none is given.
const DefaultChunkSize = 64 * 1024

// Arena is a chunked bump allocator. Regions are carved sequentially out of
// large chunks and are never freed individually: Free is a no-op and the
// memory comes back all at once through Reset or Release.
//
// Regions handed out before a Reset or Release must not be used afterwards.
// An Arena is not safe for concurrent use.
type Arena struct {
	chunkSize int
	chunks    [][]byte
	offset    int // into the last chunk
	inUse     int
	released  bool
}

// ArenaMetrics describes arena memory usage.
type ArenaMetrics struct {
	Chunks      int
	Capacity    int
	SizeInUse   int
	Utilization float64
}

// NewArena creates an arena with the given chunk size (0 for the default).
func NewArena(chunkSize int) (*Arena, error) {
	if chunkSize < 0 {
		return nil, ErrChunkSize
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}, nil
}

func (a *Arena) Alloc(size int) ([]byte, error) {
	if a.released {
		return nil, ErrArenaReleased
	}
	if err := checkSize(size); err != nil {
		return nil, err
	}

	if size > a.chunkSize {
		// Dedicated chunk, inserted before the current one so the bump
		// position stays valid.
		buf := make([]byte, size)
		if n := len(a.chunks); n > 0 {
			last := a.chunks[n-1]
			a.chunks = append(a.chunks[:n-1], buf, last)
		} else {
			a.chunks = append(a.chunks, buf)
			a.offset = size
		}
		a.inUse += size
		return buf[:size:size], nil
	}

	if len(a.chunks) == 0 || a.chunkSize-a.offset < size || len(a.chunks[len(a.chunks)-1]) != a.chunkSize {
		a.chunks = append(a.chunks, make([]byte, a.chunkSize))
		a.offset = 0
	}
	chunk := a.chunks[len(a.chunks)-1]
	buf := chunk[a.offset : a.offset+size : a.offset+size]
	a.offset += size
	a.inUse += size
	return buf, nil
}

// Free is a no-op; arena memory is reclaimed by Reset or Release.
func (a *Arena) Free([]byte) {}

// Reset makes the whole arena available again, keeping the first regular
// chunk for reuse.
func (a *Arena) Reset() {
	var keep []byte
	for _, c := range a.chunks {
		if len(c) == a.chunkSize {
			keep = c
			break
		}
	}
	a.chunks = a.chunks[:0]
	a.offset = 0
	a.inUse = 0
	if keep != nil {
		a.chunks = append(a.chunks, keep)
	}
}

// Release drops every chunk. Further allocations fail with ErrArenaReleased.
func (a *Arena) Release() {
	a.chunks = nil
	a.offset = 0
	a.inUse = 0
	a.released = true
}

// Metrics reports current usage.
func (a *Arena) Metrics() ArenaMetrics {
	m := ArenaMetrics{Chunks: len(a.chunks), SizeInUse: a.inUse}
	for _, c := range a.chunks {
		m.Capacity += len(c)
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.SizeInUse) / float64(m.Capacity)
	}
	return m
}
