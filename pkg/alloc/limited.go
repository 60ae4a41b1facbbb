package alloc

import (
	"fmt"
	"sync"
)

// Limited caps the number of live bytes obtained through it. Requests that
// would exceed the budget fail with ErrOutOfMemory.
type Limited struct {
	next  Allocator
	limit int

	mu   sync.Mutex
	live int
}

// NewLimited wraps next with a budget of limit bytes.
func NewLimited(next Allocator, limit int) *Limited {
	return &Limited{next: next, limit: limit}
}

func (l *Limited) Alloc(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.live+size > l.limit {
		live := l.live
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, live, l.limit)
	}
	l.live += size
	l.mu.Unlock()

	buf, err := l.next.Alloc(size)
	if err != nil {
		l.mu.Lock()
		l.live -= size
		l.mu.Unlock()
		return nil, err
	}
	return buf, nil
}

func (l *Limited) Free(buf []byte) {
	if buf == nil {
		return
	}
	l.mu.Lock()
	l.live -= len(buf)
	l.mu.Unlock()
	l.next.Free(buf)
}

// Live returns the number of bytes currently accounted to the budget.
func (l *Limited) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}
