// Package alloc defines the memory source used by dynstr values and a few
// ready-made implementations: the Go heap, size-class pools, a bump arena,
// a byte budget and a prometheus-instrumented wrapper.
//
// Allocators are always passed explicitly. There is no package-level
// default; callers that don't care pick NewHeap() at the call site.
package alloc

import (
	"fmt"

	"dynstr-go/pkg/log"
)

// Allocator hands out byte regions and takes them back.
//
// Alloc returns a slice whose length is exactly size. Free receives a slice
// previously returned by the same allocator (possibly re-sliced); freeing
// nil is a no-op.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

// AllocError is the panic value raised by Must when an allocator cannot
// satisfy a request.
type AllocError struct {
	Size int
	Err  error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("alloc: cannot allocate %d bytes: %v", e.Size, e.Err)
}

func (e *AllocError) Unwrap() error {
	return e.Err
}

// Must allocates size bytes from a and panics with an *AllocError on failure.
// Allocation failure is treated as an unrecoverable environment condition
// and is logged at error level before panicking.
func Must(a Allocator, size int) []byte {
	buf, err := a.Alloc(size)
	if err != nil {
		log.Error().Err(err).Int("size", size).Msg("alloc: allocation failed")
		panic(&AllocError{Size: size, Err: err})
	}
	return buf
}

func checkSize(size int) error {
	if size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}
