package alloc

import "errors"

var (
	ErrOutOfMemory   = errors.New("alloc: out of memory")
	ErrInvalidSize   = errors.New("alloc: invalid size")
	ErrArenaReleased = errors.New("alloc: arena released")
	ErrChunkSize     = errors.New("alloc: arena chunk size must be positive")
)
