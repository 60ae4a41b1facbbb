// Package dynstr implements DynString, an owned, growable byte string with
// explicit length and capacity, backed by a single buffer obtained from a
// caller supplied alloc.Allocator.
//
// A DynString has exactly one owner and is not safe for concurrent use. It
// must be released explicitly with Release; the buffer goes back through
// the allocator it was created with.
//
// Allocation failure is not reported as an error. Constructors and Append
// panic with an *alloc.AllocError when the allocator cannot satisfy a
// request.
package dynstr

import (
	"bytes"
	"fmt"

	"dynstr-go/pkg/alloc"
	"dynstr-go/pkg/log"
)

// DynString is a growable byte string.
//
// buf always holds exactly Cap() bytes from a; bytes [0, length) are the
// value, the rest is allocated but unused.
type DynString struct {
	buf    []byte
	length int
	a      alloc.Allocator
}

// New allocates a string with capacity size and length 0.
func New(a alloc.Allocator, size int) *DynString {
	if a == nil {
		panic("dynstr: nil allocator")
	}
	return &DynString{
		buf: alloc.Must(a, size),
		a:   a,
	}
}

// Empty is New(a, 0).
func Empty(a alloc.Allocator) *DynString {
	return New(a, 0)
}

// FromRaw copies b into a new string with capacity 2*len(b), leaving room
// for the next append.
func FromRaw(a alloc.Allocator, b []byte) *DynString {
	s := New(a, 2*len(b))
	s.length = copy(s.buf, b)
	return s
}

// Release frees the buffer through the owning allocator. The string must not
// be used afterwards; releasing twice is a no-op.
func (s *DynString) Release() {
	if s.buf == nil {
		return
	}
	s.a.Free(s.buf)
	s.buf = nil
	s.length = 0
}

// Len returns the number of bytes in use.
func (s *DynString) Len() int { return s.length }

// Cap returns the number of bytes allocated.
func (s *DynString) Cap() int { return len(s.buf) }

// Allocator returns the allocator fixed at construction.
func (s *DynString) Allocator() alloc.Allocator { return s.a }

// ToRaw returns a view of the logical content backed by the string's own
// buffer. The view is valid until the next Append or Release. Its capacity
// is clipped so appending to it never writes into the string.
func (s *DynString) ToRaw() []byte {
	return s.buf[:s.length:s.length]
}

// String returns a copy of the content.
func (s *DynString) String() string {
	return string(s.ToRaw())
}

// EqualsToRaw reports whether the content equals b byte for byte.
func (s *DynString) EqualsToRaw(b []byte) bool {
	return bytes.Equal(s.ToRaw(), b)
}

// EqualsTo reports whether both strings hold the same content.
func (s *DynString) EqualsTo(other *DynString) bool {
	return s.EqualsToRaw(other.ToRaw())
}

// Append adds other's content to the end of s and returns s.
//
// The copy happens in place only when the free space strictly exceeds
// other.Len(). Otherwise the buffer is replaced by one of capacity
// (s.Cap()+other.Cap())*2 and the old one is freed. other is not modified;
// s.Append(s) doubles s.
func (s *DynString) Append(other *DynString) *DynString {
	src := other.ToRaw()
	n := len(src)

	if s.Cap()-s.length > n {
		copy(s.buf[s.length:], src)
		s.length += n
		return s
	}

	newCap := (s.Cap() + other.Cap()) * 2
	buf := alloc.Must(s.a, newCap)
	copy(buf, s.buf[:s.length])
	copy(buf[s.length:], src)

	log.Debug().
		Int("from", s.Cap()).
		Int("to", newCap).
		Int("length", s.length+n).
		Msg("dynstr: grow")

	s.a.Free(s.buf)
	s.buf = buf
	s.length += n
	return s
}

// AppendRaw appends a copy of b and returns s.
func (s *DynString) AppendRaw(b []byte) *DynString {
	tmp := FromRaw(s.a, b)
	defer tmp.Release()
	return s.Append(tmp)
}

// Write appends p, so a DynString can sit behind an io.Writer. It never
// returns an error.
func (s *DynString) Write(p []byte) (int, error) {
	s.AppendRaw(p)
	return len(p), nil
}

// At returns the byte at pos. pos must be in [0, Len()).
func (s *DynString) At(pos int) (byte, error) {
	if pos < 0 || pos >= s.length {
		return 0, fmt.Errorf("%w: position %d, length %d", ErrOutOfBound, pos, s.length)
	}
	return s.buf[pos], nil
}

// Substring returns a new string holding a copy of bytes [start, end),
// allocated from the same allocator with capacity 2*(end-start).
// It fails with ErrOutOfBound when either bound is outside [0, Len()] or
// start > end.
func (s *DynString) Substring(start, end int) (*DynString, error) {
	if start < 0 || end < 0 || start > s.length || end > s.length || start > end {
		return nil, fmt.Errorf("%w: range [%d, %d), length %d", ErrOutOfBound, start, end, s.length)
	}
	return FromRaw(s.a, s.buf[start:end]), nil
}

// SubstringFrom is Substring(start, s.Len()).
func (s *DynString) SubstringFrom(start int) (*DynString, error) {
	return s.Substring(start, s.length)
}
