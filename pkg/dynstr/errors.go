package dynstr

import "errors"

// ErrOutOfBound is the only recoverable error kind: an index or range
// outside the logical content of a string.
var ErrOutOfBound = errors.New("dynstr: out of bound")
