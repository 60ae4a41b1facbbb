package store

import "errors"

var (
	ErrNotFound  = errors.New("store: no string stored under this name")
	ErrEmptyName = errors.New("store: empty name")
	ErrClosed    = errors.New("store: closed")
	ErrCorrupt   = errors.New("store: unknown value format")
)
