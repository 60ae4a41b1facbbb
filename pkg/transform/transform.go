// Package transform provides reversible byte transforms (compression and
// encryption) and a pipeline to chain them. The store uses it to encode
// string snapshots at rest.
package transform

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Transform is a reversible byte transformation: Reverse(Apply(b)) == b.
type Transform interface {
	Apply(data []byte) ([]byte, error)
	Reverse(data []byte) ([]byte, error)
}

// Compression names accepted by ByName.
const (
	None = "none"
	Zstd = "zstd"
	Gzip = "gzip"
)

var ErrUnknownTransform = errors.New("transform: unknown transform")

type noOpTransform struct{}

func NewNoOpTransform() Transform                            { return &noOpTransform{} }
func (n *noOpTransform) Apply(data []byte) ([]byte, error)   { return data, nil }
func (n *noOpTransform) Reverse(data []byte) ([]byte, error) { return data, nil }

// ByName returns the compression transform registered under name at its
// default level. An empty name is the no-op transform.
func ByName(name string) (Transform, error) {
	return ByNameLevel(name, 0)
}

// ByNameLevel is ByName with an explicit compression level. Level 0 selects
// the default; zstd levels follow the zstd command line (1-22), gzip levels
// follow compress/flate (-2 to 9). The no-op transform ignores level.
func ByNameLevel(name string, level int) (Transform, error) {
	if level != 0 {
		switch name {
		case Zstd:
			return NewZstdTransformLevel(zstd.EncoderLevelFromZstd(level))
		case Gzip:
			return NewGzipTransformLevel(level)
		}
	}
	switch name {
	case "", None:
		return NewNoOpTransform(), nil
	case Zstd:
		return NewZstdTransform()
	case Gzip:
		return NewGzipTransform(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
}
