package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipTransform struct {
	level int
}

// NewGzipTransform creates a gzip transform at gzip.DefaultCompression.
func NewGzipTransform() Transform {
	return &gzipTransform{level: gzip.DefaultCompression}
}

// NewGzipTransformLevel creates a gzip transform at the given level, from
// gzip.HuffmanOnly up to gzip.BestCompression.
func NewGzipTransformLevel(level int) (Transform, error) {
	// validate once here rather than on every Apply
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return &gzipTransform{level: level}, nil
}

func (g *gzipTransform) Apply(data []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, len(data)/2+64))
	zw, err := gzip.NewWriterLevel(out, g.level)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return out.Bytes(), nil
}

func (g *gzipTransform) Reverse(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer zr.Close()

	out := bytes.NewBuffer(make([]byte, 0, 2*len(data)))
	if _, err := io.Copy(out, zr); err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return out.Bytes(), nil
}
