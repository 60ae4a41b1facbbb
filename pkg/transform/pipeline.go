package transform

import (
	"errors"
	"fmt"
)

// Pipeline applies transforms 0..N when encoding and N..0 when decoding.
type Pipeline struct {
	transforms []Transform
}

// NewPipeline creates a pipeline. Requires at least one transform; use
// NewNoOpTransform() for an explicitly empty pipeline.
func NewPipeline(transforms ...Transform) (*Pipeline, error) {
	if len(transforms) == 0 {
		return nil, errors.New("pipeline requires at least one transform; use NewNoOpTransform() for an empty pipeline")
	}

	s := make([]Transform, len(transforms))
	copy(s, transforms)
	return &Pipeline{transforms: s}, nil
}

// Encode applies the transforms in forward order.
func (p *Pipeline) Encode(payload []byte) ([]byte, error) {
	var err error
	current := payload
	for i, t := range p.transforms {
		current, err = t.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("encode: transform %d (%T) Apply failed: %w", i, t, err)
		}
	}
	return current, nil
}

// Decode applies the transforms in reverse order.
func (p *Pipeline) Decode(payload []byte) ([]byte, error) {
	var err error
	current := payload
	for i := len(p.transforms) - 1; i >= 0; i-- {
		t := p.transforms[i]
		current, err = t.Reverse(current)
		if err != nil {
			return nil, fmt.Errorf("decode: transform %d (%T) Reverse failed: %w", i, t, err)
		}
	}
	return current, nil
}
