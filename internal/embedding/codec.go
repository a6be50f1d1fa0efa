// Package embedding converts identity vectors between their in-memory and
// persisted representations. The wire format is a little-endian uint32
// dimension header followed by that many little-endian float32 values; it is
// internal to the store and not a public contract.
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Sanjanaa7/face-recognition/internal/models"
)

const headerSize = 4

// Encode serializes a vector to its storage form.
func Encode(vec []float32) []byte {
	buf := make([]byte, headerSize+4*len(vec))
	binary.LittleEndian.PutUint32(buf[0:headerSize], uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	return buf
}

// Decode parses a stored blob back into a vector. expectedDim > 0 additionally
// pins the dimensionality; pass 0 to accept any. Failures wrap
// models.ErrCorruptEmbedding.
func Decode(data []byte, expectedDim int) ([]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", models.ErrCorruptEmbedding, len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:headerSize]))
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", models.ErrCorruptEmbedding)
	}
	if len(data) != headerSize+4*dim {
		return nil, fmt.Errorf("%w: header declares %d dims but blob holds %d bytes",
			models.ErrCorruptEmbedding, dim, len(data))
	}
	if expectedDim > 0 && dim != expectedDim {
		return nil, fmt.Errorf("%w: expected %d dims, stored %d", models.ErrCorruptEmbedding, expectedDim, dim)
	}

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}
	return vec, nil
}
