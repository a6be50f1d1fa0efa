package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanjanaa7/face-recognition/internal/models"
)

func TestRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{1},
		{0, 0, 0},
		{1, -1, 0.5, -0.25},
		{3.1415927, -2.7182817, 1e-30, 1e30},
		{math.MaxFloat32, -math.MaxFloat32, math.SmallestNonzeroFloat32},
	}

	for _, vec := range vectors {
		blob := Encode(vec)
		got, err := Decode(blob, 0)
		require.NoError(t, err)
		assert.Equal(t, vec, got)
	}
}

func TestRoundTripPinnedDim(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	got, err := Decode(Encode(vec), 5)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestDecodeTruncatedBlob(t *testing.T) {
	blob := Encode([]float32{1, 2, 3})

	_, err := Decode(blob[:len(blob)-1], 0)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)

	_, err = Decode(blob[:2], 0)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)

	_, err = Decode(nil, 0)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)
}

func TestDecodeZeroDim(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)
}

func TestDecodeDimMismatch(t *testing.T) {
	blob := Encode([]float32{1, 2, 3})
	_, err := Decode(blob, 4)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)
}
