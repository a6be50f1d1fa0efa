package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanjanaa7/face-recognition/internal/embedding"
	"github.com/Sanjanaa7/face-recognition/internal/models"
)

func record(id int64, name string, vec []float32) models.FaceRecord {
	return models.FaceRecord{ID: id, Name: name, Embedding: embedding.Encode(vec)}
}

func TestMatchExact(t *testing.T) {
	candidates := []models.FaceRecord{record(1, "alice", []float32{1, 0, 0})}

	res, err := Match([]float32{1, 0, 0}, candidates)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, "alice", res.Record.Name)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}

func TestMatchOrthogonalRejected(t *testing.T) {
	candidates := []models.FaceRecord{record(1, "alice", []float32{1, 0, 0})}

	res, err := Match([]float32{0, 1, 0}, candidates)
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Equal(t, 0.0, res.Score)
}

func TestThresholdBoundary(t *testing.T) {
	// cos([1,0], [3,4]) = 3/5 = 0.6 exactly.
	at := []models.FaceRecord{record(1, "boundary", []float32{3, 4})}
	res, err := Match([]float32{1, 0}, at)
	require.NoError(t, err)
	require.NotNil(t, res.Record, "similarity exactly at threshold must be accepted")
	assert.InDelta(t, 0.6, res.Score, 1e-12)

	// Just below the threshold: rejected, but the score is still reported.
	below := []models.FaceRecord{record(1, "close", []float32{0.599998, 0.8})}
	res, err = Match([]float32{1, 0}, below)
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Less(t, res.Score, 0.6)
	assert.Greater(t, res.Score, 0.59)
}

func TestEmptyCandidates(t *testing.T) {
	res, err := Match([]float32{1, 0, 0}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Equal(t, 0.0, res.Score)
}

func TestTieKeepsFirstCandidate(t *testing.T) {
	vec := []float32{0.5, 0.5, 0.5}
	candidates := []models.FaceRecord{
		record(1, "first", vec),
		record(2, "second", vec),
		record(3, "third", vec),
	}

	res, err := Match(vec, candidates)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, int64(1), res.Record.ID)
}

func TestMatchDeterministic(t *testing.T) {
	candidates := []models.FaceRecord{
		record(1, "a", []float32{0.9, 0.1, 0}),
		record(2, "b", []float32{0.8, 0.6, 0}),
		record(3, "c", []float32{1, 0, 0}),
	}
	query := []float32{1, 0.05, 0}

	first, err := Match(query, candidates)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Match(query, candidates)
		require.NoError(t, err)
		assert.Equal(t, first.Record.ID, again.Record.ID)
		assert.Equal(t, first.Score, again.Score)
	}
}

func TestBestScoreReportedBelowThreshold(t *testing.T) {
	candidates := []models.FaceRecord{
		record(1, "far", []float32{0, 1}),
		record(2, "closer", []float32{0.5, 1}),
	}

	res, err := Match([]float32{1, 0}, candidates)
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Greater(t, res.Score, 0.0)
	assert.Less(t, res.Score, 0.6)
}

func TestDimensionMismatchIsError(t *testing.T) {
	candidates := []models.FaceRecord{record(1, "alice", []float32{1, 0, 0, 0})}

	_, err := Match([]float32{1, 0, 0}, candidates)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)
}

func TestCorruptBlobIsError(t *testing.T) {
	candidates := []models.FaceRecord{
		{ID: 1, Name: "broken", Embedding: []byte{1, 2, 3}},
	}

	_, err := Match([]float32{1, 0, 0}, candidates)
	assert.ErrorIs(t, err, models.ErrCorruptEmbedding)
}

func TestEmptyQueryIsError(t *testing.T) {
	_, err := Match(nil, []models.FaceRecord{record(1, "alice", []float32{1})})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
