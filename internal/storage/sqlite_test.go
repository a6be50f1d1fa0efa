package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanjanaa7/face-recognition/internal/embedding"
	"github.com/Sanjanaa7/face-recognition/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "faces.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func enroll(t *testing.T, s *SQLiteStore, name string, vec []float32) *models.FaceRecord {
	t.Helper()
	rec := &models.FaceRecord{
		Name:           name,
		Embedding:      embedding.Encode(vec),
		EmbeddingModel: "arcface-w600k_r50",
	}
	require.NoError(t, s.EnrollFace(context.Background(), rec))
	return rec
}

func TestEnrollAssignsMonotonicIDs(t *testing.T) {
	s := newTestStore(t)

	a := enroll(t, s, "alice", []float32{1, 0, 0})
	b := enroll(t, s, "bob", []float32{0, 1, 0})
	c := enroll(t, s, "alice", []float32{0, 0, 1})

	assert.Greater(t, b.ID, a.ID)
	assert.Greater(t, c.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}

func TestEnrollValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.EnrollFace(ctx, &models.FaceRecord{Name: "", Embedding: embedding.Encode([]float32{1})})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	err = s.EnrollFace(ctx, &models.FaceRecord{Name: "alice"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListFacesInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	enroll(t, s, "carol", []float32{1, 0})
	enroll(t, s, "alice", []float32{0, 1})
	enroll(t, s, "bob", []float32{1, 1})

	faces, err := s.ListFaces(context.Background())
	require.NoError(t, err)
	require.Len(t, faces, 3)
	assert.Equal(t, "carol", faces[0].Name)
	assert.Equal(t, "alice", faces[1].Name)
	assert.Equal(t, "bob", faces[2].Name)

	// Embeddings round-trip through the store untouched.
	vec, err := embedding.Decode(faces[0].Embedding, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}

func TestDeleteByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	enroll(t, s, "Alice", []float32{1, 0})
	enroll(t, s, "Alice", []float32{0.9, 0.1})
	enroll(t, s, "Alice", []float32{0.8, 0.2})
	enroll(t, s, "Bob", []float32{0, 1})

	name := "Alice"
	count, _, err := s.DeleteFaces(ctx, nil, &name)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	faces, err := s.ListFaces(ctx)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, "Bob", faces[0].Name)
}

func TestDeleteByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := enroll(t, s, "alice", []float32{1, 0})
	enroll(t, s, "bob", []float32{0, 1})

	count, _, err := s.DeleteFaces(ctx, &rec.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteNonexistentIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	id := int64(9999)
	count, _, err := s.DeleteFaces(context.Background(), &id, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteSelectorValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.DeleteFaces(ctx, nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	id := int64(1)
	name := "alice"
	_, _, err = s.DeleteFaces(ctx, &id, &name)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeleteReturnsImageKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &models.FaceRecord{
		Name:      "alice",
		Embedding: embedding.Encode([]float32{1, 0}),
		ImageKey:  "faces/alice/abc_photo.jpg",
	}
	require.NoError(t, s.EnrollFace(ctx, rec))
	enroll(t, s, "alice", []float32{0.9, 0.1}) // no image key

	name := "alice"
	count, keys, err := s.DeleteFaces(ctx, nil, &name)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, []string{"faces/alice/abc_photo.jpg"}, keys)
}

func TestRecognitionLogAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	name := "alice"
	score := 0.93
	require.NoError(t, s.LogRecognition(ctx, &models.RecognitionLog{
		RecognizedName: &name, ConfidenceScore: &score, Status: models.StatusSuccess,
	}))
	require.NoError(t, s.LogRecognition(ctx, &models.RecognitionLog{Status: models.StatusNoFace}))
	low := 0.41
	require.NoError(t, s.LogRecognition(ctx, &models.RecognitionLog{
		ConfidenceScore: &low, Status: models.StatusUnknown,
	}))

	logs, err := s.ListRecognitionLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	// Newest first.
	assert.Equal(t, models.StatusUnknown, logs[0].Status)
	assert.Equal(t, models.StatusNoFace, logs[1].Status)
	assert.Equal(t, models.StatusSuccess, logs[2].Status)

	require.NotNil(t, logs[2].RecognizedName)
	assert.Equal(t, "alice", *logs[2].RecognizedName)
	require.NotNil(t, logs[2].ConfidenceScore)
	assert.InDelta(t, 0.93, *logs[2].ConfidenceScore, 1e-9)

	assert.Nil(t, logs[1].RecognizedName)
	assert.Nil(t, logs[1].ConfidenceScore)
	assert.False(t, logs[0].Timestamp.IsZero())
}

func TestListRecognitionLogsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogRecognition(ctx, &models.RecognitionLog{Status: models.StatusUnknown}))
	}

	logs, err := s.ListRecognitionLogs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
