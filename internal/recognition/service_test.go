package recognition

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanjanaa7/face-recognition/internal/models"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
	"github.com/Sanjanaa7/face-recognition/internal/vision"
)

// fakeProvider maps detection slots to canned embedding vectors, keyed by
// the bounding box X coordinate.
type fakeProvider struct {
	detections []vision.Detection
	vectors    map[int][]float32
	model      string
}

func (f *fakeProvider) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return image.NewRGBA(image.Rect(0, 0, 640, 480)), nil
}

func (f *fakeProvider) DetectFace(img image.Image) (*vision.Detection, error) {
	if len(f.detections) == 0 {
		return nil, nil
	}
	det := f.detections[0]
	return &det, nil
}

func (f *fakeProvider) DetectFaces(img image.Image) ([]vision.Detection, int, int, error) {
	return f.detections, 640, 480, nil
}

func (f *fakeProvider) Embedding(img image.Image, box *vision.BoundingBox) ([]float32, error) {
	if box == nil {
		if len(f.detections) == 0 {
			return nil, nil
		}
		box = &f.detections[0].Box
	}
	return f.vectors[box.X], nil
}

func (f *fakeProvider) Landmarks(img image.Image) (*vision.LandmarkSet, error) { return nil, nil }

func (f *fakeProvider) AnalyzeDeep(img image.Image, box *vision.BoundingBox) (*vision.DeepAnalysis, error) {
	return nil, nil
}

func (f *fakeProvider) ModelName() string {
	if f.model == "" {
		return "arcface-w600k_r50"
	}
	return f.model
}

func (f *fakeProvider) Close() {}

func detectionAt(x int) vision.Detection {
	return vision.Detection{
		Box:        vision.BoundingBox{X: x, Y: 10, Width: 50, Height: 50},
		Confidence: 0.99,
	}
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "faces.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func newTestService(t *testing.T, provider *fakeProvider) (*Service, storage.Store) {
	t.Helper()
	store := newTestStore(t)
	return NewService(store, provider, nil, nil), store
}

func TestEnrollAndRecognize(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {1, 0, 0, 0}},
	}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	rec, err := svc.Enroll(ctx, EnrollInput{Name: "Alice", Image: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "arcface-w600k_r50", rec.EmbeddingModel)

	m, err := svc.Recognize(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, m.Status)
	require.NotNil(t, m.Name)
	assert.Equal(t, "Alice", *m.Name)
	require.NotNil(t, m.Confidence)
	assert.InDelta(t, 1.0, *m.Confidence, 1e-9)
	require.NotNil(t, m.Box)
	assert.Equal(t, 10, m.Box.X)
}

func TestRecognizeEmptyStoreIsUnknown(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {1, 0, 0, 0}},
	}
	svc, _ := newTestService(t, provider)

	m, err := svc.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, m.Status)
	assert.Nil(t, m.Name)
	require.NotNil(t, m.Confidence)
	assert.Equal(t, 0.0, *m.Confidence)
}

func TestRecognizeNoFace(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(t, provider)

	m, err := svc.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoFace, m.Status)
	assert.Nil(t, m.Name)
	assert.Nil(t, m.Confidence)

	logs, err := svc.Logs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StatusNoFace, logs[0].Status)
	assert.Nil(t, logs[0].RecognizedName)
	assert.Nil(t, logs[0].ConfidenceScore)
}

func TestEveryAttemptIsAudited(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {0, 1, 0, 0}},
	}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollInput{Name: "Bob", Image: []byte("img")})
	require.NoError(t, err)

	const attempts = 5
	for i := 0; i < attempts; i++ {
		_, err := svc.Recognize(ctx, []byte("img"))
		require.NoError(t, err)
	}

	logs, err := svc.Logs(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, logs, attempts)
	for _, entry := range logs {
		assert.Equal(t, models.StatusSuccess, entry.Status)
	}
}

func TestRecognizeAllMatchesFacesIndependently(t *testing.T) {
	// Two faces carrying the same identity vector both resolve to Alice.
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10), detectionAt(200)},
		vectors: map[int][]float32{
			10:  {1, 0, 0, 0},
			200: {1, 0, 0, 0},
		},
	}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollInput{Name: "Alice", Image: []byte("img")})
	require.NoError(t, err)

	matches, w, h, err := svc.RecognizeAll(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, models.StatusSuccess, m.Status)
		require.NotNil(t, m.Name)
		assert.Equal(t, "Alice", *m.Name)
	}

	// One audit entry per face, plus none for the enrollment itself.
	logs, err := svc.Logs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestEnrollAllPairsNamesBydetectionOrder(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10), detectionAt(200)},
		vectors: map[int][]float32{
			10:  {1, 0, 0, 0},
			200: {0, 1, 0, 0},
		},
	}
	svc, _ := newTestService(t, provider)

	results, err := svc.EnrollAll(context.Background(), []string{"Alice"}, "", "", []byte("img"), "faces.jpg", "image/jpeg")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Record)
	assert.Equal(t, "Alice", results[0].Record.Name)

	assert.Nil(t, results[1].Record)
	assert.ErrorIs(t, results[1].Err, models.ErrInvalidInput)
}

func TestRecognizeSkipsOtherModelRecords(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {1, 0, 0, 0}},
	}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	// Same vector, but tagged with a different embedding model: it must
	// never be compared, so the attempt stays unknown.
	other := &models.FaceRecord{
		Name:           "Mallory",
		Embedding:      []byte{4, 0, 0, 0, 0, 0, 128, 63, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		EmbeddingModel: "facenet-128",
	}
	require.NoError(t, store.EnrollFace(ctx, other))

	m, err := svc.Recognize(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, m.Status)
	assert.Nil(t, m.Name)
}

func TestDeleteByName(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {1, 0, 0, 0}},
	}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollInput{Name: "Alice", Image: []byte("img")})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, EnrollInput{Name: "Alice", Image: []byte("img")})
	require.NoError(t, err)

	name := "Alice"
	count, err := svc.Delete(ctx, nil, &name)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	faces, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestEnrollValidation(t *testing.T) {
	provider := &fakeProvider{
		detections: []vision.Detection{detectionAt(10)},
		vectors:    map[int][]float32{10: {1, 0, 0, 0}},
	}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollInput{Name: "   ", Image: []byte("img")})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	noFace := &fakeProvider{}
	svc2, _ := newTestService(t, noFace)
	_, err = svc2.Enroll(ctx, EnrollInput{Name: "Alice", Image: []byte("img")})
	assert.ErrorIs(t, err, models.ErrNoFace)
}
