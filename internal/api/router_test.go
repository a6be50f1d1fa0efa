package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanjanaa7/face-recognition/internal/recognition"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
	"github.com/Sanjanaa7/face-recognition/internal/vision"
	"github.com/Sanjanaa7/face-recognition/pkg/dto"
)

// stubProvider serves one fixed face per image, keyed by nothing: every
// upload contains the same face with the same embedding.
type stubProvider struct {
	noFace bool
	vector []float32
}

func (s *stubProvider) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return image.NewRGBA(image.Rect(0, 0, 640, 480)), nil
}

func (s *stubProvider) DetectFace(img image.Image) (*vision.Detection, error) {
	if s.noFace {
		return nil, nil
	}
	return &vision.Detection{
		Box:        vision.BoundingBox{X: 10, Y: 10, Width: 100, Height: 100},
		Confidence: 0.98,
	}, nil
}

func (s *stubProvider) DetectFaces(img image.Image) ([]vision.Detection, int, int, error) {
	if s.noFace {
		return nil, 640, 480, nil
	}
	det, _ := s.DetectFace(img)
	return []vision.Detection{*det}, 640, 480, nil
}

func (s *stubProvider) Embedding(img image.Image, box *vision.BoundingBox) ([]float32, error) {
	if s.noFace {
		return nil, nil
	}
	return s.vector, nil
}

func (s *stubProvider) Landmarks(img image.Image) (*vision.LandmarkSet, error) {
	if s.noFace {
		return nil, nil
	}
	all := []vision.Landmark{{Index: 0, X: 30, Y: 40}, {Index: 1, X: 80, Y: 40}}
	return &vision.LandmarkSet{
		All:         all,
		Categorized: map[string][]vision.Landmark{"left_eye": {all[0]}, "right_eye": {all[1]}},
	}, nil
}

func (s *stubProvider) AnalyzeDeep(img image.Image, box *vision.BoundingBox) (*vision.DeepAnalysis, error) {
	if s.noFace {
		return nil, nil
	}
	return &vision.DeepAnalysis{
		Emotion:          "happiness",
		EmotionScores:    map[string]float32{"happiness": 0.9, "neutral": 0.1},
		Age:              30,
		Gender:           "female",
		GenderConfidence: 0.85,
	}, nil
}

func (s *stubProvider) ModelName() string { return "arcface-w600k_r50" }
func (s *stubProvider) Close()            {}

func newTestRouter(t *testing.T, provider vision.Provider, apiKey string) http.Handler {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "faces.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	svc := recognition.NewService(store, provider, nil, nil)

	return NewRouter(RouterConfig{
		APIKey:   apiKey,
		Store:    store,
		Provider: provider,
		Service:  svc,
	})
}

func imageForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "face.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFaceDetectionEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vector: []float32{1, 0, 0, 0}}, "")

	body, ct := imageForm(t, nil)
	rec := doRequest(t, router, http.MethodPost, "/api/face-detection", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.FaceDetectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.FaceDetected)
	require.NotNil(t, resp.BoundingBox)
	assert.Equal(t, 10, resp.BoundingBox.X)
	assert.Len(t, resp.FaceEmbedding, 4)
}

func TestFaceDetectionNoFace(t *testing.T) {
	router := newTestRouter(t, &stubProvider{noFace: true}, "")

	body, ct := imageForm(t, nil)
	rec := doRequest(t, router, http.MethodPost, "/api/face-detection", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.FaceDetectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.FaceDetected)
	assert.Nil(t, resp.BoundingBox)
}

func TestFaceDetectionMissingImage(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	rec := doRequest(t, router, http.MethodPost, "/api/face-detection", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveRecognizeDeleteFlow(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vector: []float32{0, 1, 0, 0}}, "")

	// Enroll
	body, ct := imageForm(t, map[string]string{"name": "Alice", "email": "alice@example.com"})
	rec := doRequest(t, router, http.MethodPost, "/api/save-face", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var saved dto.SaveFaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	require.NotNil(t, saved.FaceID)
	assert.Equal(t, "Alice", saved.Name)

	// Recognize
	body, ct = imageForm(t, nil)
	rec = doRequest(t, router, http.MethodPost, "/api/recognize-face", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var recog dto.RecognizeFaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recog))
	assert.True(t, recog.Recognized)
	assert.Equal(t, "Alice", recog.Name)
	assert.Equal(t, "alice@example.com", recog.Email)
	require.NotNil(t, recog.Confidence)
	assert.InDelta(t, 1.0, *recog.Confidence, 1e-9)

	// List
	rec = doRequest(t, router, http.MethodGet, "/api/list-faces", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list dto.ListFacesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.TotalFaces)

	// Delete by name
	payload := bytes.NewBufferString(`{"name":"Alice"}`)
	rec = doRequest(t, router, http.MethodDelete, "/api/delete-face", payload, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted dto.DeleteFaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.True(t, deleted.Success)
	assert.Equal(t, int64(1), deleted.DeletedCount)

	// Audit trail: one entry for the recognition above.
	rec = doRequest(t, router, http.MethodGet, "/api/recognition-logs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var logs dto.RecognitionLogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Equal(t, 1, logs.Total)
	assert.Equal(t, "success", logs.Logs[0].Status)
}

func TestRecognizeUnknownPerson(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vector: []float32{1, 0, 0, 0}}, "")

	body, ct := imageForm(t, nil)
	rec := doRequest(t, router, http.MethodPost, "/api/recognize-face", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.RecognizeFaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Recognized)
	require.NotNil(t, resp.Confidence)
	assert.Equal(t, 0.0, *resp.Confidence)
}

func TestDeleteRequiresExactlyOneSelector(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	payload := bytes.NewBufferString(`{"face_id":1,"name":"Alice"}`)
	rec := doRequest(t, router, http.MethodDelete, "/api/delete-face", payload, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload = bytes.NewBufferString(`{}`)
	rec = doRequest(t, router, http.MethodDelete, "/api/delete-face", payload, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "secret-key")

	// Missing key
	rec := doRequest(t, router, http.MethodGet, "/api/list-faces", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key
	req := httptest.NewRequest(http.MethodGet, "/api/list-faces", nil)
	req.Header.Set("X-API-Key", "wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Correct key
	req = httptest.NewRequest(http.MethodGet, "/api/list-faces", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health endpoints stay open
	rec = doRequest(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeepAnalysisEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vector: []float32{1, 0, 0, 0}}, "")

	body, ct := imageForm(t, nil)
	rec := doRequest(t, router, http.MethodPost, "/api/face-detection-deep", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.FaceDetectionDeepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.FaceDetected)
	assert.Equal(t, "happiness", resp.Emotion)
	require.NotNil(t, resp.Age)
	assert.Equal(t, 30, *resp.Age)
	assert.Equal(t, "female", resp.Gender)
}
