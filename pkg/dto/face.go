// Package dto holds the JSON request/response shapes of the public API.
package dto

import "github.com/Sanjanaa7/face-recognition/internal/vision"

// ImageMeta describes the processed image dimensions.
type ImageMeta struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceDetectionResponse is returned by POST /api/face-detection.
type FaceDetectionResponse struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message"`
	FaceDetected  bool                `json:"face_detected"`
	BoundingBox   *vision.BoundingBox `json:"bounding_box,omitempty"`
	FaceEmbedding []float32           `json:"face_embedding,omitempty"`
	Confidence    *float64            `json:"confidence,omitempty"`
}

// FaceDetectionResult is one face in a multi-face detection response.
type FaceDetectionResult struct {
	BoundingBox   vision.BoundingBox `json:"bounding_box"`
	FaceEmbedding []float32          `json:"face_embedding,omitempty"`
	Confidence    float64            `json:"confidence"`
}

// MultiFaceDetectionResponse is returned by POST /api/face-detection-multiple.
type MultiFaceDetectionResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	FacesDetected int                   `json:"faces_detected"`
	Detections    []FaceDetectionResult `json:"detections"`
	ImageMeta     *ImageMeta            `json:"image_meta,omitempty"`
}

// FaceDetectionLandmarksResponse is returned by POST /api/face-detection-landmarks.
type FaceDetectionLandmarksResponse struct {
	Success        bool                         `json:"success"`
	Message        string                       `json:"message"`
	FaceDetected   bool                         `json:"face_detected"`
	BoundingBox    *vision.BoundingBox          `json:"bounding_box,omitempty"`
	FaceEmbedding  []float32                    `json:"face_embedding,omitempty"`
	AllLandmarks   []vision.Landmark            `json:"all_landmarks,omitempty"`
	TotalLandmarks int                          `json:"total_landmarks,omitempty"`
	Categorized    map[string][]vision.Landmark `json:"categorized,omitempty"`
	Confidence     *float64                     `json:"confidence,omitempty"`
}

// FaceDetectionDeepResponse is returned by POST /api/face-detection-deep.
type FaceDetectionDeepResponse struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	FaceDetected     bool                `json:"face_detected"`
	BoundingBox      *vision.BoundingBox `json:"bounding_box,omitempty"`
	FaceEmbedding    []float32           `json:"face_embedding,omitempty"`
	Emotion          string              `json:"emotion,omitempty"`
	EmotionScores    map[string]float32  `json:"emotion_scores,omitempty"`
	Age              *int                `json:"age,omitempty"`
	Gender           string              `json:"gender,omitempty"`
	GenderConfidence *float32            `json:"gender_confidence,omitempty"`
	Confidence       *float64            `json:"confidence,omitempty"`
}

// SaveFaceResponse is returned by POST /api/save-face, and reused per-face
// in the bulk variant.
type SaveFaceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	FaceID  *int64 `json:"face_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// MultiSaveFaceResponse is returned by POST /api/save-multiple-faces.
type MultiSaveFaceResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	SavedFaces []SaveFaceResponse `json:"saved_faces"`
}

// RecognizeFaceResponse is returned by POST /api/recognize-face.
type RecognizeFaceResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Recognized bool     `json:"recognized"`
	Name       string   `json:"name,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	FaceID     *int64   `json:"face_id,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
}

// RecognizedFace is one face in a multi-face recognition response.
type RecognizedFace struct {
	Recognized  bool               `json:"recognized"`
	Name        string             `json:"name"`
	Confidence  *float64           `json:"confidence,omitempty"`
	FaceID      *int64             `json:"face_id,omitempty"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	BoundingBox vision.BoundingBox `json:"bounding_box"`
}

// MultiRecognizeFaceResponse is returned by POST /api/recognize-multiple-faces.
type MultiRecognizeFaceResponse struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	FacesDetected   int              `json:"faces_detected"`
	RecognizedFaces []RecognizedFace `json:"recognized_faces"`
	ImageMeta       *ImageMeta       `json:"image_meta,omitempty"`
}

// DeleteFaceRequest selects records by id or by name, never both.
type DeleteFaceRequest struct {
	FaceID *int64  `json:"face_id,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// DeleteFaceResponse is returned by DELETE /api/delete-face.
type DeleteFaceResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// FaceInfo is one enrolled identity in the listing. Thumbnail is a base64
// JPEG when present.
type FaceInfo struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	CreatedAt      string `json:"created_at"`
	EmbeddingModel string `json:"embedding_model"`
}

// ListFacesResponse is returned by GET /api/list-faces.
type ListFacesResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	TotalFaces int        `json:"total_faces"`
	Faces      []FaceInfo `json:"faces"`
}

// RecognitionLogEntry is one audit entry in GET /api/recognition-logs.
type RecognitionLogEntry struct {
	ID              int64    `json:"id"`
	RecognizedName  *string  `json:"recognized_name"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Status          string   `json:"status"`
	Timestamp       string   `json:"timestamp"`
}

// RecognitionLogsResponse is returned by GET /api/recognition-logs.
type RecognitionLogsResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Total   int                   `json:"total"`
	Logs    []RecognitionLogEntry `json:"logs"`
}

// RecognitionEvent is broadcast over the WebSocket feed for every
// recognition attempt.
type RecognitionEvent struct {
	Status     string   `json:"status"`
	Name       string   `json:"name,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
