// Package vision supplies face detection, embedding extraction, and face
// analysis. Recognition code depends only on the Provider interface; the
// ONNX-backed implementation lives alongside it.
package vision

import "image"

// BoundingBox is a face region in pixel coordinates, clamped to the image.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one detected face.
type Detection struct {
	Box        BoundingBox
	Confidence float32
}

// Landmark is a single facial keypoint in pixel coordinates.
type Landmark struct {
	Index int     `json:"index"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
}

// LandmarkSet holds every detected keypoint plus feature groups
// (left_eye, right_eye, nose, mouth).
type LandmarkSet struct {
	All         []Landmark
	Categorized map[string][]Landmark
}

// DeepAnalysis carries emotion, age, and gender predictions for one face.
type DeepAnalysis struct {
	Emotion          string
	EmotionScores    map[string]float32
	Age              int
	Gender           string
	GenderConfidence float32
}

// Provider is the vision collaborator consumed by the recognition service.
// Detection methods return nil (not an error) when no face is present:
// "no face" is an expected outcome, not a failure.
type Provider interface {
	// DecodeImage parses uploaded bytes into an image, downscaling
	// oversized inputs. Undecodable input is the caller's error.
	DecodeImage(data []byte) (image.Image, error)

	// DetectFace returns the most confident face, or nil when none.
	DetectFace(img image.Image) (*Detection, error)

	// DetectFaces returns every detected face in detection order plus the
	// processed image dimensions.
	DetectFaces(img image.Image) ([]Detection, int, int, error)

	// Embedding extracts an identity vector for the face inside box (the
	// whole image when box is nil). Returns nil when no face is usable.
	Embedding(img image.Image, box *BoundingBox) ([]float32, error)

	// Landmarks returns facial keypoints for the most confident face, or
	// nil when none.
	Landmarks(img image.Image) (*LandmarkSet, error)

	// AnalyzeDeep predicts emotion, age, and gender for the face inside
	// box (the most confident face when box is nil), or nil when none.
	AnalyzeDeep(img image.Image, box *BoundingBox) (*DeepAnalysis, error)

	// ModelName tags the embedding model; stored with every enrollment so
	// embeddings from different models are never compared.
	ModelName() string

	Close()
}
