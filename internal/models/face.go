package models

import (
	"errors"
	"time"
)

// Sentinel errors surfaced at the HTTP boundary via errors.Is.
var (
	// ErrInvalidInput covers missing required fields, empty embeddings,
	// and the both/neither case of delete-by-id vs delete-by-name.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptEmbedding means a stored embedding blob could not be
	// decoded. Requests fail closed on it — it is never treated as "no match".
	ErrCorruptEmbedding = errors.New("corrupt embedding")

	// ErrNoFace means the vision provider found no face in the image on a
	// path that requires one (enrollment).
	ErrNoFace = errors.New("no face detected in image")
)

// FaceRecord is one enrolled identity. Multiple records may share a name
// (same person enrolled from different poses); ids are assigned by the store
// and strictly increase in enrollment order.
type FaceRecord struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email,omitempty" db:"email"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	Embedding      []byte    `json:"-" db:"face_embedding"`
	EmbeddingModel string    `json:"embedding_model" db:"embedding_model"`
	Thumbnail      []byte    `json:"-" db:"thumbnail"`
	ImageKey       string    `json:"-" db:"image_key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Recognition outcome statuses.
const (
	StatusSuccess = "success" // best candidate at or above threshold
	StatusUnknown = "unknown" // best candidate below threshold, or empty store
	StatusNoFace  = "no_face" // vision provider found nothing to embed
)

// RecognitionLog is one audit entry. Entries are append-only; exactly one is
// written per recognition attempt (one per face on the multi-face path).
type RecognitionLog struct {
	ID              int64     `json:"id" db:"id"`
	RecognizedName  *string   `json:"recognized_name,omitempty" db:"recognized_name"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty" db:"confidence_score"`
	Status          string    `json:"status" db:"status"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
}
