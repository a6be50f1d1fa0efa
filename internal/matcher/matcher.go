// Package matcher selects the best enrolled identity for a query embedding
// by exact linear scan. There is no index; exact scan keeps scores and
// tie-breaks reproducible.
package matcher

import (
	"fmt"
	"math"

	"github.com/Sanjanaa7/face-recognition/internal/embedding"
	"github.com/Sanjanaa7/face-recognition/internal/models"
)

// Threshold is the fixed cosine-similarity cutoff for accepting a match.
// It applies uniformly to every identity and is not configurable.
const Threshold = 0.6

// Result is the outcome of one match call. Record is nil when the best
// candidate scored below Threshold (or no candidates exist); Score is still
// the best similarity found so callers can report "closest, but not
// confident enough".
type Result struct {
	Record *models.FaceRecord
	Score  float64
}

// Match scans candidates in the order given (the store lists them by
// ascending id) and returns the highest-scoring one. Ties keep the first
// candidate encountered. A stored blob that cannot be decoded, or whose
// dimensionality differs from the query's, is a hard error — a dimension
// mismatch must never silently produce a score.
func Match(query []float32, candidates []models.FaceRecord) (Result, error) {
	if len(query) == 0 {
		return Result{}, fmt.Errorf("%w: empty query embedding", models.ErrInvalidInput)
	}
	if len(candidates) == 0 {
		return Result{Score: 0.0}, nil
	}

	var best *models.FaceRecord
	bestScore := math.Inf(-1)

	for i := range candidates {
		c := &candidates[i]
		stored, err := embedding.Decode(c.Embedding, len(query))
		if err != nil {
			return Result{}, fmt.Errorf("record %d: %w", c.ID, err)
		}

		score := cosineSimilarity(query, stored)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}

	if bestScore >= Threshold {
		return Result{Record: best, Score: bestScore}, nil
	}
	return Result{Score: bestScore}, nil
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||) with float64
// accumulation, clamped to [-1, 1] against rounding drift. Callers guarantee
// equal lengths. A zero-norm vector scores 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}
