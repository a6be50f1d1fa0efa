// Package recognition wires the vision provider, the store, and the matcher
// into the enrollment and recognition flows exposed over HTTP.
package recognition

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/Sanjanaa7/face-recognition/internal/embedding"
	"github.com/Sanjanaa7/face-recognition/internal/matcher"
	"github.com/Sanjanaa7/face-recognition/internal/models"
	"github.com/Sanjanaa7/face-recognition/internal/observability"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
	"github.com/Sanjanaa7/face-recognition/internal/vision"
)

// thumbnailMaxSide bounds the JPEG thumbnail stored with each record.
const thumbnailMaxSide = 160

// Publisher emits recognition events to the message bus.
type Publisher interface {
	PublishRecognition(ctx context.Context, status string, data interface{}) error
}

// Service orchestrates enrollment, recognition, and deletion. The image
// store and publisher are optional; a nil value disables that side effect
// without affecting the core flow.
type Service struct {
	store    storage.Store
	provider vision.Provider
	images   *storage.ImageStore
	events   Publisher
}

func NewService(store storage.Store, provider vision.Provider, images *storage.ImageStore, events Publisher) *Service {
	return &Service{
		store:    store,
		provider: provider,
		images:   images,
		events:   events,
	}
}

// Match is the outcome of matching a single face against the store. Name
// and Confidence are nil when they do not apply (no_face), mirroring the
// audit log schema.
type Match struct {
	Status     string
	Name       *string
	Confidence *float64
	Box        *vision.BoundingBox
	Record     *models.FaceRecord // matched record on success, nil otherwise
}

// EnrollInput carries one enrollment request.
type EnrollInput struct {
	Name        string
	Email       string
	Phone       string
	Image       []byte
	Filename    string
	ContentType string
}

// Enroll extracts an embedding from the single most confident face and
// persists it under the given name. The source image upload is best-effort;
// enrollment succeeds without it.
func (s *Service) Enroll(ctx context.Context, in EnrollInput) (*models.FaceRecord, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}

	img, err := s.provider.DecodeImage(in.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	det, err := s.detectOne(img)
	if err != nil {
		return nil, err
	}
	if det == nil {
		return nil, models.ErrNoFace
	}

	vec, err := s.embed(img, &det.Box)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, models.ErrNoFace
	}

	rec := &models.FaceRecord{
		Name:           name,
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Embedding:      embedding.Encode(vec),
		EmbeddingModel: s.provider.ModelName(),
		Thumbnail:      vision.EncodeThumbnailJPEG(img, det.Box, thumbnailMaxSide),
	}

	if s.images != nil && len(in.Image) > 0 {
		key, err := s.images.SaveSourceImage(ctx, name, in.Filename, in.ContentType, in.Image)
		if err != nil {
			slog.Warn("save source image failed", "name", name, "error", err)
		} else {
			rec.ImageKey = key
		}
	}

	if err := s.store.EnrollFace(ctx, rec); err != nil {
		return nil, err
	}

	observability.Enrollments.Inc()
	slog.Info("face enrolled", "id", rec.ID, "name", rec.Name)
	return rec, nil
}

// EnrolledFace is one face's outcome on the multi-face enrollment path.
type EnrolledFace struct {
	Name   string
	Box    vision.BoundingBox
	Record *models.FaceRecord
	Err    error
}

// EnrollAll enrolls every detected face, pairing faces with names by
// detection order. A face without a corresponding name, or one whose
// embedding fails, is reported in its slot without aborting the others.
func (s *Service) EnrollAll(ctx context.Context, names []string, email, phone string, imageData []byte, filename, contentType string) ([]EnrolledFace, error) {
	img, err := s.provider.DecodeImage(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	detections, _, _, err := s.provider.DetectFaces(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(detections) == 0 {
		return nil, models.ErrNoFace
	}

	results := make([]EnrolledFace, len(detections))
	for i, det := range detections {
		results[i].Box = det.Box

		if i >= len(names) || strings.TrimSpace(names[i]) == "" {
			results[i].Err = fmt.Errorf("%w: no name provided for face %d", models.ErrInvalidInput, i+1)
			continue
		}
		name := strings.TrimSpace(names[i])
		results[i].Name = name

		vec, err := s.embed(img, &det.Box)
		if err != nil {
			results[i].Err = err
			continue
		}
		if vec == nil {
			results[i].Err = models.ErrNoFace
			continue
		}

		rec := &models.FaceRecord{
			Name:           name,
			Email:          strings.TrimSpace(email),
			Phone:          strings.TrimSpace(phone),
			Embedding:      embedding.Encode(vec),
			EmbeddingModel: s.provider.ModelName(),
			Thumbnail:      vision.EncodeThumbnailJPEG(img, det.Box, thumbnailMaxSide),
		}

		if s.images != nil {
			key, err := s.images.SaveSourceImage(ctx, name, filename, contentType, imageData)
			if err != nil {
				slog.Warn("save source image failed", "name", name, "error", err)
			} else {
				rec.ImageKey = key
			}
		}

		if err := s.store.EnrollFace(ctx, rec); err != nil {
			results[i].Err = err
			continue
		}

		observability.Enrollments.Inc()
		results[i].Record = rec
	}

	return results, nil
}

// Recognize matches the most confident face in the image against enrolled
// identities. "No face" and "no match" are outcomes, not errors; exactly
// one audit entry is written regardless of outcome.
func (s *Service) Recognize(ctx context.Context, imageData []byte) (*Match, error) {
	img, err := s.provider.DecodeImage(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	det, err := s.detectOne(img)
	if err != nil {
		return nil, err
	}
	if det == nil {
		m := Match{Status: models.StatusNoFace}
		s.audit(ctx, m)
		return &m, nil
	}

	vec, err := s.embed(img, &det.Box)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		m := Match{Status: models.StatusNoFace, Box: &det.Box}
		s.audit(ctx, m)
		return &m, nil
	}

	m, err := s.matchOne(ctx, vec)
	if err != nil {
		return nil, err
	}
	m.Box = &det.Box

	s.audit(ctx, *m)
	return m, nil
}

// RecognizeAll matches every detected face independently: two faces of the
// same person both report that identity. One audit entry is written per
// face. Returns the matches plus the processed image dimensions.
func (s *Service) RecognizeAll(ctx context.Context, imageData []byte) ([]Match, int, int, error) {
	img, err := s.provider.DecodeImage(imageData)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	detections, w, h, err := s.provider.DetectFaces(img)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("detect faces: %w", err)
	}

	matches := make([]Match, 0, len(detections))
	for i := range detections {
		box := detections[i].Box

		vec, err := s.embed(img, &box)
		if err != nil {
			return nil, 0, 0, err
		}

		var m *Match
		if vec == nil {
			m = &Match{Status: models.StatusNoFace}
		} else {
			m, err = s.matchOne(ctx, vec)
			if err != nil {
				return nil, 0, 0, err
			}
		}
		m.Box = &box

		s.audit(ctx, *m)
		matches = append(matches, *m)
	}

	return matches, w, h, nil
}

// Delete removes records by id or by name and cleans up their source
// images. Object removal is best-effort after the database commit.
func (s *Service) Delete(ctx context.Context, id *int64, name *string) (int64, error) {
	count, keys, err := s.store.DeleteFaces(ctx, id, name)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		observability.Deletions.Add(float64(count))
	}

	if s.images != nil && len(keys) > 0 {
		if err := s.images.RemoveSourceImages(ctx, keys); err != nil {
			slog.Warn("remove source images failed", "error", err)
		}
	}

	return count, nil
}

// List returns every enrolled record in enrollment order.
func (s *Service) List(ctx context.Context) ([]models.FaceRecord, error) {
	return s.store.ListFaces(ctx)
}

// Logs returns the most recent audit entries.
func (s *Service) Logs(ctx context.Context, limit int) ([]models.RecognitionLog, error) {
	return s.store.ListRecognitionLogs(ctx, limit)
}

// matchOne runs the linear scan against enrolled records. Records tagged
// with a different embedding model are skipped, never compared.
func (s *Service) matchOne(ctx context.Context, vec []float32) (*Match, error) {
	records, err := s.store.ListFaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}

	model := s.provider.ModelName()
	candidates := records[:0:0]
	skipped := 0
	for _, rec := range records {
		if rec.EmbeddingModel != model {
			skipped++
			continue
		}
		candidates = append(candidates, rec)
	}
	if skipped > 0 {
		slog.Warn("skipped records from a different embedding model", "count", skipped, "model", model)
	}

	res, err := matcher.Match(vec, candidates)
	if err != nil {
		return nil, err
	}

	score := res.Score
	m := &Match{Confidence: &score}
	if res.Record != nil {
		m.Status = models.StatusSuccess
		m.Name = &res.Record.Name
		m.Record = res.Record
	} else {
		m.Status = models.StatusUnknown
	}
	return m, nil
}

func (s *Service) detectOne(img image.Image) (*vision.Detection, error) {
	start := time.Now()
	det, err := s.provider.DetectFace(img)
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("detect face: %w", err)
	}
	return det, nil
}

// audit records the attempt in the log, metrics, and the event bus. A
// failed audit write is logged and counted but never surfaces to the
// caller: recognition results stand on their own.
func (s *Service) audit(ctx context.Context, m Match) {
	entry := &models.RecognitionLog{
		RecognizedName:  m.Name,
		ConfidenceScore: m.Confidence,
		Status:          m.Status,
	}
	if err := s.store.LogRecognition(ctx, entry); err != nil {
		slog.Error("write recognition log failed", "status", m.Status, "error", err)
		observability.AuditLogFailures.Inc()
	}

	observability.Recognitions.WithLabelValues(m.Status).Inc()

	if s.events != nil {
		event := map[string]interface{}{
			"status":    m.Status,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}
		if m.Name != nil {
			event["name"] = *m.Name
		}
		if m.Confidence != nil {
			event["confidence"] = *m.Confidence
		}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.events.PublishRecognition(pubCtx, m.Status, event); err != nil {
			slog.Warn("publish recognition event failed", "error", err)
		}
	}
}

func (s *Service) embed(img image.Image, box *vision.BoundingBox) ([]float32, error) {
	start := time.Now()
	vec, err := s.provider.Embedding(img, box)
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}
	return vec, nil
}
