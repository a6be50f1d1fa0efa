package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sanjanaa7/face-recognition/internal/models"
	"github.com/Sanjanaa7/face-recognition/internal/recognition"
	"github.com/Sanjanaa7/face-recognition/pkg/dto"
)

// defaultLogLimit caps GET /api/recognition-logs when no limit is given.
const defaultLogLimit = 100

// FaceHandler serves enrollment, recognition, and face management.
type FaceHandler struct {
	svc *recognition.Service
}

func NewFaceHandler(svc *recognition.Service) *FaceHandler {
	return &FaceHandler{svc: svc}
}

// SaveFace handles POST /api/save-face. Form fields: name (required),
// email, phone, image (file).
func (h *FaceHandler) SaveFace(c *gin.Context) {
	data, header, ok := readImageFile(c)
	if !ok {
		return
	}

	rec, err := h.svc.Enroll(c.Request.Context(), recognition.EnrollInput{
		Name:        c.PostForm("name"),
		Email:       c.PostForm("email"),
		Phone:       c.PostForm("phone"),
		Image:       data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoFace):
			c.JSON(http.StatusOK, dto.SaveFaceResponse{
				Success: false,
				Message: "No face detected in the image. Please upload a clear image with a visible face.",
			})
		case errors.Is(err, models.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		default:
			internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.SaveFaceResponse{
		Success: true,
		Message: fmt.Sprintf("Face saved successfully for %s", rec.Name),
		FaceID:  &rec.ID,
		Name:    rec.Name,
	})
}

// SaveMultipleFaces handles POST /api/save-multiple-faces. The "names"
// form field is comma-separated and paired with faces in detection order.
func (h *FaceHandler) SaveMultipleFaces(c *gin.Context) {
	data, header, ok := readImageFile(c)
	if !ok {
		return
	}

	var names []string
	for _, n := range strings.Split(c.PostForm("names"), ",") {
		names = append(names, strings.TrimSpace(n))
	}

	results, err := h.svc.EnrollAll(c.Request.Context(), names,
		c.PostForm("email"), c.PostForm("phone"),
		data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoFace):
			c.JSON(http.StatusOK, dto.MultiSaveFaceResponse{
				Success:    false,
				Message:    "No face detected in the image.",
				SavedFaces: []dto.SaveFaceResponse{},
			})
		case errors.Is(err, models.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		default:
			internalError(c, err)
		}
		return
	}

	saved := make([]dto.SaveFaceResponse, 0, len(results))
	savedCount := 0
	for i, r := range results {
		if r.Err != nil {
			saved = append(saved, dto.SaveFaceResponse{
				Success: false,
				Message: fmt.Sprintf("Face %d: %s", i+1, r.Err.Error()),
				Name:    r.Name,
			})
			continue
		}
		savedCount++
		saved = append(saved, dto.SaveFaceResponse{
			Success: true,
			Message: fmt.Sprintf("Face saved successfully for %s", r.Record.Name),
			FaceID:  &r.Record.ID,
			Name:    r.Record.Name,
		})
	}

	c.JSON(http.StatusOK, dto.MultiSaveFaceResponse{
		Success:    savedCount > 0,
		Message:    fmt.Sprintf("Saved %d of %d detected face(s)", savedCount, len(results)),
		SavedFaces: saved,
	})
}

// RecognizeFace handles POST /api/recognize-face.
func (h *FaceHandler) RecognizeFace(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	m, err := h.svc.Recognize(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		internalError(c, err)
		return
	}

	switch m.Status {
	case models.StatusNoFace:
		c.JSON(http.StatusOK, dto.RecognizeFaceResponse{
			Success:    false,
			Message:    "No face detected in the image.",
			Recognized: false,
		})
	case models.StatusSuccess:
		c.JSON(http.StatusOK, dto.RecognizeFaceResponse{
			Success:    true,
			Message:    fmt.Sprintf("Face recognized as %s", m.Record.Name),
			Recognized: true,
			Name:       m.Record.Name,
			Confidence: m.Confidence,
			FaceID:     &m.Record.ID,
			Email:      m.Record.Email,
			Phone:      m.Record.Phone,
		})
	default:
		c.JSON(http.StatusOK, dto.RecognizeFaceResponse{
			Success:    true,
			Message:    "Face not recognized. Unknown person.",
			Recognized: false,
			Confidence: m.Confidence,
		})
	}
}

// RecognizeMultipleFaces handles POST /api/recognize-multiple-faces.
func (h *FaceHandler) RecognizeMultipleFaces(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	matches, w, hgt, err := h.svc.RecognizeAll(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		internalError(c, err)
		return
	}

	faces := make([]dto.RecognizedFace, 0, len(matches))
	for _, m := range matches {
		face := dto.RecognizedFace{
			Recognized: m.Status == models.StatusSuccess,
			Name:       "Unknown",
			Confidence: m.Confidence,
		}
		if m.Box != nil {
			face.BoundingBox = *m.Box
		}
		if m.Record != nil {
			face.Name = m.Record.Name
			face.FaceID = &m.Record.ID
			face.Email = m.Record.Email
			face.Phone = m.Record.Phone
		}
		faces = append(faces, face)
	}

	message := fmt.Sprintf("Processed %d detected face(s)", len(faces))
	if len(faces) == 0 {
		message = "No face detected in the image"
	}

	c.JSON(http.StatusOK, dto.MultiRecognizeFaceResponse{
		Success:         true,
		Message:         message,
		FacesDetected:   len(faces),
		RecognizedFaces: faces,
		ImageMeta:       &dto.ImageMeta{Width: w, Height: hgt},
	})
}

// DeleteFace handles DELETE /api/delete-face. The selector comes from the
// JSON body or, as a fallback, query parameters.
func (h *FaceHandler) DeleteFace(c *gin.Context) {
	var req dto.DeleteFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Query parameter fallback: ?face_id=N or ?name=X
		if v := c.Query("face_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid face_id"})
				return
			}
			req.FaceID = &id
		}
		if v := c.Query("name"); v != "" {
			name := v
			req.Name = &name
		}
	}

	count, err := h.svc.Delete(c.Request.Context(), req.FaceID, req.Name)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Message: "Provide either face_id or name, but not both.",
			})
			return
		}
		internalError(c, err)
		return
	}

	if count == 0 {
		c.JSON(http.StatusOK, dto.DeleteFaceResponse{
			Success:      false,
			Message:      "No matching face records found.",
			DeletedCount: 0,
		})
		return
	}

	c.JSON(http.StatusOK, dto.DeleteFaceResponse{
		Success:      true,
		Message:      fmt.Sprintf("Successfully deleted %d face record(s)", count),
		DeletedCount: count,
	})
}

// ListFaces handles GET /api/list-faces.
func (h *FaceHandler) ListFaces(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	faces := make([]dto.FaceInfo, 0, len(records))
	for _, rec := range records {
		info := dto.FaceInfo{
			ID:             rec.ID,
			Name:           rec.Name,
			Email:          rec.Email,
			Phone:          rec.Phone,
			CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			EmbeddingModel: rec.EmbeddingModel,
		}
		if len(rec.Thumbnail) > 0 {
			info.Thumbnail = base64.StdEncoding.EncodeToString(rec.Thumbnail)
		}
		faces = append(faces, info)
	}

	c.JSON(http.StatusOK, dto.ListFacesResponse{
		Success:    true,
		Message:    fmt.Sprintf("Found %d enrolled face(s)", len(faces)),
		TotalFaces: len(faces),
		Faces:      faces,
	})
}

// RecognitionLogs handles GET /api/recognition-logs.
func (h *FaceHandler) RecognitionLogs(c *gin.Context) {
	limit := defaultLogLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid limit"})
			return
		}
		limit = n
	}

	logs, err := h.svc.Logs(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}

	entries := make([]dto.RecognitionLogEntry, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, dto.RecognitionLogEntry{
			ID:              entry.ID,
			RecognizedName:  entry.RecognizedName,
			ConfidenceScore: entry.ConfidenceScore,
			Status:          entry.Status,
			Timestamp:       entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, dto.RecognitionLogsResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d recognition log entries", len(entries)),
		Total:   len(entries),
		Logs:    entries,
	})
}
