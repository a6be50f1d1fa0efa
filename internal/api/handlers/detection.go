package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sanjanaa7/face-recognition/internal/vision"
	"github.com/Sanjanaa7/face-recognition/pkg/dto"
)

// maxUploadSize caps an uploaded image at 10MB.
const maxUploadSize = 10 << 20

// DetectionHandler serves the stateless detection endpoints. They run the
// vision provider only — no database operations.
type DetectionHandler struct {
	provider vision.Provider
}

func NewDetectionHandler(provider vision.Provider) *DetectionHandler {
	return &DetectionHandler{provider: provider}
}

// readImageFile pulls the "image" file out of the multipart form. A missing
// or oversized file aborts the request with 400.
func readImageFile(c *gin.Context) ([]byte, *multipart.FileHeader, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "image file is required"})
		return nil, nil, false
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "image file too large"})
		return nil, nil, false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "cannot read image file"})
		return nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "cannot read image file"})
		return nil, nil, false
	}
	return data, header, true
}

// Detect handles POST /api/face-detection.
func (h *DetectionHandler) Detect(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	img, err := h.provider.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid image: " + err.Error()})
		return
	}

	det, err := h.provider.DetectFace(img)
	if err != nil {
		internalError(c, err)
		return
	}
	if det == nil {
		c.JSON(http.StatusOK, dto.FaceDetectionResponse{
			Success:      true,
			Message:      "No face detected in the image",
			FaceDetected: false,
		})
		return
	}

	embedding, err := h.provider.Embedding(img, &det.Box)
	if err != nil {
		internalError(c, err)
		return
	}

	confidence := float64(det.Confidence)
	c.JSON(http.StatusOK, dto.FaceDetectionResponse{
		Success:       true,
		Message:       "Face detected successfully",
		FaceDetected:  true,
		BoundingBox:   &det.Box,
		FaceEmbedding: embedding,
		Confidence:    &confidence,
	})
}

// DetectMultiple handles POST /api/face-detection-multiple.
func (h *DetectionHandler) DetectMultiple(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	img, err := h.provider.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid image: " + err.Error()})
		return
	}

	detections, w, hgt, err := h.provider.DetectFaces(img)
	if err != nil {
		internalError(c, err)
		return
	}

	results := make([]dto.FaceDetectionResult, 0, len(detections))
	for i := range detections {
		embedding, err := h.provider.Embedding(img, &detections[i].Box)
		if err != nil {
			internalError(c, err)
			return
		}
		results = append(results, dto.FaceDetectionResult{
			BoundingBox:   detections[i].Box,
			FaceEmbedding: embedding,
			Confidence:    float64(detections[i].Confidence),
		})
	}

	message := "Faces detected successfully"
	if len(results) == 0 {
		message = "No face detected in the image"
	}

	c.JSON(http.StatusOK, dto.MultiFaceDetectionResponse{
		Success:       true,
		Message:       message,
		FacesDetected: len(results),
		Detections:    results,
		ImageMeta:     &dto.ImageMeta{Width: w, Height: hgt},
	})
}

// DetectLandmarks handles POST /api/face-detection-landmarks.
func (h *DetectionHandler) DetectLandmarks(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	img, err := h.provider.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid image: " + err.Error()})
		return
	}

	det, err := h.provider.DetectFace(img)
	if err != nil {
		internalError(c, err)
		return
	}
	if det == nil {
		c.JSON(http.StatusOK, dto.FaceDetectionLandmarksResponse{
			Success:      true,
			Message:      "No face detected in the image",
			FaceDetected: false,
		})
		return
	}

	embedding, err := h.provider.Embedding(img, &det.Box)
	if err != nil {
		internalError(c, err)
		return
	}

	landmarks, err := h.provider.Landmarks(img)
	if err != nil {
		internalError(c, err)
		return
	}

	confidence := float64(det.Confidence)
	resp := dto.FaceDetectionLandmarksResponse{
		Success:       true,
		Message:       "Face and landmarks detected successfully",
		FaceDetected:  true,
		BoundingBox:   &det.Box,
		FaceEmbedding: embedding,
		Confidence:    &confidence,
	}
	if landmarks != nil {
		resp.AllLandmarks = landmarks.All
		resp.TotalLandmarks = len(landmarks.All)
		resp.Categorized = landmarks.Categorized
	}

	c.JSON(http.StatusOK, resp)
}

// DetectDeep handles POST /api/face-detection-deep.
func (h *DetectionHandler) DetectDeep(c *gin.Context) {
	data, _, ok := readImageFile(c)
	if !ok {
		return
	}

	img, err := h.provider.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid image: " + err.Error()})
		return
	}

	det, err := h.provider.DetectFace(img)
	if err != nil {
		internalError(c, err)
		return
	}
	if det == nil {
		c.JSON(http.StatusOK, dto.FaceDetectionDeepResponse{
			Success:      true,
			Message:      "No face detected in the image",
			FaceDetected: false,
		})
		return
	}

	embedding, err := h.provider.Embedding(img, &det.Box)
	if err != nil {
		internalError(c, err)
		return
	}

	analysis, err := h.provider.AnalyzeDeep(img, &det.Box)
	if err != nil {
		internalError(c, err)
		return
	}

	confidence := float64(det.Confidence)
	resp := dto.FaceDetectionDeepResponse{
		Success:       true,
		Message:       "Face detected and analyzed successfully",
		FaceDetected:  true,
		BoundingBox:   &det.Box,
		FaceEmbedding: embedding,
		Confidence:    &confidence,
	}
	if analysis != nil {
		age := analysis.Age
		genderConf := analysis.GenderConfidence
		resp.Emotion = analysis.Emotion
		resp.EmotionScores = analysis.EmotionScores
		resp.Age = &age
		resp.Gender = analysis.Gender
		resp.GenderConfidence = &genderConf
	}

	c.JSON(http.StatusOK, resp)
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error: " + err.Error()})
}
