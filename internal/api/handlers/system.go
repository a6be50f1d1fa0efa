package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sanjanaa7/face-recognition/internal/queue"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
)

type SystemHandler struct {
	store     storage.Store
	images    *storage.ImageStore // nil when object storage is disabled
	producer  *queue.Producer     // nil when NATS is disabled
	modelName string
}

func NewSystemHandler(store storage.Store, images *storage.ImageStore, producer *queue.Producer, modelName string) *SystemHandler {
	return &SystemHandler{store: store, images: images, producer: producer, modelName: modelName}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.images != nil {
		if err := h.images.Ping(ctx); err != nil {
			checks["minio"] = err.Error()
			healthy = false
		} else {
			checks["minio"] = "ok"
		}
	}

	if h.producer != nil {
		if err := h.producer.Ping(); err != nil {
			checks["nats"] = err.Error()
			healthy = false
		} else {
			checks["nats"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}

// Info handles GET /api/info: service metadata for API consumers.
func (h *SystemHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         "face-recognition",
		"embedding_model": h.modelName,
		"endpoints": []string{
			"POST /api/face-detection",
			"POST /api/face-detection-multiple",
			"POST /api/face-detection-landmarks",
			"POST /api/face-detection-deep",
			"POST /api/save-face",
			"POST /api/save-multiple-faces",
			"POST /api/recognize-face",
			"POST /api/recognize-multiple-faces",
			"DELETE /api/delete-face",
			"GET /api/list-faces",
			"GET /api/recognition-logs",
		},
	})
}
