package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sanjanaa7/face-recognition/internal/api/handlers"
	"github.com/Sanjanaa7/face-recognition/internal/api/ws"
	"github.com/Sanjanaa7/face-recognition/internal/auth"
	"github.com/Sanjanaa7/face-recognition/internal/queue"
	"github.com/Sanjanaa7/face-recognition/internal/recognition"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
	"github.com/Sanjanaa7/face-recognition/internal/vision"
)

type RouterConfig struct {
	APIKey   string
	Store    storage.Store
	Images   *storage.ImageStore
	Producer *queue.Producer
	Hub      *ws.Hub
	Provider vision.Provider
	Service  *recognition.Service
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Store, cfg.Images, cfg.Producer, cfg.Provider.ModelName())
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API (with auth)
	api := r.Group("/api")
	api.Use(auth.APIKeyMiddleware(cfg.APIKey))

	api.GET("/info", systemH.Info)

	// WebSocket recognition feed
	if cfg.Hub != nil {
		api.GET("/ws", cfg.Hub.HandleWS)
	}

	// Stateless detection
	detectionH := handlers.NewDetectionHandler(cfg.Provider)
	api.POST("/face-detection", detectionH.Detect)
	api.POST("/face-detection-multiple", detectionH.DetectMultiple)
	api.POST("/face-detection-landmarks", detectionH.DetectLandmarks)
	api.POST("/face-detection-deep", detectionH.DetectDeep)

	// Enrollment & recognition
	faceH := handlers.NewFaceHandler(cfg.Service)
	api.POST("/save-face", faceH.SaveFace)
	api.POST("/save-multiple-faces", faceH.SaveMultipleFaces)
	api.POST("/recognize-face", faceH.RecognizeFace)
	api.POST("/recognize-multiple-faces", faceH.RecognizeMultipleFaces)
	api.DELETE("/delete-face", faceH.DeleteFace)
	api.GET("/list-faces", faceH.ListFaces)
	api.GET("/recognition-logs", faceH.RecognitionLogs)

	return r
}
