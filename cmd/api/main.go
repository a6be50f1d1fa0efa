package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Sanjanaa7/face-recognition/internal/api"
	"github.com/Sanjanaa7/face-recognition/internal/api/ws"
	"github.com/Sanjanaa7/face-recognition/internal/config"
	"github.com/Sanjanaa7/face-recognition/internal/observability"
	"github.com/Sanjanaa7/face-recognition/internal/queue"
	"github.com/Sanjanaa7/face-recognition/internal/recognition"
	"github.com/Sanjanaa7/face-recognition/internal/storage"
	"github.com/Sanjanaa7/face-recognition/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(errors.Unwrap(err)) {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting face recognition service", "port", cfg.Server.Port, "driver", cfg.Database.Driver)

	// Identity store: embedded SQLite by default, Postgres when configured.
	var store storage.Store
	switch cfg.Database.Driver {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.Database)
	default:
		store, err = storage.NewSQLiteStore(cfg.Database.Path)
	}
	if err != nil {
		slog.Error("open identity store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Object storage for source images (optional).
	var images *storage.ImageStore
	if cfg.MinIO.Endpoint != "" {
		images, err = storage.NewImageStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := images.EnsureBucket(context.Background()); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event feed (optional): NATS producer plus a consumer that fans events
	// out to WebSocket clients.
	var producer *queue.Producer
	var hub *ws.Hub
	if cfg.NATS.URL != "" {
		producer, err = queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(context.Background()); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}

		hub = ws.NewHub()
		go hub.Run()

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create recognition event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeRecognitions(ctx, "api-recognitions", func(ctx context.Context, msg jetstream.Msg) error {
			hub.BroadcastRaw(msg.Data())
			return nil
		})
		if err != nil {
			slog.Warn("start recognition event consumer", "error", err)
		}
	}

	// ONNX Runtime and the vision models.
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("onnx runtime init failed", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	provider, err := vision.NewONNXProvider(cfg.Vision)
	if err != nil {
		slog.Error("load vision models", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	var events recognition.Publisher
	if producer != nil {
		events = producer
	}
	svc := recognition.NewService(store, provider, images, events)

	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		Store:    store,
		Images:   images,
		Producer: producer,
		Hub:      hub,
		Provider: provider,
		Service:  svc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
