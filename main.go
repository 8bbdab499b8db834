package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-browser/internal/devices"
	"image-browser/internal/event"
	"image-browser/internal/filesystem"
	"image-browser/internal/gallery"
	"image-browser/internal/handlers"
	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/memory"
	"image-browser/internal/metrics"
	"image-browser/internal/middleware"
	"image-browser/internal/preview"
	"image-browser/internal/startup"
	"image-browser/internal/thumbcache"
	"image-browser/internal/thumbnailer"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before any significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Volume labels for filesystem retry metrics
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"images":  config.ImagesDir,
		"volumes": config.VolumesDir,
	}))

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	// libvips is optional; the pure-Go decode path covers its absence
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go image decoding: %v", err)
	}
	defer media.ShutdownVips()

	// Core components
	cache := thumbcache.New(config.ThumbnailCacheSize)
	codec := media.NewCodec(config.PreviewJPEGQuality)
	scanner := media.NewScanner(config.SupportedExtensions)
	broker := event.NewBroker(256)

	service := thumbnailer.New(codec, cache, thumbnailer.Config{
		Workers:       config.ThumbnailWorkers,
		DecodeTimeout: config.ThumbnailTimeout,
	})

	gal := gallery.New(scanner, cache, service, broker, gallery.Config{
		InitialBatchSize:  config.InitialBatchSize,
		LoadMoreBatchSize: config.LoadMoreBatchSize,
		ThumbnailSize:     config.ThumbnailSize,
	})

	renderer := preview.New(codec, preview.Config{
		UseFastFormat: config.PreviewUseJPEG,
		MaxDimension:  config.PreviewMaxDimension,
	})

	var monitor *devices.Monitor
	monitor = devices.NewMonitor(devices.Config{VolumesDir: config.VolumesDir}, func() {
		broker.Publish(event.TopicDeviceChanged, monitor.Devices())
	})
	if !monitor.Start() {
		logging.Warn("Device notifications disabled")
	}

	// Initialize handlers
	h := handlers.New(gal, renderer, monitor, scanner, cache, broker, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Create server. WriteTimeout stays zero so the SSE event stream is
	// never cut off by the server.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, service, monitor)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/browse", h.Browse).Methods("GET")
	api.HandleFunc("/gallery/open", h.OpenGallery).Methods("POST")
	api.HandleFunc("/gallery/more", h.LoadMoreGallery).Methods("POST")
	api.HandleFunc("/gallery/cancel", h.CancelGallery).Methods("POST")
	api.HandleFunc("/gallery/events", h.Events).Methods("GET")
	api.HandleFunc("/preview", h.Preview).Methods("GET")
	api.HandleFunc("/devices", h.Devices).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, service *thumbnailer.Service, monitor *devices.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping device monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Device monitor stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	// Drain the decode pool after the HTTP server so no new batches
	// arrive while workers wind down.
	startup.LogShutdownStep("Stopping thumbnail service")
	service.Shutdown()
	startup.LogShutdownStepComplete("Thumbnail service stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
