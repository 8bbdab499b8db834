package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	ImagesDir  string
	VolumesDir string

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	ThumbnailWorkers   int
	ThumbnailSize      int
	ThumbnailCacheSize int
	ThumbnailTimeout   time.Duration
	InitialBatchSize   int
	LoadMoreBatchSize  int

	PreviewUseJPEG      bool
	PreviewJPEGQuality  int
	PreviewMaxDimension int

	SupportedExtensions []string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	imagesDir := getEnv("IMAGES_DIR", "/images")
	volumesDir := getEnv("VOLUMES_DIR", "/Volumes")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	thumbnailSize := getEnvInt("THUMBNAIL_SIZE", 150)
	thumbnailCacheSize := getEnvInt("THUMBNAIL_CACHE_SIZE", 200)
	thumbnailTimeout := getEnvDuration("THUMBNAIL_TIMEOUT", 5*time.Second)
	initialBatchSize := getEnvInt("INITIAL_BATCH_SIZE", 100)
	loadMoreBatchSize := getEnvInt("LOAD_MORE_BATCH_SIZE", 50)

	previewUseJPEG := getEnvBool("PREVIEW_USE_JPEG", true)
	previewJPEGQuality := getEnvInt("PREVIEW_JPEG_QUALITY", 85)
	previewMaxDimension := getEnvInt("PREVIEW_MAX_DIMENSION", 3840)

	extensions := parseExtensions(getEnv("SUPPORTED_EXTENSIONS", ""))

	// THUMBNAIL_WORKERS is resolved inside the workers package so the
	// override applies everywhere worker counts are derived.
	thumbnailWorkers := workers.ForDecode(16)

	logging.Info("  IMAGES_DIR:            %s", imagesDir)
	logging.Info("  VOLUMES_DIR:           %s", volumesDir)
	logging.Info("  PORT:                  %s", port)
	logging.Info("  METRICS_PORT:          %s", metricsPort)
	logging.Info("  METRICS_ENABLED:       %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:     %v", logHealthChecks)
	logging.Info("  THUMBNAIL_WORKERS:     %d", thumbnailWorkers)
	logging.Info("  THUMBNAIL_SIZE:        %d", thumbnailSize)
	logging.Info("  THUMBNAIL_CACHE_SIZE:  %d", thumbnailCacheSize)
	logging.Info("  THUMBNAIL_TIMEOUT:     %v", thumbnailTimeout)
	logging.Info("  INITIAL_BATCH_SIZE:    %d", initialBatchSize)
	logging.Info("  LOAD_MORE_BATCH_SIZE:  %d", loadMoreBatchSize)
	logging.Info("  PREVIEW_USE_JPEG:      %v", previewUseJPEG)
	logging.Info("  PREVIEW_JPEG_QUALITY:  %d", previewJPEGQuality)
	logging.Info("  PREVIEW_MAX_DIMENSION: %d", previewMaxDimension)
	logging.Info("  SUPPORTED_EXTENSIONS:  %s", strings.Join(extensions, ","))
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	imagesDir, err := filepath.Abs(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve images directory path: %w", err)
	}
	logging.Info("  Images directory (absolute): %s", imagesDir)

	// A missing images directory is a warning, not a startup failure:
	// the user may mount it later or browse removable volumes only.
	if err := checkDirectory(imagesDir, "images"); err != nil {
		logging.Warn("  Images directory issue: %v", err)
	}
	if err := checkDirectory(volumesDir, "volumes"); err != nil {
		logging.Warn("  Volumes directory issue: %v (device listing disabled)", err)
	}

	config := &Config{
		ImagesDir:           imagesDir,
		VolumesDir:          volumesDir,
		Port:                port,
		MetricsPort:         metricsPort,
		MetricsEnabled:      metricsEnabled,
		LogHealthChecks:     logHealthChecks,
		ThumbnailWorkers:    thumbnailWorkers,
		ThumbnailSize:       thumbnailSize,
		ThumbnailCacheSize:  thumbnailCacheSize,
		ThumbnailTimeout:    thumbnailTimeout,
		InitialBatchSize:    initialBatchSize,
		LoadMoreBatchSize:   loadMoreBatchSize,
		PreviewUseJPEG:      previewUseJPEG,
		PreviewJPEGQuality:  previewJPEGQuality,
		PreviewMaxDimension: previewMaxDimension,
		SupportedExtensions: extensions,
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Thumbnails:  ENABLED (required)")
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// parseExtensions splits a comma-separated extension list, falling back
// to the built-in defaults when empty.
func parseExtensions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), media.DefaultExtensions...)
	}

	var extensions []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			extensions = append(extensions, part)
		}
	}
	if len(extensions) == 0 {
		return append([]string(nil), media.DefaultExtensions...)
	}
	return extensions
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____
   /  _/___ ___  ____ _____ ____
   / // __ '__ \/ __ '/ __ '/ _ \
 _/ // / / / / / /_/ / /_/ /  __/
/___/_/ /_/ /_/\__,_/\__, /\___/
    ____            /____/
   / __ )_________ _      __________  _____
  / __  / ___/ __ \ | /| / / ___/ _ \/ ___/
 / /_/ / /  / /_/ / |/ |/ (__  )  __/ /
/_____/_/   \____/|__/|__/____/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist")
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "images" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
