package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"image-browser/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library.
// Call once at startup before any thumbnail generation.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging before Startup() so LOG_LEVEL is honored
	// from the first message.
	var vipsLogLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
	case logging.LevelWarn:
		vipsLogLevel = vips.LogLevelError
	case logging.LevelError:
		vipsLogLevel = vips.LogLevelCritical
	default:
		vipsLogLevel = vips.LogLevelWarning
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: thumbnails are small and the decode
	// worker pool already provides parallelism.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadImageWithVips loads the image at path shrunk to fit within
// maxDim on its longer edge, using decode-time shrinking. This is far
// more memory efficient than decoding full pixels and resizing after.
func LoadImageWithVips(path string, maxDim int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	logging.Debug("vips loaded %s: %dx%d, shrinking to fit %d",
		filepath.Base(path), ref.Width(), ref.Height(), maxDim)

	// SizeDown keeps this path in line with the imaging fallback:
	// images already within maxDim pass through at their own size.
	if err := ref.ThumbnailWithSize(maxDim, maxDim, vips.InterestingNone, vips.SizeDown); err != nil {
		return nil, fmt.Errorf("vips thumbnail: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}

	// Round-trip through imaging keeps the rest of the codec working on
	// image.Image regardless of which decode path produced the pixels.
	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("decode vips output: %w", err)
	}

	return img, nil
}
