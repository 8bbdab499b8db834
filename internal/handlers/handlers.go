package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image-browser/internal/devices"
	"image-browser/internal/event"
	"image-browser/internal/gallery"
	"image-browser/internal/media"
	"image-browser/internal/preview"
	"image-browser/internal/startup"
	"image-browser/internal/thumbcache"
)

// ErrOutsideRoots rejects paths escaping the configured browse roots.
var ErrOutsideRoots = errors.New("path is outside the browsable directories")

type Handlers struct {
	gallery  *gallery.Gallery
	renderer *preview.Renderer
	monitor  *devices.Monitor
	scanner  *media.Scanner
	cache    *thumbcache.Cache
	broker   *event.Broker

	// roots are the directories requests may browse into.
	roots     []string
	startTime time.Time
}

func New(g *gallery.Gallery, r *preview.Renderer, m *devices.Monitor, s *media.Scanner, c *thumbcache.Cache, b *event.Broker, config *startup.Config) *Handlers {
	return &Handlers{
		gallery:   g,
		renderer:  r,
		monitor:   m,
		scanner:   s,
		cache:     c,
		broker:    b,
		roots:     []string{config.ImagesDir, config.VolumesDir},
		startTime: time.Now(),
	}
}

// validatePath resolves raw and checks it stays inside one of the
// browse roots. Symlinks are resolved first so a link inside a root
// cannot escape it.
func (h *Handlers) validatePath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrOutsideRoots
	}

	abs, err := filepath.Abs(filepath.Clean(raw))
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		resolved = abs
	}

	for _, root := range h.roots {
		rootResolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			rootResolved = root
		}
		if resolved == rootResolved || strings.HasPrefix(resolved, rootResolved+string(filepath.Separator)) {
			return resolved, nil
		}
	}

	return "", ErrOutsideRoots
}
