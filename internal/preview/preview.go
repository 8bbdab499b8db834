package preview

import (
	"container/list"
	"sync"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"
)

// DefaultCacheSize is the number of rendered previews kept in memory.
// Previews are full-size and expensive, so the cache is deliberately
// small.
const DefaultCacheSize = 10

// DefaultMaxDimension bounds the longer edge of a rendered preview.
// 4K-class displays have nothing to gain from larger encodes.
const DefaultMaxDimension = 3840

// Config holds preview rendering options.
type Config struct {
	// UseFastFormat renders previews as JPEG instead of PNG.
	UseFastFormat bool
	// MaxDimension bounds the longer edge of a preview; zero means
	// DefaultMaxDimension, negative disables the bound.
	MaxDimension int
	// CacheSize is the number of previews cached (default 10).
	CacheSize int
}

// Encoder renders an image file as a full-size data URI.
type Encoder interface {
	EncodeFullImage(path string, useFast bool, maxDim int) (string, error)
}

type entry struct {
	path    string
	dataURI string
}

// Renderer serves full-image previews backed by a small LRU cache.
// Unlike the thumbnail cache, reads refresh recency here: the handful
// of previews the user keeps flipping between stay resident.
type Renderer struct {
	codec Encoder
	cfg   Config

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = least recently used
	pending map[string]bool
}

// New creates a Renderer around codec.
func New(codec Encoder, cfg Config) *Renderer {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.MaxDimension == 0 {
		cfg.MaxDimension = DefaultMaxDimension
	}
	if cfg.MaxDimension < 0 {
		cfg.MaxDimension = 0
	}
	return &Renderer{
		codec:   codec,
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		pending: make(map[string]bool),
	}
}

// Render returns the data URI for the image at path, serving from the
// cache when possible.
func (r *Renderer) Render(path string) (string, error) {
	if dataURI, ok := r.lookup(path); ok {
		metrics.PreviewRendersTotal.WithLabelValues("hit").Inc()
		return dataURI, nil
	}

	start := time.Now()
	dataURI, err := r.codec.EncodeFullImage(path, r.cfg.UseFastFormat, r.cfg.MaxDimension)
	if err != nil {
		metrics.PreviewRendersTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.PreviewRendersTotal.WithLabelValues("miss").Inc()
	metrics.PreviewRenderDuration.Observe(time.Since(start).Seconds())

	r.store(path, dataURI)
	return dataURI, nil
}

// RenderAt renders images[index] and preloads its immediate neighbors
// in the background, so stepping through a gallery hits the cache.
func (r *Renderer) RenderAt(images []string, index int) (string, error) {
	if index < 0 || index >= len(images) {
		return "", &IndexError{Index: index, Len: len(images)}
	}

	dataURI, err := r.Render(images[index])
	if err != nil {
		return "", err
	}

	for _, neighbor := range []int{index - 1, index + 1} {
		if neighbor >= 0 && neighbor < len(images) {
			r.preload(images[neighbor])
		}
	}

	return dataURI, nil
}

// Clear drops all cached previews.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*list.Element)
	r.order.Init()
}

// Len returns the number of cached previews.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

func (r *Renderer) lookup(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.entries[path]
	if !ok {
		return "", false
	}
	r.order.MoveToBack(elem)
	return elem.Value.(*entry).dataURI, true
}

func (r *Renderer) store(path, dataURI string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.entries[path]; ok {
		elem.Value.(*entry).dataURI = dataURI
		r.order.MoveToBack(elem)
		return
	}

	for r.order.Len() >= r.cfg.CacheSize {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.entries, oldest.Value.(*entry).path)
	}

	r.entries[path] = r.order.PushBack(&entry{path: path, dataURI: dataURI})
}

// preload renders path on a short-lived goroutine unless it is cached
// or already being rendered. Failures are logged and forgotten; the
// foreground request for that image will report them properly.
func (r *Renderer) preload(path string) {
	r.mu.Lock()
	if _, cached := r.entries[path]; cached || r.pending[path] {
		r.mu.Unlock()
		return
	}
	r.pending[path] = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.pending, path)
			r.mu.Unlock()
		}()

		dataURI, err := r.codec.EncodeFullImage(path, r.cfg.UseFastFormat, r.cfg.MaxDimension)
		if err != nil {
			logging.Debug("preview preload failed for %s: %v", path, err)
			return
		}
		r.store(path, dataURI)
	}()
}
