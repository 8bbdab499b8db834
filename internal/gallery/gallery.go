package gallery

import (
	"sync"

	"image-browser/internal/event"
	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/thumbcache"
	"image-browser/internal/thumbnailer"
)

// Config controls gallery pagination and thumbnail sizing.
type Config struct {
	// InitialBatchSize is the first page size on folder open (default 100).
	InitialBatchSize int
	// LoadMoreBatchSize is the page size for subsequent loads (default 50).
	LoadMoreBatchSize int
	// ThumbnailSize is the target pixel bound for grid thumbnails (default 150).
	ThumbnailSize int
}

// DefaultConfig returns the gallery defaults.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize:  100,
		LoadMoreBatchSize: 50,
		ThumbnailSize:     150,
	}
}

// ResetEvent announces a listing change: a freshly opened folder or an
// appended page. Consumers render placeholders for every image and wait
// for ItemEvents to fill them.
type ResetEvent struct {
	Folder     string   `json:"folder"`
	Images     []string `json:"images"`
	TotalCount int      `json:"totalCount"`
	HasMore    bool     `json:"hasMore"`
	// Appended is true for load-more pages: Images holds only the new
	// page and indexes continue from the existing listing.
	Appended bool `json:"appended"`
	// BaseIndex is the listing index of Images[0].
	BaseIndex int `json:"baseIndex"`
}

// ItemEvent fills one placeholder with its generated thumbnail.
type ItemEvent struct {
	Index   int    `json:"index"`
	DataURI string `json:"dataUri"`
	Path    string `json:"path"`
}

// ProgressEvent reports batch progress, counting failures too.
type ProgressEvent struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// DoneEvent announces that every thumbnail for the last submitted page
// has been processed.
type DoneEvent struct {
	Folder string `json:"folder"`
}

// ErrorEvent reports a failed folder scan. The previous listing remains
// valid; consumers show a notification and keep their state.
type ErrorEvent struct {
	Folder  string `json:"folder"`
	Message string `json:"message"`
}

// Gallery coordinates the paginated, progressively-filled image grid:
// it scans folders in bounded batches, serves cached thumbnails
// immediately, submits the rest to the async thumbnail service, and
// publishes fill events on the broker.
type Gallery struct {
	scanner *media.Scanner
	cache   *thumbcache.Cache
	service *thumbnailer.Service
	broker  *event.Broker
	cfg     Config

	mu         sync.Mutex
	folder     string
	images     []string
	nextOffset int
	hasMore    bool
}

// New creates a Gallery. Zero-valued config fields fall back to
// defaults.
func New(scanner *media.Scanner, cache *thumbcache.Cache, service *thumbnailer.Service, broker *event.Broker, cfg Config) *Gallery {
	defaults := DefaultConfig()
	if cfg.InitialBatchSize <= 0 {
		cfg.InitialBatchSize = defaults.InitialBatchSize
	}
	if cfg.LoadMoreBatchSize <= 0 {
		cfg.LoadMoreBatchSize = defaults.LoadMoreBatchSize
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = defaults.ThumbnailSize
	}
	return &Gallery{
		scanner: scanner,
		cache:   cache,
		service: service,
		broker:  broker,
		cfg:     cfg,
	}
}

// OpenFolder cancels any running batch, scans the first page of folder
// and kicks off thumbnail generation for it. On scan failure the
// previous listing is left untouched and an ErrorEvent is published.
func (g *Gallery) OpenFolder(folder string) (media.BatchResult, error) {
	g.service.CancelCurrent()

	result, err := g.scanner.ScanBatch(folder, 0, g.cfg.InitialBatchSize)
	if err != nil {
		logging.Warn("open folder %s failed: %v", folder, err)
		g.broker.Publish(event.TopicGalleryError, ErrorEvent{Folder: folder, Message: err.Error()})
		return result, err
	}

	g.mu.Lock()
	g.folder = folder
	g.images = append([]string(nil), result.Images...)
	g.nextOffset = result.NextOffset
	g.hasMore = result.HasMore
	g.mu.Unlock()

	logging.Info("opened folder %s: %d images (hasMore=%v)", folder, len(result.Images), result.HasMore)

	g.broker.Publish(event.TopicGalleryReset, ResetEvent{
		Folder:     folder,
		Images:     result.Images,
		TotalCount: result.TotalCount,
		HasMore:    result.HasMore,
		Appended:   false,
		BaseIndex:  0,
	})

	g.fill(folder, result.Images, 0)
	return result, nil
}

// LoadMore appends the next page of the current folder. Returns an
// empty exhausted result when there is nothing more to load.
func (g *Gallery) LoadMore() (media.BatchResult, error) {
	g.mu.Lock()
	folder := g.folder
	offset := g.nextOffset
	hasMore := g.hasMore
	baseIndex := len(g.images)
	g.mu.Unlock()

	if folder == "" || !hasMore {
		return media.BatchResult{Images: []string{}, TotalCount: offset, HasMore: false, NextOffset: offset}, nil
	}

	result, err := g.scanner.ScanBatch(folder, offset, g.cfg.LoadMoreBatchSize)
	if err != nil {
		logging.Warn("load more in %s failed: %v", folder, err)
		g.broker.Publish(event.TopicGalleryError, ErrorEvent{Folder: folder, Message: err.Error()})
		return result, err
	}

	g.mu.Lock()
	// The folder may have changed while scanning; drop a stale page.
	if g.folder != folder {
		g.mu.Unlock()
		logging.Debug("discarding load-more page for %s, folder changed", folder)
		return media.BatchResult{Images: []string{}, TotalCount: offset, HasMore: false, NextOffset: offset}, nil
	}
	g.images = append(g.images, result.Images...)
	g.nextOffset = result.NextOffset
	g.hasMore = result.HasMore
	g.mu.Unlock()

	logging.Info("loaded %d more images in %s (hasMore=%v)", len(result.Images), folder, result.HasMore)

	g.broker.Publish(event.TopicGalleryReset, ResetEvent{
		Folder:     folder,
		Images:     result.Images,
		TotalCount: result.TotalCount,
		HasMore:    result.HasMore,
		Appended:   true,
		BaseIndex:  baseIndex,
	})

	g.fill(folder, result.Images, baseIndex)
	return result, nil
}

// Cancel suppresses all further events from the running batch.
func (g *Gallery) Cancel() {
	g.service.CancelCurrent()
}

// Listing returns the current folder and its loaded image paths.
func (g *Gallery) Listing() (folder string, images []string, hasMore bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.folder, append([]string(nil), g.images...), g.hasMore
}

// fill serves cached thumbnails immediately and submits the rest to the
// async service. baseIndex maps page-local indexes onto the listing.
func (g *Gallery) fill(folder string, images []string, baseIndex int) {
	if len(images) == 0 {
		g.broker.Publish(event.TopicGalleryDone, DoneEvent{Folder: folder})
		return
	}

	var (
		pending        []string
		pendingIndexes []int
	)

	for i, path := range images {
		if dataURI, ok := g.cache.Get(path); ok {
			g.broker.Publish(event.TopicGalleryItem, ItemEvent{
				Index:   baseIndex + i,
				DataURI: dataURI,
				Path:    path,
			})
			continue
		}
		pending = append(pending, path)
		pendingIndexes = append(pendingIndexes, baseIndex+i)
	}

	logging.Debug("fill %s: %d cached, %d to generate", folder, len(images)-len(pending), len(pending))

	if len(pending) == 0 {
		g.broker.Publish(event.TopicGalleryDone, DoneEvent{Folder: folder})
		return
	}

	_, err := g.service.Submit(pending, g.cfg.ThumbnailSize, thumbnailer.Callbacks{
		OnItem: func(index int, dataURI, path string) {
			g.broker.Publish(event.TopicGalleryItem, ItemEvent{
				Index:   pendingIndexes[index],
				DataURI: dataURI,
				Path:    path,
			})
		},
		OnDone: func() {
			g.broker.Publish(event.TopicGalleryDone, DoneEvent{Folder: folder})
		},
		OnProgress: func(completed, total int) {
			g.broker.Publish(event.TopicGalleryProgress, ProgressEvent{Completed: completed, Total: total})
		},
	})
	if err != nil {
		logging.Error("thumbnail batch submission failed for %s: %v", folder, err)
		g.broker.Publish(event.TopicGalleryError, ErrorEvent{Folder: folder, Message: err.Error()})
	}
}
