package media

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"image-browser/internal/filesystem"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
)

// readChunk is how many directory entries are read per syscall. Small
// enough to keep partial scans cheap, large enough to amortize the
// readdir cost on big folders.
const readChunk = 256

// readDirChunk pages through a directory handle. A variable so tests
// can observe how many chunks a bounded scan actually touches.
var readDirChunk = func(dir *os.File, n int) ([]os.DirEntry, error) {
	return dir.ReadDir(n)
}

// Scanner lists image files from local directories in bounded batches.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a Scanner that recognizes the given extensions
// (case-insensitive, leading dot optional).
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Scanner{extensions: ExtensionSet(extensions)}
}

// ScanBatch returns up to limit qualifying image files from folder,
// skipping the first offset qualifying entries. The scan stops as soon
// as limit is reached, so latency is bounded by limit rather than the
// directory size. The returned batch is sorted by case-insensitive
// filename; sorting is local to the batch, not global across pages.
//
// On any I/O error the result is empty with HasMore=false and the
// error wraps a *ScanError; callers keep their current listing and
// surface a notification instead of aborting.
func (s *Scanner) ScanBatch(folder string, offset, limit int) (BatchResult, error) {
	start := time.Now()
	empty := BatchResult{Images: []string{}, TotalCount: offset, HasMore: false, NextOffset: offset}

	if offset < 0 || limit <= 0 {
		return empty, &ScanError{Folder: folder, Err: os.ErrInvalid}
	}

	result, err := s.scanBatch(folder, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
		result = empty
	}
	metrics.ScannerOperationsTotal.WithLabelValues("scan_batch", status).Inc()
	metrics.ScannerOperationDuration.WithLabelValues("scan_batch").Observe(time.Since(start).Seconds())
	metrics.ScannerItemsReturned.WithLabelValues("scan_batch").Observe(float64(len(result.Images)))

	logging.Debug("scan %s: offset=%d limit=%d got=%d hasMore=%v err=%v",
		filepath.Base(folder), offset, limit, len(result.Images), result.HasMore, err)

	return result, err
}

func (s *Scanner) scanBatch(folder string, offset, limit int) (BatchResult, error) {
	dir, err := filesystem.OpenWithRetry(folder, filesystem.DefaultRetryConfig())
	if err != nil {
		return BatchResult{}, &ScanError{Folder: folder, Err: err}
	}
	defer dir.Close()

	images := make([]string, 0, limit)
	var (
		skipped      int
		stoppedEarly bool
	)

scan:
	for {
		entries, err := readDirChunk(dir, readChunk)
		for _, entry := range entries {
			if !s.qualifies(entry) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}

			images = append(images, filepath.Join(folder, entry.Name()))

			// Stopping at the limit is the core latency bound: the rest
			// of the directory is never enumerated on this page.
			if len(images) >= limit {
				stoppedEarly = true
				break scan
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return BatchResult{}, &ScanError{Folder: folder, Err: err}
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return strings.ToLower(filepath.Base(images[i])) < strings.ToLower(filepath.Base(images[j]))
	})

	collected := len(images)
	return BatchResult{
		Images:     images,
		TotalCount: offset + collected,
		HasMore:    stoppedEarly,
		NextOffset: offset + collected,
	}, nil
}

func (s *Scanner) qualifies(entry os.DirEntry) bool {
	name := entry.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !entry.Type().IsRegular() {
		return false
	}
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}

// ListFolders returns the visible subdirectories of folder sorted by
// case-insensitive name, for the navigation tree.
func (s *Scanner) ListFolders(folder string) ([]Folder, error) {
	start := time.Now()

	entries, err := os.ReadDir(folder)
	if err != nil {
		metrics.ScannerOperationsTotal.WithLabelValues("list_folders", "error").Inc()
		return nil, &ScanError{Folder: folder, Err: err}
	}

	folders := make([]Folder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		folders = append(folders, Folder{
			Name: entry.Name(),
			Path: filepath.Join(folder, entry.Name()),
		})
	}

	sort.Slice(folders, func(i, j int) bool {
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})

	metrics.ScannerOperationsTotal.WithLabelValues("list_folders", "success").Inc()
	metrics.ScannerOperationDuration.WithLabelValues("list_folders").Observe(time.Since(start).Seconds())
	metrics.ScannerItemsReturned.WithLabelValues("list_folders").Observe(float64(len(folders)))

	return folders, nil
}
