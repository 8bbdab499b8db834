package media

import (
	"fmt"
	"strings"
)

// DefaultExtensions is the default allow-list of image file extensions.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// BatchResult is one page of a paginated directory scan.
type BatchResult struct {
	// Images are absolute paths to qualifying files, sorted by
	// case-insensitive filename within this batch.
	Images []string `json:"images"`
	// TotalCount is offset plus the number of images collected so far.
	// It is an estimate of the directory size while HasMore is true.
	TotalCount int `json:"totalCount"`
	// HasMore is true iff the scan stopped early at the batch limit,
	// meaning more qualifying files may remain unscanned.
	HasMore bool `json:"hasMore"`
	// NextOffset is the offset to pass to the next ScanBatch call.
	NextOffset int `json:"nextOffset"`
}

// Folder is a subdirectory entry for the navigation tree.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DecodeError reports that a single image could not be opened, decoded
// or re-encoded. It is local to one item: callers skip the image and
// keep processing the rest of the batch.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ScanError reports that a directory could not be enumerated. The scan
// result accompanying it is always empty with HasMore=false so callers
// can surface a notification and leave their current state unchanged.
type ScanError struct {
	Folder string
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Folder, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ExtensionSet builds a lookup set from a list of extensions. Entries
// are lowercased and get a leading dot if missing.
func ExtensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
