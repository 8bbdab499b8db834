package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/preview"
)

// PreviewResponse carries one full-image preview.
type PreviewResponse struct {
	Path    string `json:"path"`
	Index   int    `json:"index,omitempty"`
	DataURI string `json:"dataUri"`
}

// Preview returns a full-image data URI. With an index parameter the
// image is resolved from the open gallery listing and its neighbors
// are preloaded for the next navigation step; with a path parameter a
// single image is rendered directly.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	if rawIndex := r.URL.Query().Get("index"); rawIndex != "" {
		h.previewByIndex(w, rawIndex)
		return
	}

	path, err := h.validatePath(r.URL.Query().Get("path"))
	if err != nil {
		status := http.StatusForbidden
		if os.IsNotExist(err) {
			status = http.StatusNotFound
		}
		writeJSONError(w, "invalid path", status)
		return
	}

	dataURI, err := h.renderer.Render(path)
	if err != nil {
		h.writePreviewError(w, path, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, PreviewResponse{Path: path, DataURI: dataURI})
}

func (h *Handlers) previewByIndex(w http.ResponseWriter, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeJSONError(w, "invalid index", http.StatusBadRequest)
		return
	}

	_, images, _ := h.gallery.Listing()

	dataURI, err := h.renderer.RenderAt(images, index)
	if err != nil {
		var indexErr *preview.IndexError
		if errors.As(err, &indexErr) {
			writeJSONError(w, indexErr.Error(), http.StatusBadRequest)
			return
		}
		h.writePreviewError(w, images[index], err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, PreviewResponse{Path: images[index], Index: index, DataURI: dataURI})
}

func (h *Handlers) writePreviewError(w http.ResponseWriter, path string, err error) {
	var decodeErr *media.DecodeError
	if errors.As(err, &decodeErr) && os.IsNotExist(decodeErr.Err) {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}
	logging.Error("preview %s failed: %v", path, err)
	writeJSONError(w, "failed to render preview", http.StatusInternalServerError)
}
