package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"image-browser/internal/logging"
)

// openRequest is the body of POST /api/gallery/open.
type openRequest struct {
	Folder string `json:"folder"`
}

// OpenGallery opens a folder and returns its first batch of images.
// Thumbnails arrive asynchronously on the event stream.
func (h *Handlers) OpenGallery(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.validatePath(req.Folder)
	if err != nil {
		status := http.StatusForbidden
		if os.IsNotExist(err) {
			status = http.StatusNotFound
		}
		writeJSONError(w, "invalid folder", status)
		return
	}

	result, err := h.gallery.OpenFolder(folder)
	if err != nil {
		logging.Error("open gallery %s failed: %v", folder, err)
		writeJSONError(w, "failed to open folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// LoadMoreGallery appends the next batch of the open folder.
func (h *Handlers) LoadMoreGallery(w http.ResponseWriter, _ *http.Request) {
	result, err := h.gallery.LoadMore()
	if err != nil {
		logging.Error("load more failed: %v", err)
		writeJSONError(w, "failed to load more images", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// CancelGallery stops delivery for the in-flight thumbnail batch.
func (h *Handlers) CancelGallery(w http.ResponseWriter, _ *http.Request) {
	h.gallery.Cancel()
	writeJSONStatus(w, "cancelled")
}
