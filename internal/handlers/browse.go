package handlers

import (
	"errors"
	"net/http"
	"os"

	"image-browser/internal/logging"
	"image-browser/internal/media"
)

// BrowseResponse is the folder-tree listing for one directory.
type BrowseResponse struct {
	Path    string         `json:"path"`
	Folders []media.Folder `json:"folders"`
}

// Browse returns the subfolders of the requested directory for the
// navigation tree.
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	path, err := h.validatePath(r.URL.Query().Get("path"))
	if err != nil {
		status := http.StatusForbidden
		if os.IsNotExist(err) {
			status = http.StatusNotFound
		}
		writeJSONError(w, "invalid path", status)
		return
	}

	folders, err := h.scanner.ListFolders(path)
	if err != nil {
		var scanErr *media.ScanError
		if errors.As(err, &scanErr) && os.IsNotExist(scanErr.Err) {
			writeJSONError(w, "folder not found", http.StatusNotFound)
			return
		}
		logging.Error("browse %s failed: %v", path, err)
		writeJSONError(w, "failed to list folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, BrowseResponse{Path: path, Folders: folders})
}
