package handlers

import (
	"net/http"

	"image-browser/internal/devices"
)

// DevicesResponse lists the removable volumes currently mounted.
type DevicesResponse struct {
	Devices []devices.Volume `json:"devices"`
}

// Devices returns the mounted removable volumes.
func (h *Handlers) Devices(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, DevicesResponse{Devices: h.monitor.Devices()})
}
