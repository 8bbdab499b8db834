package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"image-browser/internal/devices"
	"image-browser/internal/event"
	"image-browser/internal/gallery"
	"image-browser/internal/logging"
)

// heartbeatInterval keeps idle SSE connections from being reaped by
// proxies and lets the server notice dead clients.
const heartbeatInterval = 15 * time.Second

type sseMessage struct {
	event string
	data  interface{}
}

// Events streams gallery and device notifications to the client as
// Server-Sent Events. Thumbnails land here after their placeholders
// were returned from the open/more endpoints.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// A slow client must never stall the broker's delivery goroutines,
	// so messages are dropped when the connection cannot keep up. The
	// client resyncs from the next reset.
	messages := make(chan sseMessage, 256)
	push := func(name string, data interface{}) {
		select {
		case messages <- sseMessage{event: name, data: data}:
		default:
			logging.Warn("event stream congested, dropping %s event", name)
		}
	}

	subscriptions := []struct {
		topic event.Topic
		fn    interface{}
	}{
		{event.TopicGalleryReset, func(e gallery.ResetEvent) { push("reset", e) }},
		{event.TopicGalleryItem, func(e gallery.ItemEvent) { push("item", e) }},
		{event.TopicGalleryProgress, func(e gallery.ProgressEvent) { push("progress", e) }},
		{event.TopicGalleryDone, func(e gallery.DoneEvent) { push("done", e) }},
		{event.TopicGalleryError, func(e gallery.ErrorEvent) { push("error", e) }},
		{event.TopicDeviceChanged, func(volumes []devices.Volume) { push("devices", volumes) }},
	}

	unsubscribe := func(n int) {
		for _, sub := range subscriptions[:n] {
			if err := h.broker.Unsubscribe(sub.topic, sub.fn); err != nil {
				logging.Warn("unsubscribe from %s failed: %v", sub.topic, err)
			}
		}
	}

	// Subscribe before the 200 goes out so a failure can still report
	// a real status and events published from this point on are not
	// missed.
	for i, sub := range subscriptions {
		if err := h.broker.Subscribe(sub.topic, sub.fn); err != nil {
			unsubscribe(i)
			logging.Error("event stream subscribe to %s failed: %v", sub.topic, err)
			writeJSONError(w, "failed to subscribe", http.StatusInternalServerError)
			return
		}
	}
	defer unsubscribe(len(subscriptions))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logging.Debug("event stream opened for %s", r.RemoteAddr)
	defer logging.Debug("event stream closed for %s", r.RemoteAddr)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case msg := <-messages:
			payload, err := json.Marshal(msg.data)
			if err != nil {
				logging.Error("failed to marshal %s event: %v", msg.event, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, payload); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
