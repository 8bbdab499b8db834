package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"image-browser/internal/devices"
	"image-browser/internal/event"
	"image-browser/internal/gallery"
	"image-browser/internal/media"
	"image-browser/internal/preview"
	"image-browser/internal/startup"
	"image-browser/internal/thumbcache"
	"image-browser/internal/thumbnailer"
)

type stubEncoder struct{}

func (stubEncoder) EncodeThumbnail(path string, maxDim int) (string, error) {
	return "thumb-" + filepath.Base(path), nil
}

func (stubEncoder) EncodeFullImage(path string, useFast bool, maxDim int) (string, error) {
	return "full-" + filepath.Base(path), nil
}

type testEnv struct {
	handlers  *Handlers
	broker    *event.Broker
	imagesDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	imagesDir := t.TempDir()
	volumesDir := t.TempDir()

	cache := thumbcache.New(50)
	scanner := media.NewScanner(nil)
	broker := event.NewBroker(64)
	service := thumbnailer.New(stubEncoder{}, cache, thumbnailer.Config{Workers: 2})
	t.Cleanup(service.Shutdown)

	gal := gallery.New(scanner, cache, service, broker, gallery.Config{InitialBatchSize: 10, LoadMoreBatchSize: 5})
	renderer := preview.New(stubEncoder{}, preview.Config{})
	monitor := devices.NewMonitor(devices.Config{VolumesDir: volumesDir}, nil)

	config := &startup.Config{ImagesDir: imagesDir, VolumesDir: volumesDir}

	return &testEnv{
		handlers:  New(gal, renderer, monitor, scanner, cache, broker, config),
		broker:    broker,
		imagesDir: imagesDir,
	}
}

func (env *testEnv) addImages(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(env.imagesDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestBrowse(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"vacation", "archive"} {
		if err := os.Mkdir(filepath.Join(env.imagesDir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	rec := httptest.NewRecorder()
	env.handlers.Browse(rec, httptest.NewRequest("GET", "/api/browse?path="+env.imagesDir, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp BrowseResponse
	decodeBody(t, rec, &resp)
	if len(resp.Folders) != 2 {
		t.Errorf("folders = %v", resp.Folders)
	}
	if resp.Folders[0].Name != "archive" {
		t.Errorf("first folder = %s", resp.Folders[0].Name)
	}
}

func TestBrowseRejectsOutsidePaths(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"outside roots", "/etc", http.StatusForbidden},
		{"empty", "", http.StatusForbidden},
		{"traversal", env.imagesDir + "/../..", http.StatusForbidden},
		{"missing inside root", filepath.Join(env.imagesDir, "gone"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.handlers.Browse(rec, httptest.NewRequest("GET", "/api/browse?path="+tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestOpenGallery(t *testing.T) {
	env := newTestEnv(t)
	env.addImages(t, "a.jpg", "b.jpg", "c.jpg")

	body, _ := json.Marshal(openRequest{Folder: env.imagesDir})
	rec := httptest.NewRecorder()
	env.handlers.OpenGallery(rec, httptest.NewRequest("POST", "/api/gallery/open", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result media.BatchResult
	decodeBody(t, rec, &result)
	if len(result.Images) != 3 || result.HasMore {
		t.Errorf("result = %+v", result)
	}
}

func TestOpenGalleryBadRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.OpenGallery(rec, httptest.NewRequest("POST", "/api/gallery/open", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}

	body, _ := json.Marshal(openRequest{Folder: "/etc"})
	rec = httptest.NewRecorder()
	env.handlers.OpenGallery(rec, httptest.NewRequest("POST", "/api/gallery/open", bytes.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("outside folder status = %d", rec.Code)
	}
}

func TestLoadMoreGallery(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 13; i++ {
		env.addImages(t, fmt.Sprintf("img%02d.jpg", i))
	}

	body, _ := json.Marshal(openRequest{Folder: env.imagesDir})
	rec := httptest.NewRecorder()
	env.handlers.OpenGallery(rec, httptest.NewRequest("POST", "/api/gallery/open", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.handlers.LoadMoreGallery(rec, httptest.NewRequest("POST", "/api/gallery/more", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result media.BatchResult
	decodeBody(t, rec, &result)
	if len(result.Images) != 3 || result.HasMore {
		t.Errorf("second page = %+v, want the remaining 3 images", result)
	}
}

func TestCancelGallery(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.CancelGallery(rec, httptest.NewRequest("POST", "/api/gallery/cancel", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cancelled") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPreviewByPath(t *testing.T) {
	env := newTestEnv(t)
	env.addImages(t, "photo.jpg")

	path := filepath.Join(env.imagesDir, "photo.jpg")
	rec := httptest.NewRecorder()
	env.handlers.Preview(rec, httptest.NewRequest("GET", "/api/preview?path="+path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp PreviewResponse
	decodeBody(t, rec, &resp)
	if resp.DataURI != "full-photo.jpg" {
		t.Errorf("dataUri = %q", resp.DataURI)
	}
}

func TestPreviewByIndex(t *testing.T) {
	env := newTestEnv(t)
	env.addImages(t, "a.jpg", "b.jpg")

	body, _ := json.Marshal(openRequest{Folder: env.imagesDir})
	rec := httptest.NewRecorder()
	env.handlers.OpenGallery(rec, httptest.NewRequest("POST", "/api/gallery/open", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.handlers.Preview(rec, httptest.NewRequest("GET", "/api/preview?index=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp PreviewResponse
	decodeBody(t, rec, &resp)
	if resp.DataURI != "full-b.jpg" || resp.Index != 1 {
		t.Errorf("resp = %+v", resp)
	}

	// Out of range and malformed indexes.
	for _, raw := range []string{"5", "-1", "one"} {
		rec = httptest.NewRecorder()
		env.handlers.Preview(rec, httptest.NewRequest("GET", "/api/preview?index="+raw, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("index %q status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestPreviewRejectsOutsidePath(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.Preview(rec, httptest.NewRequest("GET", "/api/preview?path=/etc/passwd", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDevices(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.Devices(rec, httptest.NewRequest("GET", "/api/devices", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp DevicesResponse
	decodeBody(t, rec, &resp)
	if resp.Devices == nil {
		t.Error("devices is null, want an empty list")
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.HealthCheck(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	var health HealthResponse
	decodeBody(t, rec, &health)
	if health.Status != statusHealthy || health.GoVersion == "" {
		t.Errorf("health = %+v", health)
	}

	rec = httptest.NewRecorder()
	env.handlers.LivenessCheck(rec, httptest.NewRequest("GET", "/livez", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alive") {
		t.Errorf("livez = %d %s", rec.Code, rec.Body.String())
	}

	// HEAD gets headers only.
	rec = httptest.NewRecorder()
	env.handlers.LivenessCheck(rec, httptest.NewRequest("HEAD", "/livez", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD livez = %d with %d body bytes", rec.Code, rec.Body.Len())
	}

	rec = httptest.NewRecorder()
	env.handlers.ReadinessCheck(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.GetVersion(rec, httptest.NewRequest("GET", "/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var info startup.BuildInfo
	decodeBody(t, rec, &info)
	if info.Version == "" || info.GoVersion == "" {
		t.Errorf("build info = %+v", info)
	}
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(env.handlers.Events))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Subscriptions are registered before the response headers go out,
	// so anything published once the client holds the headers must be
	// delivered. A single publish suffices.
	env.broker.Publish(event.TopicGalleryDone, gallery.DoneEvent{Folder: "/photos"})

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	deadline := time.After(5 * time.Second)
	var sawEvent, sawData bool
	for !(sawEvent && sawData) {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before the event arrived")
			}
			if line == "event: done" {
				sawEvent = true
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, "/photos") {
				sawData = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for the done event on the stream")
		}
	}
}
