package devices

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// DefaultVolumesDir is where removable volumes are mounted.
const DefaultVolumesDir = "/Volumes"

// DefaultDebounce coalesces the burst of filesystem events a single
// mount or unmount produces into one change notification.
const DefaultDebounce = 500 * time.Millisecond

// Volume is one mounted removable volume.
type Volume struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Config holds monitor options.
type Config struct {
	// VolumesDir is the directory watched for mounts (default /Volumes).
	VolumesDir string
	// Debounce is the quiet period before onChange fires (default 500ms).
	Debounce time.Duration
}

// Monitor watches the volumes directory and reports mount changes.
type Monitor struct {
	volumesDir string
	debounce   time.Duration
	onChange   func()

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewMonitor creates a Monitor. onChange runs on the monitor's own
// goroutine after mount activity settles; it may be nil.
func NewMonitor(cfg Config, onChange func()) *Monitor {
	if cfg.VolumesDir == "" {
		cfg.VolumesDir = DefaultVolumesDir
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Monitor{
		volumesDir: cfg.VolumesDir,
		debounce:   cfg.Debounce,
		onChange:   onChange,
	}
}

// Start begins watching. Returns false when the volumes directory
// cannot be watched; the application keeps running without device
// notifications in that case.
func (m *Monitor) Start() bool {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("device monitor disabled, cannot create watcher: %v", err)
		return false
	}

	if err := watcher.Add(m.volumesDir); err != nil {
		logging.Warn("device monitor disabled, cannot watch %s: %v", m.volumesDir, err)
		if cerr := watcher.Close(); cerr != nil {
			logging.Error("failed to close device watcher: %v", cerr)
		}
		return false
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.watcher = watcher
	m.done = done
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(watcher, done)

	logging.Info("device monitor watching %s", m.volumesDir)
	return true
}

// Stop ends watching and waits for the event loop to exit. Safe to
// call when Start failed or was never called.
func (m *Monitor) Stop() {
	m.mu.Lock()
	watcher, done := m.watcher, m.done
	m.watcher, m.done = nil, nil
	m.mu.Unlock()

	if watcher == nil {
		return
	}
	close(done)
	if err := watcher.Close(); err != nil {
		logging.Error("failed to close device watcher: %v", err)
	}
	m.wg.Wait()
}

// Devices lists the currently mounted volumes, excluding hidden
// entries and the system volume. A missing volumes directory yields an
// empty list, not an error.
func (m *Monitor) Devices() []Volume {
	entries, err := os.ReadDir(m.volumesDir)
	if err != nil {
		logging.Debug("cannot list %s: %v", m.volumesDir, err)
		return []Volume{}
	}

	volumes := make([]Volume, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(m.volumesDir, name)
		if isSystemVolume(path) {
			continue
		}
		volumes = append(volumes, Volume{Name: name, Path: path})
	}

	sort.Slice(volumes, func(i, j int) bool {
		return strings.ToLower(volumes[i].Name) < strings.ToLower(volumes[j].Name)
	})
	return volumes
}

// isSystemVolume reports whether path is the boot volume. On macOS the
// system disk appears under /Volumes as a symlink back to /.
func isSystemVolume(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	return resolved == string(filepath.Separator)
}

func (m *Monitor) run(watcher *fsnotify.Watcher, done chan struct{}) {
	defer m.wg.Done()

	timer := time.NewTimer(m.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var timerArmed bool

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !m.relevant(event) {
				continue
			}
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(m.debounce)
			timerArmed = true

		case <-timer.C:
			timerArmed = false
			logging.Debug("volume change settled in %s", m.volumesDir)
			if m.onChange != nil {
				m.onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("device watcher error: %v", err)

		case <-done:
			return
		}
	}
}

// relevant filters watcher events down to mounts and unmounts of
// visible volumes, recording them as metrics.
func (m *Monitor) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		logging.Info("volume mounted: %s", filepath.Base(event.Name))
		metrics.DeviceEventsTotal.WithLabelValues("mounted").Inc()
		return true
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		logging.Info("volume unmounted: %s", filepath.Base(event.Name))
		metrics.DeviceEventsTotal.WithLabelValues("unmounted").Inc()
		return true
	}
	return false
}
