package devices

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartOnMissingDirectory(t *testing.T) {
	m := NewMonitor(Config{VolumesDir: filepath.Join(t.TempDir(), "gone")}, nil)
	if m.Start() {
		t.Error("Start reported success for an unwatchable directory")
	}
	// Stop after a failed Start must be a no-op.
	m.Stop()
}

func TestMountTriggersChange(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int64
	m := NewMonitor(Config{VolumesDir: dir, Debounce: 20 * time.Millisecond}, func() {
		changes.Add(1)
	})
	if !m.Start() {
		t.Fatal("Start failed")
	}
	defer m.Stop()

	if err := os.Mkdir(filepath.Join(dir, "USB_DRIVE"), 0755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "mount notification", func() bool { return changes.Load() >= 1 })

	if err := os.Remove(filepath.Join(dir, "USB_DRIVE")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "unmount notification", func() bool { return changes.Load() >= 2 })
}

func TestDebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int64
	m := NewMonitor(Config{VolumesDir: dir, Debounce: 100 * time.Millisecond}, func() {
		changes.Add(1)
	})
	if !m.Start() {
		t.Fatal("Start failed")
	}
	defer m.Stop()

	// A burst of mounts well inside the debounce window.
	for _, name := range []string{"CARD_A", "CARD_B", "CARD_C"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, "coalesced notification", func() bool { return changes.Load() >= 1 })
	time.Sleep(250 * time.Millisecond)
	if n := changes.Load(); n != 1 {
		t.Errorf("burst produced %d notifications, want 1", n)
	}
}

func TestHiddenEntriesIgnored(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int64
	m := NewMonitor(Config{VolumesDir: dir, Debounce: 20 * time.Millisecond}, func() {
		changes.Add(1)
	})
	if !m.Start() {
		t.Fatal("Start failed")
	}
	defer m.Stop()

	if err := os.Mkdir(filepath.Join(dir, ".Trashes"), 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := changes.Load(); n != 0 {
		t.Errorf("hidden entry produced %d notifications", n)
	}
}

func TestDevicesListing(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Zebra", "camera", ".hidden"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// The boot volume shows up as a symlink back to the root.
	if err := os.Symlink("/", filepath.Join(dir, "System HD")); err != nil {
		t.Fatal(err)
	}

	m := NewMonitor(Config{VolumesDir: dir}, nil)
	volumes := m.Devices()

	if len(volumes) != 2 {
		t.Fatalf("Devices() = %v, want camera and Zebra only", volumes)
	}
	if volumes[0].Name != "camera" || volumes[1].Name != "Zebra" {
		t.Errorf("Devices() order = %v, want case-insensitive name order", volumes)
	}
	if volumes[0].Path != filepath.Join(dir, "camera") {
		t.Errorf("volume path = %s", volumes[0].Path)
	}
}

func TestDevicesMissingDirectory(t *testing.T) {
	m := NewMonitor(Config{VolumesDir: filepath.Join(t.TempDir(), "gone")}, nil)
	if volumes := m.Devices(); volumes == nil || len(volumes) != 0 {
		t.Errorf("Devices() = %v, want an empty non-nil list", volumes)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := NewMonitor(Config{VolumesDir: t.TempDir(), Debounce: 20 * time.Millisecond}, nil)
	if !m.Start() {
		t.Fatal("Start failed")
	}
	m.Stop()
	m.Stop()
}
