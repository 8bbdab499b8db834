package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeTransparentPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// Fully transparent; flattening must replace this with white.
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func decodeDataURI(t *testing.T, dataURI, wantPrefix string) image.Image {
	t.Helper()
	if !strings.HasPrefix(dataURI, wantPrefix) {
		t.Fatalf("data URI starts with %q, want %q", dataURI[:min(len(dataURI), 40)], wantPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, wantPrefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	return img
}

func TestEncodeThumbnailBoundsLongerEdge(t *testing.T) {
	dir := t.TempDir()
	c := NewCodec(85)

	for _, tc := range []struct {
		name           string
		srcW, srcH     int
		maxDim         int
		wantW, wantH   int
	}{
		{"landscape shrinks", 200, 100, 50, 50, 25},
		{"portrait shrinks", 100, 200, 50, 25, 50},
		{"square shrinks", 80, 80, 40, 40, 40},
		{"small image is not upscaled", 20, 10, 100, 20, 10},
		{"exact fit untouched", 60, 30, 60, 60, 30},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".png")
			writePNG(t, path, tc.srcW, tc.srcH)

			dataURI, err := c.EncodeThumbnail(path, tc.maxDim)
			if err != nil {
				t.Fatalf("EncodeThumbnail: %v", err)
			}

			img := decodeDataURI(t, dataURI, "data:image/png;base64,")
			if img.Bounds().Dx() != tc.wantW || img.Bounds().Dy() != tc.wantH {
				t.Errorf("thumbnail is %dx%d, want %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}

func TestEncodeThumbnailIdempotentDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 300, 150)
	c := NewCodec(85)

	first, err := c.EncodeThumbnail(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.EncodeThumbnail(path, 64)
	if err != nil {
		t.Fatal(err)
	}

	a := decodeDataURI(t, first, "data:image/png;base64,")
	b := decodeDataURI(t, second, "data:image/png;base64,")
	if a.Bounds() != b.Bounds() {
		t.Errorf("repeated encodes produced %v then %v", a.Bounds(), b.Bounds())
	}
}

func TestEncodeThumbnailErrors(t *testing.T) {
	dir := t.TempDir()
	c := NewCodec(85)

	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("definitely not image bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name   string
		path   string
		maxDim int
	}{
		{"corrupt file", corrupt, 100},
		{"missing file", filepath.Join(dir, "gone.png"), 100},
		{"zero dimension", corrupt, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.EncodeThumbnail(tc.path, tc.maxDim)
			if err == nil {
				t.Fatal("expected an error")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("error %T does not unwrap to *DecodeError", err)
			}
		})
	}
}

func TestEncodeFullImageFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 40, 40)
	c := NewCodec(85)

	slow, err := c.EncodeFullImage(path, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	decodeDataURI(t, slow, "data:image/png;base64,")

	fast, err := c.EncodeFullImage(path, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	decodeDataURI(t, fast, "data:image/jpeg;base64,")
}

func TestEncodeFullImageFlattensAlpha(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transparent.png")
	writeTransparentPNG(t, path, 16, 16)

	dataURI, err := NewCodec(90).EncodeFullImage(path, true, 0)
	if err != nil {
		t.Fatal(err)
	}

	img := decodeDataURI(t, dataURI, "data:image/jpeg;base64,")
	r, g, b, _ := img.At(8, 8).RGBA()
	// Allow for JPEG quantization noise around pure white.
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Errorf("transparent region encoded as (%d,%d,%d), want near-white", r>>8, g>>8, b>>8)
	}
}

func TestEncodeFullImageBoundsDimension(t *testing.T) {
	dir := t.TempDir()
	c := NewCodec(85)

	large := filepath.Join(dir, "large.png")
	writePNG(t, large, 400, 200)
	dataURI, err := c.EncodeFullImage(large, false, 100)
	if err != nil {
		t.Fatal(err)
	}
	img := decodeDataURI(t, dataURI, "data:image/png;base64,")
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("bounded preview is %dx%d, want 100x50", img.Bounds().Dx(), img.Bounds().Dy())
	}

	small := filepath.Join(dir, "small.png")
	writePNG(t, small, 30, 20)
	dataURI, err = c.EncodeFullImage(small, false, 100)
	if err != nil {
		t.Fatal(err)
	}
	img = decodeDataURI(t, dataURI, "data:image/png;base64,")
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("small preview resized to %dx%d, want untouched 30x20", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestNewCodecQualityDefaults(t *testing.T) {
	for _, q := range []int{0, -3, 101, 500} {
		if c := NewCodec(q); c.jpegQuality != 85 {
			t.Errorf("NewCodec(%d).jpegQuality = %d, want the 85 default", q, c.jpegQuality)
		}
	}
	if c := NewCodec(70); c.jpegQuality != 70 {
		t.Errorf("NewCodec(70).jpegQuality = %d", c.jpegQuality)
	}
}
