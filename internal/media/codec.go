package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"

	"image-browser/internal/filesystem"
	"image-browser/internal/logging"

	_ "image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Codec turns image files into size-bounded data URI strings. It is
// stateless apart from its encoding configuration and safe for
// concurrent use from multiple decode workers.
type Codec struct {
	jpegQuality int
}

// NewCodec creates a Codec. jpegQuality applies whenever the fast JPEG
// format is requested; values outside 1..100 fall back to 85.
func NewCodec(jpegQuality int) *Codec {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = 85
	}
	return &Codec{jpegQuality: jpegQuality}
}

// EncodeThumbnail decodes the image at path, bounds its longer edge to
// maxDim preserving aspect ratio (Lanczos resampling, no upscaling),
// and returns the result as a PNG data URI.
func (c *Codec) EncodeThumbnail(path string, maxDim int) (string, error) {
	if maxDim <= 0 {
		return "", &DecodeError{Path: path, Err: fmt.Errorf("invalid thumbnail dimension %d", maxDim)}
	}

	// Fast path: libvips shrinks during decode, which avoids holding
	// full-size pixels for large photos.
	if IsVipsAvailable() {
		if img, err := LoadImageWithVips(path, maxDim); err == nil {
			return c.encodeDataURI(img, false)
		} else {
			logging.Debug("vips decode failed for %s: %v, falling back to pure-Go path", filepath.Base(path), err)
		}
	}

	img, err := c.open(path)
	if err != nil {
		return "", err
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	return c.encodeDataURI(thumb, false)
}

// EncodeFullImage decodes the image at path and returns it as a data
// URI without the thumbnail shrink. When useFast is true the output is
// JPEG at the configured quality (alpha flattened onto white),
// otherwise PNG. A maxDim > 0 bounds the longer edge for preview
// display; images already within the bound are left at full size.
func (c *Codec) EncodeFullImage(path string, useFast bool, maxDim int) (string, error) {
	img, err := c.open(path)
	if err != nil {
		return "", err
	}

	if maxDim > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	return c.encodeDataURI(img, useFast)
}

func (c *Codec) open(path string) (image.Image, error) {
	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		// Sniff the real format so the log line says more than
		// "unknown format" when an extension lies.
		if format, serr := DetectFormat(path); serr == nil {
			logging.Debug("decode failed for %s (detected format: %s): %v", filepath.Base(path), format, err)
		}
		return nil, &DecodeError{Path: path, Err: err}
	}

	return img, nil
}

func (c *Codec) encodeDataURI(img image.Image, useJPEG bool) (string, error) {
	var buf bytes.Buffer

	if useJPEG {
		flat := flattenAlpha(img)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: c.jpegQuality}); err != nil {
			return "", &DecodeError{Path: "", Err: fmt.Errorf("jpeg encode: %w", err)}
		}
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	}

	if err := png.Encode(&buf, img); err != nil {
		return "", &DecodeError{Path: "", Err: fmt.Errorf("png encode: %w", err)}
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// flattenAlpha composites img over a white background. JPEG has no
// alpha channel, so transparent regions must be filled before encoding.
func flattenAlpha(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
