// Package media implements the image-handling core of the browser: the
// thumbnail codec that decodes an image file and re-encodes it as a
// size-bounded data URI, and the paginated directory scanner that
// returns bounded batches of image paths without enumerating whole
// directories up front.
//
// Image decoding uses disintegration/imaging with stdlib JPEG, PNG and
// GIF decoders plus WebP via golang.org/x/image. When libvips is
// available the codec shrinks thumbnails at decode time through govips,
// which avoids materializing full-size pixels for large photos.
package media
