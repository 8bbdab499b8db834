// Package gallery implements the placeholder-then-fill loading protocol
// for the image grid: folder selection scans a bounded first page,
// cached thumbnails render immediately, the rest stream in through the
// event broker as the worker pool generates them, and "load more"
// appends further pages without rescanning what is already shown.
package gallery
