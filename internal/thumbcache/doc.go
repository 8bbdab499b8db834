// Package thumbcache provides the in-memory thumbnail cache shared by
// the gallery grid and the preview carousel. Thumbnails live for the
// process lifetime only; nothing is persisted.
package thumbcache
