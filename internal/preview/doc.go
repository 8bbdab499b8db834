// Package preview renders full-image previews as data URIs with a
// small LRU cache and background preloading of adjacent images.
package preview
