// Package handlers implements the HTTP API: folder browsing, gallery
// open/load-more/cancel, the Server-Sent Events stream carrying
// thumbnail results, full-image previews, device listing, and the
// health and version endpoints.
package handlers
