// Package thumbnailer runs thumbnail generation off the coordination
// thread on a bounded worker pool.
//
// A batch of image paths is submitted with per-item, progress and
// completion callbacks. Submitting a new batch (or calling
// CancelCurrent) supersedes the running one. Cancellation is soft: a
// generation marker is compared at each callback site, in-flight
// decodes always run to completion, and their successful results still
// populate the shared thumbnail cache even though their callbacks are
// suppressed.
package thumbnailer
