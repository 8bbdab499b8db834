// Package event provides the in-process message broker that decouples
// decode workers from presentation-layer consumers. Thumbnail results
// are published here and consumed on broker goroutines, so no UI-facing
// code ever runs on a worker thread.
package event
