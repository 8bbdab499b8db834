package thumbnailer

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/thumbcache"

	"github.com/google/uuid"
)

// Sentinel errors returned by Submit.
var (
	// ErrEmptyBatch indicates a Submit call with no images.
	ErrEmptyBatch = errors.New("empty thumbnail batch")

	// ErrInvalidSize indicates a non-positive target thumbnail size.
	ErrInvalidSize = errors.New("invalid thumbnail size")

	// ErrShutdown indicates the service no longer accepts batches.
	ErrShutdown = errors.New("thumbnail service is shut down")
)

// Callbacks receive batch results. They are invoked from worker
// goroutines; consumers that mutate UI state must hand the values off
// to their own thread, typically via the event broker.
type Callbacks struct {
	// OnItem is called once per successfully generated thumbnail with
	// the item's index within the batch, the encoded data URI, and the
	// source path. Never called for failed items or superseded batches.
	OnItem func(index int, dataURI string, path string)

	// OnDone is called exactly once when every item in the batch has
	// finished or been suppressed, unless the batch was superseded.
	OnDone func()

	// OnProgress, if set, is called after every item completes
	// (success or failure), with the running completed count and the
	// batch total.
	OnProgress func(completed, total int)
}

// Config controls the service's worker pool.
type Config struct {
	// Workers is the decode pool size (default 4).
	Workers int
	// QueueSize is the job channel buffer (default 1024).
	QueueSize int
	// DecodeTimeout bounds a single decode; a timed-out item counts as
	// failed while its decode runs to completion in the background.
	// Zero disables the bound.
	DecodeTimeout time.Duration
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		QueueSize:     1024,
		DecodeTimeout: 5 * time.Second,
	}
}

// Encoder produces an encoded thumbnail for an image file.
// *media.Codec is the production implementation.
type Encoder interface {
	EncodeThumbnail(path string, maxDim int) (string, error)
}

// Service generates thumbnails asynchronously on a bounded worker pool
// and reports results through per-batch callbacks. Submitting a new
// batch supersedes the previous one: in-flight decodes keep running
// (their successful results still seed the cache) but their callbacks
// are suppressed.
type Service struct {
	codec Encoder
	cache *thumbcache.Cache
	cfg   Config

	jobs     chan job
	workerWG sync.WaitGroup

	// intake tracks Submit calls that passed the closed check but have
	// not finished enqueueing. Shutdown waits on it before closing the
	// jobs channel so an in-flight Submit never sends on a closed
	// channel.
	intake sync.WaitGroup

	mu      sync.Mutex
	current string
	closed  bool
}

type job struct {
	batch      *batchState
	index      int
	path       string
	targetSize int
}

type batchState struct {
	id        string
	total     int
	completed atomic.Int64
	pending   sync.WaitGroup
	callbacks Callbacks
}

// New creates the service and starts its worker pool. Call Shutdown to
// drain and stop the pool at teardown.
func New(codec Encoder, cache *thumbcache.Cache, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	s := &Service{
		codec: codec,
		cache: cache,
		cfg:   cfg,
		jobs:  make(chan job, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.workerWG.Add(1)
		go s.worker(i)
	}

	metrics.ThumbnailWorkers.Set(float64(cfg.Workers))
	logging.Info("thumbnail service started, workers: %d, decode timeout: %v", cfg.Workers, cfg.DecodeTimeout)

	return s
}

// Submit schedules thumbnail generation for images at targetSize and
// returns the batch id. The new batch becomes current immediately,
// superseding any prior batch. Item callbacks arrive in no particular
// order; OnDone fires exactly once, strictly after every item has
// either called OnItem or failed silently.
func (s *Service) Submit(images []string, targetSize int, callbacks Callbacks) (string, error) {
	if len(images) == 0 {
		return "", ErrEmptyBatch
	}
	if targetSize <= 0 {
		return "", ErrInvalidSize
	}

	batch := &batchState{
		id:        uuid.New().String(),
		total:     len(images),
		callbacks: callbacks,
	}
	batch.pending.Add(len(images))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrShutdown
	}
	s.intake.Add(1)
	defer s.intake.Done()
	if s.current != "" {
		metrics.ThumbnailBatchesSuperseded.Inc()
		logging.Debug("batch %.8s superseded by new submission", s.current)
	}
	s.current = batch.id
	s.mu.Unlock()

	metrics.ThumbnailBatchesTotal.Inc()
	logging.Info("thumbnail batch %.8s submitted: %d images at size %d", batch.id, batch.total, targetSize)

	// Completion monitor: the barrier waits for completion, not
	// success, so failed items release it too.
	go func() {
		batch.pending.Wait()
		if !s.isCurrent(batch.id) {
			logging.Debug("batch %.8s finished after supersession, completion suppressed", batch.id)
			return
		}
		logging.Info("thumbnail batch %.8s complete: %d images processed", batch.id, batch.total)
		if batch.callbacks.OnDone != nil {
			batch.callbacks.OnDone()
		}
		s.clearIfCurrent(batch.id)
	}()

	for idx, path := range images {
		s.jobs <- job{batch: batch, index: idx, path: path, targetSize: targetSize}
	}

	return batch.id, nil
}

// CancelCurrent clears the current-batch marker so all in-flight and
// future completions for the outstanding batch are suppressed. It does
// not interrupt running decode work.
func (s *Service) CancelCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		logging.Debug("no active thumbnail batch to cancel")
		return
	}
	logging.Info("thumbnail batch %.8s cancelled", s.current)
	s.current = ""
	metrics.ThumbnailBatchesSuperseded.Inc()
}

// Shutdown stops accepting batches, drains queued work and waits for
// the workers to exit. A Submit racing Shutdown either queues its
// batch in full or returns ErrShutdown; the intake wait below keeps
// the jobs channel open until every admitted Submit has finished
// enqueueing. Workers keep draining during the wait, so a Submit
// blocked on a full queue cannot deadlock it.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.current = ""
	s.mu.Unlock()

	s.intake.Wait()
	close(s.jobs)
	s.workerWG.Wait()
	logging.Info("thumbnail service shut down")
}

func (s *Service) isCurrent(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == batchID
}

func (s *Service) clearIfCurrent(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == batchID {
		s.current = ""
	}
}

func (s *Service) worker(id int) {
	defer s.workerWG.Done()

	logging.Debug("thumbnail worker %d started", id)
	for j := range s.jobs {
		s.process(j)
	}
	logging.Debug("thumbnail worker %d finished", id)
}

// process handles one unit of work. The ordering matters: the item
// callback (if any) fires before progress, and the pending counter is
// released last so the completion barrier cannot fire early.
func (s *Service) process(j job) {
	b := j.batch

	if s.isCurrent(b.id) {
		s.generate(j)
	} else {
		metrics.ThumbnailItemsSuppressed.Inc()
		logging.Debug("batch %.8s superseded, skipping %s", b.id, filepath.Base(j.path))
	}

	completed := int(b.completed.Add(1))
	if b.callbacks.OnProgress != nil && s.isCurrent(b.id) {
		b.callbacks.OnProgress(completed, b.total)
	}

	b.pending.Done()
}

type encodeOutcome struct {
	dataURI string
	err     error
}

// generate decodes one image and delivers the result. Successful
// results are always written to the cache, even when the batch has been
// superseded mid-decode: the work is already done and the entry is a
// free hit on the next visit. Only the callback is gated on currency.
func (s *Service) generate(j job) {
	start := time.Now()

	done := make(chan encodeOutcome, 1)
	go func() {
		dataURI, err := s.codec.EncodeThumbnail(j.path, j.targetSize)
		if err == nil {
			s.cache.Put(j.path, dataURI)
		}
		done <- encodeOutcome{dataURI: dataURI, err: err}
	}()

	var outcome encodeOutcome
	if s.cfg.DecodeTimeout > 0 {
		timer := time.NewTimer(s.cfg.DecodeTimeout)
		defer timer.Stop()

		select {
		case outcome = <-done:
		case <-timer.C:
			metrics.ThumbnailGenerationsTotal.WithLabelValues("timeout").Inc()
			logging.Warn("thumbnail for %s exceeded %v, treating as failed", filepath.Base(j.path), s.cfg.DecodeTimeout)
			return
		}
	} else {
		outcome = <-done
	}

	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())

	if outcome.err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Warn("thumbnail generation failed for %s: %v", filepath.Base(j.path), outcome.err)
		return
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	if !s.isCurrent(j.batch.id) {
		metrics.ThumbnailItemsSuppressed.Inc()
		logging.Debug("batch %.8s superseded mid-decode, result for %s cached but not delivered",
			j.batch.id, filepath.Base(j.path))
		return
	}

	if j.batch.callbacks.OnItem != nil {
		j.batch.callbacks.OnItem(j.index, outcome.dataURI, j.path)
	}
}
