package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poke-max/job-analyzer/internal/imaging"
	"github.com/poke-max/job-analyzer/internal/models"
)

// Classifier is what the worker needs from the record extractor.
type Classifier interface {
	ClassifyImage(ctx context.Context, image []byte, supplementaryText string) (*models.ExtractionRecord, error)
	ClassifyText(ctx context.Context, text string) (*models.ExtractionRecord, error)
}

// JobStore commits a classified record (and its image, when present).
type JobStore interface {
	SaveJob(ctx context.Context, imageWebP []byte, rec *models.ExtractionRecord) (*models.ExtractionRecord, error)
}

// WorkerConfig tunes the processing loop.
type WorkerConfig struct {
	// ImageQuality is the WebP conversion quality, 0..100.
	ImageQuality int
	// PollInterval is how long the loop sleeps when the queue is empty
	// or paused before checking again.
	PollInterval time.Duration
	// ItemPause is the brief pause between consecutive items.
	ItemPause time.Duration
	// Convert overrides the image conversion step; nil uses imaging.Convert.
	Convert func(data []byte, quality int) ([]byte, error)
}

func (c *WorkerConfig) applyDefaults() {
	if c.ImageQuality <= 0 || c.ImageQuality > 100 {
		c.ImageQuality = 95
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.Convert == nil {
		c.Convert = imaging.Convert
	}
}

// Worker owns the work queue and the single processing loop. All shared
// state lives behind one mutex; the lock is never held across the blocking
// classify/persist calls, so producers stay responsive while an item is
// in flight.
type Worker struct {
	classifier Classifier
	store      JobStore
	config     WorkerConfig

	mu         sync.Mutex
	items      []*models.WorkItem
	queue      []string // pending item ids, FIFO
	stats      models.Stats
	paused     bool
	processing bool
	current    *models.WorkItem
}

// NewWorker builds a worker. Run must be started for items to process.
func NewWorker(classifier Classifier, store JobStore, config WorkerConfig) *Worker {
	config.applyDefaults()
	return &Worker{
		classifier: classifier,
		store:      store,
		config:     config,
	}
}

// Enqueue adds one item to the queue and returns a snapshot of it with the
// assigned id. Safe for concurrent use; succeeds even while paused.
func (w *Worker) Enqueue(item *models.WorkItem) *models.WorkItem {
	item.ID = uuid.NewString()
	item.Status = models.StatusQueued
	item.SubmittedAt = time.Now()

	w.mu.Lock()
	w.items = append(w.items, item)
	w.queue = append(w.queue, item.ID)
	w.stats.Total++
	w.stats.Queued++
	switch item.Kind {
	case models.KindImage:
		w.stats.Images++
	case models.KindText:
		w.stats.Texts++
	}
	queueLen := len(w.queue)
	snapshot := item.Clone()
	w.mu.Unlock()

	log.Printf("[queue] Enqueued %s item %s (%s), queue length %d", item.Kind, item.ID, item.Name, queueLen)
	return snapshot
}

// Run drives the processing loop until ctx is canceled. The loop polls
// rather than terminating when idle, keeps going after per-item failures,
// and processes items one at a time in FIFO order.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[queue] Worker started, waiting for items")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[queue] Worker stopping: %v", ctx.Err())
			return
		default:
		}

		item := w.dequeue()
		if item == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.config.PollInterval):
			}
			continue
		}

		w.process(ctx, item)

		if w.config.ItemPause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.config.ItemPause):
			}
		}
	}
}

// dequeue pops the oldest queued item and marks it Processing, or returns
// nil when paused or empty.
func (w *Worker) dequeue() *models.WorkItem {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paused || len(w.queue) == 0 {
		if len(w.queue) == 0 {
			w.processing = false
		}
		return nil
	}

	id := w.queue[0]
	w.queue = w.queue[1:]
	item := w.find(id)
	if item == nil {
		// Cleared while queued; nothing to do.
		return nil
	}

	now := time.Now()
	item.Status = models.StatusProcessing
	item.StartedAt = &now
	w.current = item
	w.processing = true
	w.stats.Queued--
	return item.Clone()
}

// process runs one item end to end. Every failure is converted into a
// Failed status on the item; the loop itself never dies.
func (w *Worker) process(ctx context.Context, item *models.WorkItem) {
	log.Printf("[queue] Processing %s item %s (%s)", item.Kind, item.ID, item.Name)

	rec, err := w.run(ctx, item)
	if err != nil {
		log.Printf("[queue] Item %s failed: %v", item.ID, err)
		w.markFailed(item.ID, err)
		return
	}
	w.markCompleted(item.ID, rec)
}

func (w *Worker) run(ctx context.Context, item *models.WorkItem) (*models.ExtractionRecord, error) {
	data := item.SourceBytes
	if data == nil && item.SourcePath != "" {
		var err error
		data, err = os.ReadFile(item.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", item.SourcePath, err)
		}
	}

	switch item.Kind {
	case models.KindImage:
		webpBytes, err := w.config.Convert(data, w.config.ImageQuality)
		if err != nil {
			return nil, err
		}
		rec, err := w.classifier.ClassifyImage(ctx, webpBytes, item.SupplementaryText)
		if err != nil {
			return nil, err
		}
		if rec.IsJobAd && w.store != nil {
			return w.store.SaveJob(ctx, webpBytes, rec)
		}
		return rec, nil

	case models.KindText:
		rec, err := w.classifier.ClassifyText(ctx, string(data))
		if err != nil {
			return nil, err
		}
		if rec.IsJobAd && w.store != nil {
			return w.store.SaveJob(ctx, nil, rec)
		}
		return rec, nil

	default:
		return nil, fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

func (w *Worker) markCompleted(id string, rec *models.ExtractionRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	item := w.find(id)
	if item == nil {
		return
	}
	now := time.Now()
	item.Status = models.StatusCompleted
	item.CompletedAt = &now
	item.Result = rec

	w.stats.Processed++
	if rec.IsJobAd {
		w.stats.JobAds++
	} else {
		w.stats.NonAds++
	}
	w.finishLocked(item)
}

func (w *Worker) markFailed(id string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	item := w.find(id)
	if item == nil {
		return
	}
	now := time.Now()
	item.Status = models.StatusFailed
	item.CompletedAt = &now
	item.Error = err.Error()

	w.stats.Processed++
	w.stats.Failed++
	w.finishLocked(item)
}

func (w *Worker) finishLocked(item *models.WorkItem) {
	if w.current != nil && w.current.ID == item.ID {
		w.current = nil
	}
	if len(w.queue) == 0 {
		w.processing = false
	}
}

// find returns the live item with the given id. Callers hold the lock.
func (w *Worker) find(id string) *models.WorkItem {
	for _, item := range w.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Pause stops the loop from dequeuing; in-flight work finishes and new
// enqueues still succeed.
func (w *Worker) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
	log.Printf("[queue] Paused")
}

// Resume lets the loop dequeue again.
func (w *Worker) Resume() {
	w.mu.Lock()
	w.paused = false
	w.mu.Unlock()
	log.Printf("[queue] Resumed")
}

// Paused reports the pause flag.
func (w *Worker) Paused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

// Clear removes every item that is not currently Processing, drains the
// pending queue, and resets the aggregate stats to reflect only what is
// still in flight.
func (w *Worker) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	var remaining []*models.WorkItem
	for _, item := range w.items {
		if item.Status == models.StatusProcessing {
			remaining = append(remaining, item)
		}
	}
	w.items = remaining
	w.queue = nil

	w.stats = models.Stats{Total: len(remaining)}
	for _, item := range remaining {
		switch item.Kind {
		case models.KindImage:
			w.stats.Images++
		case models.KindText:
			w.stats.Texts++
		}
	}
	log.Printf("[queue] Cleared, %d item(s) remain in flight", len(remaining))
}

// Status returns a consistent snapshot of the queue, grouped by lifecycle
// bucket. Failed items are listed with completed ones.
func (w *Worker) Status() models.StatusResponse {
	w.mu.Lock()
	defer w.mu.Unlock()

	resp := models.StatusResponse{
		Processing: w.processing,
		Paused:     w.paused,
		Stats:      w.stats,
	}
	if w.current != nil {
		resp.CurrentItem = w.current.Clone()
	}
	for _, item := range w.items {
		clone := item.Clone()
		switch item.Status {
		case models.StatusQueued:
			resp.Files.Queued = append(resp.Files.Queued, clone)
		case models.StatusProcessing:
			resp.Files.Processing = append(resp.Files.Processing, clone)
		default:
			resp.Files.Completed = append(resp.Files.Completed, clone)
		}
	}
	return resp
}

// Results returns every retained item with the aggregate counters.
func (w *Worker) Results() models.ResultsResponse {
	w.mu.Lock()
	defer w.mu.Unlock()

	resp := models.ResultsResponse{Stats: w.stats}
	for _, item := range w.items {
		resp.Files = append(resp.Files, item.Clone())
	}
	return resp
}
