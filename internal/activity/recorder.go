// Package activity records search history and feedback in the background so
// that persistence never delays a search.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/storage"
)

const (
	// DefaultQueueSize is the number of pending writes a Recorder buffers.
	DefaultQueueSize = 256

	writeTimeout = 5 * time.Second
)

// job is one pending write.
type job struct {
	name string
	run  func(ctx context.Context) error
}

// Recorder writes history and feedback rows from a single worker goroutine.
// Record methods never block: when the queue is full the row is dropped and
// a warning logged. Write errors are logged and otherwise ignored.
type Recorder struct {
	history  storage.HistoryStore
	feedback storage.FeedbackStore

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// NewRecorder starts a Recorder buffering up to size writes. A non-positive
// size uses DefaultQueueSize.
func NewRecorder(history storage.HistoryStore, feedback storage.FeedbackStore, size int) *Recorder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	r := &Recorder{
		history:  history,
		feedback: feedback,
		queue:    make(chan job, size),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for j := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := j.run(ctx); err != nil {
			logger.Warn("failed to record %s: %v", j.name, err)
		}
		cancel()
	}
}

// enqueue reports whether j was queued.
func (r *Recorder) enqueue(j job) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logger.Warn("recorder closed, dropping %s", j.name)
		return false
	}

	select {
	case r.queue <- j:
		return true
	default:
		logger.Warn("recorder queue full, dropping %s", j.name)
		return false
	}
}

// RecordSearch queues a history entry. It reports whether the entry was
// accepted.
func (r *Recorder) RecordSearch(entry storage.HistoryEntry) bool {
	if r.history == nil {
		return false
	}
	return r.enqueue(job{
		name: "search history",
		run: func(ctx context.Context) error {
			return r.history.Save(ctx, &entry)
		},
	})
}

// RecordFeedback queues a feedback row. It reports whether the row was
// accepted.
func (r *Recorder) RecordFeedback(fb storage.Feedback) bool {
	if r.feedback == nil {
		return false
	}
	return r.enqueue(job{
		name: "feedback",
		run: func(ctx context.Context) error {
			return r.feedback.Save(ctx, &fb)
		},
	})
}

// Close stops accepting writes and waits for queued ones to finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	<-r.done
}
