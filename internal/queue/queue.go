package queue

import (
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// RunQueue is an in-memory queue of pipeline run requests. A single worker drains it,
// so runs never overlap.
type RunQueue struct {
	items    chan models.RunRequest
	done     chan struct{}
	stopped  sync.WaitGroup
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.RunRequest) error
}

// NewRunQueue creates a queue holding at most bufferSize pending requests.
func NewRunQueue(bufferSize int, logger *logrus.Logger) *RunQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &RunQueue{
		items:    make(chan models.RunRequest, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(models.RunRequest) error, 0),
	}
}

// Push adds a request without blocking.
func (q *RunQueue) Push(req models.RunRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- req:
		q.logger.WithFields(logrus.Fields{
			"run_id":  req.ID,
			"trigger": req.Trigger,
		}).Debug("Queued run request")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler called for each request, in subscription order.
func (q *RunQueue) Subscribe(handler func(models.RunRequest) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches the worker. Calling it more than once has no effect.
func (q *RunQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	q.stopped.Add(1)
	go q.process()
}

func (q *RunQueue) process() {
	defer q.stopped.Done()
	for {
		select {
		case <-q.done:
			return
		case req := <-q.items:
			q.handle(req)
		}
	}
}

func (q *RunQueue) handle(req models.RunRequest) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(req); err != nil {
			q.logger.WithError(err).WithField("run_id", req.ID).Error("Handler failed to process run request")
		}
	}
}

// Close stops accepting requests and waits for the request in progress, if any.
// Pending requests are discarded.
func (q *RunQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.stopped.Wait()
	return nil
}

// Len returns the number of pending requests.
func (q *RunQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed.
func (q *RunQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
