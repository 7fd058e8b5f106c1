package scheduler

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/queue"
)

// Enqueuer accepts run requests.
type Enqueuer interface {
	Push(req models.RunRequest) error
}

// Scheduler pushes a run request onto the queue at a fixed interval.
type Scheduler struct {
	queue        Enqueuer
	logger       *logrus.Logger
	interval     time.Duration
	runOnStartup bool
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	now          func() time.Time
}

// NewScheduler creates a scheduler. With runOnStartup a request is queued as soon as
// Start is called, before the first tick.
func NewScheduler(q Enqueuer, interval time.Duration, runOnStartup bool, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		queue:        q,
		logger:       logger,
		interval:     interval,
		runOnStartup: runOnStartup,
		stopChan:     make(chan struct{}),
		now:          time.Now,
	}
}

// Start begins the scheduled runs. A non-positive interval only performs the startup run.
func (s *Scheduler) Start() {
	if s.runOnStartup {
		s.enqueue(models.TriggerStartup)
	}
	if s.interval <= 0 {
		s.logger.Info("Periodic runs disabled")
		return
	}

	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.logger.WithField("interval", s.interval.String()).Info("Scheduling periodic pipeline runs")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.enqueue(models.TriggerSchedule)
		}
	}
}

func (s *Scheduler) enqueue(trigger string) {
	req := models.RunRequest{
		ID:          uuid.NewString(),
		Trigger:     trigger,
		RequestedAt: s.now().UTC(),
	}

	err := s.queue.Push(req)
	switch {
	case err == nil:
		s.logger.WithFields(logrus.Fields{
			"run_id":  req.ID,
			"trigger": trigger,
		}).Info("Queued pipeline run")
	case errors.Is(err, queue.ErrQueueFull):
		s.logger.WithField("trigger", trigger).Warn("Skipping scheduled run, queue is full")
	default:
		s.logger.WithError(err).WithField("trigger", trigger).Error("Failed to queue pipeline run")
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
