package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

func request(id string) models.RunRequest {
	return models.RunRequest{ID: id, Trigger: models.TriggerAPI, RequestedAt: time.Now()}
}

func TestNewRunQueue(t *testing.T) {
	logger := logrus.New()
	q := NewRunQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestRunQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewRunQueue(2, logger)

	// Test successful push
	err := q.Push(request("run-1"))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	_ = q.Push(request("run-2"))
	err = q.Push(request("run-3"))
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	require.NoError(t, q.Close())
	err = q.Push(request("run-4"))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestRunQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewRunQueue(10, logger)

	var processed []string
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)

	q.Subscribe(func(req models.RunRequest) error {
		mu.Lock()
		processed = append(processed, req.ID)
		mu.Unlock()
		wg.Done()
		return nil
	})
	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(request("run-1")))
	require.NoError(t, q.Push(request("run-2")))
	wg.Wait()

	mu.Lock()
	assert.Equal(t, []string{"run-1", "run-2"}, processed)
	mu.Unlock()
}

func TestRunQueue_RunsSequentially(t *testing.T) {
	q := NewRunQueue(10, logrus.New())

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(3)

	q.Subscribe(func(req models.RunRequest) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		wg.Done()
		return nil
	})
	q.Start()
	q.Start()
	defer q.Close()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Push(request(id)))
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestRunQueue_HandlerErrorDoesNotStopWorker(t *testing.T) {
	q := NewRunQueue(10, logrus.New())

	var wg sync.WaitGroup
	wg.Add(2)
	q.Subscribe(func(req models.RunRequest) error {
		defer wg.Done()
		if req.ID == "bad" {
			return errors.New("pipeline failed")
		}
		return nil
	})
	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(request("bad")))
	require.NoError(t, q.Push(request("good")))
	wg.Wait()
}

func TestRunQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewRunQueue(10, logger)
	q.Start()

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestRunQueue_CloseWaitsForRunningHandler(t *testing.T) {
	q := NewRunQueue(10, logrus.New())

	started := make(chan struct{})
	var finished bool
	q.Subscribe(func(req models.RunRequest) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished = true
		return nil
	})
	q.Start()

	require.NoError(t, q.Push(request("run-1")))
	<-started
	require.NoError(t, q.Close())

	assert.True(t, finished)
}
