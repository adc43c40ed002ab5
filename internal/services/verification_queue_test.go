package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu       sync.Mutex
	requests []string
	err      error
	block    chan struct{}
}

func (p *recordingProcessor) Run(ctx context.Context, requestID string) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, requestID)
	return p.err
}

func (p *recordingProcessor) processed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.requests))
	copy(out, p.requests)
	return out
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestVerificationQueueProcessesJobs(t *testing.T) {
	processor := &recordingProcessor{}
	queue := NewVerificationQueue(processor, 2, 16)
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-1"}))
	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-2"}))

	waitFor(t, func() bool { return len(processor.processed()) == 2 })
	assert.ElementsMatch(t, []string{"req-1", "req-2"}, processor.processed())

	stats := queue.GetStats()
	assert.Equal(t, int64(2), stats.JobsEnqueued)
	assert.Equal(t, int64(2), stats.JobsProcessed)
	assert.Equal(t, int64(0), stats.JobsFailed)
}

func TestVerificationQueueCountsFailures(t *testing.T) {
	processor := &recordingProcessor{err: errors.New("pipeline blew up")}
	queue := NewVerificationQueue(processor, 1, 16)
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-1"}))

	waitFor(t, func() bool { return queue.GetStats().JobsFailed == 1 })
}

func TestVerificationQueueRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})
	processor := &recordingProcessor{block: block}
	queue := NewVerificationQueue(processor, 1, 1)

	// First job occupies the worker, second fills the buffer
	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-1"}))
	waitFor(t, func() bool { return queue.GetStats().QueueSize == 0 })
	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-2"}))

	err := queue.Enqueue(OrchestrationJob{RequestID: "req-3"})
	assert.Error(t, err)

	close(block)
	queue.Stop()
}

func TestVerificationQueueStopDrainsPendingJobs(t *testing.T) {
	processor := &recordingProcessor{}
	queue := NewVerificationQueue(processor, 1, 16)

	for i := 0; i < 5; i++ {
		require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req"}))
	}
	queue.Stop()

	assert.Len(t, processor.processed(), 5)
}

func TestVerificationQueueRejectsAfterStop(t *testing.T) {
	processor := &recordingProcessor{}
	queue := NewVerificationQueue(processor, 1, 4)
	queue.Stop()

	err := queue.Enqueue(OrchestrationJob{RequestID: "req-1"})
	assert.Error(t, err)

	// A second Stop is harmless
	queue.Stop()
}

func TestVerificationQueueHealth(t *testing.T) {
	block := make(chan struct{})
	processor := &recordingProcessor{block: block}
	queue := NewVerificationQueue(processor, 1, 1)

	assert.True(t, queue.IsHealthy())

	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-1"}))
	waitFor(t, func() bool { return queue.GetStats().QueueSize == 0 })
	require.NoError(t, queue.Enqueue(OrchestrationJob{RequestID: "req-2"}))

	assert.False(t, queue.IsHealthy())

	close(block)
	queue.Stop()
}
