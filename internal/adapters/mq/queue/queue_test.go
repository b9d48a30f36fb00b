package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/tubesense/internal/domain/model"
)

func job(runID, channel string) model.Job {
	return model.Job{RunID: runID, ChannelID: channel, Mode: model.ModeAll, EnqueuedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job("run1", "UC_a")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	j := <-q.Dequeue(ctx)
	if j.RunID != "run1" || j.ChannelID != "UC_a" {
		t.Errorf("expected run1 for UC_a, got %s for %s", j.RunID, j.ChannelID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(0))
	if c := q.Cap(); c != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, c)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("run1", "UC_a")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job("run2", "UC_b")) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("run3", "UC_c")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("run1", "UC_a")) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, job(fmt.Sprintf("run%d", i), "UC_a"))
	}
	ch := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		if j := <-ch; j.RunID != fmt.Sprintf("run%d", i) {
			t.Errorf("expected run%d, got %s", i, j.RunID)
		}
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()
	const producers = 8
	const perProducer = 50

	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var produced sync.WaitGroup
	for i := 0; i < producers; i++ {
		produced.Add(1)
		go func(id int) {
			defer produced.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("run%d_%d", id, j), "UC_a")) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	produced.Wait()
	consumed.Wait()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
	_ = q.Close()
}

func TestInMemoryQueue_CloseAndDrain(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, job("run1", "UC_a"))
	q.Enqueue(ctx, job("run2", "UC_b"))

	if q.Drain() != nil {
		t.Error("expected drain of an open queue to return nil")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("run3", "UC_c")) {
		t.Error("expected enqueue to fail after closing")
	}

	left := q.Drain()
	if len(left) != 2 || left[0].RunID != "run1" || left[1].RunID != "run2" {
		t.Errorf("expected run1 and run2 left over, got %+v", left)
	}

	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected dequeue channel to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
