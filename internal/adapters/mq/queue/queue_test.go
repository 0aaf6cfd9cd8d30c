package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/scorestream/internal/domain/model"
)

func obs(player string) model.Observation {
	return model.Observation{Record: model.Record{Player: player, Score: "1", PlayTime: "1"}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, obs("alice")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Record.Player != "alice" {
		t.Errorf("expected alice, got %q", got.Record.Player)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, obs("a")) || !q.Enqueue(ctx, obs("b")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, obs("c")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, obs("a")) {
		t.Error("expected enqueue to fail on a cancelled context")
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		q.Enqueue(ctx, obs(fmt.Sprintf("p%d", i)))
	}

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, obs("late")) {
		t.Error("expected enqueue after close to fail")
	}

	var got []string
	for o := range q.Dequeue(ctx) {
		got = append(got, o.Record.Player)
	}
	if len(got) != 3 || got[0] != "p0" || got[2] != "p2" {
		t.Errorf("expected p0..p2 in order, got %v", got)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Enqueue(ctx, obs(fmt.Sprintf("p%d-%d", id, j)))
			}
		}(i)
	}
	wg.Wait()
	_ = q.Close()

	count := 0
	timeout := time.After(2 * time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if count != 500 {
					t.Errorf("expected 500 observations, got %d", count)
				}
				return
			}
			count++
		case <-timeout:
			t.Fatalf("timed out after %d observations", count)
		}
	}
}
