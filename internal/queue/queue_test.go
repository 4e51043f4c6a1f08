package queue

import (
	"context"
	"testing"
	"time"

	"github.com/nyxglass/ao3dl/internal/action"
)

func TestFIFOOrder(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		q.Push(action.Action{Kind: action.LoadWork, WorkID: i})
	}
	if got := q.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	for i := 0; i < 5; i++ {
		a, ok := q.Pop(context.Background())
		if !ok {
			t.Fatalf("Pop() returned ok=false at index %d", i)
		}
		if a.WorkID != i {
			t.Errorf("Pop() #%d = work id %d, want %d", i, a.WorkID, i)
		}
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	result := make(chan action.Action, 1)
	go func() {
		a, ok := q.Pop(context.Background())
		if !ok {
			t.Error("Pop() returned ok=false")
		}
		result <- a
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("Pop() returned before anything was pushed")
	default:
	}

	q.Push(action.Action{Kind: action.LoadWork, WorkID: 42})

	select {
	case a := <-result:
		if a.WorkID != 42 {
			t.Errorf("got work id %d, want 42", a.WorkID)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never returned after Push")
	}
}

func TestPopCancelledByContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop() returned ok=true after context cancellation with nothing queued")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never unblocked after context cancellation")
	}
}

func TestCloseDrainsExistingThenStops(t *testing.T) {
	q := New()
	q.Push(action.Action{Kind: action.LoadWork, WorkID: 1})
	q.Close()

	a, ok := q.Pop(context.Background())
	if !ok || a.WorkID != 1 {
		t.Fatalf("Pop() after Close should still drain queued items, got %v, %v", a, ok)
	}

	_, ok = q.Pop(context.Background())
	if ok {
		t.Error("Pop() on a closed, empty queue should return ok=false")
	}

	if !q.IsClosed() {
		t.Error("IsClosed() should be true after Close")
	}
}

func TestPushAfterCloseIsNoOp(t *testing.T) {
	q := New()
	q.Close()
	q.Push(action.Action{Kind: action.LoadWork, WorkID: 7})
	if got := q.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 after pushing to a closed queue", got)
	}
}

func TestDrainReturnsFIFOOrderAndEmpties(t *testing.T) {
	q := New()
	for i := 0; i < 3; i++ {
		q.Push(action.Action{Kind: action.LoadWork, WorkID: i})
	}
	drained := q.Drain()
	if len(drained) != 3 {
		t.Fatalf("Drain() returned %d items, want 3", len(drained))
	}
	for i, a := range drained {
		if a.WorkID != i {
			t.Errorf("Drain()[%d].WorkID = %d, want %d", i, a.WorkID, i)
		}
	}
	if got := q.Len(); got != 0 {
		t.Errorf("Len() after Drain() = %d, want 0", got)
	}
}
