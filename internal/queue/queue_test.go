package queue

import (
	"sync"
	"testing"
)

func TestPushPop(t *testing.T) {
	q := New[int]()
	if !q.Empty() {
		t.Error("new queue not empty")
	}

	q.Push(1, 2, 3)
	if q.Len() != 3 {
		t.Errorf("Len = %d, want 3", q.Len())
	}

	for want := 1; want <= 3; want++ {
		if got := q.Pop(); got != want {
			t.Errorf("Pop = %d, want %d", got, want)
		}
	}
	if !q.Empty() {
		t.Error("queue not empty after draining")
	}
}

func TestPopEmptyReturnsZero(t *testing.T) {
	q := New[string]()
	if got := q.Pop(); got != "" {
		t.Errorf("Pop on empty = %q, want zero value", got)
	}
}

func TestClear(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	q.Clear()
	if !q.Empty() {
		t.Error("queue not empty after Clear")
	}
}

func TestConcurrentPush(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(n)
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", q.Len())
	}
}
