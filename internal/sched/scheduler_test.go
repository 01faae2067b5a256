package sched_test

import (
	"sync/atomic"
	"testing"
	"time"

	"drn/internal/sched"
)

func TestScheduleFiresExactlyOnce(t *testing.T) {
	s := sched.New()
	defer s.Stop()

	var fired atomic.Int32
	done := make(chan struct{})
	s.Schedule(1, 10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	time.Sleep(20 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one fire, got %d", got)
	}
	if s.Pending(1) {
		t.Fatal("fired task should leave the pending set")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := sched.New()
	defer s.Stop()

	var fired atomic.Int32
	token := s.Schedule(2, 50*time.Millisecond, func() {
		fired.Add(1)
	})

	if !s.Cancel(token) {
		t.Fatal("expected cancel to succeed for pending task")
	}
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled task must not fire, got %d fires", got)
	}
	if s.Cancel(token) {
		t.Fatal("second cancel should report not pending")
	}
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	s := sched.New()
	defer s.Stop()

	done := make(chan struct{})
	token := s.Schedule(3, 5*time.Millisecond, func() { close(done) })

	<-done
	if s.Cancel(token) {
		t.Fatal("cancel after fire should report not pending")
	}
}

func TestStopCancelsEverything(t *testing.T) {
	s := sched.New()

	var fired atomic.Int32
	for i := int64(0); i < 5; i++ {
		s.Schedule(i, 50*time.Millisecond, func() { fired.Add(1) })
	}
	s.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no fires after Stop, got %d", got)
	}
}
