package sched

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token identifies a scheduled task for cancellation.
type Token string

// Scheduler runs cancellable one-shot tasks.
type Scheduler struct {
	mu      sync.Mutex
	pending map[Token]*task
}

type task struct {
	timer  *time.Timer
	postID int64
	fired  bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{pending: make(map[Token]*task)}
}

// Schedule arranges for fn to run after delay and returns a cancellation
// token. The callback runs at most once; it is removed from the pending set
// before invocation so Cancel during execution is a no-op rather than a
// double-fire.
func (s *Scheduler) Schedule(postID int64, delay time.Duration, fn func()) Token {
	token := Token(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &task{postID: postID}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		existing, ok := s.pending[token]
		if !ok || existing.fired {
			s.mu.Unlock()
			return
		}
		existing.fired = true
		delete(s.pending, token)
		s.mu.Unlock()

		fn()
	})
	s.pending[token] = entry
	return token
}

// Cancel stops a pending task. It reports whether the task was still pending;
// false means the task already fired or was cancelled earlier.
func (s *Scheduler) Cancel(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[token]
	if !ok || entry.fired {
		return false
	}
	delete(s.pending, token)
	// The callback checks the pending set before running, so removal alone
	// guarantees it will not fire even when Stop loses the race.
	entry.timer.Stop()
	return true
}

// Pending reports whether any task is scheduled for the given post.
func (s *Scheduler) Pending(postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.pending {
		if entry.postID == postID {
			return true
		}
	}
	return false
}

// Stop cancels every pending task. Used on daemon shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, token)
	}
}
