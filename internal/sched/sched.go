package sched

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler creates cancellable tasks on an injected clock. Production code
// passes clockwork.NewRealClock(); tests drive a FakeClock.
type Scheduler struct {
	clock clockwork.Clock
}

func New(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Every runs fn every interval until the returned task is cancelled. The
// ticker is armed before Every returns.
func (s *Scheduler) Every(interval time.Duration, fn func()) *Task {
	task := newTask()
	ticker := s.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				fn()
			case <-task.stop:
				return
			}
		}
	}()

	return task
}

// After runs fn once after delay unless the returned task is cancelled
// first. The timer is armed before After returns.
func (s *Scheduler) After(delay time.Duration, fn func()) *Task {
	task := newTask()
	timer := s.clock.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.Chan():
			fn()
		case <-task.stop:
		}
	}()

	return task
}

func newTask() *Task {
	return &Task{stop: make(chan struct{})}
}

// Task is a handle for one scheduled repeat or delay. Every scheduled task
// must be held in a handle and cancelled on the state transition that
// retires it; a leaked handle keeps firing.
type Task struct {
	once sync.Once
	stop chan struct{}
}

// Cancel stops the task. Idempotent, safe to call from the task fn.
func (t *Task) Cancel() {
	t.once.Do(func() {
		close(t.stop)
	})
}
