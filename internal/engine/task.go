package engine

import (
	"sync"
	"time"
)

// Task is a recurring background job. Stop cancels it and waits for it to
// finish; a Task that has ended on its own may still be stopped.
type Task struct {
	name string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startTask(name string, loop func(stop <-chan struct{})) *Task {
	t := &Task{
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		loop(t.stop)
	}()
	return t
}

// Every calls fn every interval until stopped. The first call happens one
// interval after start.
func Every(name string, interval time.Duration, fn func()) *Task {
	return startTask(name, func(stop <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	})
}

// Alarm calls fn at the times returned by next, which is asked for the first
// time at or after now. The task ends when next reports false.
//
// After each firing, next is asked again from the later of the clock's time
// and the time that just fired, so an alarm never fires twice for the same
// instant even if the clock lags the timer.
func Alarm(name string, clock Clock, next func(now time.Time) (time.Time, bool), fn func()) *Task {
	return startTask(name, func(stop <-chan struct{}) {
		var last time.Time
		for {
			now := clock.Now()
			if now.Before(last) {
				now = last
			}
			at, ok := next(now)
			if !ok {
				return
			}

			timer := time.NewTimer(at.Sub(clock.Now()))
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
				last = at
				fn()
			}
		}
	})
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Stop cancels the task and waits for it to exit. Safe to call more than once.
func (t *Task) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

// Done is closed when the task has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
