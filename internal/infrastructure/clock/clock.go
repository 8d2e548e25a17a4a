// Package clock abstracts timers so that scheduled work (viewer retries,
// rotation ticks, notification dismissal, health polling) can be driven
// deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Timer cancels a scheduled callback.
type Timer interface {
	// Stop prevents further calls.  It reports whether the timer was still
	// active.
	Stop() bool
}

// Clock schedules callbacks.  Callbacks run on a goroutine owned by the
// clock and must do their own locking.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f once after d.
	AfterFunc(d time.Duration, f func()) Timer

	// Every calls f every d until stopped.
	Every(d time.Duration, f func()) Timer
}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Every(d time.Duration, f func()) Timer {
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}
	go t.run(f)
	return t
}

type ticker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (t *ticker) run(f func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.t.C:
			select {
			case <-t.done:
				return
			default:
			}
			f()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
