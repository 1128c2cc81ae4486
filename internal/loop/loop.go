// Package loop runs game and session work on one goroutine. Timer callbacks
// are posted back onto that goroutine, so callers never need locks around
// module state; they only need to route every entry point through the loop.
package loop

import (
	"log"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const queueSize = 256

// Loop is a single-goroutine cooperative task queue.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	logger    *log.Logger
}

// New starts a loop. Call Close to stop it.
func New(logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(os.Stdout, "[LOOP] ", log.LstdFlags)
	}
	l := &Loop{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// Post queues fn. It returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from inside a loop task.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs fn on the loop after d. The returned stop function cancels
// the callback; once stopped, fn never runs even if its timer already fired.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (stop func()) {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if cancelled.Load() {
				return
			}
			fn()
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Close stops the loop. Pending tasks are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}
