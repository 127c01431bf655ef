package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned when work is handed to a loop that has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop is a single-goroutine event loop. Everything posted to it runs in
// order on the goroutine calling Run, so a Wizard driven only through a
// Loop needs no locking. Loop implements Scheduler.
type Loop struct {
	events chan func()
	stop   chan struct{}
	once   sync.Once
}

// NewLoop creates a loop. It does nothing until Run is called.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), 64),
		stop:   make(chan struct{}),
	}
}

// Run drains posted work until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stop) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.events:
			fn()
		}
	}
}

// Post queues fn. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(done)
	}) {
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-l.stop:
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After implements Scheduler. Timers that fire after the loop stopped are
// dropped.
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stop
}
