package editor

import (
	"sync"
	"time"
)

// Debouncer delays a single task. Scheduling a new task replaces the
// pending one and restarts the delay. At most one task runs at a time.
type Debouncer struct {
	mu      sync.Mutex
	idle    *sync.Cond
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
	running bool
}

// NewDebouncer creates a debouncer with the given delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules fn to run after the delay, cancelling any pending task.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	d.wait()
	if gen != d.gen || d.pending == nil {
		d.release()
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()
	d.run(fn)
}

// run executes fn with the running flag set.
func (d *Debouncer) run(fn func()) {
	defer func() {
		d.mu.Lock()
		d.running = false
		d.idle.Broadcast()
		d.mu.Unlock()
	}()
	fn()
}

// wait blocks until no task is running and marks one as running. Must be
// called with mu held; callers that end up not running a task must call
// release.
func (d *Debouncer) wait() {
	for d.running {
		d.idle.Wait()
	}
	d.running = true
}

// release undoes wait. Must be called with mu held.
func (d *Debouncer) release() {
	d.running = false
	d.idle.Broadcast()
}

// take must be called with mu held.
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	return fn
}

// Flush waits for a task already running, then runs the pending task now on
// the calling goroutine. On return no task is pending or running.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.wait()
	fn := d.take()
	if fn == nil {
		d.release()
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.run(fn)
}

// Stop drops the pending task without running it and waits for a task
// already running to finish.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.take()
	d.wait()
	d.release()
	d.mu.Unlock()
}

// Pending reports whether a task is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
