package store

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/state"
)

// Debouncer coalesces repeated state-change notifications into a single
// save. The timer restarts on every notification, so only the last value
// inside a window is ever persisted; there is no queue of pending writes.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending *state.AppState
	save    func(*state.AppState)
}

// NewDebouncer creates a debouncer that calls save with the most recent
// state once window elapses without a new notification.
func NewDebouncer(window time.Duration, save func(*state.AppState)) *Debouncer {
	return &Debouncer{window: window, save: save}
}

// Notify records s as the latest state and restarts the window.
func (d *Debouncer) Notify(s *state.AppState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = s
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	s := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if s != nil {
		d.save(s)
	}
}

// Flush persists any pending state immediately. Called on teardown so a
// state change inside the final window is not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	s := d.pending
	d.pending = nil
	d.mu.Unlock()

	if s != nil {
		d.save(s)
	}
}

// Stop cancels the timer and discards any pending state.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
