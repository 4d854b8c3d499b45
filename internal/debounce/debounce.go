// Package debounce coalesces bursts of calls per key into one trailing call.
package debounce

import (
	"sync"
	"time"
)

type Debouncer struct {
	wait   time.Duration
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait, timers: make(map[string]*time.Timer)}
}

// Trigger schedules fn for key after the wait, replacing whatever was
// scheduled for key before. Only the last fn of a burst runs.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if d.timers[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// Pending reports whether a call for key is still waiting.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Stop cancels every scheduled call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
