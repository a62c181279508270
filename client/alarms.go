package client

import (
	"sync"
	"time"
)

// Alarms is a registry of one-shot timers keyed by name, standing in
// for the platform alarm API. Each alarm fires at most once; firing
// removes it from the registry before the callback runs.
type Alarms struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	onFire func(name string)
}

// NewAlarms creates an alarm registry. onFire is invoked from the
// timer goroutine when an alarm reaches its target time.
func NewAlarms(onFire func(name string)) *Alarms {
	return &Alarms{
		timers: make(map[string]*time.Timer),
		onFire: onFire,
	}
}

// Create registers an alarm firing once at the absolute time at. An
// existing alarm with the same name is replaced.
func (a *Alarms) Create(name string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.timers[name]; ok {
		t.Stop()
	}
	a.timers[name] = time.AfterFunc(time.Until(at), func() {
		a.mu.Lock()
		delete(a.timers, name)
		a.mu.Unlock()
		a.onFire(name)
	})
}

// Clear cancels an alarm. It reports whether an alarm was registered
// under that name.
func (a *Alarms) Clear(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.timers[name]
	if !ok {
		return false
	}
	t.Stop()
	delete(a.timers, name)
	return true
}

// Active reports whether an alarm is currently registered.
func (a *Alarms) Active(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.timers[name]
	return ok
}

// Count returns the number of registered alarms.
func (a *Alarms) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// Stop cancels all registered alarms.
func (a *Alarms) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name, t := range a.timers {
		t.Stop()
		delete(a.timers, name)
	}
}
