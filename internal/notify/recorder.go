package notify

import (
	"context"
	"sync"
)

// Recorder is a Sink that keeps every event in memory. Done is closed when
// the first terminal event arrives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	once   sync.Once
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{done: make(chan struct{})}
}

// Emit records e.
func (r *Recorder) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if e.Terminal() {
		r.once.Do(func() { close(r.done) })
	}
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Done is closed after the first terminal event.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Terminal returns the first terminal event, if any.
func (r *Recorder) Terminal() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Terminal() {
			return e, true
		}
	}
	return Event{}, false
}

// Payloads returns the payloads of recorded events named name.
func (r *Recorder) Payloads(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e.Payload)
		}
	}
	return out
}
