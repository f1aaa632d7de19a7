package provision

// FakeWatcher is a test double whose events are scripted by the test.
type FakeWatcher struct {
	ch     chan Event
	Closed bool
}

// NewFakeWatcher creates a FakeWatcher.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{ch: make(chan Event, 16)}
}

// Events returns the event stream.
func (f *FakeWatcher) Events() <-chan Event {
	return f.ch
}

// Emit queues an event for the consumer.
func (f *FakeWatcher) Emit(e Event) {
	f.ch <- e
}

// Close closes the event channel.
func (f *FakeWatcher) Close() error {
	if !f.Closed {
		close(f.ch)
		f.Closed = true
	}
	return nil
}
