package led

import "sync"

// FakeDriver is a test double that records every LED change.
// Safe for concurrent use: feedback tasks set it from their own
// goroutines while tests inspect it.
type FakeDriver struct {
	mu sync.Mutex

	// changes records every SetColor/Off call in order.
	changes []Color

	lit    Color
	closed bool

	// SetError, if set, will be returned by SetColor and Off.
	SetError error
}

// NewFakeDriver creates a FakeDriver, initially off.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// SetColor records the change.
func (f *FakeDriver) SetColor(c Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.changes = append(f.changes, c)
	f.lit = c
	return nil
}

// Off records the LED turning off.
func (f *FakeDriver) Off() error {
	return f.SetColor(Black)
}

// Close marks the driver as closed and turns the LED off.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, Black)
	f.lit = Black
	f.closed = true
	return nil
}

// Lit returns the current color (Black when off).
func (f *FakeDriver) Lit() Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lit
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Changes returns a copy of all recorded LED changes.
func (f *FakeDriver) Changes() []Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Color, len(f.changes))
	copy(out, f.changes)
	return out
}

// Activations returns how many times the LED was lit (set to a color
// other than Black).
func (f *FakeDriver) Activations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.changes {
		if c != Black {
			n++
		}
	}
	return n
}

// Reset clears recorded changes.
func (f *FakeDriver) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = nil
	f.lit = Black
	f.closed = false
	f.SetError = nil
}
