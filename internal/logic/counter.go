package logic

// ResetCounter accumulates consecutive double presses and reports when
// the reset sequence completes. It fires at most once: the device is
// about to restart and will reinitialize all state, so further double
// presses before the restart lands are absorbed.
//
// The counter is not safe for concurrent use. Gestures on one channel
// arrive serially; when the counter is shared across channels the
// device runtime serializes access.
type ResetCounter struct {
	count     int
	threshold int
	fired     bool
}

// NewResetCounter creates a counter that fires on the (threshold+1)th
// consecutive double press. With the default threshold of 2, the first
// two double presses accumulate and the third triggers the reset.
func NewResetCounter(threshold int) *ResetCounter {
	return &ResetCounter{threshold: threshold}
}

// Advance records one double press. It returns true exactly once,
// when the reset sequence completes; the count is left untouched in
// that case and later double presses report false.
func (c *ResetCounter) Advance() bool {
	if c.fired {
		return false
	}
	if c.count == c.threshold {
		c.fired = true
		return true
	}
	c.count++
	return false
}

// Clear zeroes the count and re-arms the counter. Called for every
// gesture that is not a double press, before that gesture is
// evaluated for its own effect.
func (c *ResetCounter) Clear() {
	c.count = 0
	c.fired = false
}

// Count returns the current number of accumulated double presses.
func (c *ResetCounter) Count() int {
	return c.count
}

// Threshold returns the configured threshold.
func (c *ResetCounter) Threshold() int {
	return c.threshold
}
