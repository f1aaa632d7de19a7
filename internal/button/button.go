// Package button classifies raw press/release edges into gestures.
// The Classifier is pure logic with injectable time, in the same
// spirit as internal/logic; the Watcher binds it to a GPIO line.
package button

import (
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// Config holds the classifier timing parameters.
type Config struct {
	// PressWindow is the longest gap between releases that still
	// counts as a repeated press.
	PressWindow time.Duration

	// LongPressTime is how long the button must be held before the
	// hold becomes a long press.
	LongPressTime time.Duration

	// MaxPresses caps the repeat count. Reaching it emits the gesture
	// immediately without waiting for the window to close.
	MaxPresses int
}

// DefaultConfig returns the timing used by the deliberate-off device
// variants: a long hold for the off gesture, up to triple presses.
func DefaultConfig() Config {
	return Config{
		PressWindow:   350 * time.Millisecond,
		LongPressTime: 4500 * time.Millisecond,
		MaxPresses:    3,
	}
}

// Edge is one debounced press or release transition.
type Edge struct {
	Pressed bool
	Time    time.Time
}

// Classifier accumulates edges for a single button and emits a gesture
// when a press sequence completes. Not safe for concurrent use; the
// Watcher serializes calls.
type Classifier struct {
	cfg Config

	pressed    bool
	pressStart time.Time
	longFired  bool

	count       int
	lastRelease time.Time
}

// NewClassifier creates a classifier with the given timing config.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Process consumes one edge. It returns the completed gesture, or nil
// when the sequence is still open.
func (c *Classifier) Process(e Edge) *logic.Gesture {
	if e.Pressed {
		if c.pressed {
			return nil
		}
		c.pressed = true
		c.pressStart = e.Time
		return nil
	}

	if !c.pressed {
		return nil
	}
	c.pressed = false

	if c.longFired {
		// The long press already fired while held; the release is
		// not a new event.
		c.longFired = false
		return nil
	}

	if e.Time.Sub(c.pressStart) >= c.cfg.LongPressTime {
		c.count = 0
		return gesturePtr(logic.GestureLong)
	}

	c.count++
	c.lastRelease = e.Time
	if c.count >= c.cfg.MaxPresses {
		g := c.take()
		return &g
	}
	return nil
}

// Tick advances the classifier's clock. It closes out a press sequence
// once the repeat window has passed since the last release, and fires
// a long press while the button is still held. Call it periodically
// between edges.
func (c *Classifier) Tick(now time.Time) *logic.Gesture {
	if c.pressed {
		if !c.longFired && now.Sub(c.pressStart) >= c.cfg.LongPressTime {
			c.longFired = true
			c.count = 0
			return gesturePtr(logic.GestureLong)
		}
		return nil
	}

	if c.count > 0 && now.Sub(c.lastRelease) >= c.cfg.PressWindow {
		g := c.take()
		return &g
	}
	return nil
}

func (c *Classifier) take() logic.Gesture {
	n := c.count
	c.count = 0
	switch n {
	case 1:
		return logic.GestureSingle
	case 2:
		return logic.GestureDouble
	case 3:
		return logic.GestureTriple
	default:
		return logic.GestureUnrecognized
	}
}

func gesturePtr(g logic.Gesture) *logic.Gesture {
	return &g
}
