// Package logic contains pure business logic for gesture dispatch and
// reset-sequence detection. This package has NO external dependencies
// (no GPIO, HomeKit, MQTT, OS, or time.Sleep). All state is owned by
// the components constructed at bring-up; there are no package-level
// variables.
package logic

// Gesture is a classified button interaction produced by the press
// classifier.
type Gesture string

const (
	GestureSingle       Gesture = "SINGLE"
	GestureDouble       Gesture = "DOUBLE"
	GestureLong         Gesture = "LONG"
	GestureTriple       Gesture = "TRIPLE"
	GestureUnrecognized Gesture = "UNRECOGNIZED"
)

// Programmable switch event values published to the notification slot.
// These follow the outward protocol's Single/Double/Triple Press
// event categories.
const (
	ValueSingle uint8 = 0
	ValueDouble uint8 = 1
	ValueTriple uint8 = 2
)

// Mapping translates gestures into notification values for one channel.
// Gestures absent from the mapping produce no notification.
type Mapping map[Gesture]uint8

// Lookup returns the notification value for a gesture and whether the
// gesture is mapped at all.
func (m Mapping) Lookup(g Gesture) (uint8, bool) {
	v, ok := m[g]
	return v, ok
}

// LongAsDoubleMapping is the default channel mapping. A long press
// publishes the "double press" value so that turning a device off
// requires a deliberate hold; the physical double press is reserved
// for the reset sequence.
func LongAsDoubleMapping() Mapping {
	return Mapping{
		GestureSingle: ValueSingle,
		GestureLong:   ValueDouble,
		GestureTriple: ValueTriple,
	}
}

// DirectMapping publishes each press count directly. Used by variants
// where accidental off-gestures are harmless.
func DirectMapping() Mapping {
	return Mapping{
		GestureSingle: ValueSingle,
		GestureDouble: ValueDouble,
		GestureTriple: ValueTriple,
	}
}

// FeedbackKind names the blink pattern a dispatch outcome asks for.
// The feedback package owns the actual pattern parameters.
type FeedbackKind string

const (
	FeedbackNone      FeedbackKind = ""
	FeedbackSingle    FeedbackKind = "single"
	FeedbackDouble    FeedbackKind = "double"
	FeedbackTriple    FeedbackKind = "triple"
	FeedbackResetStep FeedbackKind = "reset-step"
	FeedbackError     FeedbackKind = "error"
)

// Outcome is the effect set for one processed gesture. The caller
// applies it: publishes Notify if non-nil, starts the Feedback
// pattern, and invokes the reset action if Reset is true.
type Outcome struct {
	// Notify is the notification value to publish, or nil when the
	// gesture carries no outward event.
	Notify *uint8

	// Feedback names the blink pattern confirming the gesture.
	Feedback FeedbackKind

	// Reset is true when the reset sequence completed on this gesture.
	Reset bool
}
