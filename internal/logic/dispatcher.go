package logic

// Dispatcher turns classified gestures for one channel into outcomes.
// It owns no side effects itself: the device runtime applies each
// Outcome to the notification slot, the feedback subsystem, and the
// reset action. Several dispatchers may share one ResetCounter when
// the reset sequence is device-wide rather than per button.
type Dispatcher struct {
	mapping Mapping
	counter *ResetCounter
}

// NewDispatcher creates a dispatcher with the given channel mapping
// and reset counter.
func NewDispatcher(mapping Mapping, counter *ResetCounter) *Dispatcher {
	return &Dispatcher{
		mapping: mapping,
		counter: counter,
	}
}

// Process evaluates one gesture. Any gesture other than a double press
// clears the reset counter before its own effect is computed. Every
// gesture produces feedback so that no input is ever dropped silently.
func (d *Dispatcher) Process(g Gesture) Outcome {
	if g == GestureDouble {
		fired := d.counter.Advance()
		out := Outcome{
			Feedback: FeedbackResetStep,
			Reset:    fired,
		}
		if v, ok := d.mapping.Lookup(g); ok && !fired {
			val := v
			out.Notify = &val
		}
		return out
	}

	d.counter.Clear()

	out := Outcome{Feedback: feedbackFor(g)}
	if v, ok := d.mapping.Lookup(g); ok {
		val := v
		out.Notify = &val
	}
	return out
}

func feedbackFor(g Gesture) FeedbackKind {
	switch g {
	case GestureSingle:
		return FeedbackSingle
	case GestureLong:
		return FeedbackDouble
	case GestureTriple:
		return FeedbackTriple
	default:
		return FeedbackError
	}
}
