package logic

import "testing"

func TestResetCounterFiresOnThresholdPlusOne(t *testing.T) {
	c := NewResetCounter(2)

	if c.Advance() {
		t.Error("1st double press should not fire")
	}
	if c.Advance() {
		t.Error("2nd double press should not fire")
	}
	if !c.Advance() {
		t.Error("3rd double press should fire")
	}
	if c.Count() != 2 {
		t.Errorf("count should stay at threshold after firing, got %d", c.Count())
	}
}

func TestResetCounterFiresOnlyOnce(t *testing.T) {
	c := NewResetCounter(2)
	c.Advance()
	c.Advance()
	if !c.Advance() {
		t.Fatal("3rd double press should fire")
	}
	if c.Advance() || c.Advance() {
		t.Error("double presses after firing must be absorbed")
	}
}

func TestResetCounterClear(t *testing.T) {
	c := NewResetCounter(2)
	c.Advance()
	c.Advance()
	c.Clear()
	if c.Count() != 0 {
		t.Errorf("expected count 0 after Clear, got %d", c.Count())
	}
	if c.Advance() {
		t.Error("double press after Clear should not fire")
	}
}

func TestResetCounterZeroThreshold(t *testing.T) {
	c := NewResetCounter(0)
	if !c.Advance() {
		t.Error("threshold 0 should fire on the first double press")
	}
}

func TestDispatcherMappedGestures(t *testing.T) {
	tests := []struct {
		name    string
		gesture Gesture
		value   uint8
		fb      FeedbackKind
	}{
		{"single", GestureSingle, ValueSingle, FeedbackSingle},
		{"long as double", GestureLong, ValueDouble, FeedbackDouble},
		{"triple", GestureTriple, ValueTriple, FeedbackTriple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(LongAsDoubleMapping(), NewResetCounter(2))
			out := d.Process(tt.gesture)
			if out.Notify == nil {
				t.Fatal("expected a notification value")
			}
			if *out.Notify != tt.value {
				t.Errorf("expected value %d, got %d", tt.value, *out.Notify)
			}
			if out.Feedback != tt.fb {
				t.Errorf("expected feedback %q, got %q", tt.fb, out.Feedback)
			}
			if out.Reset {
				t.Error("mapped gesture must not trigger reset")
			}
		})
	}
}

func TestDispatcherUnrecognizedGesture(t *testing.T) {
	counter := NewResetCounter(2)
	counter.Advance()
	d := NewDispatcher(LongAsDoubleMapping(), counter)

	out := d.Process(GestureUnrecognized)
	if out.Notify != nil {
		t.Errorf("unrecognized gesture must not notify, got %d", *out.Notify)
	}
	if out.Feedback != FeedbackError {
		t.Errorf("expected error feedback, got %q", out.Feedback)
	}
	if counter.Count() != 0 {
		t.Errorf("unrecognized gesture must clear the counter, got %d", counter.Count())
	}
}

func TestDispatcherAnyOtherGestureClearsCounter(t *testing.T) {
	for _, g := range []Gesture{GestureSingle, GestureLong, GestureTriple, GestureUnrecognized} {
		counter := NewResetCounter(2)
		d := NewDispatcher(LongAsDoubleMapping(), counter)

		d.Process(GestureDouble)
		d.Process(GestureDouble)
		d.Process(g)
		if counter.Count() != 0 {
			t.Errorf("%s: expected counter cleared, got %d", g, counter.Count())
		}
	}
}

func TestDispatcherResetSequence(t *testing.T) {
	d := NewDispatcher(LongAsDoubleMapping(), NewResetCounter(2))

	for i := 0; i < 2; i++ {
		out := d.Process(GestureDouble)
		if out.Reset {
			t.Fatalf("double press %d should not trigger reset", i+1)
		}
		if out.Feedback != FeedbackResetStep {
			t.Errorf("double press %d: expected reset-step feedback, got %q", i+1, out.Feedback)
		}
	}

	out := d.Process(GestureDouble)
	if !out.Reset {
		t.Fatal("3rd consecutive double press should trigger reset")
	}
	if out.Notify != nil {
		t.Error("the firing gesture must not also notify")
	}
}

func TestDispatcherInterruptedResetSequence(t *testing.T) {
	counter := NewResetCounter(2)
	d := NewDispatcher(LongAsDoubleMapping(), counter)

	seq := []Gesture{GestureDouble, GestureDouble, GestureSingle, GestureDouble, GestureDouble, GestureDouble}
	resets := 0
	for _, g := range seq {
		if d.Process(g).Reset {
			resets++
		}
	}
	// The single press in the middle restarts the count, so only the
	// final run of three fires.
	if resets != 1 {
		t.Errorf("expected exactly 1 reset, got %d", resets)
	}
}

func TestDispatcherDoublePressNotifiesWithDirectMapping(t *testing.T) {
	d := NewDispatcher(DirectMapping(), NewResetCounter(2))

	out := d.Process(GestureDouble)
	if out.Notify == nil || *out.Notify != ValueDouble {
		t.Fatal("direct mapping should publish the double-press value")
	}

	// The firing press suppresses the notification.
	d.Process(GestureDouble)
	out = d.Process(GestureDouble)
	if !out.Reset {
		t.Fatal("3rd double press should fire")
	}
	if out.Notify != nil {
		t.Error("firing press should not notify")
	}
}

func TestDispatcherSharedCounterAcrossChannels(t *testing.T) {
	counter := NewResetCounter(2)
	a := NewDispatcher(LongAsDoubleMapping(), counter)
	b := NewDispatcher(LongAsDoubleMapping(), counter)

	a.Process(GestureDouble)
	b.Process(GestureDouble)
	if out := a.Process(GestureDouble); !out.Reset {
		t.Error("shared counter should fire across channels")
	}
}

func TestDispatcherScenarioA(t *testing.T) {
	// [Single, Single, Double, Triple]: notifications in order, counter
	// ends at 0, no reset.
	counter := NewResetCounter(2)
	d := NewDispatcher(DirectMapping(), counter)

	var published []uint8
	for _, g := range []Gesture{GestureSingle, GestureSingle, GestureDouble, GestureTriple} {
		out := d.Process(g)
		if out.Reset {
			t.Fatalf("%s: unexpected reset", g)
		}
		if out.Notify != nil {
			published = append(published, *out.Notify)
		}
	}

	want := []uint8{ValueSingle, ValueSingle, ValueDouble, ValueTriple}
	if len(published) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(published))
	}
	for i := range want {
		if published[i] != want[i] {
			t.Errorf("notification %d: expected %d, got %d", i, want[i], published[i])
		}
	}
	if counter.Count() != 0 {
		t.Errorf("expected counter 0, got %d", counter.Count())
	}
}
