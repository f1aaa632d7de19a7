package device

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bitsplusatoms/hkbutton/internal/config"
	"github.com/bitsplusatoms/hkbutton/internal/feedback"
	"github.com/bitsplusatoms/hkbutton/internal/led"
	"github.com/bitsplusatoms/hkbutton/internal/logic"
	"github.com/bitsplusatoms/hkbutton/internal/mqtt"
	"github.com/bitsplusatoms/hkbutton/internal/provision"
	"github.com/bitsplusatoms/hkbutton/internal/status"
	"github.com/bitsplusatoms/hkbutton/internal/system"
)

var errBoom = errors.New("boom")

type notifyCall struct {
	channel string
	value   uint8
}

type fakeAccessory struct {
	mu       sync.Mutex
	starts   int
	notifies []notifyCall

	StartError  error
	NotifyError error
}

func (f *fakeAccessory) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.StartError
}

func (f *fakeAccessory) Notify(channel string, value uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifies = append(f.notifies, notifyCall{channel, value})
	return f.NotifyError
}

func (f *fakeAccessory) Notifies() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notifyCall, len(f.notifies))
	copy(out, f.notifies)
	return out
}

func (f *fakeAccessory) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type harness struct {
	device    *Device
	accessory *fakeAccessory
	publisher *mqtt.FakePublisher
	driver    *led.FakeDriver
	blinker   *feedback.Blinker
	station   *feedback.StationIndicator
	sysctl    *system.FakeController
	tracker   *status.Tracker
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Channels = []config.Channel{
		{Name: "B1", Pin: 4, Mapping: config.MappingDirect},
		{Name: "B2", Pin: 5, Mapping: config.MappingLongAsDouble},
	}
	cfg.Reset.Threshold = 2
	cfg.Reset.Scope = config.ScopeShared
	return cfg
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	driver := led.NewFakeDriver()
	noSleep := func(time.Duration) {}
	stationSleep := func(d time.Duration, cancel <-chan struct{}) bool {
		select {
		case <-cancel:
			return false
		case <-time.After(time.Millisecond):
			return true
		}
	}
	h := &harness{
		accessory: &fakeAccessory{},
		publisher: mqtt.NewFakePublisher(),
		driver:    driver,
		blinker:   feedback.NewBlinker(driver, noSleep, zap.NewNop()),
		station:   feedback.NewStationIndicator(driver, stationSleep, zap.NewNop()),
		sysctl:    system.NewFakeController(),
		tracker:   status.NewTracker(time.Now(), status.Config{ResetThreshold: cfg.Reset.Threshold}, channelNames(cfg)),
	}
	h.device = New(cfg, Deps{
		Accessory: h.accessory,
		Publisher: h.publisher,
		Blinker:   h.blinker,
		Station:   h.station,
		System:    h.sysctl,
		Tracker:   h.tracker,
		Log:       zap.NewNop(),
	})
	t.Cleanup(h.device.Close)
	return h
}

func channelNames(cfg config.Config) []string {
	names := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		names = append(names, ch.Name)
	}
	return names
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSinglePressNotifiesAndMirrors(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.OnGesture("B1", logic.GestureSingle)
	h.blinker.Wait()

	notifies := h.accessory.Notifies()
	if len(notifies) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifies))
	}
	if notifies[0].channel != "B1" || notifies[0].value != logic.ValueSingle {
		t.Errorf("got notify %+v, want B1/0", notifies[0])
	}

	waitFor(t, "mqtt event", func() bool { return len(h.publisher.Events()) == 1 })
	events := h.publisher.Events()
	if events[0].Channel != "B1" || events[0].Gesture != logic.GestureSingle {
		t.Errorf("got event %+v", events[0])
	}
	if events[0].Value == nil || *events[0].Value != logic.ValueSingle {
		t.Errorf("event value = %v, want 0", events[0].Value)
	}

	if got := h.driver.Activations(); got != 1 {
		t.Errorf("led activations = %d, want 1", got)
	}
	if h.driver.Lit() != led.Black {
		t.Errorf("led left on after feedback")
	}
}

func TestLongPressPublishesDoubleValue(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.OnGesture("B2", logic.GestureLong)
	h.blinker.Wait()

	notifies := h.accessory.Notifies()
	if len(notifies) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifies))
	}
	if notifies[0].value != logic.ValueDouble {
		t.Errorf("long press published %d, want %d", notifies[0].value, logic.ValueDouble)
	}
}

func TestDoublePressOnLongAsDoubleChannelIsSilent(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.OnGesture("B2", logic.GestureDouble)
	h.blinker.Wait()

	if got := h.accessory.Notifies(); len(got) != 0 {
		t.Fatalf("got %d notifications, want 0", len(got))
	}
	// The step still mirrors to MQTT, with no value.
	waitFor(t, "mqtt event", func() bool { return len(h.publisher.Events()) == 1 })
	events := h.publisher.Events()
	if events[0].Value != nil {
		t.Errorf("unmapped double press carried value %d", *events[0].Value)
	}
}

func TestResetSequenceFiresAfterThresholdExceeded(t *testing.T) {
	h := newHarness(t, testConfig())

	// Threshold 2: the first two double presses only advance the
	// counter, the third fires.
	h.device.OnGesture("B2", logic.GestureDouble)
	h.device.OnGesture("B2", logic.GestureDouble)
	if got := h.sysctl.Restarts(); got != 0 {
		t.Fatalf("restarted after %d double presses", 2)
	}

	h.device.OnGesture("B2", logic.GestureDouble)

	waitFor(t, "restart", func() bool { return h.sysctl.Restarts() == 1 })

	calls := h.sysctl.Calls()
	want := []string{"provisioning", "pairing", "restart"}
	if len(calls) != len(want) {
		t.Fatalf("got calls %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("got calls %v, want %v", calls, want)
		}
	}

	var reset *mqtt.SystemEvent
	for _, e := range h.publisher.SystemEvents() {
		if e.Event == "RESET" {
			e := e
			reset = &e
		}
	}
	if reset == nil {
		t.Fatal("no RESET system event published")
	}
	if !reset.Retained {
		t.Error("RESET event not retained")
	}
}

func TestSharedCounterSpansChannels(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.OnGesture("B1", logic.GestureDouble)
	h.device.OnGesture("B2", logic.GestureDouble)
	h.device.OnGesture("B1", logic.GestureDouble)

	waitFor(t, "restart", func() bool { return h.sysctl.Restarts() == 1 })
}

func TestPerChannelCountersAreIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.Reset.Scope = config.ScopePerChannel
	h := newHarness(t, cfg)

	// Alternating between channels never completes either sequence.
	for i := 0; i < 4; i++ {
		h.device.OnGesture("B1", logic.GestureDouble)
		h.device.OnGesture("B2", logic.GestureDouble)
	}
	time.Sleep(10 * time.Millisecond)
	if got := h.sysctl.Restarts(); got != 0 {
		t.Fatalf("restarted with alternating double presses")
	}
}

func TestOtherGestureInterruptsResetSequence(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.OnGesture("B2", logic.GestureDouble)
	h.device.OnGesture("B2", logic.GestureDouble)
	h.device.OnGesture("B2", logic.GestureSingle)
	h.device.OnGesture("B2", logic.GestureDouble)
	h.device.OnGesture("B2", logic.GestureDouble)

	time.Sleep(10 * time.Millisecond)
	if got := h.sysctl.Restarts(); got != 0 {
		t.Fatalf("restarted despite interrupted sequence")
	}
}

func TestResetContinuesPastPrimitiveFailures(t *testing.T) {
	h := newHarness(t, testConfig())
	h.sysctl.ProvisioningError = errBoom
	h.sysctl.PairingError = errBoom

	h.device.Reset()

	if got := h.sysctl.Restarts(); got != 1 {
		t.Fatalf("restarts = %d, want 1; restart must be unconditional", got)
	}
}

func TestResetBlinkRunsToCompletionFirst(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.Reset()

	// The warning blink flashes red 5 times before anything is wiped.
	changes := h.driver.Changes()
	reds := 0
	for _, c := range changes {
		if c == led.Red {
			reds++
		}
	}
	if reds != feedback.AboutResetSpec.Cycles {
		t.Errorf("red flashes = %d, want %d", reds, feedback.AboutResetSpec.Cycles)
	}
	if h.driver.Lit() != led.Black {
		t.Error("led left on after reset blink")
	}
}

func TestUnregisteredChannelPanics(t *testing.T) {
	h := newHarness(t, testConfig())

	defer func() {
		if recover() == nil {
			t.Fatal("no panic for unregistered channel")
		}
	}()
	h.device.OnGesture("B9", logic.GestureSingle)
}

func TestProvisioningAPStartStopDrivesIndicator(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.HandleProvisionEvent(provision.EventAPStart)
	if !h.station.Running() {
		t.Fatal("station indicator not running after AP start")
	}
	if snap := h.tracker.Snapshot(); !snap.Provisioning {
		t.Error("tracker not marked provisioning")
	}

	h.device.HandleProvisionEvent(provision.EventAPStop)
	if h.station.Running() {
		t.Fatal("station indicator still running after AP stop")
	}
	if h.driver.Lit() != led.Black {
		t.Error("led left on after AP stop")
	}
	if snap := h.tracker.Snapshot(); snap.Provisioning {
		t.Error("tracker still marked provisioning")
	}
}

func TestProvisioningConnectedStartsAccessoryOnce(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.HandleProvisionEvent(provision.EventConnected)
	h.device.HandleProvisionEvent(provision.EventConnected)

	// Start is delegated both times; idempotence lives in the server.
	if got := h.accessory.Starts(); got != 2 {
		t.Fatalf("starts = %d, want 2", got)
	}
	snap := h.tracker.Snapshot()
	if !snap.Connected || !snap.HomeKitStarted {
		t.Errorf("tracker snapshot %+v, want connected and started", snap)
	}

	h.device.HandleProvisionEvent(provision.EventDisconnected)
	if h.tracker.Snapshot().Connected {
		t.Error("tracker still marked connected")
	}
}

func TestProvisioningEventsMirrorToMQTT(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.HandleProvisionEvent(provision.EventAPStart)

	events := h.publisher.SystemEvents()
	if len(events) != 1 {
		t.Fatalf("got %d system events, want 1", len(events))
	}
	if events[0].Event != "PROVISIONING" || events[0].Reason != string(provision.EventAPStart) {
		t.Errorf("got system event %+v", events[0])
	}
}

func TestIdentifyBlinksPurple(t *testing.T) {
	h := newHarness(t, testConfig())

	h.device.Identify()

	waitFor(t, "identify blinks", func() bool {
		for _, c := range h.driver.Changes() {
			if c == led.Purple {
				return true
			}
		}
		return false
	})
}

func TestNilPublisherIsTolerated(t *testing.T) {
	cfg := testConfig()
	h := &harness{
		accessory: &fakeAccessory{},
		driver:    led.NewFakeDriver(),
		sysctl:    system.NewFakeController(),
	}
	h.blinker = feedback.NewBlinker(h.driver, func(time.Duration) {}, zap.NewNop())
	h.device = New(cfg, Deps{
		Accessory: h.accessory,
		Blinker:   h.blinker,
		System:    h.sysctl,
	})

	h.device.OnGesture("B1", logic.GestureSingle)
	h.blinker.Wait()

	if got := h.accessory.Notifies(); len(got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(got))
	}

	// Provisioning events without a station indicator or tracker must
	// not panic either.
	h.device.HandleProvisionEvent(provision.EventAPStart)
	h.device.HandleProvisionEvent(provision.EventAPStop)
	h.device.Close()
}

// slowPublisher stalls every gesture publish, standing in for a
// broker link that accepts the connection but stops acking.
type slowPublisher struct {
	*mqtt.FakePublisher
	delay time.Duration
}

func (p *slowPublisher) Publish(event mqtt.GestureEvent) error {
	time.Sleep(p.delay)
	return p.FakePublisher.Publish(event)
}

func TestOnGestureDoesNotWaitForBroker(t *testing.T) {
	slow := &slowPublisher{FakePublisher: mqtt.NewFakePublisher(), delay: 200 * time.Millisecond}
	driver := led.NewFakeDriver()
	blinker := feedback.NewBlinker(driver, func(time.Duration) {}, zap.NewNop())
	dev := New(testConfig(), Deps{
		Accessory: &fakeAccessory{},
		Publisher: slow,
		Blinker:   blinker,
		System:    system.NewFakeController(),
	})
	t.Cleanup(dev.Close)

	start := time.Now()
	dev.OnGesture("B1", logic.GestureSingle)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("dispatch blocked %v on the mqtt mirror", elapsed)
	}

	// The event still arrives, just off the dispatch path.
	waitFor(t, "mirrored event", func() bool { return len(slow.Events()) == 1 })
}

func TestExtraDoublePressesDoNotStackResets(t *testing.T) {
	h := newHarness(t, testConfig())

	for i := 0; i < 6; i++ {
		h.device.OnGesture("B2", logic.GestureDouble)
	}

	waitFor(t, "restart", func() bool { return h.sysctl.Restarts() >= 1 })
	time.Sleep(10 * time.Millisecond)
	if got := h.sysctl.Restarts(); got != 1 {
		t.Fatalf("restarts = %d, want exactly 1", got)
	}
}
