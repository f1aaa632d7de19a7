// Package device composes the dispatcher, feedback, accessory,
// provisioning and reset components into the running unit. It owns
// all mutable dispatch state: per-channel dispatchers and the reset
// counter(s), constructed once at bring-up.
package device

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitsplusatoms/hkbutton/internal/config"
	"github.com/bitsplusatoms/hkbutton/internal/feedback"
	"github.com/bitsplusatoms/hkbutton/internal/logic"
	"github.com/bitsplusatoms/hkbutton/internal/mqtt"
	"github.com/bitsplusatoms/hkbutton/internal/provision"
	"github.com/bitsplusatoms/hkbutton/internal/status"
	"github.com/bitsplusatoms/hkbutton/internal/system"
)

// Accessory is the outward notification surface: the accessory server
// plus the per-channel notification slots it owns.
type Accessory interface {
	// Start brings the accessory server up. Called on the first
	// provisioning "connected" event; must be safe to call again.
	Start() error

	// Notify publishes a programmable switch event value for a channel.
	Notify(channel string, value uint8) error
}

// Device is the running unit.
type Device struct {
	cfg       config.Config
	accessory Accessory
	publisher mqtt.Publisher
	blinker   *feedback.Blinker
	station   *feedback.StationIndicator
	sysctl    system.Controller
	tracker   *status.Tracker
	log       *zap.Logger
	now       func() time.Time

	// channels is immutable after New. dispatchMu serializes all
	// dispatcher state, in particular a reset counter shared across
	// channels.
	channels   map[string]*channel
	dispatchMu sync.Mutex

	// pubCh feeds the MQTT mirror goroutine; nil when MQTT is
	// disabled. A single drain goroutine keeps events in gesture
	// order.
	pubCh     chan mqtt.GestureEvent
	pubDone   chan struct{}
	closeOnce sync.Once
}

// publishQueueCapacity bounds gesture events waiting on a stalled
// broker link. The publisher's own ring buffer covers the
// disconnected case.
const publishQueueCapacity = 32

type channel struct {
	name       string
	dispatcher *logic.Dispatcher
	counter    *logic.ResetCounter
}

// Deps are the collaborators the device composes. Publisher, Station
// and Tracker may be nil when the corresponding feature is disabled.
type Deps struct {
	Accessory Accessory
	Publisher mqtt.Publisher
	Blinker   *feedback.Blinker
	Station   *feedback.StationIndicator
	System    system.Controller
	Tracker   *status.Tracker
	Log       *zap.Logger
	Now       func() time.Time
}

// New builds the device from configuration. With reset scope "shared"
// all channels feed one counter; with "per-channel" each button has
// its own.
func New(cfg config.Config, deps Deps) *Device {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	d := &Device{
		cfg:       cfg,
		accessory: deps.Accessory,
		publisher: deps.Publisher,
		blinker:   deps.Blinker,
		station:   deps.Station,
		sysctl:    deps.System,
		tracker:   deps.Tracker,
		log:       deps.Log,
		now:       deps.Now,
		channels:  make(map[string]*channel, len(cfg.Channels)),
	}

	var shared *logic.ResetCounter
	if cfg.Reset.Scope == config.ScopeShared {
		shared = logic.NewResetCounter(cfg.Reset.Threshold)
	}
	for _, ch := range cfg.Channels {
		counter := shared
		if counter == nil {
			counter = logic.NewResetCounter(cfg.Reset.Threshold)
		}
		d.channels[ch.Name] = &channel{
			name:       ch.Name,
			dispatcher: logic.NewDispatcher(ch.GestureMapping(), counter),
			counter:    counter,
		}
	}

	if d.publisher != nil {
		d.pubCh = make(chan mqtt.GestureEvent, publishQueueCapacity)
		d.pubDone = make(chan struct{})
		go d.publishLoop()
	}
	return d
}

func (d *Device) publishLoop() {
	defer close(d.pubDone)
	for event := range d.pubCh {
		if err := d.publisher.Publish(event); err != nil {
			d.log.Warn("mqtt publish failed", zap.Error(err))
		}
	}
}

// Close stops the MQTT mirror goroutine after draining queued events.
// Safe to call more than once.
func (d *Device) Close() {
	d.closeOnce.Do(func() {
		if d.pubCh != nil {
			close(d.pubCh)
			<-d.pubDone
		}
	})
}

// OnGesture dispatches one classified gesture for a channel. It is
// invoked from the channel's classifier goroutine; gestures for one
// channel arrive in order, and cross-channel dispatcher state is
// serialized here. The heavy lifting (blinking, the MQTT mirror, a
// reset) happens on other goroutines, so the classifier is never
// blocked for long; in particular a stalled broker link cannot hold
// up dispatch.
//
// An unregistered channel is a programming error: watchers are built
// from the same channel table.
func (d *Device) OnGesture(name string, g logic.Gesture) {
	ch, ok := d.channels[name]
	if !ok {
		panic(fmt.Sprintf("device: gesture on unregistered channel %q", name))
	}

	d.dispatchMu.Lock()
	out := ch.dispatcher.Process(g)
	count := ch.counter.Count()
	d.dispatchMu.Unlock()

	d.log.Info("gesture",
		zap.String("channel", name),
		zap.String("gesture", string(g)),
		zap.Bool("reset", out.Reset))

	if d.tracker != nil {
		d.tracker.RecordGesture(name, g, out.Notify, d.now(), count)
	}

	if out.Notify != nil {
		if err := d.accessory.Notify(name, *out.Notify); err != nil {
			d.log.Error("notify failed", zap.String("channel", name), zap.Error(err))
		}
	}

	d.blinker.Start(feedback.ForKind(out.Feedback))

	if d.pubCh != nil {
		event := mqtt.GestureEvent{
			Timestamp: d.now(),
			Channel:   name,
			Gesture:   g,
			Value:     out.Notify,
		}
		select {
		case d.pubCh <- event:
		default:
			d.log.Warn("mqtt mirror queue full, dropping gesture event",
				zap.String("channel", name))
		}
	}

	if out.Reset {
		go d.Reset()
	}
}

// Reset performs the factory reset sequence: a distinctive blink run
// to completion, then the provisioning and pairing resets, then an
// unconditional restart. Failures along the way are logged only; a
// half-reset device is worse than a guaranteed reboot.
func (d *Device) Reset() {
	d.log.Warn("reset sequence triggered, resetting configuration")

	d.blinker.Run(feedback.AboutResetSpec)

	d.publishSystem("RESET", "", true)

	if err := d.sysctl.ResetProvisioning(); err != nil {
		d.log.Error("provisioning reset failed", zap.Error(err))
	}
	if err := d.sysctl.ResetPairing(); err != nil {
		d.log.Error("pairing reset failed", zap.Error(err))
	}

	d.log.Warn("restarting")
	if err := d.sysctl.Restart(); err != nil {
		d.log.Error("restart failed", zap.Error(err))
	}
}

// HandleProvisionEvent reacts to one provisioning transition: the
// station mode indicator tracks the access point, and the accessory
// server starts once the network is up.
func (d *Device) HandleProvisionEvent(e provision.Event) {
	d.log.Info("provisioning event", zap.String("event", string(e)))
	d.publishSystem("PROVISIONING", string(e), false)

	switch e {
	case provision.EventAPStart:
		if d.station != nil {
			d.station.Start()
		}
		if d.tracker != nil {
			d.tracker.SetProvisioning(true)
		}
	case provision.EventAPStop:
		if d.station != nil {
			d.station.Stop()
		}
		if d.tracker != nil {
			d.tracker.SetProvisioning(false)
		}
	case provision.EventConnected:
		if d.tracker != nil {
			d.tracker.SetConnected(true)
		}
		if err := d.accessory.Start(); err != nil {
			d.log.Error("accessory server start failed", zap.Error(err))
			return
		}
		if d.tracker != nil {
			d.tracker.SetHomeKitStarted(true)
		}
	case provision.EventDisconnected:
		if d.tracker != nil {
			d.tracker.SetConnected(false)
		}
	}
}

// Identify runs the identify blink pattern in the background. Wired
// to the accessory's identify routine.
func (d *Device) Identify() {
	d.log.Info("identify requested")
	go d.blinker.Identify()
}

// ChannelNames returns the registered channel names.
func (d *Device) ChannelNames() []string {
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}

func (d *Device) publishSystem(event, reason string, retained bool) {
	if d.publisher == nil {
		return
	}
	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	})
	if err != nil {
		d.log.Warn("mqtt system publish failed", zap.String("event", event), zap.Error(err))
	}
}
