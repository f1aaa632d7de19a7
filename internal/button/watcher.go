//go:build linux

package button

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// tickInterval bounds how late a window-close gesture can be emitted
// after the last release.
const tickInterval = 50 * time.Millisecond

// debouncePeriod is applied in the kernel via the GPIO character
// device, so the classifier only ever sees clean edges.
const debouncePeriod = 10 * time.Millisecond

// Watcher binds one active-low button pin to a gesture callback.
// Edges arrive from the kernel event handler; a ticker goroutine
// closes out press windows. Both paths classify and emit through one
// delivery, so gestures for a single pin reach the callback strictly
// in order.
type Watcher struct {
	line     *gpiocdev.Line
	ticker   *time.Ticker
	done     chan struct{}
	delivery *delivery
}

// NewWatcher requests the pin and starts classifying. The emit
// callback is invoked once per completed gesture and must return
// quickly; long work belongs on another goroutine.
func NewWatcher(chip string, pin int, cfg Config, emit func(logic.Gesture)) (*Watcher, error) {
	w := &Watcher{
		delivery: newDelivery(cfg, emit),
		done:     make(chan struct{}),
	}

	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debouncePeriod),
		gpiocdev.WithEventHandler(w.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}
	w.line = line

	w.ticker = time.NewTicker(tickInterval)
	go w.tickLoop()

	return w, nil
}

func (w *Watcher) handleEvent(ev gpiocdev.LineEvent) {
	// Active low with pull-up: falling edge is a press.
	w.delivery.edge(ev.Type == gpiocdev.LineEventFallingEdge, time.Now())
}

func (w *Watcher) tickLoop() {
	for {
		select {
		case <-w.done:
			return
		case now := <-w.ticker.C:
			w.delivery.tick(now)
		}
	}
}

// Close releases the pin and stops the ticker goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	w.ticker.Stop()
	if err := w.line.Close(); err != nil {
		return fmt.Errorf("close button line: %w", err)
	}
	return nil
}
