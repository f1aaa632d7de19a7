package provision

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// Snapshot file keys, written by the network helper service.
const (
	keyStatus     = "NETWORK_STATUS"
	keyWifiStatus = "NETWORK_WIFI_STATUS"
)

// DefaultSnapshotPath is where the network helper writes its state.
const DefaultSnapshotPath = "/run/pi-helper.env"

// netState is the subset of the snapshot this package cares about.
type netState struct {
	connected bool
	apMode    bool
	known     bool
}

// EnvWatcher polls the snapshot file and emits an event for every
// observed transition. A missing or unreadable file is treated as
// "state unknown" and produces no events.
type EnvWatcher struct {
	path   string
	events chan Event
	done   chan struct{}
	closed chan struct{}
}

// NewEnvWatcher starts polling the snapshot at the given interval.
func NewEnvWatcher(path string, interval time.Duration) *EnvWatcher {
	w := &EnvWatcher{
		path:   path,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go w.loop(interval)
	return w
}

// Events returns the event stream.
func (w *EnvWatcher) Events() <-chan Event {
	return w.events
}

// Close stops polling and closes the event channel.
func (w *EnvWatcher) Close() error {
	close(w.done)
	<-w.closed
	return nil
}

func (w *EnvWatcher) loop(interval time.Duration) {
	defer close(w.closed)
	defer close(w.events)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev netState
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur := readSnapshot(w.path)
			for _, e := range diff(prev, cur) {
				select {
				case w.events <- e:
				case <-w.done:
					return
				}
			}
			if cur.known {
				prev = cur
			}
		}
	}
}

// diff computes the events for a state transition. AP transitions are
// reported before connectivity ones so the indicator reflects the
// portal state first.
func diff(prev, cur netState) []Event {
	if !cur.known {
		return nil
	}

	var events []Event
	if cur.apMode != prev.apMode {
		if cur.apMode {
			events = append(events, EventAPStart)
		} else {
			events = append(events, EventAPStop)
		}
	}
	if cur.connected != prev.connected {
		if cur.connected {
			events = append(events, EventConnected)
		} else if prev.known {
			events = append(events, EventDisconnected)
		}
	}
	return events
}

func readSnapshot(path string) netState {
	f, err := os.Open(path)
	if err != nil {
		return netState{}
	}
	defer f.Close()

	vals := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vals[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
	}

	status, ok := vals[keyStatus]
	if !ok {
		return netState{}
	}
	return netState{
		connected: strings.EqualFold(status, "connected"),
		apMode:    strings.EqualFold(vals[keyWifiStatus], "ap"),
		known:     true,
	}
}
