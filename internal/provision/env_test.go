package provision

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiffTransitions(t *testing.T) {
	known := func(connected, ap bool) netState {
		return netState{connected: connected, apMode: ap, known: true}
	}

	tests := []struct {
		name string
		prev netState
		cur  netState
		want []Event
	}{
		{"unknown to connected", netState{}, known(true, false), []Event{EventConnected}},
		{"unknown to ap", netState{}, known(false, true), []Event{EventAPStart}},
		{"unknown stays silent", netState{}, netState{}, nil},
		{"no change", known(true, false), known(true, false), nil},
		{"drop", known(true, false), known(false, false), []Event{EventDisconnected}},
		{"ap starts", known(false, false), known(false, true), []Event{EventAPStart}},
		{"ap stops and connects", known(false, true), known(true, false), []Event{EventAPStop, EventConnected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diff(tt.prev, tt.cur)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("event %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pi-helper.env")
	content := "# network helper state\nNETWORK_STATUS=\"connected\"\nNETWORK_WIFI_STATUS=station\nNETWORK_IP=192.168.1.50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := readSnapshot(path)
	if !s.known {
		t.Fatal("snapshot should be known")
	}
	if !s.connected || s.apMode {
		t.Errorf("expected connected station state, got %+v", s)
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	s := readSnapshot(filepath.Join(t.TempDir(), "nope.env"))
	if s.known {
		t.Error("missing file must read as unknown state")
	}
}

func TestEnvWatcherEmitsOnTransition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pi-helper.env")
	if err := os.WriteFile(path, []byte("NETWORK_STATUS=disconnected\nNETWORK_WIFI_STATUS=ap\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewEnvWatcher(path, time.Millisecond)
	defer w.Close()

	waitEvent := func(want Event) {
		t.Helper()
		select {
		case e := <-w.Events():
			if e != want {
				t.Fatalf("expected %s, got %s", want, e)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	waitEvent(EventAPStart)

	if err := os.WriteFile(path, []byte("NETWORK_STATUS=connected\nNETWORK_WIFI_STATUS=station\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitEvent(EventAPStop)
	waitEvent(EventConnected)
}

func TestFakeWatcher(t *testing.T) {
	f := NewFakeWatcher()
	f.Emit(EventAPStart)
	if e := <-f.Events(); e != EventAPStart {
		t.Errorf("expected AP_START, got %s", e)
	}
	f.Close()
	f.Close() // idempotent
	if _, ok := <-f.Events(); ok {
		t.Error("events channel should be closed")
	}
}
