package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hkbutton.yaml")
	doc := `
device:
  name: Workshop Buttons
  serial: "2200118"
channels:
  - name: B1
    pin: 4
    mapping: long-as-double
  - name: B2
    pin: 5
    mapping: direct
reset:
  threshold: 3
  scope: per-channel
mqtt:
  broker: tcp://192.168.1.200:1883
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Device.Name != "Workshop Buttons" {
		t.Errorf("device name not overridden: %q", cfg.Device.Name)
	}
	if cfg.Device.Manufacturer != "BitsPlusAtoms" {
		t.Errorf("defaults should survive partial files, got %q", cfg.Device.Manufacturer)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(cfg.Channels))
	}
	if cfg.Reset.Threshold != 3 || cfg.Reset.Scope != ScopePerChannel {
		t.Errorf("reset config not loaded: %+v", cfg.Reset)
	}
	if cfg.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("mqtt broker not loaded: %q", cfg.MQTT.Broker)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no channels", func(c *Config) { c.Channels = nil }, "at least one channel"},
		{"duplicate pin", func(c *Config) {
			c.Channels = append(c.Channels, Channel{Name: "B2", Pin: c.Channels[0].Pin})
		}, "share pin"},
		{"duplicate name", func(c *Config) {
			c.Channels = append(c.Channels, Channel{Name: c.Channels[0].Name, Pin: 27})
		}, "duplicate channel name"},
		{"unnamed channel", func(c *Config) { c.Channels[0].Name = "" }, "no name"},
		{"channel on led pin", func(c *Config) { c.Channels[0].Pin = c.LED.Pin }, "LED pin"},
		{"unknown mapping", func(c *Config) { c.Channels[0].Mapping = "tap-dance" }, "unknown mapping"},
		{"negative threshold", func(c *Config) { c.Reset.Threshold = -1 }, "threshold"},
		{"bad scope", func(c *Config) { c.Reset.Scope = "global" }, "scope"},
		{"zero max presses", func(c *Config) { c.Buttons.MaxPresses = 0 }, "max_presses"},
		{"zero press window", func(c *Config) { c.Buttons.PressWindowMs = 0 }, "timing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestGestureMapping(t *testing.T) {
	ch := Channel{Name: "B1", Pin: 4, Mapping: MappingDirect}
	m := ch.GestureMapping()
	if v, ok := m.Lookup(logic.GestureDouble); !ok || v != logic.ValueDouble {
		t.Errorf("direct mapping should map double press, got %d %v", v, ok)
	}

	ch.Mapping = ""
	m = ch.GestureMapping()
	if _, ok := m.Lookup(logic.GestureDouble); ok {
		t.Error("default mapping must not map the double press")
	}
	if v, _ := m.Lookup(logic.GestureLong); v != logic.ValueDouble {
		t.Error("default mapping should publish double for a long press")
	}
}

func TestButtonConfig(t *testing.T) {
	bc := Default().ButtonConfig()
	if bc.MaxPresses != 3 {
		t.Errorf("expected max presses 3, got %d", bc.MaxPresses)
	}
	if bc.PressWindow.Milliseconds() != 350 {
		t.Errorf("expected 350ms press window, got %v", bc.PressWindow)
	}
	if bc.LongPressTime.Milliseconds() != 4500 {
		t.Errorf("expected 4500ms long press, got %v", bc.LongPressTime)
	}
}
