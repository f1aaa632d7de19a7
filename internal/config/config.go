// Package config loads and validates the device configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bitsplusatoms/hkbutton/internal/button"
	"github.com/bitsplusatoms/hkbutton/internal/led"
	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// Reset counter scopes.
const (
	ScopeShared     = "shared"
	ScopePerChannel = "per-channel"
)

// Channel mapping names.
const (
	MappingLongAsDouble = "long-as-double"
	MappingDirect       = "direct"
)

// Config is the entire device configuration file.
type Config struct {
	Device   Device    `yaml:"device"`
	LED      LED       `yaml:"led"`
	Buttons  Buttons   `yaml:"buttons"`
	Channels []Channel `yaml:"channels"`
	Reset    Reset     `yaml:"reset"`
	HomeKit  HomeKit   `yaml:"homekit"`
	MQTT     MQTT      `yaml:"mqtt"`
	HTTP     HTTP      `yaml:"http"`
}

// Device is the accessory identity.
type Device struct {
	Name         string `yaml:"name"`
	Serial       string `yaml:"serial"`
	Model        string `yaml:"model"`
	Manufacturer string `yaml:"manufacturer"`
	Firmware     string `yaml:"firmware"`
}

// LED configures the indicator pin.
type LED struct {
	Chip string `yaml:"chip"`
	Pin  int    `yaml:"pin"`
}

// Buttons holds the GPIO chip and classifier timing, shared by all
// channels.
type Buttons struct {
	Chip          string `yaml:"chip"`
	PressWindowMs int    `yaml:"press_window_ms"`
	LongPressMs   int    `yaml:"long_press_ms"`
	MaxPresses    int    `yaml:"max_presses"`
}

// Channel binds one physical button to one notification slot.
type Channel struct {
	Name    string `yaml:"name"`
	Pin     int    `yaml:"pin"`
	Mapping string `yaml:"mapping"` // "long-as-double" or "direct"
}

// Reset configures the double-press reset sequence.
type Reset struct {
	// Threshold: the (Threshold+1)th consecutive double press fires.
	Threshold int `yaml:"threshold"`
	// Scope: "shared" counts double presses across all buttons,
	// "per-channel" keeps one counter per button.
	Scope string `yaml:"scope"`
	// ProvisioningStatePath is removed during a factory reset.
	ProvisioningStatePath string `yaml:"provisioning_state_path"`
}

// HomeKit configures the accessory server.
type HomeKit struct {
	SetupCode   string `yaml:"setup_code"`
	SetupID     string `yaml:"setup_id"`
	StoragePath string `yaml:"storage_path"`
}

// MQTT configures the event mirror. An empty broker disables it.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// HTTP configures the status server. An empty addr disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns a single-channel configuration matching the
// reference hardware.
func Default() Config {
	return Config{
		Device: Device{
			Name:         "Button",
			Serial:       "0012345",
			Model:        "JP2B",
			Manufacturer: "BitsPlusAtoms",
			Firmware:     "0.1.0",
		},
		LED: LED{Chip: "gpiochip0", Pin: led.DefaultPin},
		Buttons: Buttons{
			Chip:          "gpiochip0",
			PressWindowMs: 350,
			LongPressMs:   4500,
			MaxPresses:    3,
		},
		Channels: []Channel{
			{Name: "B1", Pin: 4, Mapping: MappingLongAsDouble},
		},
		Reset: Reset{
			Threshold:             2,
			Scope:                 ScopeShared,
			ProvisioningStatePath: "/var/lib/hkbutton/provisioning",
		},
		HomeKit: HomeKit{
			SetupCode:   "111-11-111",
			SetupID:     "1QJ8",
			StoragePath: "/var/lib/hkbutton/pairings",
		},
		MQTT: MQTT{
			ClientID: "hkbutton",
		},
		HTTP: HTTP{Addr: ":8080"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// is an error; use Default directly for a file-less bring-up.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("config: at least one channel is required")
	}

	pins := map[int]string{}
	names := map[string]bool{}
	for _, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("config: channel on pin %d has no name", ch.Pin)
		}
		if names[ch.Name] {
			return fmt.Errorf("config: duplicate channel name %q", ch.Name)
		}
		names[ch.Name] = true
		if other, ok := pins[ch.Pin]; ok {
			return fmt.Errorf("config: channels %q and %q share pin %d", other, ch.Name, ch.Pin)
		}
		pins[ch.Pin] = ch.Name
		if ch.Pin == c.LED.Pin {
			return fmt.Errorf("config: channel %q uses the LED pin %d", ch.Name, ch.Pin)
		}
		if _, err := mappingFor(ch.Mapping); err != nil {
			return fmt.Errorf("config: channel %q: %w", ch.Name, err)
		}
	}

	if c.Reset.Threshold < 0 {
		return fmt.Errorf("config: reset threshold must not be negative")
	}
	if c.Reset.Scope != ScopeShared && c.Reset.Scope != ScopePerChannel {
		return fmt.Errorf("config: reset scope must be %q or %q, got %q",
			ScopeShared, ScopePerChannel, c.Reset.Scope)
	}
	if c.Buttons.MaxPresses < 1 {
		return fmt.Errorf("config: buttons.max_presses must be at least 1")
	}
	if c.Buttons.PressWindowMs <= 0 || c.Buttons.LongPressMs <= 0 {
		return fmt.Errorf("config: button timing must be positive")
	}
	return nil
}

// ButtonConfig returns the classifier timing.
func (c Config) ButtonConfig() button.Config {
	return button.Config{
		PressWindow:   time.Duration(c.Buttons.PressWindowMs) * time.Millisecond,
		LongPressTime: time.Duration(c.Buttons.LongPressMs) * time.Millisecond,
		MaxPresses:    c.Buttons.MaxPresses,
	}
}

// Mapping returns the gesture mapping for a channel.
func (ch Channel) GestureMapping() logic.Mapping {
	m, err := mappingFor(ch.Mapping)
	if err != nil {
		// Validate rejects unknown names at load time.
		return logic.LongAsDoubleMapping()
	}
	return m
}

func mappingFor(name string) (logic.Mapping, error) {
	switch name {
	case MappingLongAsDouble, "":
		return logic.LongAsDoubleMapping(), nil
	case MappingDirect:
		return logic.DirectMapping(), nil
	default:
		return nil, fmt.Errorf("unknown mapping %q", name)
	}
}
