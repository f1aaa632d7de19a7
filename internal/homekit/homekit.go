// Package homekit exposes the button channels as a single accessory
// with one stateless programmable switch service per channel. It owns
// the accessory server lifecycle; the device runtime decides when the
// server starts (on the first provisioning "connected" event).
package homekit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/brutella/hc"
	"github.com/brutella/hc/accessory"
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/service"
	"go.uber.org/zap"

	"github.com/bitsplusatoms/hkbutton/internal/config"
)

// Server is the accessory and its (lazily started) IP transport.
type Server struct {
	acc    *accessory.Accessory
	events map[string]*characteristic.ProgrammableSwitchEvent
	cfg    config.HomeKit
	log    *zap.Logger

	mu        sync.Mutex
	transport hc.Transport
}

// NewServer builds the accessory from the configuration. onIdentify
// is invoked when a controller asks the device to identify itself.
func NewServer(cfg config.Config, onIdentify func(), log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	info := accessory.Info{
		Name:             cfg.Device.Name,
		SerialNumber:     cfg.Device.Serial,
		Manufacturer:     cfg.Device.Manufacturer,
		Model:            cfg.Device.Model,
		FirmwareRevision: cfg.Device.Firmware,
	}
	acc := accessory.New(info, accessory.TypeProgrammableSwitch)
	if onIdentify != nil {
		acc.OnIdentify(onIdentify)
	}

	events := make(map[string]*characteristic.ProgrammableSwitchEvent, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		svc := service.NewStatelessProgrammableSwitch()

		name := characteristic.NewName()
		name.SetValue(ch.Name)
		svc.AddCharacteristic(name.Characteristic)

		acc.AddService(svc.Service)
		events[ch.Name] = svc.ProgrammableSwitchEvent
	}

	return &Server{
		acc:    acc,
		events: events,
		cfg:    cfg.HomeKit,
		log:    log,
	}, nil
}

// Start brings up the IP transport. Safe to call more than once: the
// provisioning layer may report "connected" repeatedly across network
// drops, and only the first call starts a server.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport != nil {
		return nil
	}

	t, err := hc.NewIPTransport(hc.Config{
		Pin:         setupPin(s.cfg.SetupCode),
		SetupId:     s.cfg.SetupID,
		StoragePath: s.cfg.StoragePath,
	}, s.acc)
	if err != nil {
		return fmt.Errorf("init accessory transport: %w", err)
	}
	s.transport = t

	go t.Start()
	s.log.Info("accessory server started")
	return nil
}

// Stop shuts the transport down if it was started.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		return
	}
	<-s.transport.Stop()
	s.transport = nil
	s.log.Info("accessory server stopped")
}

// Started reports whether the transport is up.
func (s *Server) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// Notify publishes a programmable switch event value on a channel's
// notification slot. Connected controllers receive it as a
// Single/Double/Triple Press event.
func (s *Server) Notify(channel string, value uint8) error {
	ev, ok := s.events[channel]
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}
	ev.SetValue(int(value))
	return nil
}

// setupPin strips the display formatting from the setup code; the
// transport wants bare digits.
func setupPin(code string) string {
	return strings.ReplaceAll(code, "-", "")
}
