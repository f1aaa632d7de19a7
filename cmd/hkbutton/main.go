// Hkbutton runs a HomeKit programmable switch on a Raspberry Pi.
//
// It watches GPIO push buttons, classifies presses into gestures,
// publishes the matching programmable switch events over HomeKit, and
// drives an indicator LED. A sequence of consecutive double presses
// factory-resets the device.
//
// Usage:
//
//	hkbutton run [flags]
//
// See 'hkbutton run --help' for available options.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bitsplusatoms/hkbutton/internal/button"
	"github.com/bitsplusatoms/hkbutton/internal/config"
	"github.com/bitsplusatoms/hkbutton/internal/device"
	"github.com/bitsplusatoms/hkbutton/internal/feedback"
	"github.com/bitsplusatoms/hkbutton/internal/homekit"
	"github.com/bitsplusatoms/hkbutton/internal/led"
	"github.com/bitsplusatoms/hkbutton/internal/logging"
	"github.com/bitsplusatoms/hkbutton/internal/logic"
	"github.com/bitsplusatoms/hkbutton/internal/mqtt"
	"github.com/bitsplusatoms/hkbutton/internal/provision"
	"github.com/bitsplusatoms/hkbutton/internal/status"
	"github.com/bitsplusatoms/hkbutton/internal/system"
	"github.com/bitsplusatoms/hkbutton/internal/version"
	"github.com/bitsplusatoms/hkbutton/internal/web"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hkbutton",
	Short:   "HomeKit button daemon",
	Long:    `A HomeKit programmable switch daemon for GPIO push buttons.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(printConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	configPath    string
	logLevel      string
	provisionEnv  string
	provisionPoll time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the button daemon",
	Long: `Run the button daemon: watch the configured GPIO buttons, publish
programmable switch events over HomeKit, and mirror them to MQTT when
a broker is configured.

Without --config the built-in single-button configuration is used.`,
	Example: `  # Run with the built-in configuration
  hkbutton run

  # Run with a configuration file
  hkbutton run --config /etc/hkbutton/config.yaml --log-level debug`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file (optional)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&provisionEnv, "provision-env", provision.DefaultSnapshotPath, "Network helper env file to watch (empty to disable)")
	runCmd.Flags().DurationVar(&provisionPoll, "provision-poll", 2*time.Second, "Network helper poll interval")
}

var printConfigCmd = &cobra.Command{
	Use:   "print-config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	printConfigCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file (optional)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hkbutton %s\n", version.Full())
	},
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info("starting",
		zap.String("version", version.Full()),
		zap.String("device", cfg.Device.Name),
		zap.Int("channels", len(cfg.Channels)))

	driver, err := led.NewRealDriver(cfg.LED.Chip, cfg.LED.Pin)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer driver.Close()

	blinker := feedback.NewBlinker(driver, time.Sleep, log)
	station := feedback.NewStationIndicator(driver, nil, log)

	// The identify handler is bound after the device exists; HomeKit
	// controllers cannot reach it before the transport starts.
	var dev *device.Device
	hk, err := homekit.NewServer(cfg, func() {
		if dev != nil {
			dev.Identify()
		}
	}, log)
	if err != nil {
		return fmt.Errorf("init homekit: %w", err)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.Device.Name, log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	}

	channelNames := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channelNames = append(channelNames, ch.Name)
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		Device:         cfg.Device.Name,
		Broker:         cfg.MQTT.Broker,
		HTTPAddr:       cfg.HTTP.Addr,
		ResetThreshold: cfg.Reset.Threshold,
		ResetScope:     cfg.Reset.Scope,
	}, channelNames)

	sysctl := system.NewRealController(cfg.Reset.ProvisioningStatePath, cfg.HomeKit.StoragePath)

	dev = device.New(cfg, device.Deps{
		Accessory: hk,
		Publisher: publisher,
		Blinker:   blinker,
		Station:   station,
		System:    sysctl,
		Tracker:   tracker,
		Log:       log,
	})

	var watchers []*button.Watcher
	defer func() {
		for _, w := range watchers {
			w.Close()
		}
	}()
	for _, ch := range cfg.Channels {
		ch := ch
		w, err := button.NewWatcher(cfg.Buttons.Chip, ch.Pin, cfg.ButtonConfig(), func(g logic.Gesture) {
			dev.OnGesture(ch.Name, g)
		})
		if err != nil {
			// The channel stays inert; the rest of the device keeps
			// running.
			log.Error("channel bind failed",
				zap.String("channel", ch.Name), zap.Int("pin", ch.Pin), zap.Error(err))
			continue
		}
		watchers = append(watchers, w)
		log.Info("watching button", zap.String("channel", ch.Name), zap.Int("pin", ch.Pin))
	}

	var provisionEvents <-chan provision.Event
	if provisionEnv != "" {
		watch := provision.NewEnvWatcher(provisionEnv, provisionPoll)
		defer watch.Close()
		provisionEvents = watch.Events()
	} else {
		// No network helper: assume the network is already up so the
		// accessory server starts immediately.
		ready := make(chan provision.Event, 1)
		ready <- provision.EventConnected
		provisionEvents = ready
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	if publisher != nil {
		startup := mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "STARTUP",
			Retained:  true,
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Warn("startup publish failed", zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statusTick := time.NewTicker(30 * time.Second)
	defer statusTick.Stop()

	for {
		select {
		case e, ok := <-provisionEvents:
			if !ok {
				provisionEvents = nil
				continue
			}
			dev.HandleProvisionEvent(e)

		case <-statusTick.C:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

		case s := <-sigCh:
			log.Info("shutting down", zap.String("signal", s.String()))
			if publisher != nil {
				shutdown := mqtt.SystemEvent{
					Timestamp: time.Now(),
					Event:     "SHUTDOWN",
					Reason:    signalName(s),
					Retained:  true,
				}
				if err := publisher.PublishSystem(shutdown); err != nil {
					log.Warn("shutdown publish failed", zap.Error(err))
				}
			}
			station.Stop()
			blinker.Wait()
			dev.Close()
			hk.Stop()
			return nil
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
