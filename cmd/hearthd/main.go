// Hearth Core - IoT Automation Hub
//
// This is the main entry point for the Hearth hub daemon. It composes the
// Device/Plugin Orchestrator: plugins are loaded from the build-time
// registry, configured devices are restored from the settings store, shared
// hardware is multiplexed through the bus, and notifications leave through
// MQTT and the state history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
	"github.com/nerrad567/hearth-core/internal/infrastructure/database"
	"github.com/nerrad567/hearth-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/hearth-core/internal/infrastructure/logging"
	"github.com/nerrad567/hearth-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/hearth-core/internal/notifier"
	"github.com/nerrad567/hearth-core/internal/orchestrator"
	"github.com/nerrad567/hearth-core/internal/plugin"
	"github.com/nerrad567/hearth-core/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Open database and prepare the settings store
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	settings := store.New(db.DB)
	if err := settings.Init(ctx); err != nil {
		return fmt.Errorf("initialising settings store: %w", err)
	}

	// Plugin host and hardware bus
	host := plugin.NewHost(settings)
	host.SetLogger(log.With("component", "plugin"))

	bus := hardware.NewBus(host)
	bus.SetLogger(log.With("component", "hardware"))

	orch := orchestrator.New(host, bus, settings)
	orch.SetLogger(log.With("component", "orchestrator"))

	// Outward sinks (both optional)
	var publisher notifier.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log.With("component", "mqtt"))
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT", "dropped_notifications", mqttClient.Dropped())
			mqttClient.Close()
		}()
		publisher = mqttClient
		log.Info("MQTT bridge enabled",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT bridge disabled")
	}

	var history notifier.StateHistory
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, log.With("component", "influxdb"))
		if influxErr != nil {
			return fmt.Errorf("configuring state history: %w", influxErr)
		}
		defer func() {
			log.Info("closing state history")
			influxClient.Close()
		}()
		history = influxClient
		log.Info("state history enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("state history disabled")
	}

	notif := notifier.New(publisher, history)
	notif.SetLogger(log.With("component", "notifier"))
	orch.AddObserver(notif)

	// Shared hardware transports. Radio backends are board-specific and ship
	// outside this module; without one the bus logs the absence and radio
	// plugins simply never receive frames.
	if cfg.Hardware.Radio433.Enabled {
		bus.AttachRadio(device.ResourceRadio433, radioBackend(cfg.Hardware.Radio433))
	}
	if cfg.Hardware.Radio868.Enabled {
		bus.AttachRadio(device.ResourceRadio868, radioBackend(cfg.Hardware.Radio868))
	}
	if cfg.Hardware.Upnp.Enabled {
		ssdp := hardware.NewSsdpTransport()
		ssdp.SetLogger(log.With("component", "ssdp"))
		bus.AttachUpnp(ssdp)
		defer ssdp.Close() //nolint:errcheck // Best effort on shutdown
	}

	// Load plugins and restore configured devices
	factories := enabledFactories(cfg.Plugins, plugin.Registered())
	if err := orch.Start(ctx, factories...); err != nil {
		return fmt.Errorf("starting orchestrator: %w", err)
	}
	log.Info("hub loaded",
		"plugins", len(orch.Plugins()),
		"devices", len(orch.ConfiguredDevices()),
	)

	<-ctx.Done()
	log.Info("shutting down")

	// Stop the orchestrator before the sinks so in-flight notifications
	// still have somewhere to go.
	orch.Stop()
	return nil
}

// enabledFactories filters the registered plugin factories against the
// configured disabled list (matched by plugin name).
func enabledFactories(cfg config.PluginsConfig, factories []plugin.Factory) []plugin.Factory {
	if len(cfg.Disabled) == 0 {
		return factories
	}
	disabled := make(map[string]struct{}, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = struct{}{}
	}

	var enabled []plugin.Factory
	for _, factory := range factories {
		if _, skip := disabled[factory().Metadata().Name]; skip {
			continue
		}
		enabled = append(enabled, factory)
	}
	return enabled
}

// radioBackend resolves the radio receiver for a configured radio. Receiver
// implementations are GPIO- or network-specific and register from separate
// builds; none are compiled into the core module.
func radioBackend(config.RadioConfig) hardware.RadioTransport {
	return nil
}

// getConfigPath returns the configuration file path from the command line,
// the HEARTH_CONFIG environment variable, or the default.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
