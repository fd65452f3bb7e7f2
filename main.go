package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/procfs"
	"github.com/smazurov/pinpanel/cmd"
	"github.com/smazurov/pinpanel/internal/api"
	"github.com/smazurov/pinpanel/internal/config"
	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/gpio"
	"github.com/smazurov/pinpanel/internal/logging"
	"github.com/smazurov/pinpanel/internal/metrics/exporters"
	"github.com/smazurov/pinpanel/internal/mqtt"
	"github.com/smazurov/pinpanel/internal/pins"
	"github.com/smazurov/pinpanel/internal/pins/store"
	"github.com/smazurov/pinpanel/internal/sysinfo"
	"github.com/smazurov/pinpanel/internal/systemd"
	"github.com/smazurov/pinpanel/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":5000" toml:"server.port" env:"SERVER_PORT"`

	// Data directory holding cfg.json, cfg/ snapshots and logs/
	DataDir string `help:"Data directory" short:"d" default:"data" toml:"data.dir" env:"DATA_DIR"`

	// GPIO settings
	GPIOBackend      string `help:"GPIO backend (auto, cdev, mock)" default:"auto" toml:"gpio.backend" env:"GPIO_BACKEND"`
	GPIOChip         string `help:"GPIO character device" default:"gpiochip0" toml:"gpio.chip" env:"GPIO_CHIP"`
	GPIOPollInterval string `help:"Input poll interval, 0 disables" default:"500ms" toml:"gpio.poll_interval" env:"GPIO_POLL_INTERVAL"`

	// MQTT settings
	MQTTBroker   string `help:"MQTT broker URL, empty disables the bridge" default:"" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTPrefix   string `help:"MQTT topic prefix" default:"pinpanel" toml:"mqtt.prefix" env:"MQTT_PREFIX"`
	MQTTClientID string `help:"MQTT client ID" default:"pinpanel" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingGPIO   string `help:"GPIO logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingStore  string `help:"Config store logging level" default:"info" toml:"logging.store" env:"LOGGING_STORE"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP   string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingMQTT   string `help:"MQTT logging level" default:"info" toml:"logging.mqtt" env:"LOGGING_MQTT"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically; flags set on the command line win
		loadErr := config.LoadConfig(opts, cli.Root())

		// Daily log file under <data>/logs, bound lazily on first write
		logFile := logging.NewDailyFile(filepath.Join(opts.DataDir, "logs"))

		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"gpio":  opts.LoggingGPIO,
				"store": opts.LoggingStore,
				"api":   opts.LoggingAPI,
				"http":  opts.LoggingHTTP,
				"mqtt":  opts.LoggingMQTT,
			},
		}
		logging.Initialize(loggingConfig, logFile)

		logger := logging.GetLogger("main")
		if loadErr != nil {
			logger.Warn("Failed to load config", "error", loadErr)
		}
		logger.Info("Starting pinpanel", "version", version.String(), "data_dir", opts.DataDir)

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Every log record also goes to live-tail subscribers
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEvent(entry))
		})

		rotator, err := logging.NewRotator(logFile, logging.GetLogger("logging"))
		if err != nil {
			logger.Error("Failed to schedule log rotation", "error", err)
			os.Exit(1)
		}

		// Live logging level changes from the config file
		configWatcher := config.NewConfigWatcher(opts.Config, config.ReloadLoggingConfig, logging.GetLogger("config"))
		configWatcher.OnReload(func(cfg logging.Config) {
			logging.ApplyLevels(cfg)
			logger.Info("Applied logging levels from config file", "level", cfg.Level)
		})

		backend, err := gpio.New(opts.GPIOBackend, opts.GPIOChip, logging.GetLogger("gpio"))
		if err != nil {
			logger.Error("Failed to open GPIO backend", "backend", opts.GPIOBackend, "error", err)
			os.Exit(1)
		}

		pinStore := store.NewJSON(opts.DataDir, store.WithLogger(logging.GetLogger("store")))
		manager, err := pins.NewManager(pinStore, backend, eventBus, &pins.ManagerOptions{
			Logger: logging.GetLogger("gpio"),
		})
		if err != nil {
			// A corrupt document is left untouched for the operator to inspect
			logger.Error("Failed to load pin configuration", "error", err)
			os.Exit(1)
		}

		pollInterval, err := time.ParseDuration(opts.GPIOPollInterval)
		if err != nil {
			logger.Warn("Invalid poll interval, input polling disabled", "value", opts.GPIOPollInterval, "error", err)
			pollInterval = 0
		}
		poller := pins.NewPoller(manager, pollInterval)

		var bridge *mqtt.Bridge
		if opts.MQTTBroker != "" {
			mqttLogger := logging.GetLogger("mqtt")
			publisher, pubErr := mqtt.NewPahoPublisher(opts.MQTTBroker, opts.MQTTClientID)
			if pubErr != nil {
				mqttLogger.Warn("MQTT bridge disabled", "broker", opts.MQTTBroker, "error", pubErr)
			} else {
				bridge = mqtt.NewBridge(publisher, opts.MQTTPrefix, mqttLogger)
			}
		}

		var sampler api.Sampler
		if s, sErr := sysinfo.NewSampler(procfs.DefaultMountPoint, opts.DataDir); sErr != nil {
			logger.Warn("System sampling unavailable", "error", sErr)
		} else {
			sampler = s
		}

		apiOpts := &api.Options{
			Pins:      manager,
			Snapshots: pinStore,
			EventBus:  eventBus,
			LogDir:    logFile.Dir(),
			Sampler:   sampler,
		}
		if opts.MetricsEnabled {
			apiOpts.MetricsHandler = exporters.HTTPHandler(manager.BackendName(), logging.GetLogger("metrics"))
		}
		server := api.NewServer(apiOpts)

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

		hooks.OnStart(func() {
			if startErr := rotator.Start(); startErr != nil {
				logger.Warn("Failed to open today's log file", "error", startErr)
			}

			if startErr := configWatcher.Start(context.Background()); startErr != nil {
				logger.Warn("Config file watching disabled", "path", opts.Config, "error", startErr)
			}

			// Seed retained topics before the poller can report edges
			if bridge != nil {
				bridge.Start(eventBus, manager.ListState())
			}

			poller.Start(context.Background())

			logger.Info("server_start", "port", opts.Port, "backend", manager.BackendName())
			notifier.Ready()
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			poller.Stop()

			if bridge != nil {
				if stopErr := bridge.Stop(); stopErr != nil {
					logger.Warn("Error stopping MQTT bridge", "error", stopErr)
				}
			}

			if stopErr := configWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			if stopErr := manager.Close(); stopErr != nil {
				logger.Warn("Error releasing GPIO", "error", stopErr)
			}

			logger.Info("server_stop")
			if stopErr := rotator.Stop(ctx); stopErr != nil {
				logger.Warn("Error closing log file", "error", stopErr)
			}
		})
	})

	// Add state command
	cli.Root().AddCommand(cmd.CreateStateCmd())

	// Run the CLI
	cli.Run()
}
