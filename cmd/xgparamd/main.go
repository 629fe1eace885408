// xgparamd - XG parameter service
//
// xgparamd keeps the complete parameter state of a Yamaha XG tone generator
// in memory and mirrors it to the device over MIDI system exclusive. Edits
// arrive over HTTP, WebSocket, MQTT and MCP; state changes fan out to MQTT,
// InfluxDB and WebSocket clients; named snapshots live in SQLite.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/nerrad567/xgparam-core/internal/api"
	"github.com/nerrad567/xgparam-core/internal/bridges/midi"
	"github.com/nerrad567/xgparam-core/internal/fanout"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/config"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/database"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/logging"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/xgparam-core/internal/mcpserver"
	"github.com/nerrad567/xgparam-core/internal/snapshot"
	"github.com/nerrad567/xgparam-core/internal/xgdata"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
	"github.com/nerrad567/xgparam-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the autosave and the fan-out drain on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: each component is optional
	// stderr until config says otherwise: stdout may belong to MCP.
	log := logging.Default()
	log.Info("starting xgparamd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database
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
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("database ready", "path", cfg.Database.Path, "schema", schema)

	// Registry
	reg, err := buildRegistry(cfg.Device)
	if err != nil {
		return err
	}
	log.Info("parameter registry populated",
		"parameters", reg.Len(),
		"parts", cfg.Device.Parts,
		"drum_setups", cfg.Device.DrumSetups,
		"packs", len(cfg.Device.Packs),
	)

	snapshots := snapshot.NewSQLiteRepository(db.DB, cfg.Device.Name)
	if name := cfg.Snapshot.Autoload; name != "" {
		res, loadErr := snapshots.Load(ctx, name, reg)
		switch {
		case errors.Is(loadErr, snapshot.ErrNotFound):
			log.Warn("autoload snapshot not found", "name", name)
		case loadErr != nil:
			return fmt.Errorf("loading snapshot %q: %w", name, loadErr)
		default:
			log.Info("snapshot loaded", "name", name,
				"applied", res.Applied, "unresolved", res.Unresolved, "rejected", res.Rejected)
		}
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Fan-out. It drains after everything that feeds it has stopped, and
	// before the MQTT and InfluxDB clients close.
	hub := fanout.NewHub(cfg.Fanout.QueueSize)
	hub.SetLogger(log)
	if mqttClient != nil {
		hub.AddSink(fanout.NewMQTTSink(mqttClient, mqttClient.Topics()))
	}
	if influxClient != nil {
		hub.AddSink(fanout.NewInfluxSink(influxClient))
	}
	stopFanout := startFanout(ctx, hub, log)
	defer stopFanout()

	_ = reg.Do(func() error {
		reg.Watch(hub)
		return nil
	})

	if mqttClient != nil {
		commands := fanout.NewCommandHandler(reg, mqttClient, mqttClient.Topics(), mqttClient.QoS())
		commands.SetLogger(log)
		if startErr := commands.Start(); startErr != nil {
			return fmt.Errorf("subscribing to MQTT commands: %w", startErr)
		}
	}

	// MIDI bridge (optional)
	var bridgeMetrics api.BridgeMetrics
	if cfg.MIDI.Enabled {
		bridge, bridgeErr := startMIDIBridge(ctx, cfg, reg, log)
		if bridgeErr != nil {
			return fmt.Errorf("starting MIDI bridge: %w", bridgeErr)
		}
		defer func() {
			log.Info("stopping MIDI bridge")
			bridge.Stop()
		}()
		bridgeMetrics = bridge
	} else {
		log.Info("MIDI bridge disabled")
	}

	// API server (optional). Its WebSocket hub joins the fan-out.
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log,
			Registry:  reg,
			Snapshots: snapshots,
			Device:    cfg.DeviceID(),
			Bridge:    bridgeMetrics,
			Fanout:    hub,
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		hub.AddSink(apiServer.Hub())
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	// MCP server (optional)
	if cfg.MCP.Enabled {
		mcpServer, mcpErr := mcpserver.New(reg, snapshots, mcpserver.Options{
			Name:     cfg.MCP.Name,
			Version:  version,
			Logger:   log,
			ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
		})
		if mcpErr != nil {
			return fmt.Errorf("creating MCP server: %w", mcpErr)
		}
		go func() {
			serveErr := mcpServer.Serve(ctx, os.Stdin, os.Stdout)
			if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
				log.Error("MCP server stopped", "error", serveErr)
			}
		}()
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if cfg.Snapshot.AutosaveOnShutdown {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		snap, saveErr := snapshots.Save(saveCtx, cfg.Snapshot.Autosave, reg)
		cancel()
		if saveErr != nil {
			log.Error("autosave failed", "name", cfg.Snapshot.Autosave, "error", saveErr)
		} else {
			log.Info("state autosaved", "name", snap.Name, "values", snap.Values)
		}
	}

	// Deferred: API, MIDI bridge, fan-out drain, InfluxDB, MQTT, database.
	log.Info("xgparamd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses XGPARAM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("XGPARAM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildRegistry merges the configured descriptor packs into the built-in
// catalog and populates a new registry.
func buildRegistry(cfg config.DeviceConfig) (*xgparam.Registry, error) {
	catalog := xgdata.NewCatalog()
	for _, path := range cfg.Packs {
		pack, err := xgdata.LoadPack(path)
		if err != nil {
			return nil, fmt.Errorf("loading descriptor pack: %w", err)
		}
		if err := catalog.Merge(pack); err != nil {
			return nil, fmt.Errorf("merging descriptor pack %s: %w", path, err)
		}
	}

	reg := xgparam.NewRegistry()
	if err := xgdata.Populate(reg, catalog, xgdata.Options{
		Parts:      cfg.Parts,
		DrumSetups: cfg.DrumSetups,
	}); err != nil {
		return nil, fmt.Errorf("populating registry: %w", err)
	}
	return reg, nil
}

// startFanout runs the hub until the returned stop function is called.
// Stop waits for queued events to drain.
func startFanout(ctx context.Context, hub *fanout.Hub, log *logging.Logger) func() {
	fanCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hub.Run(fanCtx); err != nil {
			log.Warn("fan-out stopped", "error", err)
		}
	}()
	return func() {
		log.Info("draining fan-out", "pending", hub.Stats().Pending)
		cancel()
		wg.Wait()
	}
}

// startMIDIBridge opens the configured ports and starts the bridge.
//
// Parameters:
//   - ctx: Context for the bridge's writer and start-up sync
//   - cfg: Application configuration
//   - reg: Registry to mirror
//   - log: Logger instance
//
// Returns:
//   - *midi.Bridge: Running bridge
//   - error: If a port cannot be opened or the bridge fails to start
func startMIDIBridge(ctx context.Context, cfg *config.Config, reg *xgparam.Registry, log *logging.Logger) (*midi.Bridge, error) {
	out, err := midi.OpenPort(cfg.MIDI.OutPort)
	if err != nil {
		outs, ins := midi.PortNames()
		log.Error("MIDI output not available", "want", cfg.MIDI.OutPort, "outputs", outs, "inputs", ins)
		return nil, err
	}

	var in midi.Listener
	if cfg.MIDI.InPort != "" {
		inPort, inErr := midi.OpenInput(cfg.MIDI.InPort)
		if inErr != nil {
			_ = out.Close()
			return nil, inErr
		}
		in = inPort
	}

	bridge, err := midi.NewBridge(midi.Options{
		Registry:       reg,
		Out:            out,
		In:             in,
		Device:         cfg.DeviceID(),
		SendInterval:   cfg.GetSendInterval(),
		SyncOnStart:    cfg.MIDI.SyncOnStart,
		RequestOnStart: cfg.MIDI.RequestOnStart,
		Logger:         log,
	})
	if err != nil {
		_ = out.Close()
		if in != nil {
			_ = in.Close()
		}
		return nil, fmt.Errorf("creating MIDI bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		bridge.Stop()
		return nil, err
	}
	log.Info("MIDI bridge started", "out", out.String(), "in", cfg.MIDI.InPort)
	return bridge, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
