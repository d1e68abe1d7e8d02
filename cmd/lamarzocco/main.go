// Gray Logic La Marzocco Bridge
//
// This is the main entry point for the coffee bridge daemon. It maintains
// a registered installation identity with the La Marzocco cloud, keeps a
// realtime dashboard subscription open, and relays machine state onto the
// Gray Logic MQTT bus:
//   - Machine state and boiler telemetry published under graylogic/.../coffee
//   - Power and steam commands accepted from the bus and relayed to the cloud
//   - Optional telemetry history written to InfluxDB
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/cloud"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/identity"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/infrastructure/settings"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/infrastructure/tsdb"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/machine"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/realtime"
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

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting La Marzocco bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the settings store (holds the installation identity)
	store, err := settings.Open(settings.Config{
		Path:        cfg.Settings.Path,
		WALMode:     cfg.Settings.WALMode,
		BusyTimeout: cfg.Settings.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer func() {
		log.Info("closing settings store")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing settings store", "error", closeErr)
		}
	}()
	log.Info("settings store opened", "path", cfg.Settings.Path)

	// Load the installation identity, or generate a fresh one on first run
	id, fresh, err := loadOrGenerateIdentity(store)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}
	log.Info("installation identity ready", "installation_id", id.ID, "fresh", fresh)

	// Build the cloud session and REST client
	session := cloud.NewSession(cloud.Config{
		BaseURL:  cfg.Cloud.BaseURL,
		Username: cfg.Cloud.Username,
		Password: cfg.Cloud.Password,
	}, id, &http.Client{Timeout: cfg.GetHTTPTimeout()})
	session.SetLogger(log)
	api := cloud.NewClient(session)

	// A fresh identity must be registered before any authenticated call.
	// Persist only after the cloud has accepted it, so a failed first run
	// retries registration with a new identity instead of limping along
	// with an unregistered one.
	if fresh {
		if regErr := api.Register(ctx); regErr != nil {
			return fmt.Errorf("registering installation: %w", regErr)
		}
		if saveErr := identity.Save(store, id); saveErr != nil {
			return fmt.Errorf("persisting identity: %w", saveErr)
		}
		log.Info("installation registered", "installation_id", id.ID)
	}

	// Machine facade for the configured serial
	mach, err := machine.New(cfg.Cloud.Serial, api)
	if err != nil {
		return fmt.Errorf("creating machine: %w", err)
	}

	// Connect to the Gray Logic MQTT bus (optional)
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
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		if subErr := subscribeCommands(ctx, mqttClient, cfg, mach, log); subErr != nil {
			return fmt.Errorf("subscribing to command topics: %w", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB for telemetry history (optional)
	var recorder *tsdb.Recorder
	if cfg.InfluxDB.Enabled {
		recorder, err = tsdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		recorder.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Realtime dashboard channel
	channel, err := realtime.NewChannel(realtime.Options{
		Config: realtime.Config{
			URL:  cfg.Cloud.WebsocketURL,
			Host: cfg.Cloud.Host,
		},
		Tokens:    session,
		Signer:    id,
		OnMessage: dashboardHandler(cfg.Cloud.Serial, mach, mqttClient, byte(cfg.MQTT.QoS), recorder, log),
	})
	if err != nil {
		return fmt.Errorf("creating realtime channel: %w", err)
	}
	channel.SetLogger(log)
	channel.SetOnDisconnect(func(err error) {
		log.Warn("realtime channel lost", "error", err)
	})
	channel.SetOnProtocolError(func(frame codec.Frame) {
		log.Error("realtime protocol error", "body", frame.Body)
	})
	defer func() {
		log.Info("closing realtime channel")
		channel.Disconnect()
	}()

	if connErr := channel.Connect(ctx, cfg.Cloud.Serial); connErr != nil {
		// Not fatal: the reconnect loop keeps trying.
		log.Warn("initial realtime connect failed", "error", connErr)
	} else {
		log.Info("realtime channel connecting", "serial", cfg.Cloud.Serial)
	}

	// Reconnect poll: the channel never reconnects itself, so check it on
	// a fixed cadence and redial when it has dropped.
	go reconnectLoop(ctx, channel, cfg, log)

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, store, mqttClient, recorder); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Realtime channel
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Settings store

	log.Info("La Marzocco bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LMBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LMBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - store: Settings store to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - recorder: InfluxDB recorder to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, store *settings.Store, mqttClient *mqtt.Client, recorder *tsdb.Recorder) error {
	if err := store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if recorder != nil {
		if err := recorder.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Realtime channel health is deliberately excluded: the cloud may be
	// unreachable at startup and the reconnect loop owns recovery.

	return nil
}

// loadOrGenerateIdentity loads the persisted installation identity, creating
// a new one when the store holds none.
//
// Parameters:
//   - store: Settings store holding the identity fields
//
// Returns:
//   - *identity.Identity: Loaded or freshly generated identity
//   - bool: true when the identity is fresh and still needs registration
//   - error: Storage or key-generation failure
func loadOrGenerateIdentity(store *settings.Store) (*identity.Identity, bool, error) {
	id, err := identity.Load(store)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, identity.ErrIdentityMissing) {
		return nil, false, err
	}

	id, err = identity.Generate(uuid.NewString())
	if err != nil {
		return nil, false, err
	}
	return id, true, nil
}

// switchCommand is the payload accepted on the bus command topics.
type switchCommand struct {
	On bool `json:"on"`
}

// commandAspect extracts the aspect segment from a command topic,
// e.g. "graylogic/command/coffee/MR123456/power" yields "power".
func commandAspect(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}

// subscribeCommands wires the bus command topics to the machine.
//
// Accepted aspects:
//   - power: {"on": true|false} switches between brewing mode and standby
//   - steam: {"on": true|false} enables or disables the steam boiler
func subscribeCommands(ctx context.Context, client *mqtt.Client, cfg *config.Config, mach *machine.Machine, log *logging.Logger) error {
	topics := mqtt.Topics{}
	topic := topics.AllCommands(cfg.Cloud.Serial)

	return client.Subscribe(topic, byte(cfg.MQTT.QoS), func(topic string, payload []byte) error {
		var cmd switchCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			log.Warn("ignoring malformed command payload", "topic", topic, "error", err)
			return nil
		}

		cmdCtx, cancel := context.WithTimeout(ctx, cfg.GetHTTPTimeout())
		defer cancel()

		aspect := commandAspect(topic)
		var err error
		switch aspect {
		case "power":
			err = mach.SetPower(cmdCtx, cmd.On)
		case "steam":
			err = mach.SetSteam(cmdCtx, cmd.On)
		default:
			log.Warn("ignoring unknown command aspect", "topic", topic, "aspect", aspect)
			return nil
		}
		if err != nil {
			log.Error("command relay failed", "aspect", aspect, "on", cmd.On, "error", err)
			return err
		}
		log.Info("command relayed", "aspect", aspect, "on", cmd.On)
		return nil
	})
}

// statePayload is the retained machine state published on the state topic.
type statePayload struct {
	Power   bool `json:"power"`
	Steam   bool `json:"steam"`
	Brewing bool `json:"brewing"`
	NoWater bool `json:"no_water"`
}

// telemetryPayload is the boiler detail published on the telemetry topic.
type telemetryPayload struct {
	Status       string  `json:"status,omitempty"`
	Mode         string  `json:"mode,omitempty"`
	CoffeeStatus string  `json:"coffee_status,omitempty"`
	CoffeeTarget float64 `json:"coffee_target,omitempty"`
	SteamStatus  string  `json:"steam_status,omitempty"`
	SteamLevel   string  `json:"steam_level,omitempty"`
}

// alertPayload is published on the alert topic when the machine raises
// a no-water condition.
type alertPayload struct {
	Alert  string `json:"alert"`
	Active bool   `json:"active"`
}

// dashboardHandler returns the realtime message handler: decode the
// dashboard document, fold it into the machine state, and fan the result
// out to the MQTT bus and the telemetry recorder.
//
// A nil mqttClient or recorder disables that output. Decode failures are
// logged and dropped; the subscription stays up.
func dashboardHandler(serial string, mach *machine.Machine, mqttClient *mqtt.Client, qos byte, recorder *tsdb.Recorder, log *logging.Logger) realtime.MessageHandler {
	topics := mqtt.Topics{}
	var hadNoWater bool

	return func(body string) {
		t, err := machine.DecodeTelemetry(body)
		if err != nil {
			log.Warn("dropping undecodable dashboard message", "error", err)
			return
		}

		changed := mach.Apply(t)
		log.Debug("dashboard message applied",
			"changed", changed,
			"power", mach.PowerOn(),
			"steam", mach.SteamOn(),
			"brewing", mach.Brewing(),
		)

		if mqttClient != nil {
			publishState(mqttClient, topics, serial, mach, t, log)

			if t.NoWater != hadNoWater {
				publishAlert(mqttClient, topics, serial, qos, t.NoWater, log)
			}
		}
		hadNoWater = t.NoWater

		if recorder != nil {
			recorder.RecordTelemetry(serial, t)
		}
	}
}

// publishState publishes the retained state document and, when the message
// carried machine status, the boiler telemetry document.
func publishState(client *mqtt.Client, topics mqtt.Topics, serial string, mach *machine.Machine, t machine.Telemetry, log *logging.Logger) {
	state, err := json.Marshal(statePayload{
		Power:   mach.PowerOn(),
		Steam:   mach.SteamOn(),
		Brewing: mach.Brewing(),
		NoWater: t.NoWater,
	})
	if err != nil {
		log.Error("encoding state payload", "error", err)
		return
	}
	if err := client.PublishRetained(topics.State(serial), state); err != nil {
		log.Error("publishing state", "error", err)
	}

	if !t.HasMachineStatus {
		return
	}

	telemetry, err := json.Marshal(telemetryPayload{
		Status:       t.MachineStatus,
		Mode:         t.MachineMode,
		CoffeeStatus: t.Coffee.Status,
		CoffeeTarget: t.Coffee.TargetTemperature,
		SteamStatus:  t.Steam.Status,
		SteamLevel:   t.Steam.TargetLevel,
	})
	if err != nil {
		log.Error("encoding telemetry payload", "error", err)
		return
	}
	if err := client.PublishRetained(topics.Telemetry(serial), telemetry); err != nil {
		log.Error("publishing telemetry", "error", err)
	}
}

// publishAlert publishes a no-water alert transition (raise or clear).
func publishAlert(client *mqtt.Client, topics mqtt.Topics, serial string, qos byte, active bool, log *logging.Logger) {
	payload, err := json.Marshal(alertPayload{Alert: "no_water", Active: active})
	if err != nil {
		log.Error("encoding alert payload", "error", err)
		return
	}
	if err := client.Publish(topics.Alert(serial), payload, qos, false); err != nil {
		log.Error("publishing alert", "error", err)
	}
	log.Warn("no-water alert", "active", active)
}

// reconnectLoop polls the realtime channel on the configured cadence and
// redials whenever it has dropped. Runs until ctx is cancelled.
func reconnectLoop(ctx context.Context, channel *realtime.Channel, cfg *config.Config, log *logging.Logger) {
	ticker := time.NewTicker(cfg.GetReconnectInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if channel.IsConnected() {
				continue
			}
			// Clear any half-open state before redialling.
			channel.Disconnect()
			if err := channel.Connect(ctx, cfg.Cloud.Serial); err != nil {
				log.Warn("realtime reconnect failed", "error", err)
			} else {
				log.Info("realtime channel reconnecting")
			}
		}
	}
}
