// Acre Intrusion Core
//
// This is the main entry point for the Acre Intrusion service. It bridges
// an intrusion panel gateway on MQTT to local clients: areas can be armed
// and disarmed over HTTP with a six-digit user code, and an installer
// manages those codes after unlocking with the admin PIN.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kimballen/acre-Intrusion/internal/alarm"
	"github.com/kimballen/acre-Intrusion/internal/api"
	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/gateway"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/database"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/influxdb"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/metrics"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/mqtt"
	"github.com/kimballen/acre-Intrusion/internal/pinstore"
	"github.com/kimballen/acre-Intrusion/internal/setup"
	"github.com/kimballen/acre-Intrusion/internal/storage"
	"github.com/kimballen/acre-Intrusion/migrations"
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

// run is the application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,funlen // Startup wiring reads top to bottom
	log := logging.Default()
	log.Info("starting Acre Intrusion Core",
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
	log.Info("configuration loaded", "path", configPath, "site", cfg.Site.ID)

	db, err := database.Open(ctx, cfg.Database)
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
	log.Info("database ready", "path", cfg.Database.Path)

	// Credentials
	backend, err := storage.NewBackend(cfg.Storage, db.DB)
	if err != nil {
		return fmt.Errorf("creating credential storage: %w", err)
	}
	creds := pinstore.New(storage.New(backend, pinstore.StorageKey, pinstore.StorageVersion), log)
	if loadErr := creds.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading credentials: %w", loadErr)
	}
	if !creds.HasAdmin() {
		log.Warn("no admin PIN configured; complete setup via POST /api/v1/setup/admin or acrectl setup-admin")
	}

	m := metrics.New()
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, audit.SourceAPI, log)

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

	// Panel gateway over MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
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
		log.Info("MQTT connected")
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	areas := alarm.NewRegistry()
	alarm.ObserveAreas(areas, influxClient, m)

	gw := gateway.New(mqttClient, mqttClient.Topics(), mqttClient.QoS(), areas, log)
	if startErr := gw.Start(); startErr != nil {
		return fmt.Errorf("starting gateway adapter: %w", startErr)
	}

	controller := alarm.NewController(alarm.Deps{
		Verifier:  creds,
		Gateway:   gw,
		Registry:  areas,
		Audit:     recorder,
		Telemetry: influxClient,
		Metrics:   m,
		Logger:    log,
	})

	health := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}
	if influxClient != nil {
		health["influxdb"] = influxClient
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Panel:      cfg.Panel,
		Logger:     log,
		Setup:      setup.NewService(creds, recorder, m, log),
		Controller: controller,
		Areas:      areas,
		AuditRepo:  auditRepo,
		Metrics:    m,
		Health:     health,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns ACRE_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("ACRE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
