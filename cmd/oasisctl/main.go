// Oasis Control - kinetic sand table control daemon
//
// This is the main entry point for the oasisctl daemon. It discovers the
// account's Oasis devices from the cloud, keeps a live state mirror for each
// over the broker connection, and optionally records state history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oasis-home/oasis-control/internal/catalog"
	"github.com/oasis-home/oasis-control/internal/cloud"
	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/history"
	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
	"github.com/oasis-home/oasis-control/internal/infrastructure/logging"
	"github.com/oasis-home/oasis-control/internal/transport/mqtt"
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
	// Credentials and tokens are usually supplied through a local .env
	// during development; a missing file is fine.
	_ = godotenv.Load()

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
	log.Info("starting oasisctl",
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

	// Open the track catalog
	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() {
		log.Info("closing catalog")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing catalog", "error", closeErr)
		}
	}()
	log.Info("catalog opened", "path", cfg.Catalog.Path)

	// Authenticate with the cloud API
	cloudClient, err := connectCloud(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to cloud: %w", err)
	}
	defer cloudClient.Close()

	// Refresh the catalog from the cloud listing when it is empty. A
	// failed refresh degrades to placeholder track names, so it only
	// warns.
	cat, err := loadCatalog(ctx, store, cloudClient, log)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	log.Info("catalog loaded", "tracks", cat.Len())

	// Discover the account's devices
	listing, err := cloudClient.Devices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	if len(listing) == 0 {
		log.Warn("cloud account has no registered devices")
	}

	// Create the broker transport and register every device on it
	mqttClient := mqtt.NewClient(cfg.MQTT)
	mqttClient.SetLogger(log.With("component", "mqtt"))

	fetcher := &catalogFetcher{catalog: cat, cloud: cloudClient}
	devices := make([]*device.Device, 0, len(listing))
	for _, entry := range listing {
		dev := device.New(entry.SerialNumber, entry.Name, entry.Model)
		dev.SetLogger(log.With("component", "device", "serial", entry.SerialNumber))
		dev.SetTrackFetcher(fetcher)

		if regErr := mqttClient.RegisterDevice(dev); regErr != nil {
			return fmt.Errorf("registering device %s: %w", entry.SerialNumber, regErr)
		}
		devices = append(devices, dev)
		log.Info("device registered",
			"serial", entry.SerialNumber,
			"name", entry.Name,
			"model", entry.Model,
		)
	}

	if err := mqttClient.Start(); err != nil {
		return fmt.Errorf("starting MQTT transport: %w", err)
	}
	defer func() {
		log.Info("stopping MQTT transport")
		mqttClient.Stop()
	}()
	log.Info("MQTT transport started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Attach the state-history recorder (optional)
	if cfg.InfluxDB.Enabled {
		recorder, connErr := history.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing history recorder")
			recorder.Close()
		}()
		recorder.SetOnError(func(err error) {
			log.Error("history write error", "error", err)
		})
		for _, dev := range devices {
			recorder.Attach(dev)
		}
		log.Info("history recorder attached",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
			"devices", len(devices),
		)
	} else {
		log.Info("history recorder disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. History recorder (if enabled)
	// 2. MQTT transport
	// 3. Cloud client
	// 4. Catalog store

	log.Info("oasisctl stopped")
	return nil
}

// connectCloud builds the cloud client and ensures it carries a usable
// token, logging in with configured credentials when none is supplied.
//
// Parameters:
//   - ctx: Context for the login request
//   - cfg: Application configuration
//   - log: Logger instance
//
// Returns:
//   - *cloud.Client: Authenticated cloud client
//   - error: If no token or credentials are configured, or login fails
func connectCloud(ctx context.Context, cfg *config.Config, log *logging.Logger) (*cloud.Client, error) {
	client := cloud.NewClient(cfg.Cloud, nil)
	client.SetLogger(log.With("component", "cloud"))

	if client.AccessToken() != "" {
		log.Info("cloud client using configured access token")
		return client, nil
	}

	if cfg.Cloud.Email == "" || cfg.Cloud.Password == "" {
		client.Close()
		return nil, fmt.Errorf("no cloud access token and no credentials configured (set OASIS_CLOUD_TOKEN or OASIS_CLOUD_EMAIL/OASIS_CLOUD_PASSWORD)")
	}

	if err := client.Login(ctx, cfg.Cloud.Email, cfg.Cloud.Password); err != nil {
		client.Close()
		return nil, fmt.Errorf("cloud login: %w", err)
	}
	log.Info("cloud login succeeded", "email", cfg.Cloud.Email)

	return client, nil
}

// loadCatalog materialises the track catalog, refreshing it from the cloud
// first when the local store is empty.
func loadCatalog(ctx context.Context, store *catalog.Store, cloudClient *cloud.Client, log *logging.Logger) (*catalog.Catalog, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting catalog rows: %w", err)
	}

	if count == 0 {
		log.Info("catalog empty, refreshing from cloud")
		written, refreshErr := store.Refresh(ctx, cloudClient)
		if refreshErr != nil {
			log.Warn("catalog refresh failed, track names may be placeholders", "error", refreshErr)
		} else {
			log.Info("catalog refreshed", "tracks", written)
		}
	}

	return store.Load(ctx)
}

// getConfigPath returns the configuration file path.
// Uses OASIS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OASIS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// catalogFetcher resolves track metadata from the local catalog first and
// falls back to the cloud API for tracks the catalog does not carry.
type catalogFetcher struct {
	catalog *catalog.Catalog
	cloud   *cloud.Client
}

// TrackInfo implements device.TrackFetcher.
func (f *catalogFetcher) TrackInfo(ctx context.Context, id int) (catalog.Track, error) {
	if track, ok := f.catalog.Track(id); ok {
		return track, nil
	}
	return f.cloud.TrackInfo(ctx, id)
}
