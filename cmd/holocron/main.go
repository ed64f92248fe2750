// Holocron - example GraphQL server for Human records.
//
// Holocron serves a small GraphQL schema over HTTP and streams humanCreated
// events to WebSocket subscribers. Created humans can optionally be mirrored
// to MQTT and recorded in InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/holocron/internal/api"
	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/graphql"
	"github.com/nerrad567/holocron/internal/human"
	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/database"
	"github.com/nerrad567/holocron/internal/infrastructure/influxdb"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
	"github.com/nerrad567/holocron/internal/infrastructure/mqtt"
	"github.com/nerrad567/holocron/internal/relay"
	"github.com/nerrad567/holocron/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "HOLOCRON_CONFIG"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configPath  string
	port        int
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("holocron", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config file (default $"+configEnvVar+" or "+defaultConfigPath+")")
	fs.IntVarP(&opts.port, "port", "p", 0, "override api.port")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// resolveConfigPath picks the config file: flag, then environment, then the
// default path. Only the default path may be missing.
func resolveConfigPath(flagPath string) (path string, optional bool) {
	if flagPath != "" {
		return flagPath, false
	}
	if env := os.Getenv(configEnvVar); env != "" {
		return env, false
	}
	return defaultConfigPath, true
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Printf("holocron %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	path, optional := resolveConfigPath(opts.configPath)
	cfg, err := config.Load(path, optional)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.port != 0 {
		cfg.API.Port = opts.port
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting Holocron",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", path,
	)

	return serve(ctx, cfg, log)
}

// serve wires every component and blocks until ctx is cancelled or the HTTP
// server fails. Deferred closes run in reverse order of construction.
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	checks := make(map[string]api.HealthChecker)

	repo, closeRepo, err := openRepository(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	bus := eventbus.New[human.Human](cfg.EventBus.Capacity)
	defer bus.Close()

	executor, err := graphql.NewExecutor(graphql.Deps{
		Repo:       repo,
		Bus:        bus,
		Logger:     log,
		APIVersion: cfg.GraphQL.APIVersion,
	})
	if err != nil {
		return fmt.Errorf("creating graphql executor: %w", err)
	}

	relayCfg := relay.Config{Bus: bus, Logger: log}

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient
		relayCfg.Publisher = mqttClient
		relayCfg.Topic = mqttClient.Topics().Event(relay.EventHumanCreated)
		relayCfg.QoS = mqttClient.QoS()
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		checks["influxdb"] = influxClient
		relayCfg.Writer = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	var recorder api.SessionRecorder
	if relayCfg.Publisher != nil || relayCfg.Writer != nil {
		r := relay.New(relayCfg)
		r.Start(ctx)
		defer r.Stop()
		recorder = r
		log.Info("event relay started")
	}

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		GraphQL:   cfg.GraphQL,
		WebSocket: cfg.WebSocket,
		Logger:    log,
		Executor:  executor,
		Bus:       bus,
		Recorder:  recorder,
		Checks:    checks,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	serverErr := make(chan error, 1)
	if err := server.Start(serverErr); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-serverErr:
			return fmt.Errorf("API server: %w", err)
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		if err := server.Close(); err != nil {
			return err
		}
		bus.Close()
		return nil
	})

	log.Info("initialisation complete, waiting for shutdown signal",
		"graphql", cfg.GraphQL.Path,
		"websocket", cfg.WebSocket.Path,
	)

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Holocron stopped")
	return nil
}

// openRepository builds the configured human repository. For the sqlite
// driver it opens and migrates the database and registers a health check.
func openRepository(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (human.Repository, func(), error) {
	if cfg.Storage.Driver != config.StorageDriverSQLite {
		log.Info("using stub human repository")
		return human.NewStubRepository(), func() {}, nil
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closeDB := func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	checks["database"] = db
	return human.NewSQLiteRepository(db.DB), closeDB, nil
}
