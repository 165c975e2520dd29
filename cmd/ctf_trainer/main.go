package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/config"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/grpc/snapshotserver"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/monitoring"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/trainer"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	steps := flag.Int("steps", -1, "Training steps, 0 for no limit (-1 to use config default)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	renderEvery := flag.Int("render-every", -1, "Print a board frame every N steps, 0 to disable (-1 to use config default)")
	importDir := flag.String("import-dir", "", "Directory of value tables to seed from (empty to use config default)")
	seedTransform := flag.String("seed-transform", "", "Map live keys onto imported keys: none or project:<allies>,<enemies> (empty to use config default)")
	exportDir := flag.String("export-dir", "", "Directory to export value tables to; enables file persistence")
	sharing := flag.String("sharing", "", "Table sharing mode: unit, team or shared (empty to use config default)")
	reportPath := flag.String("report", "", "Write a training chart to this HTML file")
	serve := flag.Bool("serve", false, "Serve snapshots over gRPC")
	watch := flag.Bool("watch", false, "Reload learning parameters when the config file changes")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}

	// Use config defaults if not overridden by flags
	if *steps >= 0 {
		override("training.steps", *steps)
	}
	if *renderEvery >= 0 {
		override("training.render_every", *renderEvery)
	}
	if *importDir != "" {
		override("persistence.import_dir", *importDir)
	}
	if *seedTransform != "" {
		override("persistence.seed_transform", *seedTransform)
	}
	if *exportDir != "" {
		override("persistence.type", "file")
		override("persistence.dir", *exportDir)
	}
	if *sharing != "" {
		override("game.sharing", *sharing)
	}
	if *reportPath != "" {
		override("report.enabled", true)
		override("report.path", *reportPath)
	}
	if *serve {
		override("server.snapshot_server.enabled", true)
	}
	cfg := config.Get()
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}

	setupLogging(*logLevel, cfg.Server.LogFormat)

	session, err := trainer.NewSession(cfg, trainer.Options{
		Frames:  os.Stdout,
		Colored: cfg.Server.LogFormat != "json",
		Seed:    *seed,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create training session")
	}

	log.Info().
		Str("run_id", session.RunID).
		Int("steps", cfg.Training.Steps).
		Int("width", session.Game.Board.W).
		Int("height", session.Game.Board.H).
		Int("units_per_team", len(session.Game.Units[0])).
		Str("sharing", cfg.Game.Sharing).
		Str("persistence", cfg.Persistence.Type).
		Str("seed_transform", cfg.Persistence.SeedTransform).
		Msg("Starting capture-the-flag trainer")

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		config.WatchConfig(func(c *config.Config, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Ignoring invalid config change")
				return
			}
			if err := session.ApplyConfig(c); err != nil {
				log.Warn().Err(err).Msg("Failed to apply config change")
			}
		})
		log.Info().Str("path", config.ConfigFilePath()).Msg("Watching config for changes")
	}

	var server *snapshotserver.Server
	if cfg.Server.SnapshotServer.Enabled {
		server, err = startSnapshotServer(cfg.Server.SnapshotServer, session.Snapshots)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start snapshot server")
		}
	}

	monitor := monitoring.NewProgressMonitor(session.Recorder, 30*time.Second, log.Logger)
	monitor.Start()

	runErr := session.Run(ctx)
	monitor.Stop()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error().Err(runErr).Msg("Training stopped with error")
	}
	if err := session.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close training session")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.SnapshotServer.GracefulShutdownDelay+5)*time.Second)
		server.Shutdown(shutdownCtx)
		cancel()
	}

	stats := session.Recorder.Stats()
	log.Info().
		Int("steps", stats.Steps).
		Int("episodes", stats.Episodes).
		Ints("score", stats.Score[:]).
		Ints("captures", stats.Captures[:]).
		Float64("mean_cost", stats.MeanCost).
		Msg("Trainer shutdown complete")
}

// override applies a command line flag on top of the loaded config.
func override(key string, value interface{}) {
	if err := config.Set(key, value); err != nil {
		log.Fatal().Err(err).Str("key", key).Msg("Invalid command line override")
	}
}

func startSnapshotServer(c config.SnapshotServerConfig, store *snapshotserver.SnapshotStore) (*snapshotserver.Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", c.Host, c.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	server := snapshotserver.NewServer(store, snapshotserver.Options{
		EnableReflection: c.EnableReflection,
		ShutdownDelay:    time.Duration(c.GracefulShutdownDelay) * time.Second,
	}, log.Logger)

	go func() {
		if err := server.Serve(lis); err != nil {
			log.Error().Err(err).Msg("Snapshot server stopped")
		}
	}()
	return server, nil
}

func setupLogging(level, format string) {
	// Parse log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Check if we're in production
	if os.Getenv("APP_ENV") == "production" || format == "json" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}
