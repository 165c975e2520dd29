package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/config"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/trainer"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	seed := flag.Uint64("seed", 0, "RNG seed (0 to use config default)")
	importDir := flag.String("import-dir", "", "Directory of value tables to seed from (empty to use config default)")
	seedTransform := flag.String("seed-transform", "", "Map live keys onto imported keys: none or project:<allies>,<enemies> (empty to use config default)")
	epsilon := flag.Float64("epsilon", -1, "Exploration rate (-1 to use config default)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if *importDir != "" {
		if err := config.Set("persistence.import_dir", *importDir); err != nil {
			log.Fatal().Err(err).Msg("Invalid import directory")
		}
	}
	if *seedTransform != "" {
		if err := config.Set("persistence.seed_transform", *seedTransform); err != nil {
			log.Fatal().Err(err).Msg("Invalid seed transform")
		}
	}
	if *epsilon >= 0 {
		if err := config.Set("training.epsilon", *epsilon); err != nil {
			log.Fatal().Err(err).Msg("Invalid exploration rate")
		}
	}

	session, err := trainer.NewSession(config.Get(), trainer.Options{Seed: *seed}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create training session")
	}

	viewer, err := ui.NewViewer(session.Model, session.Hook(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create viewer")
	}

	if err := ui.Run(viewer); err != nil {
		log.Fatal().Err(err).Msg("Viewer exited with error")
	}
	if err := session.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close training session")
	}
}
