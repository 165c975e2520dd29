package trainer

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/config"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/grpc/snapshotserver"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/render"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/report"
)

// Options adjusts a session beyond what the configuration holds.
type Options struct {
	// RunID names the game; a random UUID is used when empty.
	RunID string
	// Frames receives a text frame every training.render_every steps.
	Frames  io.Writer
	Colored bool
	// Seed overrides training.seed when non-zero.
	Seed uint64
}

// Session wires a game, its value tables and the training loop together
// with the observers that watch it.
type Session struct {
	RunID     string
	Config    *config.Config
	Store     qlearning.TableStore
	Bus       *events.EventBus
	// Game is the initial state. The model commits a new state every step;
	// use State for the current one.
	Game      *game.GameState
	Model     *qlearning.Model
	Recorder  *report.Recorder
	Snapshots *snapshotserver.SnapshotStore

	frames *render.TextRenderer
	logger zerolog.Logger
}

// NewSession builds everything a training run needs from cfg.
func NewSession(cfg *config.Config, opts Options, logger zerolog.Logger) (*Session, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger = logger.With().Str("run_id", runID).Logger()

	store, err := qlearning.NewTableStore(cfg.PersistenceConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create table store: %w", err)
	}

	bus := events.NewEventBus(logger)
	if cfg.Development.LogEvents {
		level := zerolog.InfoLevel
		if cfg.Development.VerboseLogging {
			level = zerolog.DebugLevel
		}
		sub := subscribers.NewLoggerSubscriber("event_logger", logger, level)
		sub.SetDevMode(cfg.Development.VerboseLogging)
		if !cfg.Development.VerboseLogging {
			sub.SetEventFilter([]string{
				events.TypeGameStarted,
				events.TypeGoalScored,
				events.TypeEpisodeReset,
			})
		}
		bus.Subscribe(sub)
	}

	gc := cfg.GameConfig()
	gc.GameID = runID
	gc.Store = store
	gc.Logger = logger
	gc.Events = bus
	gs, err := game.NewGame(gc)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Training.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Info().Uint64("seed", seed).Msg("Seeding training RNG")

	model, err := qlearning.NewModel(gs, cfg.Params(), rand.New(rand.NewSource(seed)), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	s := &Session{
		RunID:     runID,
		Config:    cfg,
		Store:     store,
		Bus:       bus,
		Game:      gs,
		Model:     model,
		Recorder:  report.NewRecorder(cfg.Report.Window),
		Snapshots: snapshotserver.NewSnapshotStore(),
		logger:    logger.With().Str("component", "trainer").Logger(),
	}
	if opts.Frames != nil {
		s.frames = render.NewTextRenderer(opts.Frames, opts.Colored)
	}
	s.Snapshots.Publish(gs.Snapshot(), snapshotserver.StepInfo{})
	return s, nil
}

// State returns the model's current game state.
func (s *Session) State() *game.GameState {
	return s.Model.State().(*game.GameState)
}

// Hook returns the step hook that feeds every observer.
func (s *Session) Hook() qlearning.StepHook {
	recordStep := s.Recorder.Hook()
	publish := s.Snapshots.Hook()
	renderEvery := s.Config.Training.RenderEvery
	logEvery := s.Config.Training.LogEvery

	return func(state qlearning.Environment, result qlearning.StepResult) {
		recordStep(state, result)
		publish(state, result)

		gs, ok := state.(*game.GameState)
		if !ok {
			return
		}
		if s.frames != nil && renderEvery > 0 && result.Step%renderEvery == 0 {
			if err := s.frames.Render(gs.Snapshot()); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to render frame")
			}
		}
		if logEvery > 0 && result.Step%logEvery == 0 {
			stats := s.Recorder.Stats()
			s.logger.Info().
				Int("step", result.Step).
				Int("episode", gs.Episode).
				Ints("score", gs.Score[:]).
				Ints("captures", gs.Captures[:]).
				Float64("mean_cost", stats.MeanCost).
				Float64("window_mean_cost", stats.WindowMeanCost).
				Dur("step_duration", result.Duration).
				Msg("Training step")
		}
	}
}

// Run trains for training.steps steps (0 runs until ctx is cancelled).
func (s *Session) Run(ctx context.Context) error {
	return s.Model.Run(ctx, s.Config.Training.Steps, s.Hook())
}

// ApplyConfig applies a reloaded configuration. Only the learning
// parameters can change during a run; other differences are logged.
func (s *Session) ApplyConfig(c *config.Config) error {
	if err := s.Model.SetParams(c.Params()); err != nil {
		return err
	}
	if !reflect.DeepEqual(c.Game, s.Config.Game) || !reflect.DeepEqual(c.Persistence, s.Config.Persistence) {
		s.logger.Warn().Msg("Game and persistence settings changed; restart to apply them")
	}
	return nil
}

// Close writes the training report if enabled and logs persistence totals.
func (s *Session) Close() error {
	stats := s.Store.Stats()
	s.logger.Info().
		Int64("saves", stats.Saves).
		Int64("save_errors", stats.SaveErrors).
		Int64("loads", stats.Loads).
		Int64("bytes_written", stats.BytesWritten).
		Int("steps", s.Model.Steps()).
		Msg("Training session closed")

	if !s.Config.Report.Enabled {
		return nil
	}
	if err := s.Recorder.WriteFile(s.Config.Report.Path); err != nil {
		return err
	}
	s.logger.Info().Str("path", s.Config.Report.Path).Msg("Wrote training report")
	return nil
}
