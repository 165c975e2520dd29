package game

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// GameState is a capture-the-flag game. It implements qlearning.Environment
// and is owned by a single training loop; it is not safe for concurrent use.
type GameState struct {
	Board     *core.Board
	Units     [2][]*core.Unit
	Flags     [2]*core.Flag
	Turn      int
	Episode   int
	Score     [2]int
	Captures  [2]int
	JailTimer int

	GuardPenalty float64

	gameID string
	logger zerolog.Logger
	events events.Publisher
}

var _ qlearning.Environment = (*GameState)(nil)

// NewGame validates cfg and places every piece on its spawn. Configuration
// errors are returned as *core.ConfigError.
func NewGame(cfg GameConfig) (*GameState, error) {
	if cfg.GameID == "" {
		cfg.GameID = uuid.NewString()
	}
	logger := cfg.Logger.With().Str("component", "ctf_game").Str("game_id", cfg.GameID).Logger()

	if cfg.JailTimer < 0 {
		return nil, core.WrapConfigError("jail timer", fmt.Errorf("%w: %d", core.ErrInvalidJailTimer, cfg.JailTimer))
	}

	board, err := cfg.board()
	if err != nil {
		return nil, err
	}
	if err := board.Validate(); err != nil {
		return nil, core.WrapConfigError("board", err)
	}

	unitSpawns, err := cfg.unitSpawns(board)
	if err != nil {
		return nil, err
	}
	flagSpawns, err := cfg.flagSpawns(board)
	if err != nil {
		return nil, err
	}
	for _, team := range core.Teams {
		for _, p := range unitSpawns[team] {
			if err := checkSpawn(board, "units", p); err != nil {
				return nil, err
			}
		}
		if err := checkSpawn(board, "flags", flagSpawns[team]); err != nil {
			return nil, err
		}
	}

	policies := newPolicyFactory(cfg, logger)
	gs := &GameState{
		Board:        board,
		JailTimer:    cfg.JailTimer,
		GuardPenalty: cfg.GuardPenalty,
		gameID:       cfg.GameID,
		logger:       logger,
		events:       cfg.Events,
	}
	for _, team := range core.Teams {
		for i, p := range unitSpawns[team] {
			name := fmt.Sprintf("t%du%d", team, i)
			gs.Units[team] = append(gs.Units[team], core.NewUnit(name, team, p, policies.actor(name, team)))
		}
		gs.Flags[team] = core.NewFlag(team, flagSpawns[team])
	}

	logger.Info().
		Int("width", board.W).
		Int("height", board.H).
		Int("units_per_team", len(gs.Units[core.Team0])).
		Int("jail_timer", gs.JailTimer).
		Str("sharing", string(policies.mode)).
		Int("tables", len(policies.actors)).
		Msg("Game created")
	gs.publish(events.NewGameStartedEvent(gs.gameID, board.W, board.H, len(gs.Units[core.Team0]), gs.JailTimer))

	return gs, nil
}

// GameID returns the identifier attached to logs and events.
func (gs *GameState) GameID() string { return gs.gameID }

// Agents returns team 0's units followed by team 1's, in insertion order.
func (gs *GameState) Agents() []qlearning.Agent {
	agents := make([]qlearning.Agent, 0, len(gs.Units[0])+len(gs.Units[1]))
	for _, team := range core.Teams {
		for _, u := range gs.Units[team] {
			agents = append(agents, u)
		}
	}
	return agents
}

// AllUnits is Agents with concrete types.
func (gs *GameState) AllUnits() []*core.Unit {
	units := make([]*core.Unit, 0, len(gs.Units[0])+len(gs.Units[1]))
	units = append(units, gs.Units[core.Team0]...)
	return append(units, gs.Units[core.Team1]...)
}

// Pieces returns every unit followed by both flags.
func (gs *GameState) Pieces() []core.Piece {
	pieces := make([]core.Piece, 0, len(gs.Units[0])+len(gs.Units[1])+2)
	for _, u := range gs.AllUnits() {
		pieces = append(pieces, u)
	}
	return append(pieces, gs.Flags[core.Team0], gs.Flags[core.Team1])
}

// Copy deep-copies the pieces. The board, actors, logger and event
// publisher are shared.
func (gs *GameState) Copy() *GameState {
	c := *gs
	for _, team := range core.Teams {
		c.Units[team] = make([]*core.Unit, len(gs.Units[team]))
		for i, u := range gs.Units[team] {
			c.Units[team][i] = u.Clone()
		}
		c.Flags[team] = gs.Flags[team].Clone()
	}
	return &c
}

// Clone implements qlearning.Environment.
func (gs *GameState) Clone() qlearning.Environment { return gs.Copy() }

// Equal compares units structurally. Counters and flags are not part of the
// identity of a state.
func (gs *GameState) Equal(other *GameState) bool {
	for _, team := range core.Teams {
		if len(gs.Units[team]) != len(other.Units[team]) {
			return false
		}
		for i, u := range gs.Units[team] {
			if !u.Equal(other.Units[team][i]) {
				return false
			}
		}
	}
	return true
}

// Hash is consistent with Equal.
func (gs *GameState) Hash() uint64 {
	const prime = 31
	h := uint64(1)
	for _, team := range core.Teams {
		h = prime*h + core.HashUnits(gs.Units[team])
	}
	return h
}

func (gs *GameState) unitOf(agent qlearning.Agent) *core.Unit {
	u, ok := agent.(*core.Unit)
	if ok {
		for _, member := range gs.Units[u.Team] {
			if member == u {
				return u
			}
		}
	}
	panic(core.WrapContractError("agent lookup", fmt.Errorf("%w: %T", core.ErrNotAUnit, agent)))
}

func (gs *GameState) publish(e events.Event) {
	if gs.events != nil {
		gs.events.Publish(e)
	}
}

// policyFactory creates the actors of a game according to its sharing mode.
type policyFactory struct {
	cfg    GameConfig
	mode   SharingMode
	logger zerolog.Logger
	actors map[string]*qlearning.Actor
}

func newPolicyFactory(cfg GameConfig, logger zerolog.Logger) *policyFactory {
	mode := cfg.Sharing
	if mode == "" {
		mode = ShareNone
	}
	return &policyFactory{
		cfg:    cfg,
		mode:   mode,
		logger: logger,
		actors: make(map[string]*qlearning.Actor),
	}
}

func (f *policyFactory) tableName(unit string, team core.Team) string {
	switch f.mode {
	case ShareTeam:
		return team.String()
	case ShareAll:
		return "shared"
	default:
		return unit
	}
}

// actor returns the actor for a unit, creating its table on first use so
// that units sharing a table share one Actor.
func (f *policyFactory) actor(unit string, team core.Team) *qlearning.Actor {
	name := f.tableName(unit, team)
	if a, ok := f.actors[name]; ok {
		return a
	}

	opts := qlearning.TableOptions{Transform: f.cfg.SeedTransform}
	var exporter *qlearning.Exporter
	if store := f.cfg.Store; store != nil {
		if f.cfg.ImportDir != "" {
			path := filepath.Join(f.cfg.ImportDir, filepath.Base(store.Path(name)))
			opts.Seed = qlearning.LoadSeed(store, path, f.logger)
		}
		exporter = qlearning.NewExporter(store, store.Path(name), f.cfg.ExportEvery, f.logger)
	}

	a := qlearning.NewActor(qlearning.NewTable(name, opts), exporter)
	f.actors[name] = a
	return a
}
