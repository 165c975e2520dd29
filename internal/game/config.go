package game

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/mapgen"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// SharingMode decides how many value tables back the units of a game.
type SharingMode string

const (
	// ShareNone gives every unit its own table.
	ShareNone SharingMode = "unit"
	// ShareTeam gives each team one table.
	ShareTeam SharingMode = "team"
	// ShareAll backs every unit of both teams with one table. Observations
	// are orientation-normalized, so this is symmetric self-play.
	ShareAll SharingMode = "shared"
)

const (
	DefaultWidth        = 9
	DefaultHeight       = 16
	DefaultUnitsPerTeam = 1
	DefaultJailTimer    = 5
)

// GameConfig holds everything needed to construct a game.
type GameConfig struct {
	// Board is used as-is when set. Otherwise Layout is parsed, and if that
	// is empty too a walled Width x Height rectangle is generated.
	Board  *core.Board
	Layout []string
	Width  int
	Height int
	// WallRatio scatters symmetric pillars over a generated board, one pair
	// per WallRatio candidate cells. MapSeed makes the layout reproducible.
	WallRatio int
	MapSeed   uint64

	// UnitsPerTeam is used for default placement when UnitPositions is empty.
	UnitsPerTeam int
	// UnitPositions places units explicitly, in grid coordinates.
	UnitPositions [2][]core.Position
	// FlagPositions places flags explicitly; empty means baseline centres.
	FlagPositions []core.Position

	JailTimer    int
	GuardPenalty float64

	Sharing       SharingMode
	Store         qlearning.TableStore // nil disables import and export
	ImportDir     string
	ExportEvery   int
	SeedTransform qlearning.KeyTransform

	GameID string
	Logger zerolog.Logger
	Events events.Publisher
}

// DefaultGameConfig returns a single-unit game on a 16x9 walled board.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		UnitsPerTeam: DefaultUnitsPerTeam,
		JailTimer:    DefaultJailTimer,
		Sharing:      ShareNone,
		ExportEvery:  1,
		Logger:       zerolog.Nop(),
	}
}

func (cfg *GameConfig) board() (*core.Board, error) {
	switch {
	case cfg.Board != nil:
		return cfg.Board, nil
	case len(cfg.Layout) > 0:
		return core.ParseBoard(cfg.Layout)
	}
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	if w < 3 || h < 3 {
		return nil, core.WrapConfigError("board size", fmt.Errorf("%w: %dx%d leaves no interior", core.ErrNoOpenCells, h, w))
	}
	if cfg.WallRatio < 0 {
		return nil, core.WrapConfigError("wall ratio", fmt.Errorf("must be non-negative, got %d", cfg.WallRatio))
	}
	gen := mapgen.NewGenerator(mapgen.MapConfig{Width: w, Height: h, WallRatio: cfg.WallRatio}, rand.New(rand.NewSource(cfg.MapSeed)))
	return gen.GenerateMap(), nil
}

// unitSpawns returns the spawn cells of both teams. Default placement spaces
// team 0 evenly along row H-2 and mirrors it for team 1.
func (cfg *GameConfig) unitSpawns(b *core.Board) ([2][]core.Position, error) {
	explicit := cfg.UnitPositions
	if len(explicit[0]) > 0 || len(explicit[1]) > 0 {
		if len(explicit[0]) != len(explicit[1]) {
			return explicit, core.WrapConfigError("units", fmt.Errorf("%w: %d vs %d", core.ErrUnitCountMismatch, len(explicit[0]), len(explicit[1])))
		}
		return explicit, nil
	}

	n := cfg.UnitsPerTeam
	if n == 0 {
		n = DefaultUnitsPerTeam
	}
	if n < 0 {
		return explicit, core.WrapConfigError("units", core.ErrNoUnits)
	}
	if n > b.W-2 {
		return explicit, core.WrapConfigError("units", fmt.Errorf("%w: %d units on a baseline of %d cells", core.ErrTooManyUnits, n, b.W-2))
	}

	var spawns [2][]core.Position
	for i := 0; i < n; i++ {
		p := core.Position{Row: b.H - 2, Col: 1 + (i+1)*(b.W-2)/(n+1)}
		spawns[core.Team0] = append(spawns[core.Team0], p)
		spawns[core.Team1] = append(spawns[core.Team1], b.Rotate(p))
	}
	return spawns, nil
}

func (cfg *GameConfig) flagSpawns(b *core.Board) ([2]core.Position, error) {
	var spawns [2]core.Position
	switch len(cfg.FlagPositions) {
	case 0:
		spawns[core.Team0] = core.Position{Row: b.H - 2, Col: b.W / 2}
		spawns[core.Team1] = b.Rotate(spawns[core.Team0])
	case 2:
		spawns[core.Team0], spawns[core.Team1] = cfg.FlagPositions[0], cfg.FlagPositions[1]
	default:
		return spawns, core.WrapConfigError("flags", fmt.Errorf("%w: got %d", core.ErrFlagCount, len(cfg.FlagPositions)))
	}
	return spawns, nil
}

func checkSpawn(b *core.Board, field string, p core.Position) error {
	if !b.InBounds(p) || !b.IsOpen(p) {
		return core.WrapConfigError(field, fmt.Errorf("%w: %s", core.ErrSpawnBlocked, p))
	}
	return nil
}
