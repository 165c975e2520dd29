package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/testutil"
)

func TestNewGameDefaults(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)

	assert.Equal(t, 9, gs.Board.W)
	assert.Equal(t, 16, gs.Board.H)
	assert.Equal(t, 5, gs.JailTimer)
	assert.Equal(t, "test-game", gs.GameID())

	require.Len(t, gs.Units[core.Team0], 1)
	require.Len(t, gs.Units[core.Team1], 1)
	u0, u1 := gs.Units[core.Team0][0], gs.Units[core.Team1][0]
	assert.Equal(t, "t0u0", u0.Name)
	assert.Equal(t, "t1u0", u1.Name)
	assert.Equal(t, core.Position{Row: 14, Col: 4}, u0.Position)
	assert.Equal(t, core.Position{Row: 1, Col: 4}, u1.Position)
	assert.Equal(t, core.Position{Row: 14, Col: 4}, gs.Flags[core.Team0].Position)
	assert.Equal(t, core.Position{Row: 1, Col: 4}, gs.Flags[core.Team1].Position)
	assert.True(t, gs.Flags[core.Team0].Grounded)
	assert.True(t, gs.Flags[core.Team1].Grounded)
	assert.Zero(t, gs.Turn)
	assert.Equal(t, [2]int{}, gs.Score)
	assert.Equal(t, [2]int{}, gs.Captures)
}

func TestNewGameDefaultPlacementIsSymmetric(t *testing.T) {
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) {
		cfg.UnitsPerTeam = 3
	})

	cols := []int{}
	for i, u := range gs.Units[core.Team0] {
		assert.Equal(t, 14, u.Position.Row, "team 0 baseline")
		assert.Equal(t, gs.Board.Rotate(u.Position), gs.Units[core.Team1][i].Position)
		cols = append(cols, u.Position.Col)
	}
	assert.Equal(t, []int{2, 4, 6}, cols)
}

func TestNewGameGeneratedPillars(t *testing.T) {
	build := func(seed uint64) *game.GameState {
		return testutil.NewTestGame(t, func(cfg *game.GameConfig) {
			cfg.UnitsPerTeam = 2
			cfg.WallRatio = 4
			cfg.MapSeed = seed
		})
	}

	gs := build(3)
	walls := 0
	for i, tile := range gs.Board.T {
		p := core.FromIndex(i, gs.Board.W)
		assert.Equal(t, tile, gs.Board.T[gs.Board.Idx(gs.Board.Rotate(p))])
		if tile.IsWall() {
			walls++
		}
	}
	assert.Greater(t, walls, 2*9+2*14, "pillars should be placed inside the border")
	assert.Equal(t, gs.Board.String(), build(3).Board.String())

	for _, u := range gs.AllUnits() {
		assert.True(t, gs.Board.IsOpen(u.Position))
	}
}

func TestNewGameExplicitPlacement(t *testing.T) {
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) {
		cfg.Layout = testutil.ArenaLayout
		cfg.UnitPositions = [2][]core.Position{
			{{Row: 6, Col: 1}, {Row: 6, Col: 5}},
			{{Row: 1, Col: 2}, {Row: 1, Col: 4}},
		}
		cfg.FlagPositions = []core.Position{{Row: 6, Col: 3}, {Row: 1, Col: 3}}
	})

	assert.Equal(t, 7, gs.Board.W)
	assert.Equal(t, 8, gs.Board.H)
	assert.Equal(t, core.Position{Row: 6, Col: 5}, gs.Units[core.Team0][1].Position)
	assert.Equal(t, core.Position{Row: 1, Col: 2}, gs.Units[core.Team1][0].InitialPosition)
	assert.Equal(t, core.Position{Row: 1, Col: 3}, gs.Flags[core.Team1].Position)
}

func TestNewGameRejectsNegativeWallRatio(t *testing.T) {
	cfg := game.DefaultGameConfig()
	cfg.WallRatio = -1
	_, err := game.NewGame(cfg)
	var cfgErr *core.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewGameConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *game.GameConfig)
		err    error
	}{
		{
			name:   "negative jail timer",
			mutate: func(cfg *game.GameConfig) { cfg.JailTimer = -1 },
			err:    core.ErrInvalidJailTimer,
		},
		{
			name:   "ragged layout",
			mutate: func(cfg *game.GameConfig) { cfg.Layout = []string{"#####", "#..#"} },
			err:    core.ErrRaggedBoard,
		},
		{
			name:   "open boundary",
			mutate: func(cfg *game.GameConfig) { cfg.Board = core.NewBoard(9, 16) },
			err:    core.ErrOpenBoundary,
		},
		{
			name:   "no interior",
			mutate: func(cfg *game.GameConfig) { cfg.Width = 2 },
			err:    core.ErrNoOpenCells,
		},
		{
			name: "mismatched unit counts",
			mutate: func(cfg *game.GameConfig) {
				cfg.UnitPositions = [2][]core.Position{{{Row: 14, Col: 2}, {Row: 14, Col: 3}}, {{Row: 1, Col: 2}}}
			},
			err: core.ErrUnitCountMismatch,
		},
		{
			name:   "negative unit count",
			mutate: func(cfg *game.GameConfig) { cfg.UnitsPerTeam = -2 },
			err:    core.ErrNoUnits,
		},
		{
			name:   "too many units for baseline",
			mutate: func(cfg *game.GameConfig) { cfg.UnitsPerTeam = 8 },
			err:    core.ErrTooManyUnits,
		},
		{
			name:   "one flag",
			mutate: func(cfg *game.GameConfig) { cfg.FlagPositions = []core.Position{{Row: 14, Col: 4}} },
			err:    core.ErrFlagCount,
		},
		{
			name: "unit on wall",
			mutate: func(cfg *game.GameConfig) {
				cfg.UnitPositions = [2][]core.Position{{{Row: 0, Col: 0}}, {{Row: 1, Col: 4}}}
			},
			err: core.ErrSpawnBlocked,
		},
		{
			name: "flag off the board",
			mutate: func(cfg *game.GameConfig) {
				cfg.FlagPositions = []core.Position{{Row: 14, Col: 4}, {Row: 20, Col: 20}}
			},
			err: core.ErrSpawnBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := game.DefaultGameConfig()
			tt.mutate(&cfg)

			gs, err := game.NewGame(cfg)
			assert.Nil(t, gs)
			assert.ErrorIs(t, err, tt.err)
			var cfgErr *core.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNewGameSharingModes(t *testing.T) {
	tests := []struct {
		mode   game.SharingMode
		tables int
		same   func(a, b *core.Unit) bool
	}{
		{game.ShareNone, 4, func(a, b *core.Unit) bool { return a == b }},
		{game.ShareTeam, 2, func(a, b *core.Unit) bool { return a.Team == b.Team }},
		{game.ShareAll, 1, func(a, b *core.Unit) bool { return true }},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) {
				cfg.UnitsPerTeam = 2
				cfg.Sharing = tt.mode
			})

			tables := map[*qlearning.Table]bool{}
			units := gs.AllUnits()
			for _, a := range units {
				tables[a.Actor.Table()] = true
				for _, b := range units {
					assert.Equal(t, tt.same(a, b), a.Actor.Table() == b.Actor.Table(), "%s vs %s", a.Name, b.Name)
				}
			}
			assert.Len(t, tables, tt.tables)
		})
	}
}

func TestNewGameImportsSeedTables(t *testing.T) {
	importDir, exportDir := t.TempDir(), t.TempDir()

	previous, err := qlearning.NewFileStore(importDir, qlearning.CodecJSON, testutil.NopLogger())
	require.NoError(t, err)
	key := qlearning.Key("(14,4)||(1,4)")
	require.NoError(t, previous.Save(previous.Path("t0u0"), map[qlearning.Key][]float64{
		key: {1, 2, 3, 4, 5},
	}))

	store, err := qlearning.NewFileStore(exportDir, qlearning.CodecJSON, testutil.NopLogger())
	require.NoError(t, err)
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) {
		cfg.Store = store
		cfg.ImportDir = importDir
	})

	u0, u1 := gs.Units[core.Team0][0], gs.Units[core.Team1][0]
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, u0.Actor.QValues(gs.Observe(u0)))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, u1.Actor.QValues(gs.Observe(u1)), "missing import falls back to zeros")
}

func TestAgentsOrder(t *testing.T) {
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) { cfg.UnitsPerTeam = 2 })

	names := []string{}
	for _, agent := range gs.Agents() {
		names = append(names, agent.(*core.Unit).Name)
	}
	assert.Equal(t, []string{"t0u0", "t0u1", "t1u0", "t1u1"}, names)
}

func TestCopyIsDeep(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)
	c := gs.Copy()

	assert.True(t, gs.Equal(c))
	assert.Equal(t, gs.Hash(), c.Hash())

	c.Units[core.Team0][0].Position = core.Position{Row: 13, Col: 4}
	c.Flags[core.Team1].Grounded = false
	c.Score[0]++

	assert.Equal(t, core.Position{Row: 14, Col: 4}, gs.Units[core.Team0][0].Position)
	assert.True(t, gs.Flags[core.Team1].Grounded)
	assert.Zero(t, gs.Score[0])
	assert.False(t, gs.Equal(c))
	assert.NotEqual(t, gs.Hash(), c.Hash())

	assert.Same(t, gs.Board, c.Board)
	assert.Same(t, gs.Units[core.Team0][0].Actor, c.Units[core.Team0][0].Actor)
}

func TestEqualIgnoresCounters(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)
	c := gs.Copy()
	c.Turn = 40
	c.Captures = [2]int{3, 1}
	assert.True(t, gs.Equal(c))
	assert.Equal(t, gs.Hash(), c.Hash())
}

func TestForeignAgentPanics(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)
	other := testutil.NewTestGame(t, nil)

	testutil.AssertPanicsWith(t, core.ErrNotAUnit, func() {
		gs.Observe(other.Units[core.Team0][0])
	})
	testutil.AssertPanicsWith(t, core.ErrNotAUnit, func() {
		gs.Cost(other.Units[core.Team1][0], core.ActionStay)
	})
}

func TestNewGamePublishesStart(t *testing.T) {
	bus := events.NewEventBus(testutil.NopLogger())
	var started *events.GameStartedEvent
	bus.SubscribeFunc(events.TypeGameStarted, func(e events.Event) {
		started = e.(*events.GameStartedEvent)
	})

	testutil.NewTestGame(t, func(cfg *game.GameConfig) {
		cfg.Events = bus
		cfg.UnitsPerTeam = 2
	})

	require.NotNil(t, started)
	assert.Equal(t, "test-game", started.GameID())
	assert.Equal(t, 2, started.UnitsPerTeam)
	assert.Equal(t, 16, started.Height)
}

func TestSnapshot(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)
	gs.Units[core.Team1][0].JailTimer = 3
	gs.Turn = 7
	gs.Score = [2]int{2, 1}

	s := gs.Snapshot()
	require.Len(t, s.Units, 2)
	assert.Equal(t, "t1u0", s.Units[1].Name)
	assert.Equal(t, 3, s.Units[1].JailTimer)
	assert.Equal(t, 7, s.Turn)
	assert.Equal(t, [2]int{2, 1}, s.Score)

	u, ok := s.UnitAt(core.Position{Row: 14, Col: 4})
	require.True(t, ok)
	assert.Equal(t, "t0u0", u.Name)
	f, ok := s.FlagAt(core.Position{Row: 1, Col: 4})
	require.True(t, ok)
	assert.Equal(t, core.Team1, f.Team)
	_, ok = s.UnitAt(core.Position{Row: 5, Col: 5})
	assert.False(t, ok)

	// Snapshots do not follow later mutation.
	gs.Units[core.Team0][0].Position = core.Position{Row: 13, Col: 4}
	assert.Equal(t, core.Position{Row: 14, Col: 4}, s.Units[0].Position)
}
