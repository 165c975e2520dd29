package testutil

import (
	"testing"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// ArenaLayout is a small walled board with a pillar on each half.
var ArenaLayout = []string{
	"#######",
	"#.....#",
	"#..#..#",
	"#.....#",
	"#.....#",
	"#..#..#",
	"#.....#",
	"#######",
}

// NewTestGame creates a default 16x9 game with one unit per team, then
// applies mutate to the configuration before construction.
func NewTestGame(t *testing.T, mutate func(cfg *game.GameConfig)) *game.GameState {
	t.Helper()
	cfg := game.DefaultGameConfig()
	cfg.GameID = "test-game"
	cfg.Logger = NopLogger()
	if mutate != nil {
		mutate(&cfg)
	}
	gs, err := game.NewGame(cfg)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return gs
}

// Place moves a unit and its spawn to p.
func Place(u *core.Unit, p core.Position) {
	u.Position = p
	u.InitialPosition = p
}
