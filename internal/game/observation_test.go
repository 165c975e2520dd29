package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/testutil"
)

func TestObserveIsOrientationNormalized(t *testing.T) {
	gs := testutil.NewTestGame(t, nil)
	u0, u1 := gs.Units[core.Team0][0], gs.Units[core.Team1][0]

	assert.Equal(t, qlearning.Key("(14,4)||(1,4)"), gs.Observe(u0))
	assert.Equal(t, gs.Observe(u0), gs.Observe(u1), "mirrored placements look identical")

	u0.Position = pos(10, 2)
	u1.Position = gs.Board.Rotate(pos(10, 2))
	assert.Equal(t, gs.Observe(u0), gs.Observe(u1))

	u1.Position = pos(6, 6)
	o := gs.Observation(u1)
	assert.Equal(t, pos(9, 2), o.Self)
	assert.Equal(t, []core.Position{pos(5, 6)}, o.Enemies)
}

func TestObservationSortsAlliesAndEnemies(t *testing.T) {
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) { cfg.UnitsPerTeam = 3 })
	t0 := gs.Units[core.Team0]
	t0[0].Position = pos(12, 6)
	t0[1].Position = pos(9, 1)
	t0[2].Position = pos(12, 2)

	o := gs.Observation(t0[0])
	assert.Equal(t, pos(12, 6), o.Self)
	assert.Equal(t, []core.Position{pos(9, 1), pos(12, 2)}, o.Allies)
	assert.Len(t, o.Enemies, 3)
	for i := 1; i < len(o.Enemies); i++ {
		assert.True(t, o.Enemies[i-1].Less(o.Enemies[i]))
	}

	// Swapping two allies does not change the key.
	before := gs.Observe(t0[0])
	t0[1].Position, t0[2].Position = t0[2].Position, t0[1].Position
	assert.Equal(t, before, gs.Observe(t0[0]))
}

func TestParseObservation(t *testing.T) {
	tests := []struct {
		name string
		obs  game.Observation
	}{
		{"single unit", game.Observation{Self: pos(14, 4), Enemies: []core.Position{pos(1, 4)}}},
		{"teams of three", game.Observation{
			Self:    pos(10, 2),
			Allies:  []core.Position{pos(9, 1), pos(12, 2)},
			Enemies: []core.Position{pos(1, 3), pos(2, 4), pos(7, 7)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := game.ParseObservation(tt.obs.Key())
			require.NoError(t, err)
			assert.Equal(t, tt.obs, parsed)
		})
	}
}

func TestParseObservationErrors(t *testing.T) {
	for _, key := range []qlearning.Key{"", "garbage", "(1,2)|(3,4", "(a,b)||", "(1,2)|(3,4)|(5,6", "(1,2)||(3;4)", "(1,2)||||"} {
		_, err := game.ParseObservation(key)
		assert.ErrorIs(t, err, game.ErrBadObservationKey, "key %q", key)
	}
}
