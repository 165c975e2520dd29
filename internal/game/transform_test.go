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

func TestParseSeedTransform(t *testing.T) {
	tests := []struct {
		spec    string
		isNil   bool
		wantErr bool
	}{
		{spec: "", isNil: true},
		{spec: "none", isNil: true},
		{spec: "project:1,2"},
		{spec: "project: 0 , 1"},
		{spec: "none:1", wantErr: true},
		{spec: "project", wantErr: true},
		{spec: "project:1", wantErr: true},
		{spec: "project:-1,0", wantErr: true},
		{spec: "project:a,0", wantErr: true},
		{spec: "mirror", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			transform, err := game.ParseSeedTransform(tt.spec)
			if tt.wantErr {
				assert.ErrorIs(t, err, game.ErrBadSeedTransform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isNil, transform == nil)
		})
	}
}

func TestProjectObservation(t *testing.T) {
	tests := []struct {
		name     string
		allies   int
		enemies  int
		key      qlearning.Key
		expected qlearning.Key
	}{
		{"keeps nearest enemy", 0, 1, "(14,4)|(14,2)|(1,4);(1,6)", "(14,4)||(1,4)"},
		{"keeps nearest ally", 1, 2, "(8,4)|(1,1);(9,4)|(1,4);(1,6)", "(8,4)|(9,4)|(1,4);(1,6)"},
		{"distance ties go to smaller position", 0, 1, "(5,5)||(5,7);(3,5)", "(5,5)||(3,5)"},
		{"fewer units than kept", 3, 3, "(14,4)||(1,4)", "(14,4)||(1,4)"},
		{"unparseable key passes through", 0, 0, "garbage", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, game.ProjectObservation(tt.allies, tt.enemies)(tt.key))
		})
	}
}

func TestNewGameSeedsThroughProjection(t *testing.T) {
	importDir, exportDir := t.TempDir(), t.TempDir()

	// A one-versus-one table, as exported by a single-unit run.
	previous, err := qlearning.NewFileStore(importDir, qlearning.CodecJSON, testutil.NopLogger())
	require.NoError(t, err)
	require.NoError(t, previous.Save(previous.Path("t0u0"), map[qlearning.Key][]float64{
		"(14,4)||(1,4)": {1, 2, 3, 4, 5},
	}))

	transform, err := game.ParseSeedTransform("project:0,1")
	require.NoError(t, err)

	store, err := qlearning.NewFileStore(exportDir, qlearning.CodecJSON, testutil.NopLogger())
	require.NoError(t, err)
	gs := testutil.NewTestGame(t, func(cfg *game.GameConfig) {
		cfg.UnitPositions = [2][]core.Position{
			{{Row: 14, Col: 4}, {Row: 14, Col: 2}},
			{{Row: 1, Col: 4}, {Row: 1, Col: 6}},
		}
		cfg.Store = store
		cfg.ImportDir = importDir
		cfg.SeedTransform = transform
	})

	u0, u1 := gs.Units[core.Team0][0], gs.Units[core.Team0][1]
	require.Equal(t, qlearning.Key("(14,4)|(14,2)|(1,4);(1,6)"), gs.Observe(u0))
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, u0.Actor.QValues(gs.Observe(u0)))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, u1.Actor.QValues(gs.Observe(u1)))

	// Exports hold the live two-versus-two keys only.
	entries := u0.Actor.Table().Entries()
	assert.Contains(t, entries, gs.Observe(u0))
	assert.NotContains(t, entries, qlearning.Key("(14,4)||(1,4)"))
}
