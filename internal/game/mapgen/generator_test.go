package mapgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// newTestRNG provides a random number generator with a fixed seed for deterministic tests.
func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(12345))
}

func TestDefaultMapConfig(t *testing.T) {
	config := DefaultMapConfig(9, 16)
	assert.Equal(t, 9, config.Width)
	assert.Equal(t, 16, config.Height)
	assert.Equal(t, 8, config.WallRatio)
}

func TestNewGenerator(t *testing.T) {
	config := DefaultMapConfig(9, 16)
	rng := newTestRNG()
	generator := NewGenerator(config, rng)

	require.NotNil(t, generator)
	assert.Equal(t, config, generator.config)
	assert.Same(t, rng, generator.rng)
}

func TestGenerateMapWithoutPillars(t *testing.T) {
	config := DefaultMapConfig(9, 16)
	config.WallRatio = 0

	board := NewGenerator(config, newTestRNG()).GenerateMap()
	assert.Equal(t, core.NewWalledBoard(9, 16), board)
}

func TestGenerateMapInvariants(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		ratio  int
	}{
		{"default arena", 9, 16, 8},
		{"odd height", 9, 15, 6},
		{"dense", 11, 12, 3},
		{"tiny", 5, 6, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(1); seed <= 20; seed++ {
				config := MapConfig{Width: tt.width, Height: tt.height, WallRatio: tt.ratio}
				board := NewGenerator(config, rand.New(rand.NewSource(seed))).GenerateMap()
				require.NoError(t, board.Validate())
				assert.True(t, Connected(board), "seed %d produced a disconnected board", seed)

				for i, tile := range board.T {
					p := core.FromIndex(i, board.W)
					assert.Equal(t, tile, board.T[board.Idx(board.Rotate(p))], "seed %d: %s is not symmetric", seed, p)
				}
				for col := 1; col < board.W-1; col++ {
					assert.True(t, board.IsOpen(core.Position{Row: 1, Col: col}))
					assert.True(t, board.IsOpen(core.Position{Row: board.H - 2, Col: col}))
				}
			}
		})
	}
}

func TestGenerateMapPlacesPillars(t *testing.T) {
	config := DefaultMapConfig(9, 16)
	board := NewGenerator(config, newTestRNG()).GenerateMap()

	interior := 0
	for i, tile := range board.T {
		p := core.FromIndex(i, board.W)
		if p.Row > 0 && p.Row < board.H-1 && p.Col > 0 && p.Col < board.W-1 && tile.IsWall() {
			interior++
		}
	}
	// 42 candidate pairs at one pillar pair per 8.
	assert.Positive(t, interior)
	assert.LessOrEqual(t, interior, 10)
	assert.Zero(t, interior%2)
}

func TestGenerateMapDeterministic(t *testing.T) {
	config := DefaultMapConfig(9, 16)
	a := NewGenerator(config, rand.New(rand.NewSource(7))).GenerateMap()
	b := NewGenerator(config, rand.New(rand.NewSource(7))).GenerateMap()
	assert.Equal(t, a.String(), b.String())
}

func TestConnected(t *testing.T) {
	tests := []struct {
		name     string
		layout   []string
		expected bool
	}{
		{"open room", []string{"#####", "#...#", "#...#", "#####"}, true},
		{"split room", []string{"#####", "#.#.#", "#.#.#", "#####"}, false},
		{"no open cells", []string{"###", "###"}, false},
		{"diagonal only", []string{"#####", "#..##", "###.#", "#####"}, false},
		{"bent corridor", []string{"#####", "#..##", "##.##", "##..#", "#####"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := core.ParseBoard(tt.layout)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Connected(board))
		})
	}
}
