package mapgen

import (
	"golang.org/x/exp/rand"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// MapConfig holds configuration for map generation
type MapConfig struct {
	Width  int
	Height int
	// WallRatio places one pillar per N candidate cells; 0 places none.
	WallRatio int
}

// DefaultMapConfig returns a sensible default configuration
func DefaultMapConfig(w, h int) MapConfig {
	return MapConfig{
		Width:     w,
		Height:    h,
		WallRatio: 8,
	}
}

// Generator builds walled arenas with pillars placed symmetrically under
// the 180 degree rotation, so both teams face the same map. The two home
// rows (1 and H-2) stay open for spawns and flags, and every open cell
// remains reachable from every other.
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// GenerateMap creates a new board with pillars placed
func (g *Generator) GenerateMap() *core.Board {
	board := core.NewWalledBoard(g.config.Width, g.config.Height)
	if g.config.WallRatio > 0 {
		g.placePillars(board)
	}
	return board
}

// candidates returns one representative of every rotation pair of interior
// cells outside the home rows.
func (g *Generator) candidates(b *core.Board) []core.Position {
	var out []core.Position
	for row := 2; row <= b.H-3; row++ {
		for col := 1; col <= b.W-2; col++ {
			p := core.Position{Row: row, Col: col}
			if b.Idx(p) <= b.Idx(b.Rotate(p)) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (g *Generator) placePillars(b *core.Board) {
	cands := g.candidates(b)
	want := len(cands) / g.config.WallRatio
	placed := 0

	// Use a maximum attempt counter to avoid infinite loops
	maxAttempts := want * 10
	attempts := 0

	for placed < want && attempts < maxAttempts {
		attempts++
		p := cands[g.rng.Intn(len(cands))]
		if !b.IsOpen(p) {
			continue
		}

		mirror := b.Rotate(p)
		b.T[b.Idx(p)].Type = core.TileWall
		b.T[b.Idx(mirror)].Type = core.TileWall
		if Connected(b) {
			placed++
			continue
		}
		b.T[b.Idx(p)].Type = core.TileOpen
		b.T[b.Idx(mirror)].Type = core.TileOpen
	}
}

// Connected reports whether every open cell of b is reachable from every
// other through orthogonal moves.
func Connected(b *core.Board) bool {
	start := -1
	open := 0
	for i, t := range b.T {
		if t.IsOpen() {
			open++
			if start < 0 {
				start = i
			}
		}
	}
	if open == 0 {
		return false
	}

	seen := make([]bool, len(b.T))
	seen[start] = true
	queue := []int{start}
	reached := 1
	steps := []core.Delta{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

	for len(queue) > 0 {
		p := core.FromIndex(queue[0], b.W)
		queue = queue[1:]
		for _, d := range steps {
			n := p.Add(d)
			if !b.InBounds(n) {
				continue
			}
			idx := b.Idx(n)
			if seen[idx] || !b.T[idx].IsOpen() {
				continue
			}
			seen[idx] = true
			reached++
			queue = append(queue, idx)
		}
	}
	return reached == open
}
