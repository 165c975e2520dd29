package core

import "fmt"

// Position is a (row, column) cell on the board. Row 0 is the top.
type Position struct {
	Row, Col int
}

// FromIndex creates a position from a board array index using row-major ordering
func FromIndex(idx, width int) Position {
	return Position{Row: idx / width, Col: idx % width}
}

// Add returns p shifted by d.
func (p Position) Add(d Delta) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

// DistanceTo calculates the Manhattan distance to another position
func (p Position) DistanceTo(other Position) int {
	dr := p.Row - other.Row
	dc := p.Col - other.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Less orders positions row-major.
func (p Position) Less(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Col < other.Col
}

// String returns a string representation of the position
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Delta is a single-step displacement.
type Delta struct {
	Row, Col int
}

// Rotate180 returns the displacement seen from the opposite side of the board.
func (d Delta) Rotate180() Delta {
	return Delta{Row: -d.Row, Col: -d.Col}
}

// Team is one of the two sides.
type Team int

const (
	Team0 Team = iota
	Team1
)

// Teams lists both teams in index order.
var Teams = [2]Team{Team0, Team1}

// Opponent returns the other team.
func (t Team) Opponent() Team { return 1 - t }

func (t Team) String() string { return fmt.Sprintf("team%d", int(t)) }
