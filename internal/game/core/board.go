package core

import (
	"fmt"
	"strings"
)

// Tile represents a single cell on the map.
// Type - 0 = open, 1 = wall.
type Tile struct {
	Type int
}

// Board is a fixed grid of open and blocked cells. Team 0 owns the lower
// half (rows >= H/2), team 1 the upper half.
type Board struct {
	W, H int
	T    []Tile // length = W*H (row-major)
}

const (
	TileOpen = 0
	TileWall = 1
)

const (
	wallRune = '#'
	openRune = '.'
)

func (t Tile) IsOpen() bool { return t.Type == TileOpen }
func (t Tile) IsWall() bool { return t.Type == TileWall }

// NewBoard returns a board of open tiles.
func NewBoard(w, h int) *Board {
	return &Board{W: w, H: h, T: make([]Tile, w*h)}
}

// NewWalledBoard returns a board whose border is wall and interior open.
func NewWalledBoard(w, h int) *Board {
	b := NewBoard(w, h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if row == 0 || col == 0 || row == h-1 || col == w-1 {
				b.T[b.Idx(Position{Row: row, Col: col})].Type = TileWall
			}
		}
	}
	return b
}

// ParseBoard builds a board from rows of '#' (wall) and '.' (open).
func ParseBoard(rows []string) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, WrapConfigError("board layout", ErrEmptyBoard)
	}
	w := len(rows[0])
	b := NewBoard(w, len(rows))
	for row, line := range rows {
		if len(line) != w {
			return nil, WrapConfigError("board layout", fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedBoard, row, len(line), w))
		}
		for col, r := range line {
			switch r {
			case wallRune:
				b.T[b.Idx(Position{Row: row, Col: col})].Type = TileWall
			case openRune:
			default:
				return nil, WrapConfigError("board layout", fmt.Errorf("%w: %q at %s", ErrUnknownTile, r, Position{Row: row, Col: col}))
			}
		}
	}
	return b, nil
}

func (b *Board) Idx(p Position) int { return p.Row*b.W + p.Col }

// InBounds checks if a position is within board boundaries
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.H && p.Col >= 0 && p.Col < b.W
}

// IsOpen reports whether p can be entered. Indexing outside the board is a
// logic error and panics.
func (b *Board) IsOpen(p Position) bool {
	if !b.InBounds(p) {
		panic(WrapContractError("board lookup", fmt.Errorf("%w: %s on %dx%d board", ErrOutOfBounds, p, b.W, b.H)))
	}
	return b.T[b.Idx(p)].IsOpen()
}

// Rotate maps p through the 180 degree rotation of the board. It is its own
// inverse and depends only on the board dimensions.
func (b *Board) Rotate(p Position) Position {
	return Position{Row: b.H - p.Row - 1, Col: b.W - p.Col - 1}
}

// HalfOf returns the team whose half of the board contains p.
func (b *Board) HalfOf(p Position) Team {
	if float64(p.Row) < float64(b.H)/2 {
		return Team1
	}
	return Team0
}

// Validate checks that the board can host a game: at least one open cell
// and no open cell on the border.
func (b *Board) Validate() error {
	if b.W <= 0 || b.H <= 0 || len(b.T) != b.W*b.H {
		return ErrEmptyBoard
	}
	open := 0
	for i, t := range b.T {
		if !t.IsOpen() {
			continue
		}
		open++
		p := FromIndex(i, b.W)
		if p.Row == 0 || p.Col == 0 || p.Row == b.H-1 || p.Col == b.W-1 {
			return fmt.Errorf("%w: %s", ErrOpenBoundary, p)
		}
	}
	if open == 0 {
		return ErrNoOpenCells
	}
	return nil
}

// String renders the layout in the format accepted by ParseBoard.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			if b.T[b.Idx(Position{Row: row, Col: col})].IsWall() {
				sb.WriteRune(wallRune)
			} else {
				sb.WriteRune(openRune)
			}
		}
		if row < b.H-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
