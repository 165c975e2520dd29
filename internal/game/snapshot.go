package game

import (
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// UnitView is the rendering view of a unit.
type UnitView struct {
	Name      string
	Team      core.Team
	Position  core.Position
	HasFlag   bool
	JailTimer int
}

// FlagView is the rendering view of a flag.
type FlagView struct {
	Team     core.Team
	Position core.Position
	Grounded bool
}

// Snapshot is a read-only copy of everything a renderer may draw. Board is
// shared with the game and must not be modified.
type Snapshot struct {
	GameID   string
	Board    *core.Board
	Units    []UnitView
	Flags    [2]FlagView
	Turn     int
	Episode  int
	Score    [2]int
	Captures [2]int
}

// Snapshot copies the current state for renderers.
func (gs *GameState) Snapshot() Snapshot {
	s := Snapshot{
		GameID:   gs.gameID,
		Board:    gs.Board,
		Turn:     gs.Turn,
		Episode:  gs.Episode,
		Score:    gs.Score,
		Captures: gs.Captures,
	}
	for _, piece := range gs.Pieces() {
		switch p := piece.(type) {
		case *core.Unit:
			s.Units = append(s.Units, UnitView{
				Name:      p.Name,
				Team:      p.Team,
				Position:  p.Position,
				HasFlag:   p.HasFlag,
				JailTimer: p.JailTimer,
			})
		case *core.Flag:
			s.Flags[p.Team] = FlagView{Team: p.Team, Position: p.Position, Grounded: p.Grounded}
		}
	}
	return s
}

// UnitAt returns the first unit standing on p.
func (s Snapshot) UnitAt(p core.Position) (UnitView, bool) {
	for _, u := range s.Units {
		if u.Position == p {
			return u, true
		}
	}
	return UnitView{}, false
}

// FlagAt returns the flag lying on p.
func (s Snapshot) FlagAt(p core.Position) (FlagView, bool) {
	for _, f := range s.Flags {
		if f.Position == p {
			return f, true
		}
	}
	return FlagView{}, false
}
