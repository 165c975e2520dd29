package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// Cell glyphs. Every cell is two runes wide.
const (
	WallSymbol  = "#"
	EmptySymbol = "·"
	FlagSymbol  = "F"
	TeamSymbols = "AB"
	CarryMarker = "*"
)

// TextRenderer writes colored ASCII frames of a game snapshot.
type TextRenderer struct {
	w  io.Writer
	au aurora.Aurora
}

// NewTextRenderer returns a renderer writing to w. With colored false the
// frames carry no escape codes.
func NewTextRenderer(w io.Writer, colored bool) *TextRenderer {
	return &TextRenderer{w: w, au: aurora.NewAurora(colored)}
}

// Render writes one frame followed by a blank line.
func (r *TextRenderer) Render(s game.Snapshot) error {
	_, err := io.WriteString(r.w, r.Frame(s)+"\n")
	return err
}

// Frame returns the frame for s: a scoreboard, a column header, the board
// rows and a legend.
func (r *TextRenderer) Frame(s game.Snapshot) string {
	b := s.Board
	var sb strings.Builder
	sb.Grow((b.W*12+8)*(b.H+4) + 200)

	fmt.Fprintf(&sb, "turn %d  episode %d  score %s-%s  captures %d-%d\n",
		s.Turn, s.Episode,
		r.team(core.Team0, fmt.Sprint(s.Score[0])), r.team(core.Team1, fmt.Sprint(s.Score[1])),
		s.Captures[0], s.Captures[1])

	// Header row
	sb.WriteString("   ")
	for c := 0; c < b.W; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")

	// Board rows
	for row := 0; row < b.H; row++ {
		fmt.Fprintf(&sb, "%2d ", row)
		for col := 0; col < b.W; col++ {
			sb.WriteString(r.cell(s, core.Position{Row: row, Col: col}))
		}
		sb.WriteString("\n")
	}

	// Legend
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s/%s=units %s=flag %s=carrying a=jailed %s=wall\n",
		r.team(core.Team0, "A"), r.team(core.Team1, "B"), FlagSymbol, CarryMarker, WallSymbol)

	return sb.String()
}

func (r *TextRenderer) cell(s game.Snapshot, p core.Position) string {
	if !s.Board.IsOpen(p) {
		return r.au.BrightBlack(" " + WallSymbol).String()
	}

	if u, ok := s.UnitAt(p); ok {
		symbol := TeamSymbols[u.Team : u.Team+1]
		suffix := " "
		switch {
		case u.JailTimer > 0:
			symbol = strings.ToLower(symbol)
			if u.JailTimer < 10 {
				suffix = fmt.Sprint(u.JailTimer)
			} else {
				suffix = "+"
			}
		case u.HasFlag:
			suffix = CarryMarker
		}
		v := r.teamValue(u.Team, symbol+suffix)
		if u.HasFlag {
			v = v.Bold()
		}
		return v.String()
	}

	if f, ok := s.FlagAt(p); ok {
		return r.team(f.Team, " "+FlagSymbol)
	}

	return r.au.BrightBlack(" " + EmptySymbol).String()
}

func (r *TextRenderer) team(t core.Team, text string) string {
	return r.teamValue(t, text).String()
}

func (r *TextRenderer) teamValue(t core.Team, text string) aurora.Value {
	if t == core.Team0 {
		return r.au.Red(text)
	}
	return r.au.Blue(text)
}
