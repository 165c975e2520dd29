package renderer

import (
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/common"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// halfTintAlpha is the opacity of the team color washed over each home half.
const halfTintAlpha = 36

// BoardRenderer draws a snapshot as a grid of tiles.
type BoardRenderer struct {
	tileSize    int
	defaultFont font.Face
	palette     common.Palette

	offsetX, offsetY int

	hover    core.Position
	hasHover bool
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(tileSize int, f font.Face, palette common.Palette) *BoardRenderer {
	return &BoardRenderer{tileSize: tileSize, defaultFont: f, palette: palette}
}

// SetOffset moves the board's top-left corner on screen.
func (br *BoardRenderer) SetOffset(x, y int) {
	br.offsetX, br.offsetY = x, y
}

// SetHover highlights p on the next draw.
func (br *BoardRenderer) SetHover(p core.Position, ok bool) {
	br.hover, br.hasHover = p, ok
}

// ScreenToTile maps a screen pixel to a board cell.
func (br *BoardRenderer) ScreenToTile(board *core.Board, x, y int) (core.Position, bool) {
	if board == nil || x < br.offsetX || y < br.offsetY {
		return core.Position{}, false
	}
	p := core.Position{Row: (y - br.offsetY) / br.tileSize, Col: (x - br.offsetX) / br.tileSize}
	return p, board.InBounds(p)
}

// Size returns the board's on-screen size in pixels.
func (br *BoardRenderer) Size(board *core.Board) (int, int) {
	return board.W * br.tileSize, board.H * br.tileSize
}

// Draw renders the snapshot on the supplied Ebiten screen.
func (br *BoardRenderer) Draw(screen *ebiten.Image, s game.Snapshot) {
	board := s.Board
	if board == nil {
		return
	}
	ts := float32(br.tileSize)

	// Tiles
	for i, tile := range board.T {
		p := core.FromIndex(i, board.W)
		x, y := br.origin(p)

		if tile.IsWall() {
			vector.DrawFilledRect(screen, x, y, ts, ts, br.palette.Wall, false)
			continue
		}
		vector.DrawFilledRect(screen, x, y, ts, ts, br.palette.Floor, false)

		tint := br.palette.Teams[board.HalfOf(p)]
		tint.A = halfTintAlpha
		vector.DrawFilledRect(screen, x, y, ts, ts, tint, false)
		vector.StrokeRect(screen, x, y, ts, ts, 1, br.palette.GridLines, false)
	}

	// Grounded flags sit under any unit standing on them.
	for _, f := range s.Flags {
		if f.Grounded {
			br.drawFlag(screen, f.Position, br.palette.Teams[f.Team])
		}
	}

	for _, u := range s.Units {
		br.drawUnit(screen, u)
	}

	if br.hasHover && board.InBounds(br.hover) {
		x, y := br.origin(br.hover)
		vector.DrawFilledRect(screen, x, y, ts, ts, common.HoverColor, false)
	}
}

func (br *BoardRenderer) origin(p core.Position) (float32, float32) {
	return float32(br.offsetX + p.Col*br.tileSize), float32(br.offsetY + p.Row*br.tileSize)
}

// drawFlag draws a pole with a pennant in the owner's color.
func (br *BoardRenderer) drawFlag(screen *ebiten.Image, p core.Position, c color.RGBA) {
	x, y := br.origin(p)
	ts := float32(br.tileSize)

	poleX := x + ts*0.3
	vector.DrawFilledRect(screen, poleX, y+ts*0.15, ts*0.06, ts*0.7, common.TextColor, false)
	vector.DrawFilledRect(screen, poleX+ts*0.06, y+ts*0.15, ts*0.4, ts*0.28, c, false)
}

func (br *BoardRenderer) drawUnit(screen *ebiten.Image, u game.UnitView) {
	x, y := br.origin(u.Position)
	ts := float32(br.tileSize)
	cx, cy, r := x+ts/2, y+ts/2, ts*0.35

	fill := br.palette.Teams[u.Team]
	vector.DrawFilledCircle(screen, cx, cy, r, fill, true)
	vector.StrokeCircle(screen, cx, cy, r, 1, common.Shade(fill, -60), true)

	if u.HasFlag {
		vector.StrokeCircle(screen, cx, cy, r, 3, common.CarrierOutline, true)
		enemy := br.palette.Teams[u.Team.Opponent()]
		vector.DrawFilledRect(screen, cx-r*0.35, cy-r*0.35, r*0.7, r*0.7, enemy, false)
	}

	if u.JailTimer > 0 {
		vector.DrawFilledCircle(screen, cx, cy, r, common.JailedTint, true)
		br.drawCentered(screen, strconv.Itoa(u.JailTimer), int(x), int(y))
	}
}

func (br *BoardRenderer) drawCentered(screen *ebiten.Image, s string, x, y int) {
	if br.defaultFont == nil {
		return
	}
	b := text.BoundString(br.defaultFont, s)
	textW := b.Max.X - b.Min.X
	textH := b.Max.Y - b.Min.Y
	text.Draw(screen, s, br.defaultFont, x+(br.tileSize-textW)/2, y+(br.tileSize+textH)/2, common.TextColor)
}
