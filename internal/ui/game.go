package ui

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/common"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/config"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/render"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/ui/input"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/ui/renderer"
)

// ErrNotAGame is returned when the model's environment cannot be drawn.
var ErrNotAGame = errors.New("model state is not a capture-the-flag game")

const (
	maxTurnInterval = 600
	boardMargin     = 10
	lineHeight      = 16
)

// UI configuration functions
func ScreenWidth() int {
	return config.Get().UI.Window.Width
}

func ScreenHeight() int {
	return config.Get().UI.Window.Height
}

func TileSize() int {
	return config.Get().UI.Game.TileSize
}

func TurnInterval() int {
	return config.Get().UI.Game.TurnInterval
}

// PaletteFromConfig builds the window colors from the colors section.
func PaletteFromConfig(c config.ColorsConfig) common.Palette {
	return common.Palette{
		Teams:      [2]color.RGBA{common.RGB(c.Team0), common.RGB(c.Team1)},
		Wall:       common.RGB(c.Wall),
		Floor:      common.RGB(c.Floor),
		Background: common.RGB(c.Background),
		GridLines:  common.RGB(c.GridLines),
	}
}

// Viewer is an Ebitengine game that trains a model while drawing it.
type Viewer struct {
	model         *qlearning.Model
	hook          qlearning.StepHook
	boardRenderer *renderer.BoardRenderer
	textRenderer  *render.TextRenderer
	inputHandler  *input.Handler
	defaultFont   font.Face
	palette       common.Palette
	logger        zerolog.Logger

	turnTimer    int
	turnInterval int
	paused       bool
	last         qlearning.StepResult

	statusMessage string
	messageTimer  int
}

// NewViewer creates a viewer for model. hook, if not nil, runs after every
// step the viewer takes.
func NewViewer(model *qlearning.Model, hook qlearning.StepHook, logger zerolog.Logger) (*Viewer, error) {
	if _, ok := model.State().(*game.GameState); !ok {
		return nil, ErrNotAGame
	}

	palette := PaletteFromConfig(config.Get().Colors)
	v := &Viewer{
		model:        model,
		hook:         hook,
		textRenderer: render.NewTextRenderer(nil, false),
		inputHandler: input.NewHandler(),
		defaultFont:  basicfont.Face7x13,
		palette:      palette,
		turnInterval: TurnInterval(),
		logger:       logger.With().Str("component", "viewer").Logger(),
	}
	v.boardRenderer = renderer.NewBoardRenderer(TileSize(), v.defaultFont, palette)
	v.boardRenderer.SetOffset(boardMargin, boardMargin)

	return v, nil
}

// Run opens the window and blocks until it is closed. Tables are flushed
// on exit.
func Run(v *Viewer) error {
	ebiten.SetWindowSize(ScreenWidth(), ScreenHeight())
	ebiten.SetWindowTitle(config.Get().UI.Window.Title)
	defer v.model.Flush()

	err := ebiten.RunGame(v)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (v *Viewer) state() *game.GameState {
	return v.model.State().(*game.GameState)
}

// Update proceeds the training loop at the configured pace.
func (v *Viewer) Update() error {
	v.inputHandler.Update()
	if v.messageTimer > 0 {
		v.messageTimer--
	}

	gs := v.state()
	x, y := v.inputHandler.Cursor()
	p, ok := v.boardRenderer.ScreenToTile(gs.Board, x, y)
	v.boardRenderer.SetHover(p, ok)

	for _, cmd := range v.inputHandler.Commands() {
		switch cmd {
		case input.CommandTogglePause:
			v.paused = !v.paused
		case input.CommandStep:
			v.step()
		case input.CommandFaster:
			v.turnInterval = max(1, v.turnInterval/2)
			v.showMessage(fmt.Sprintf("Turn interval: %d frames", v.turnInterval), 60)
		case input.CommandSlower:
			v.turnInterval = min(maxTurnInterval, v.turnInterval*2)
			v.showMessage(fmt.Sprintf("Turn interval: %d frames", v.turnInterval), 60)
		case input.CommandCopyFrame:
			v.copyFrame(gs)
		case input.CommandQuit:
			return ebiten.Termination
		}
	}

	if v.paused {
		return nil
	}
	v.turnTimer++
	if v.turnTimer < v.turnInterval {
		return nil
	}
	v.turnTimer = 0
	v.step()
	return nil
}

func (v *Viewer) step() {
	v.last = v.model.Step()
	if v.hook != nil {
		v.hook(v.model.State(), v.last)
	}
}

func (v *Viewer) copyFrame(gs *game.GameState) {
	if err := clipboard.WriteAll(v.textRenderer.Frame(gs.Snapshot())); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to copy frame to clipboard")
		v.showMessage("Clipboard unavailable", 90)
		return
	}
	v.showMessage("Frame copied", 60)
}

func (v *Viewer) showMessage(msg string, duration int) {
	v.statusMessage = msg
	v.messageTimer = duration
}

// Draw renders the board and the scoreboard beside it.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(v.palette.Background)

	gs := v.state()
	s := gs.Snapshot()
	v.boardRenderer.Draw(screen, s)

	boardW, _ := v.boardRenderer.Size(s.Board)
	x := boardMargin*2 + boardW
	y := boardMargin + lineHeight

	line := func(str string, c color.Color) {
		text.Draw(screen, str, v.defaultFont, x, y, c)
		y += lineHeight
	}

	line(fmt.Sprintf("Turn: %d", s.Turn), common.TextColor)
	line(fmt.Sprintf("Episode: %d", s.Episode), common.TextColor)
	for _, team := range core.Teams {
		line(fmt.Sprintf("%s: score=%d captures=%d", team, s.Score[team], s.Captures[team]), v.palette.Teams[team])
	}
	line(fmt.Sprintf("Mean cost: %.3f", v.last.MeanCost), common.TextColor)
	line(fmt.Sprintf("Epsilon: %.3f", v.model.Params().Epsilon), common.TextColor)
	if v.paused {
		line("PAUSED", common.CarrierOutline)
	}

	y += lineHeight
	for _, help := range input.Help() {
		line(help, color.Gray{200})
	}

	if v.messageTimer > 0 && v.statusMessage != "" {
		text.Draw(screen, v.statusMessage, v.defaultFont, boardMargin, ScreenHeight()-boardMargin, common.TextColor)
	}
}

// Layout defines the Ebitengine screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return ScreenWidth(), ScreenHeight()
}
