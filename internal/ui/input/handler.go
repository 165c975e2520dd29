package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Command is a viewer control triggered from the keyboard.
type Command int

const (
	CommandNone Command = iota
	CommandTogglePause
	CommandStep
	CommandFaster
	CommandSlower
	CommandCopyFrame
	CommandQuit
)

var bindings = []struct {
	key     ebiten.Key
	command Command
}{
	{ebiten.KeySpace, CommandTogglePause},
	{ebiten.KeyN, CommandStep},
	{ebiten.KeyEqual, CommandFaster},
	{ebiten.KeyMinus, CommandSlower},
	{ebiten.KeyC, CommandCopyFrame},
	{ebiten.KeyEscape, CommandQuit},
}

// Handler polls keyboard and mouse state once per frame.
type Handler struct {
	mouseX, mouseY int
	commands       []Command
}

func NewHandler() *Handler {
	return &Handler{commands: make([]Command, 0, len(bindings))}
}

// Update reads this frame's input.
func (h *Handler) Update() {
	h.mouseX, h.mouseY = GetCursorPosition()

	h.commands = h.commands[:0]
	for _, b := range bindings {
		if inpututil.IsKeyJustPressed(b.key) {
			h.commands = append(h.commands, b.command)
		}
	}
}

// Commands returns the commands pressed this frame, in binding order.
func (h *Handler) Commands() []Command {
	return h.commands
}

// Cursor returns the mouse position from the last Update.
func (h *Handler) Cursor() (int, int) {
	return h.mouseX, h.mouseY
}

// Help lists the key bindings for on-screen display.
func Help() []string {
	return []string{
		"Space: pause/resume",
		"N: single step",
		"+/-: speed",
		"C: copy frame",
		"Esc: quit",
	}
}
