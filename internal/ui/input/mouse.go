package input

import (
	"github.com/hajimehoshi/ebiten/v2"
)

func GetCursorPosition() (int, int) {
	return ebiten.CursorPosition()
}
