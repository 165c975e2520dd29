package common

import (
	"image/color"
)

// Palette defines the colors the window renderer draws with.
type Palette struct {
	Teams      [2]color.RGBA
	Wall       color.RGBA
	Floor      color.RGBA
	Background color.RGBA
	GridLines  color.RGBA
}

// Fixed colors that are not configurable.
var (
	JailedTint     = color.RGBA{0, 0, 0, 140}
	CarrierOutline = color.RGBA{255, 215, 0, 255}
	HoverColor     = color.RGBA{255, 255, 255, 64}
	TextColor      = color.White
)

// DefaultPalette returns red for team 0 and blue for team 1 on a dark floor.
func DefaultPalette() Palette {
	return Palette{
		Teams:      [2]color.RGBA{{200, 50, 50, 255}, {50, 100, 200, 255}},
		Wall:       color.RGBA{80, 80, 80, 255},
		Floor:      color.RGBA{30, 30, 30, 255},
		Background: color.RGBA{0, 0, 0, 255},
		GridLines:  color.RGBA{50, 50, 50, 255},
	}
}

// RGB converts a configured [r, g, b] triple into an opaque color. Channels
// are clamped to 0..255.
func RGB(rgb [3]int) color.RGBA {
	return color.RGBA{R: clamp8(rgb[0]), G: clamp8(rgb[1]), B: clamp8(rgb[2]), A: 255}
}

// Shade returns c moved toward white by amount (negative moves toward black).
func Shade(c color.RGBA, amount int) color.RGBA {
	return color.RGBA{
		R: clamp8(int(c.R) + amount),
		G: clamp8(int(c.G) + amount),
		B: clamp8(int(c.B) + amount),
		A: c.A,
	}
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
