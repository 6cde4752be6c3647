package core

// Color represents a foreground or background color for a screen cell.
// The platform maps each value to an ANSI 256-color code.
type Color uint8

// Predefined colors for text and chrome.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
	ColorBlack
)

// Tile palette, one entry per tile value from 2 up to 2048.
// Larger tiles share ColorTileSuper.
const (
	ColorTile2 Color = iota + 64
	ColorTile4
	ColorTile8
	ColorTile16
	ColorTile32
	ColorTile64
	ColorTile128
	ColorTile256
	ColorTile512
	ColorTile1024
	ColorTile2048
	ColorTileSuper
	ColorBoard
)

// TileColors returns the background and foreground colors for a tile value.
// Empty cells (value 0) use the board color.
func TileColors(value int) (bg, fg Color) {
	if value <= 0 {
		return ColorBoard, ColorGray
	}

	idx := 0
	for v := value; v > 2; v >>= 1 {
		idx++
	}
	bg = ColorTile2 + Color(idx)
	if bg > ColorTileSuper {
		bg = ColorTileSuper
	}

	// Light tiles keep dark text
	if value <= 4 {
		return bg, ColorBlack
	}
	return bg, ColorBrightWhite
}
