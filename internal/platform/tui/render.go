package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-2048/internal/core"
)

// colorCodes maps core.Color to ANSI 256-color codes.
// ColorDefault is absent and leaves the terminal color alone.
var colorCodes = map[core.Color]lipgloss.Color{
	core.ColorRed:           "1",
	core.ColorGreen:         "2",
	core.ColorYellow:        "3",
	core.ColorBlue:          "4",
	core.ColorMagenta:       "5",
	core.ColorCyan:          "6",
	core.ColorWhite:         "7",
	core.ColorBrightRed:     "9",
	core.ColorBrightGreen:   "10",
	core.ColorBrightYellow:  "11",
	core.ColorBrightBlue:    "12",
	core.ColorBrightMagenta: "13",
	core.ColorBrightCyan:    "14",
	core.ColorBrightWhite:   "15",
	core.ColorOrange:        "208",
	core.ColorGray:          "245",
	core.ColorBlack:         "16",

	core.ColorTile2:     "254",
	core.ColorTile4:     "223",
	core.ColorTile8:     "215",
	core.ColorTile16:    "209",
	core.ColorTile32:    "203",
	core.ColorTile64:    "196",
	core.ColorTile128:   "186",
	core.ColorTile256:   "185",
	core.ColorTile512:   "184",
	core.ColorTile1024:  "178",
	core.ColorTile2048:  "172",
	core.ColorTileSuper: "99",
	core.ColorBoard:     "237",
}

// styleFor builds the style for a foreground/background pair.
func styleFor(fg, bg core.Color) lipgloss.Style {
	style := lipgloss.NewStyle()
	if c, ok := colorCodes[fg]; ok {
		style = style.Foreground(c)
	}
	if c, ok := colorCodes[bg]; ok {
		style = style.Background(c)
	}
	if bg >= core.ColorTile8 && bg <= core.ColorTileSuper {
		style = style.Bold(true)
	}
	return style
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same colors to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			start := s.GetCell(x, y)

			run.Reset()
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != start.Color || cell.Bg != start.Bg {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			if start.Color == core.ColorDefault && start.Bg == core.ColorDefault {
				sb.WriteString(run.String())
				continue
			}
			sb.WriteString(styleFor(start.Color, start.Bg).Render(run.String()))
		}
	}
	return sb.String()
}
