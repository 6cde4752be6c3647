package game

import (
	"fmt"
	"strconv"

	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/engine"
)

const (
	cellWidth  = 7 // Width of each cell including its left border
	cellHeight = 2 // Height of each cell including its top border

	boardW    = engine.Size*cellWidth + 1
	boardH    = engine.Size*cellHeight + 1
	hudHeight = 3

	minScreenW = boardW + 2
	minScreenH = hudHeight + 1 + boardH + 2
)

// Render draws the game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	if g.tooSmall {
		g.renderTooSmall(dst)
		return
	}

	board := core.NewRect(0, hudHeight+1, g.screenW, boardH).CenterIn(boardW, boardH)

	g.renderHUD(dst, board.X)
	g.renderBoard(dst, board.X, board.Y)

	if hint := g.Controls(); len(hint) <= g.screenW {
		dst.DrawTextColor((g.screenW-len(hint))/2, board.Bottom()+1, hint, core.ColorGray, core.ColorDefault)
	}

	g.renderOverlays(dst, board)
}

func (g *Game) renderTooSmall(dst *core.Screen) {
	y := g.screenH / 2
	dst.DrawTextCentered(y, "Window too small")
	dst.DrawTextCentered(y+1, fmt.Sprintf("Need %dx%d", minScreenW, minScreenH))
}

// renderHUD draws the title, score, best score and max tile.
func (g *Game) renderHUD(dst *core.Screen, boardX int) {
	title := Title
	dst.DrawTextColor(boardX+(boardW-len(title))/2, 0, title, core.ColorBrightYellow, core.ColorDefault)

	dst.DrawTextColor(boardX, 1, fmt.Sprintf("Score: %d", g.sess.Score()), core.ColorBrightWhite, core.ColorDefault)

	best := fmt.Sprintf("Best: %d", g.sess.Best())
	bestX := max(boardX+boardW-len(best), boardX)
	dst.DrawTextColor(bestX, 1, best, core.ColorYellow, core.ColorDefault)

	info := fmt.Sprintf("Max: %d  Moves: %d", engine.MaxTile(g.sess.Grid()), g.sess.Moves())
	dst.DrawTextColor(boardX+(boardW-len(info))/2, 2, info, core.ColorGray, core.ColorDefault)
}

// renderBoard draws the grid lines and colored tiles.
func (g *Game) renderBoard(dst *core.Screen, boardX, boardY int) {
	for y := range engine.Size + 1 {
		for x := range engine.Size + 1 {
			px := boardX + x*cellWidth
			py := boardY + y*cellHeight

			dst.SetCell(px, py, core.Cell{Rune: junction(x, y), Color: core.ColorGray})

			if x < engine.Size {
				for i := 1; i < cellWidth; i++ {
					dst.SetCell(px+i, py, core.Cell{Rune: '─', Color: core.ColorGray})
				}
			}
			if y < engine.Size {
				for i := 1; i < cellHeight; i++ {
					dst.SetCell(px, py+i, core.Cell{Rune: '│', Color: core.ColorGray})
				}
			}
		}
	}

	grid := g.sess.Grid()
	for y := range engine.Size {
		for x := range engine.Size {
			val := grid[y][x]
			bg, fg := core.TileColors(val)

			inner := core.NewRect(boardX+x*cellWidth+1, boardY+y*cellHeight+1, cellWidth-1, cellHeight-1)
			dst.FillRect(inner, ' ', fg, bg)

			label := "·"
			if val != 0 {
				label = strconv.Itoa(val)
			}
			pad := max((inner.W-len([]rune(label)))/2, 0)
			dst.DrawTextColor(inner.X+pad, inner.Y, label, fg, bg)
		}
	}
}

// junction returns the box-drawing rune for a grid line crossing.
func junction(x, y int) rune {
	last := engine.Size
	switch {
	case y == 0 && x == 0:
		return '┌'
	case y == 0 && x == last:
		return '┐'
	case y == last && x == 0:
		return '└'
	case y == last && x == last:
		return '┘'
	case y == 0:
		return '┬'
	case y == last:
		return '┴'
	case x == 0:
		return '├'
	case x == last:
		return '┤'
	default:
		return '┼'
	}
}

func (g *Game) renderOverlays(dst *core.Screen, board core.Rect) {
	if g.sess.Terminal() {
		maxStr := fmt.Sprintf("Max tile: %d", engine.MaxTile(g.sess.Grid()))
		scoreStr := fmt.Sprintf("Score: %d", g.sess.Score())
		drawOverlay(dst, board, core.ColorBrightRed, "GAME OVER", scoreStr, maxStr, "R or Enter: new game")
		return
	}

	if g.paused {
		drawOverlay(dst, board, core.ColorBrightCyan, "PAUSED", "P or Esc: resume")
	}
}

// drawOverlay draws a boxed block of lines centered on area.
func drawOverlay(dst *core.Screen, area core.Rect, color core.Color, lines ...string) {
	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, len(line))
	}

	box := area.CenterIn(maxLen+4, len(lines)+2)

	dst.FillRect(box, ' ', core.ColorDefault, core.ColorDefault)
	dst.DrawBox(box, color)

	for i, line := range lines {
		dst.DrawTextColor(box.X+(box.W-len(line))/2, box.Y+1+i, line, core.ColorBrightWhite, core.ColorDefault)
	}
}
