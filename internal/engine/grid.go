// Package engine implements the 2048 board: sliding, merging, spawning and
// terminal detection. It imports nothing outside the standard library so the
// rules can be tested without a terminal, a database or a network.
package engine

import "strings"

// Size is the board dimension. The board is always Size x Size.
const Size = 4

// Line is a single row of the board, read left to right.
type Line [Size]int

// Grid is the 4x4 board. Each cell is 0 (empty) or a power of two >= 2.
type Grid [Size]Line

// Direction represents a move direction.
//
// The numeric value of each direction is the number of quarter turns needed
// to turn that move into a left slide (see Rotate90).
type Direction int

const (
	DirLeft Direction = iota
	DirUp
	DirRight
	DirDown
)

// Directions lists all valid move directions.
var Directions = []Direction{DirUp, DirDown, DirLeft, DirRight}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the four move directions.
func (d Direction) Valid() bool {
	return d >= DirLeft && d <= DirDown
}

// ParseDirection converts a direction name ("up", "down", "left", "right")
// into a Direction. Matching is case-insensitive.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return DirLeft, true
	case "up":
		return DirUp, true
	case "right":
		return DirRight, true
	case "down":
		return DirDown, true
	}
	return 0, false
}

// Cell is a board coordinate. X is the column, Y the row.
type Cell struct {
	X, Y int
}

// EmptyCells returns coordinates of all empty cells in row-major order.
func EmptyCells(g Grid) []Cell {
	var cells []Cell
	for y := range Size {
		for x := range Size {
			if g[y][x] == 0 {
				cells = append(cells, Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// CountTiles returns the number of non-empty cells.
func CountTiles(g Grid) int {
	n := 0
	for y := range Size {
		for x := range Size {
			if g[y][x] != 0 {
				n++
			}
		}
	}
	return n
}

// MaxTile returns the maximum tile value on the board.
func MaxTile(g Grid) int {
	maxVal := 0
	for y := range Size {
		for x := range Size {
			maxVal = max(maxVal, g[y][x])
		}
	}
	return maxVal
}

// Valid reports whether every cell holds 0 or a power of two >= 2.
func Valid(g Grid) bool {
	for y := range Size {
		for x := range Size {
			v := g[y][x]
			if v == 0 {
				continue
			}
			if v < 2 || v&(v-1) != 0 {
				return false
			}
		}
	}
	return true
}
