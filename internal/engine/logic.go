package engine

// SlideAndMergeLine slides a line to the left and merges equal neighbours.
//
// Zeros are removed first, keeping the order of the remaining tiles. The
// compacted tiles are then scanned left to right: two equal consecutive tiles
// become one tile of double value and the scan skips past both, so a tile
// produced by a merge never merges again in the same pass. The result is
// padded with zeros on the right. The returned score is the sum of all merged
// values.
func SlideAndMergeLine(line Line) (Line, int) {
	var tiles [Size]int
	n := 0
	for _, v := range line {
		if v != 0 {
			tiles[n] = v
			n++
		}
	}

	var result Line
	score := 0
	w := 0
	for i := 0; i < n; i++ {
		if i+1 < n && tiles[i] == tiles[i+1] {
			merged := tiles[i] * 2
			result[w] = merged
			score += merged
			i++
		} else {
			result[w] = tiles[i]
		}
		w++
	}

	return result, score
}

// Rotate90 returns a copy of g turned one quarter turn counter-clockwise.
//
// After k rotations a move in direction Direction(k) is a plain left slide:
// the right column becomes the top row for an up move, rows are reversed for
// a right move, and the left column read bottom to top becomes the top row for
// a down move.
func Rotate90(g Grid) Grid {
	var result Grid
	for y := range Size {
		for x := range Size {
			result[y][x] = g[x][Size-1-y]
		}
	}
	return result
}

// rotate applies Rotate90 n times.
func rotate(g Grid, n int) Grid {
	for range n % 4 {
		g = Rotate90(g)
	}
	return g
}

// Slide moves all tiles in the given direction and merges them.
// It does not spawn a tile.
// Returns the new board, score gained, and whether the board changed.
func Slide(g Grid, dir Direction) (Grid, int, bool) {
	if !dir.Valid() {
		return g, 0, false
	}

	k := int(dir)
	work := rotate(g, k)

	total := 0
	for y := range Size {
		row, score := SlideAndMergeLine(work[y])
		work[y] = row
		total += score
	}

	result := rotate(work, (4-k)%4)
	return result, total, result != g
}

// MoveOutcome is the result of applying a move to a board.
type MoveOutcome struct {
	Grid     Grid // Board after the slide and the spawn
	Score    int  // Sum of merged tile values
	Changed  bool // Whether the slide changed the board
	Merges   int  // Number of merged pairs
	Spawned  Tile // Tile added after the slide
	HasSpawn bool // Whether a tile was added
	Terminal bool // Whether no further move is possible (changed moves only)
}

// Move applies a full move: slide, then spawn one tile if the slide changed
// the board. A move that changes nothing is a silent no-op: the board is
// returned as is, the score is zero, nothing spawns and the terminal check
// does not run.
func Move(g Grid, dir Direction, sp *Spawner) MoveOutcome {
	slid, score, changed := Slide(g, dir)
	if !changed {
		return MoveOutcome{Grid: g}
	}

	out := MoveOutcome{
		Grid:    slid,
		Score:   score,
		Changed: true,
		Merges:  CountTiles(g) - CountTiles(slid),
	}
	out.Spawned, out.HasSpawn = sp.Spawn(&out.Grid)
	out.Terminal = IsTerminal(out.Grid)
	return out
}

// HasEmptyCell returns true if there's at least one empty cell.
func HasEmptyCell(g Grid) bool {
	for y := range Size {
		for x := range Size {
			if g[y][x] == 0 {
				return true
			}
		}
	}
	return false
}

// HasPossibleMerge returns true if any horizontally or vertically adjacent
// tiles hold equal values.
func HasPossibleMerge(g Grid) bool {
	for y := range Size {
		for x := range Size {
			val := g[y][x]
			if x < Size-1 && g[y][x+1] == val {
				return true
			}
			if y < Size-1 && g[y+1][x] == val {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether the board is full and no adjacent pair can
// merge, i.e. no move can change it.
func IsTerminal(g Grid) bool {
	return !HasEmptyCell(g) && !HasPossibleMerge(g)
}
