package engine

import "math/rand/v2"

// Spawn4Probability is the chance that a spawned tile is a 4 instead of a 2.
const Spawn4Probability = 0.10

// Rand is the subset of *rand.Rand the spawner needs.
// Tests substitute a scripted source.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a seeded pseudo-random source.
// The same seed always yields the same spawn sequence.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x2048))
}

// Tile is a tile placed on the board.
type Tile struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Value int `json:"value"`
}

// Spawner places new tiles into random empty cells.
type Spawner struct {
	rng Rand
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng Rand) *Spawner {
	return &Spawner{rng: rng}
}

// Spawn puts a 2 (90%) or a 4 (10%) into a uniformly chosen empty cell of g.
// Returns false and leaves g untouched when the board is full.
func (s *Spawner) Spawn(g *Grid) (Tile, bool) {
	cells := EmptyCells(*g)
	if len(cells) == 0 {
		return Tile{}, false
	}

	cell := cells[s.rng.IntN(len(cells))]

	value := 2
	if s.rng.Float64() < Spawn4Probability {
		value = 4
	}

	g[cell.Y][cell.X] = value
	return Tile{X: cell.X, Y: cell.Y, Value: value}, true
}

// NewGrid returns a fresh board seeded with two tiles.
func NewGrid(sp *Spawner) Grid {
	var g Grid
	sp.Spawn(&g)
	sp.Spawn(&g)
	return g
}
