package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

// countingStore records writes on top of a MemoryStore.
type countingStore struct {
	*MemoryStore
	writes int
}

func (c *countingStore) SetInt(key string, value int) error {
	c.writes++
	return c.MemoryStore.SetInt(key, value)
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) GetInt(string) (int, error) { return 0, errors.New("disk on fire") }
func (brokenStore) SetInt(string, int) error   { return errors.New("disk on fire") }

// nearlyTerminal has one empty cell; sliding left fills it and ends the game.
var nearlyTerminal = engine.Grid{
	{0, 4, 8, 16},
	{32, 64, 128, 256},
	{512, 1024, 2048, 4096},
	{8192, 16384, 32768, 65536},
}

func TestNewSessionHasTwoTiles(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		s := New(nil, engine.NewRand(seed))

		if n := engine.CountTiles(s.Grid()); n != 2 {
			t.Fatalf("seed %d: %d tiles, want 2", seed, n)
		}
		if s.State() != StateActive {
			t.Fatalf("seed %d: state = %v, want active", seed, s.State())
		}
		if s.Score() != 0 {
			t.Fatalf("seed %d: score = %d, want 0", seed, s.Score())
		}
	}
}

func TestNewReadsBestScore(t *testing.T) {
	store := NewMemoryStore()
	store.SetInt(BestScoreKey, 500)

	s := New(store, engine.NewRand(1))

	if s.Best() != 500 {
		t.Errorf("Best() = %d, want 500", s.Best())
	}
}

func TestBrokenStoreFallsBackToZero(t *testing.T) {
	s := New(brokenStore{}, engine.NewRand(1))

	if s.Best() != 0 {
		t.Errorf("Best() = %d, want 0", s.Best())
	}

	s.SetGrid(engine.Grid{{2, 2, 0, 0}})
	s.Move(engine.DirLeft)

	// Write failed but the in-memory best still follows the score
	if s.Best() != 4 {
		t.Errorf("Best() = %d, want 4", s.Best())
	}
}

func TestMoveAccumulatesScore(t *testing.T) {
	s := New(nil, engine.NewRand(3))
	s.SetGrid(engine.Grid{
		{2, 2, 4, 4},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	out := s.Move(engine.DirLeft)

	if !out.Changed {
		t.Fatal("move should change the board")
	}
	if out.Score != 12 {
		t.Errorf("out.Score = %d, want 12", out.Score)
	}
	if s.Score() != 12 {
		t.Errorf("Score() = %d, want 12", s.Score())
	}
	if s.Moves() != 1 {
		t.Errorf("Moves() = %d, want 1", s.Moves())
	}
}

func TestNoOpMoveChangesNothing(t *testing.T) {
	s := New(nil, engine.NewRand(3))
	g := engine.Grid{{2, 0, 0, 0}}
	s.SetGrid(g)

	out := s.Move(engine.DirLeft)

	if out.Changed || out.HasSpawn {
		t.Error("no-op move reported a change or a spawn")
	}
	if s.Grid() != g {
		t.Error("no-op move changed the board")
	}
	if s.Score() != 0 || s.Moves() != 0 {
		t.Errorf("score=%d moves=%d after no-op, want 0 and 0", s.Score(), s.Moves())
	}
}

func TestScoreIsSumOfDeltas(t *testing.T) {
	rng := engine.NewRand(99)
	s := New(nil, engine.NewRand(100))

	sum := 0
	for i := 0; i < 300 && !s.Terminal(); i++ {
		prev := s.Score()
		out := s.Move(engine.Directions[rng.IntN(len(engine.Directions))])
		if out.Changed {
			sum += out.Score
		}
		if s.Score() < prev {
			t.Fatalf("score decreased from %d to %d", prev, s.Score())
		}
		if s.Score() != sum {
			t.Fatalf("after %d moves: Score() = %d, sum of deltas = %d", i+1, s.Score(), sum)
		}
	}
}

func TestBestScoreWrittenWhenExceeded(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	s := New(store, engine.NewRand(5))
	s.SetGrid(engine.Grid{{8, 8, 0, 0}})

	s.Move(engine.DirLeft)

	if s.Best() != 16 {
		t.Errorf("Best() = %d, want 16", s.Best())
	}
	if v, _ := store.GetInt(BestScoreKey); v != 16 {
		t.Errorf("stored best = %d, want 16", v)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestBestScoreKeptWhenNotExceeded(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	store.MemoryStore.SetInt(BestScoreKey, 1000)

	s := New(store, engine.NewRand(5))
	s.SetGrid(engine.Grid{{8, 8, 0, 0}})
	s.Move(engine.DirLeft)

	if s.Best() != 1000 {
		t.Errorf("Best() = %d, want 1000", s.Best())
	}
	if store.writes != 0 {
		t.Errorf("writes = %d, want 0", store.writes)
	}
}

func TestBestScoreSeesRecordFromOtherSession(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	s := New(store, engine.NewRand(5))

	// Someone else sets a record after this session started
	store.MemoryStore.SetInt(BestScoreKey, 100)

	s.SetGrid(engine.Grid{{8, 8, 0, 0}})
	s.Move(engine.DirLeft)

	if s.Best() != 100 {
		t.Errorf("Best() = %d, want 100", s.Best())
	}
	if store.writes != 0 {
		t.Errorf("writes = %d, want 0 (stored record is higher)", store.writes)
	}
}

func TestTerminalIsAbsorbing(t *testing.T) {
	s := New(nil, engine.NewRand(11))
	s.SetGrid(nearlyTerminal)

	out := s.Move(engine.DirLeft)
	if !out.Changed || !out.Terminal {
		t.Fatalf("expected a changing move into a terminal board, got %+v", out)
	}
	if s.State() != StateTerminal {
		t.Fatalf("state = %v, want terminal", s.State())
	}

	g, moves, score := s.Grid(), s.Moves(), s.Score()
	for _, dir := range engine.Directions {
		if out := s.Move(dir); out.Changed {
			t.Errorf("move %v accepted in terminal state", dir)
		}
	}
	if s.Grid() != g || s.Moves() != moves || s.Score() != score {
		t.Error("terminal session changed after moves")
	}
}

func TestRestart(t *testing.T) {
	store := NewMemoryStore()
	s := New(store, engine.NewRand(11))
	s.SetGrid(engine.Grid{{1024, 1024, 0, 0}})
	s.Move(engine.DirLeft)

	s.SetGrid(nearlyTerminal)
	s.Move(engine.DirLeft)
	if !s.Terminal() {
		t.Fatal("setup: session should be terminal")
	}

	s.Restart()

	if s.State() != StateActive {
		t.Errorf("state = %v, want active", s.State())
	}
	if s.Score() != 0 || s.Moves() != 0 {
		t.Errorf("score=%d moves=%d, want 0 and 0", s.Score(), s.Moves())
	}
	if n := engine.CountTiles(s.Grid()); n != 2 {
		t.Errorf("%d tiles after restart, want 2", n)
	}
	if s.Best() != 2048 {
		t.Errorf("Best() = %d, want 2048 after restart", s.Best())
	}
}

func TestSetGridDetectsTerminal(t *testing.T) {
	s := New(nil, engine.NewRand(1))

	full := nearlyTerminal
	full[0][0] = 2
	s.SetGrid(full)
	if !s.Terminal() {
		t.Error("full board without merges should be terminal")
	}

	s.SetGrid(nearlyTerminal)
	if s.Terminal() {
		t.Error("board with an empty cell should be active")
	}
}

func TestSnapshot(t *testing.T) {
	s := New(nil, engine.NewRand(1))
	s.SetGrid(engine.Grid{{2, 2, 0, 0}, {128, 0, 0, 0}})
	s.Move(engine.DirLeft)

	snap := s.Snapshot()

	if snap.Score != 4 || snap.Best != 4 || snap.Moves != 1 {
		t.Errorf("snapshot score/best/moves = %d/%d/%d, want 4/4/1", snap.Score, snap.Best, snap.Moves)
	}
	if snap.MaxTile != 128 {
		t.Errorf("MaxTile = %d, want 128", snap.MaxTile)
	}
	if snap.State != "active" || snap.Terminal {
		t.Errorf("state = %s terminal=%v, want active", snap.State, snap.Terminal)
	}
	if snap.Grid != s.Grid() {
		t.Error("snapshot grid differs from session grid")
	}
}

func TestSharedSerializesMoves(t *testing.T) {
	sh := NewShared(New(nil, engine.NewRand(21)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sh.Move(engine.Directions[(i+j)%len(engine.Directions)])
				sh.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	snap := sh.Snapshot()
	if !engine.Valid(snap.Grid) {
		t.Errorf("board corrupted: %v", snap.Grid)
	}

	finished, fresh := sh.Restart()
	if finished != snap.Score {
		t.Errorf("Restart returned %d, want %d", finished, snap.Score)
	}
	if fresh.Score != 0 || fresh.Terminal {
		t.Errorf("fresh snapshot = %+v", fresh)
	}
}

func TestSharedOnFinishOncePerGame(t *testing.T) {
	var finished []Snapshot
	s := New(nil, engine.NewRand(4))
	sh := NewShared(s, OnFinish(func(snap Snapshot) {
		finished = append(finished, snap)
	}))

	// Restarting an untouched game records nothing
	sh.Restart()
	if len(finished) != 0 {
		t.Fatalf("empty game recorded: %+v", finished)
	}

	s.SetGrid(engine.Grid{{4, 4, 0, 0}})
	sh.Move(engine.DirLeft)
	s.SetGrid(nearlyTerminal)
	out, _ := sh.Move(engine.DirLeft)
	if !out.Terminal {
		t.Fatal("setup: move should end the game")
	}
	if len(finished) != 1 || !finished[0].Terminal {
		t.Fatalf("finished = %+v, want one terminal game", finished)
	}

	// The terminal game was already recorded
	sh.Restart()
	if len(finished) != 1 {
		t.Fatalf("terminal game recorded twice: %d entries", len(finished))
	}

	s.SetGrid(engine.Grid{{2, 2, 0, 0}})
	sh.Move(engine.DirLeft)
	sh.Restart()
	if len(finished) != 2 || finished[1].Score != 4 {
		t.Fatalf("abandoned game not recorded: %+v", finished)
	}
}

func TestSharedFinishRecordsOnce(t *testing.T) {
	var finished []Snapshot
	s := New(nil, engine.NewRand(4))
	sh := NewShared(s, OnFinish(func(snap Snapshot) {
		finished = append(finished, snap)
	}))

	sh.Finish()
	if len(finished) != 0 {
		t.Fatal("game without score recorded on Finish")
	}

	s.SetGrid(engine.Grid{{2, 2, 0, 0}})
	sh.Move(engine.DirLeft)
	sh.Finish()
	sh.Finish()
	sh.Restart()

	if len(finished) != 1 || finished[0].Score != 4 {
		t.Fatalf("finished = %+v, want one game with score 4", finished)
	}
}

func TestSharedOnChangeOrder(t *testing.T) {
	var changes []Snapshot
	s := New(nil, engine.NewRand(8))
	sh := NewShared(s, OnChange(func(snap Snapshot) {
		changes = append(changes, snap)
	}))

	sh.SetGrid(engine.Grid{{2, 0, 0, 0}})
	sh.Move(engine.DirLeft) // no-op
	_, moved := sh.Move(engine.DirRight)
	_, fresh := sh.Restart()

	if len(changes) != 3 {
		t.Fatalf("got %d change notifications, want 3 (no-op moves are silent)", len(changes))
	}
	if changes[1].Grid != moved.Grid || changes[2].Grid != fresh.Grid {
		t.Error("notifications do not match the applied changes")
	}

	var synced Snapshot
	sh.Sync(func(snap Snapshot) { synced = snap })
	if synced.Grid != fresh.Grid {
		t.Error("Sync saw a different board than the last change")
	}
}
