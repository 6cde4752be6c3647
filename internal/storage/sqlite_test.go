package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreOpenMemory(t *testing.T) {
	store, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	defer store.Close()

	if err := store.SetInt("k", 1); err != nil {
		t.Fatalf("SetInt() failed: %v", err)
	}
	if v, _ := store.GetInt("k"); v != 1 {
		t.Errorf("GetInt() = %d, expected 1", v)
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	for _, r := range []Result{
		{Score: 100, MaxTile: 16, Moves: 20},
		{Score: 50, MaxTile: 8, Moves: 10},
		{Score: 200, MaxTile: 32, Moves: 40},
	} {
		if _, err := store.SaveScore("2048", r); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}
	if _, err := store.SaveScore("other", Result{Score: 500}); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("2048", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}

	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}
	want := []int{200, 100, 50}
	for i, s := range scores {
		if s.Score != want[i] {
			t.Errorf("scores[%d] = %d, expected %d", i, s.Score, want[i])
		}
	}
	if scores[0].MaxTile != 32 || scores[0].Moves != 40 {
		t.Errorf("top entry = %+v, expected max tile 32 and 40 moves", scores[0])
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 1; i <= 20; i++ {
		store.SaveScore("2048", Result{Score: i * 10})
	}

	scores, err := store.TopScores("2048", 5)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 5 {
		t.Errorf("Expected 5 scores, got %d", len(scores))
	}
	if scores[0].Score != 200 {
		t.Errorf("Expected top score 200, got %d", scores[0].Score)
	}

	all, err := store.AllScores("2048")
	if err != nil {
		t.Fatalf("AllScores() failed: %v", err)
	}
	if len(all) != 20 {
		t.Errorf("Expected 20 scores, got %d", len(all))
	}
}

func TestStoreHighScore(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore("2048")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty game, got %d", high)
	}

	store.SaveScore("2048", Result{Score: 100})
	store.SaveScore("2048", Result{Score: 300})
	store.SaveScore("2048", Result{Score: 200})

	high, err = store.HighScore("2048")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 300 {
		t.Errorf("Expected high score of 300, got %d", high)
	}
}

func TestStoreKeyValue(t *testing.T) {
	store := openTestStore(t)

	v, err := store.GetInt(session.BestScoreKey)
	if err != nil {
		t.Fatalf("GetInt() on missing key failed: %v", err)
	}
	if v != 0 {
		t.Errorf("missing key = %d, expected 0", v)
	}

	if err := store.SetInt(session.BestScoreKey, 128); err != nil {
		t.Fatalf("SetInt() failed: %v", err)
	}
	if err := store.SetInt(session.BestScoreKey, 256); err != nil {
		t.Fatalf("SetInt() overwrite failed: %v", err)
	}

	v, err = store.GetInt(session.BestScoreKey)
	if err != nil {
		t.Fatalf("GetInt() failed: %v", err)
	}
	if v != 256 {
		t.Errorf("GetInt() = %d, expected 256", v)
	}
}

func TestStoreBestScoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "best.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	sess := session.New(store, engine.NewRand(1))
	sess.SetGrid(engine.Grid{{64, 64, 0, 0}})
	sess.Move(engine.DirLeft)
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	sess = session.New(store, engine.NewRand(2))
	if sess.Best() != 128 {
		t.Errorf("Best() after reopen = %d, expected 128", sess.Best())
	}
}

func TestStoreClearScores(t *testing.T) {
	store := openTestStore(t)

	store.SaveScore("2048", Result{Score: 100})
	store.SaveScore("2048", Result{Score: 200})
	store.SaveScore("other", Result{Score: 500})
	store.SetInt(session.BestScoreKey, 200)

	if err := store.ClearScores("2048"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}

	scores, _ := store.TopScores("2048", 10)
	if len(scores) != 0 {
		t.Errorf("Expected 0 scores after clear, got %d", len(scores))
	}
	if v, _ := store.GetInt(session.BestScoreKey); v != 0 {
		t.Errorf("best score after clear = %d, expected 0", v)
	}

	others, _ := store.TopScores("other", 10)
	if len(others) != 1 {
		t.Errorf("Other game's scores should be untouched, got %d", len(others))
	}
}

func TestGetGameStats(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.GetGameStats("2048")
	if err != nil {
		t.Fatalf("GetGameStats() on empty store failed: %v", err)
	}
	if stats.GamesCount != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("empty stats = %+v", stats)
	}

	store.SaveScore("2048", Result{Score: 100, MaxTile: 64})
	store.SaveScore("2048", Result{Score: 300, MaxTile: 256})

	stats, err = store.GetGameStats("2048")
	if err != nil {
		t.Fatalf("GetGameStats() failed: %v", err)
	}
	if stats.GamesCount != 2 {
		t.Errorf("GamesCount = %d, expected 2", stats.GamesCount)
	}
	if stats.HighScore != 300 || stats.BestTile != 256 {
		t.Errorf("HighScore/BestTile = %d/%d, expected 300/256", stats.HighScore, stats.BestTile)
	}
	if stats.AvgScore != 200 || stats.TotalScore != 400 {
		t.Errorf("AvgScore/TotalScore = %v/%d, expected 200/400", stats.AvgScore, stats.TotalScore)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed should be set")
	}
}

func TestOpenExpandsOnlyOwnHome(t *testing.T) {
	home := t.TempDir()
	wd := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(wd)

	store, err := Open("~/data/scores.db")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	store.Close()
	if _, err := os.Stat(filepath.Join(home, "data", "scores.db")); err != nil {
		t.Errorf("database not created under home: %v", err)
	}

	// ~name is a relative path, not $HOME/name
	store, err = Open("~other/scores.db")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	store.Close()
	if _, err := os.Stat(filepath.Join(wd, "~other", "scores.db")); err != nil {
		t.Errorf("database not created relative to the working directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "other")); !os.IsNotExist(err) {
		t.Errorf("~other was expanded into the home directory")
	}
}
