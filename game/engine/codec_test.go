package engine

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func sameRows(t *testing.T, name string, a, b [][]int) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s: %d rows vs %d rows", name, len(a), len(b))
	}
	for y := range a {
		for x := range a[y] {
			if a[y][x] != b[y][x] {
				t.Fatalf("%s: cell (%d,%d) = %d, want %d", name, x, y, b[y][x], a[y][x])
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := New(WithSeed(31))
	e.CreateGame(ModeSecondary)
	e.SetStrategy(StrategyHunt)
	if err := e.StartGame(); err != nil {
		t.Fatal(err)
	}

	// Play a few turns so both boards carry shots
	for y := 0; y < 2; y++ {
		for x := 0; x < e.Width(); x++ {
			if e.ActiveSide() == SideEnemy {
				e.PlayEnemyTurn()
			}
			e.Shoot(x, y)
		}
	}

	path := filepath.Join(t.TempDir(), "match.sav")
	if err := e.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Width() != e.Width() || loaded.Height() != e.Height() {
		t.Errorf("Size %dx%d, want %dx%d", loaded.Width(), loaded.Height(), e.Width(), e.Height())
	}
	if loaded.Strategy() != StrategyHunt {
		t.Errorf("Strategy %s, want hunt", loaded.Strategy())
	}
	if got, want := loaded.PlayerShips(), e.PlayerShips(); len(got) != len(want) {
		t.Fatalf("Loaded %d ships, want %d", len(got), len(want))
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("ship %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	}
	sameRows(t, "player board", e.PlayerBoard().Rows(), loaded.PlayerBoard().Rows())
	sameRows(t, "enemy board", e.EnemyBoard().Rows(), loaded.EnemyBoard().Rows())

	if loaded.Phase() != e.Phase() || loaded.ActiveSide() != e.ActiveSide() {
		t.Errorf("Loaded %s/%q, want %s/%q", loaded.Phase(), loaded.ActiveSide(), e.Phase(), e.ActiveSide())
	}
	if loaded.ShipCounts() != DefaultShipCounts {
		t.Errorf("Expected counts recovered from the fleet, got %v", loaded.ShipCounts())
	}
}

func TestEncodeLayout(t *testing.T) {
	e := New()
	e.SetWidth(3)
	e.SetHeight(2)
	e.SetShipCount(2, 1)
	if err := e.PlaceShip(0, 0, 2, true); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	want := "3 2\n0\n0\n0\n1\n2 0 0 1\n1 1 0\n0 0 0\n0 0 0\n0 0 0\n"
	if buf.String() != want {
		t.Errorf("Encode =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestLoadRejectedInCombat(t *testing.T) {
	e := newStartedEngine(t, 12)
	path := filepath.Join(t.TempDir(), "match.sav")
	if err := e.Save(path); err != nil {
		t.Fatal(err)
	}
	if err := e.Load(path); !errors.Is(err, ErrLoadInCombat) {
		t.Errorf("Expected ErrLoadInCombat, got %v", err)
	}
	if err := e.Decode(strings.NewReader("5 5\n0\n0\n0\n0\n")); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected persistence error, got %v", err)
	}
}

func TestDecodeDropsInvalidShips(t *testing.T) {
	e := New()
	data := "5 5\n1\n0\n0\n3\n2 0 0 1\n2 0 1 1\n9 3 3 1\n"
	if err := e.Decode(strings.NewReader(data)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(e.PlayerShips()) != 1 {
		t.Fatalf("Expected touching and oversized ships to be dropped, got %+v", e.PlayerShips())
	}
	if e.Phase() != PhasePlacing {
		t.Errorf("Expected placing phase, got %s", e.Phase())
	}
	if e.Strategy() != StrategyHunt {
		t.Errorf("Expected hunt strategy, got %s", e.Strategy())
	}
	if e.PlayerBoard().Count(ShipPresent) != 2 {
		t.Errorf("Expected the board to be derived from the ship list")
	}
}

func TestDecodeCorruptData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"zero width", "0 5\n0\n0\n0\n0\n"},
		{"oversized", "101 5\n0\n0\n0\n0\n"},
		{"not a number", "5 five\n0\n0\n0\n0\n"},
		{"bad strategy", "5 5\n7\n0\n0\n0\n"},
		{"truncated ship", "5 5\n0\n0\n0\n1\n2 0\n"},
		{"truncated board", "2 2\n0\n0\n0\n0\n0 0 0\n"},
		{"bad cell code", "2 2\n0\n0\n0\n0\n0 0 9 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.CreateGame(ModeSecondary)
			err := e.Decode(strings.NewReader(tt.data))
			if !errors.Is(err, ErrPersistence) {
				t.Fatalf("Expected persistence error, got %v", err)
			}
			if e.Width() != DefaultSize || e.Phase() != PhaseConfiguring {
				t.Error("Failed decode changed the engine")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	e := New()
	if err := e.Load(filepath.Join(t.TempDir(), "nope.sav")); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected persistence error, got %v", err)
	}
	if err := e.Save(filepath.Join(t.TempDir(), "empty.sav")); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected saving a sizeless board to fail, got %v", err)
	}
}
