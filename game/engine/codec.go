package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Encode writes the match in the flat text layout:
//
//	width height
//	strategy-code
//	started-flag
//	player-turn-flag
//	ship-count
//	size x y horizontal-flag   (one line per player ship)
//	player board rows
//	enemy board rows
func (e *GameEngine) Encode(w io.Writer) error {
	if e.width == 0 || e.height == 0 {
		return fmt.Errorf("%w: board size is not set", ErrPersistence)
	}

	bw := bufio.NewWriter(w)
	started := e.phase == PhaseInCombat || e.phase == PhaseFinished
	fmt.Fprintf(bw, "%d %d\n", e.width, e.height)
	fmt.Fprintf(bw, "%d\n", e.strategy.code())
	fmt.Fprintf(bw, "%d\n", flag(started))
	fmt.Fprintf(bw, "%d\n", flag(e.active == SidePlayer))

	ships := e.player.fleet.Ships()
	fmt.Fprintf(bw, "%d\n", len(ships))
	for _, s := range ships {
		fmt.Fprintf(bw, "%d %d %d %d\n", s.Length, s.X, s.Y, flag(s.Horizontal))
	}

	writeRows(bw, e.player.board)
	writeRows(bw, e.enemy.board)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func writeRows(w *bufio.Writer, b *Board) {
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if x > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.Itoa(int(b.At(x, y))))
		}
		w.WriteByte('\n')
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// tokenReader reads whitespace separated integers
type tokenReader struct {
	sc *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() (int, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return 0, io.EOF
	}
	v, err := strconv.Atoi(t.sc.Text())
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrCorruptSave, t.sc.Text())
	}
	return v, nil
}

func (t *tokenReader) must() (int, error) {
	v, err := t.next()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: unexpected end of data", ErrCorruptSave)
	}
	return v, err
}

// readGrid reads width*height cell codes. ok is false when the data ends
// before the first cell, which marks the board as absent.
func (t *tokenReader) readGrid(width, height int) (grid []CellState, ok bool, err error) {
	grid = make([]CellState, width*height)
	for i := range grid {
		v, err := t.next()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("%w: board ends after %d cells", ErrCorruptSave, i)
		}
		if err != nil {
			return nil, false, err
		}
		if v < int(Empty) || v > int(Destroyed) {
			return nil, false, fmt.Errorf("%w: unknown cell code %d", ErrCorruptSave, v)
		}
		grid[i] = CellState(v)
	}
	return grid, true, nil
}

// Decode restores a match written by Encode. Ships that fail placement are
// dropped. The engine is left untouched if decoding fails.
func (e *GameEngine) Decode(r io.Reader) error {
	if e.phase == PhaseInCombat {
		return ErrLoadInCombat
	}

	t := newTokenReader(r)
	var header [5]int
	for i := range header {
		v, err := t.must()
		if err != nil {
			return err
		}
		header[i] = v
	}
	width, height := header[0], header[1]
	if width < MinBoardSize || width > MaxBoardSize || height < MinBoardSize || height > MaxBoardSize {
		return fmt.Errorf("%w: invalid board size %dx%d", ErrCorruptSave, width, height)
	}
	strategy, err := strategyFromCode(header[2])
	if err != nil {
		return err
	}
	started := header[3] != 0
	playerTurn := header[4] != 0

	shipCount, err := t.must()
	if err != nil {
		return err
	}
	if shipCount < 0 {
		return fmt.Errorf("%w: negative ship count", ErrCorruptSave)
	}

	player := newSide(width, height)
	for i := 0; i < shipCount; i++ {
		var f [4]int
		for j := range f {
			if f[j], err = t.must(); err != nil {
				return err
			}
		}
		size, x, y, horizontal := f[0], f[1], f[2], f[3] != 0
		if size < MinShipLength || size > MaxShipLength {
			continue
		}
		_ = placeShip(player.board, player.fleet, NewShip(x, y, size, horizontal))
	}

	playerGrid, ok, err := t.readGrid(width, height)
	if err != nil {
		return err
	}
	if ok {
		overlayPlayer(player, playerGrid)
	}

	enemy := newSide(width, height)
	enemyGrid, ok, err := t.readGrid(width, height)
	if err != nil {
		return err
	}
	if ok {
		rebuildEnemy(enemy, enemyGrid)
	}

	counts := e.counts
	switch {
	case player.fleet.Len() > 0:
		counts = player.fleet.Counts()
	case enemy.fleet.Len() > 0:
		counts = enemy.fleet.Counts()
	}

	e.width, e.height = width, height
	e.counts = counts
	e.player, e.enemy = player, enemy
	e.shots = nil
	if strategy != e.strategy || e.targeter == nil {
		e.strategy = strategy
		e.targeter = NewTargeter(strategy, e.rng)
	}
	e.targeter.Reset()

	e.active = ""
	switch {
	case started && player.fleet.Len() > 0 && enemy.fleet.Len() > 0:
		if e.IsFinished() {
			e.phase = PhaseFinished
		} else {
			e.phase = PhaseInCombat
			e.active = SideEnemy
			if playerTurn {
				e.active = SidePlayer
			}
		}
	case player.fleet.Len() > 0:
		e.phase = PhasePlacing
	default:
		e.phase = PhaseConfiguring
	}
	return nil
}

// overlayPlayer replays fired shots onto the human board. Ship cells come
// from the ship list, so only misses and hits are taken from the grid.
func overlayPlayer(s side, grid []CellState) {
	w := s.board.Width()
	for i, c := range grid {
		x, y := i%w, i/w
		ship := s.fleet.ShipAt(x, y)
		switch {
		case c == Miss && ship == nil:
			s.board.mark(x, y, Miss)
		case (c == Hit || c == Destroyed) && ship != nil:
			s.board.mark(x, y, Hit)
			ship.RegisterHit(x, y)
			if c == Destroyed {
				s.board.mark(x, y, Destroyed)
			}
		}
	}
}

func shipCell(c CellState) bool {
	return c == ShipPresent || c == Hit || c == Destroyed
}

// rebuildEnemy recovers the engine fleet from straight runs of ship cells,
// then replays hits and misses.
func rebuildEnemy(s side, grid []CellState) {
	w, h := s.board.Width(), s.board.Height()
	at := func(x, y int) CellState {
		if x < 0 || y < 0 || x >= w || y >= h {
			return Empty
		}
		return grid[y*w+x]
	}

	used := make([]bool, len(grid))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if used[y*w+x] || !shipCell(at(x, y)) {
				continue
			}
			length, horizontal := 1, true
			for shipCell(at(x+length, y)) && length < MaxShipLength {
				length++
			}
			if length == 1 {
				horizontal = false
				for shipCell(at(x, y+length)) && length < MaxShipLength {
					length++
				}
			}
			ship := NewShip(x, y, length, horizontal)
			for _, c := range ship.Cells() {
				used[c.Y*w+c.X] = true
			}
			_ = placeShip(s.board, s.fleet, ship)
		}
	}

	for i, c := range grid {
		x, y := i%w, i/w
		switch c {
		case Miss:
			s.board.mark(x, y, Miss)
		case Hit, Destroyed:
			ship := s.fleet.ShipAt(x, y)
			if ship == nil {
				continue
			}
			s.board.mark(x, y, Hit)
			ship.RegisterHit(x, y)
			if c == Destroyed {
				s.board.mark(x, y, Destroyed)
			}
		}
	}
}

// Save writes the match to a file
func (e *GameEngine) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := e.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Load restores a match from a file
func (e *GameEngine) Load(path string) error {
	if e.phase == PhaseInCombat {
		return ErrLoadInCombat
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer f.Close()
	return e.Decode(f)
}
