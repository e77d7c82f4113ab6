package engine

import "fmt"

// Board is a width x height grid of cell states for one side
type Board struct {
	width  int
	height int
	cells  []CellState
}

// NewBoard creates an empty board. A zero-sized board is valid and has no cells.
func NewBoard(width, height int) *Board {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Board{
		width:  width,
		height: height,
		cells:  make([]CellState, width*height),
	}
}

// Width returns the number of columns
func (b *Board) Width() int { return b.width }

// Height returns the number of rows
func (b *Board) Height() int { return b.height }

// InBounds reports whether (x, y) lies on the board
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// At returns the state of (x, y). Out-of-bounds cells read as Empty.
func (b *Board) At(x, y int) CellState {
	if !b.InBounds(x, y) {
		return Empty
	}
	return b.cells[y*b.width+x]
}

// canTransition enforces Empty -> {ShipPresent|Miss} -> Hit -> Destroyed
func canTransition(from, to CellState) bool {
	switch from {
	case Empty:
		return to == ShipPresent || to == Miss
	case ShipPresent:
		return to == Hit
	case Hit:
		return to == Destroyed
	}
	return false
}

// mark moves a cell to a new state, refusing any non-monotonic transition
func (b *Board) mark(x, y int, to CellState) bool {
	if !b.InBounds(x, y) {
		return false
	}
	i := y*b.width + x
	if b.cells[i] == to {
		return true
	}
	if !canTransition(b.cells[i], to) {
		return false
	}
	b.cells[i] = to
	return true
}

// Count returns how many cells hold the given state
func (b *Board) Count(state CellState) int {
	n := 0
	for _, c := range b.cells {
		if c == state {
			n++
		}
	}
	return n
}

// Rows returns the board as rows of integer cell codes
func (b *Board) Rows() [][]int {
	rows := make([][]int, b.height)
	for y := 0; y < b.height; y++ {
		row := make([]int, b.width)
		for x := 0; x < b.width; x++ {
			row[x] = int(b.cells[y*b.width+x])
		}
		rows[y] = row
	}
	return rows
}

// maskedRows returns the rows with ShipPresent reported as Empty
func (b *Board) maskedRows() [][]int {
	rows := b.Rows()
	for _, row := range rows {
		for x, c := range row {
			if CellState(c) == ShipPresent {
				row[x] = int(Empty)
			}
		}
	}
	return rows
}

// set writes a cell without transition checks; used only when restoring a save
func (b *Board) set(x, y int, state CellState) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("%w: cell (%d,%d) out of bounds", ErrCorruptSave, x, y)
	}
	if state > Destroyed {
		return fmt.Errorf("%w: unknown cell code %d", ErrCorruptSave, state)
	}
	b.cells[y*b.width+x] = state
	return nil
}

// BoardView is the read-only surface a targeting strategy may inspect
type BoardView interface {
	Width() int
	Height() int
	At(x, y int) CellState
}

// hiddenView exposes an opponent board without revealing unhit ships
type hiddenView struct {
	board *Board
}

func (v hiddenView) Width() int  { return v.board.Width() }
func (v hiddenView) Height() int { return v.board.Height() }

func (v hiddenView) At(x, y int) CellState {
	c := v.board.At(x, y)
	if c == ShipPresent {
		return Empty
	}
	return c
}
