package engine

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the engine wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrPlacement     = errors.New("placement error")
	ErrPersistence   = errors.New("persistence error")
	ErrSetup         = errors.New("setup error")
	ErrTurn          = errors.New("turn error")
)

var (
	ErrCombatStarted   = fmt.Errorf("%w: not allowed once combat has started", ErrConfiguration)
	ErrMatchOver       = fmt.Errorf("%w: match is over, reset it first", ErrConfiguration)
	ErrNoBoard         = fmt.Errorf("%w: board size is not set", ErrConfiguration)
	ErrNoShips         = fmt.Errorf("%w: no ships configured", ErrConfiguration)
	ErrShipTooLarge    = fmt.Errorf("%w: largest ship does not fit the board", ErrConfiguration)
	ErrFleetTooDense   = fmt.Errorf("%w: ships cover more than half of the board", ErrConfiguration)
	ErrOutOfBounds     = fmt.Errorf("%w: ship is out of bounds", ErrPlacement)
	ErrOverlap         = fmt.Errorf("%w: ship overlaps another ship", ErrPlacement)
	ErrTooClose        = fmt.Errorf("%w: ship touches another ship", ErrPlacement)
	ErrNoShipsLeft     = fmt.Errorf("%w: no ships of that size left to place", ErrPlacement)
	ErrFleetGeneration = fmt.Errorf("%w: could not generate a fleet", ErrSetup)
	ErrNotInCombat     = fmt.Errorf("%w: match is not in combat", ErrTurn)
	ErrNoTarget        = fmt.Errorf("%w: engine found no cell to fire at", ErrTurn)
	ErrNotYourTurn     = fmt.Errorf("%w: not your turn", ErrTurn)
	ErrLoadInCombat    = fmt.Errorf("%w: cannot load while a match is in combat", ErrPersistence)
	ErrCorruptSave     = fmt.Errorf("%w: corrupt save data", ErrPersistence)
)
