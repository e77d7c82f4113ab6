package engine

import (
	"fmt"
	"math/rand/v2"
)

// GenerateFleet places a random fleet matching counts on a fresh board.
//
// Sizes are seated from largest to smallest. Each ship samples a uniform
// top-left cell and orientation; samples that run off the board are discarded
// without counting, while samples that break the buffer ring count as one
// attempt. A ship that is not seated within MaxPlacementAttempts discards
// the whole fleet.
func GenerateFleet(rng *rand.Rand, counts ShipCounts, width, height int) (*Board, *Fleet, error) {
	if width < MinBoardSize || height < MinBoardSize {
		return nil, nil, ErrNoBoard
	}
	if largest := counts.Largest(); largest > width || largest > height {
		return nil, nil, ErrShipTooLarge
	}

	board := NewBoard(width, height)
	fleet := NewFleet()

	for size := MaxShipLength; size >= MinShipLength; size-- {
		remaining := counts.Get(size)
		attempts := 0
		for remaining > 0 && attempts < MaxPlacementAttempts {
			x := rng.IntN(width)
			y := rng.IntN(height)
			horizontal := rng.IntN(2) == 0

			if horizontal && x+size > width {
				continue
			}
			if !horizontal && y+size > height {
				continue
			}

			if err := placeShip(board, fleet, NewShip(x, y, size, horizontal)); err == nil {
				remaining--
				attempts = 0
				continue
			}
			attempts++
		}
		if remaining > 0 {
			return nil, nil, fmt.Errorf("%w: %d ship(s) of size %d could not be seated", ErrFleetGeneration, remaining, size)
		}
	}

	return board, fleet, nil
}
