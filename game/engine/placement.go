package engine

// CheckPlacement validates a candidate ship against a board and fleet.
// Rules are applied in order: bounds, overlap with an existing ship, then the
// one-cell buffer ring around the candidate, which must hold no ShipPresent.
func CheckPlacement(b *Board, f *Fleet, ship *Ship) error {
	if ship.Length < MinShipLength || ship.Length > MaxShipLength {
		return ErrOutOfBounds
	}
	for _, c := range ship.Cells() {
		if !b.InBounds(c.X, c.Y) {
			return ErrOutOfBounds
		}
	}
	if f != nil {
		for _, other := range f.ships {
			if ship.Overlaps(other) {
				return ErrOverlap
			}
		}
	}
	if !ringClear(b, ship) {
		return ErrTooClose
	}
	return nil
}

// IsValidPlacement is the boolean form of CheckPlacement
func IsValidPlacement(b *Board, f *Fleet, ship *Ship) bool {
	return CheckPlacement(b, f, ship) == nil
}

// ringClear checks [x-1, x+len] x [y-1, y+1] (swapped when vertical)
func ringClear(b *Board, ship *Ship) bool {
	for i := -1; i <= ship.Length; i++ {
		for j := -1; j <= 1; j++ {
			x, y := ship.X+i, ship.Y+j
			if !ship.Horizontal {
				x, y = ship.X+j, ship.Y+i
			}
			if b.At(x, y) == ShipPresent {
				return false
			}
		}
	}
	return true
}

// placeShip seats a validated ship on the board and adds it to the fleet
func placeShip(b *Board, f *Fleet, ship *Ship) error {
	if err := CheckPlacement(b, f, ship); err != nil {
		return err
	}
	for _, c := range ship.Cells() {
		b.mark(c.X, c.Y, ShipPresent)
	}
	f.add(ship)
	return nil
}
