package engine

// resolvePlayerShot fires at the engine-held board. Destruction is derived
// from the board cells, not from the ship's own tracker.
func resolvePlayerShot(b *Board, f *Fleet, x, y int) ShotResult {
	if !b.InBounds(x, y) {
		return ShotInvalid
	}
	switch b.At(x, y) {
	case Empty:
		b.mark(x, y, Miss)
		return ShotMiss
	case ShipPresent:
		b.mark(x, y, Hit)
	default:
		return ShotInvalid
	}

	ship := f.ShipAt(x, y)
	if ship == nil {
		return ShotHit
	}
	for _, c := range ship.Cells() {
		if b.At(c.X, c.Y) == ShipPresent {
			return ShotHit
		}
	}
	for _, c := range ship.Cells() {
		b.mark(c.X, c.Y, Destroyed)
	}
	revealSurroundings(b, ship)
	return ShotDestroyed
}

// resolveEngineShot fires at the human-held board using the defending ship's
// hit tracker. Hit cells stay Hit on this board.
func resolveEngineShot(b *Board, f *Fleet, x, y int) ShotResult {
	if !b.InBounds(x, y) || b.At(x, y).Resolved() {
		return ShotInvalid
	}

	ship := f.ShipAt(x, y)
	if ship == nil {
		b.mark(x, y, Miss)
		return ShotMiss
	}

	b.mark(x, y, Hit)
	if ship.RegisterHit(x, y) && ship.IsDestroyed() {
		revealSurroundings(b, ship)
		return ShotDestroyed
	}
	return ShotHit
}

// revealSurroundings marks every Empty cell in the ship's extent plus one,
// clipped to the board, as Miss. The ship's own cells are never touched.
func revealSurroundings(b *Board, ship *Ship) {
	minX, minY, maxX, maxY := ship.extent()
	for y := max(0, minY-1); y <= min(b.Height()-1, maxY+1); y++ {
		for x := max(0, minX-1); x <= min(b.Width()-1, maxX+1); x++ {
			if ship.Contains(x, y) {
				continue
			}
			if b.At(x, y) == Empty {
				b.mark(x, y, Miss)
			}
		}
	}
}

// fleetSunk reports whether every ship cell of the fleet is Hit or Destroyed.
// An empty fleet is never sunk.
func fleetSunk(b *Board, f *Fleet) bool {
	if f.Len() == 0 {
		return false
	}
	for _, s := range f.ships {
		for _, c := range s.Cells() {
			if st := b.At(c.X, c.Y); st != Hit && st != Destroyed {
				return false
			}
		}
	}
	return true
}
