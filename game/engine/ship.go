package engine

// Ship is a straight ship of length 1..4 with a per-segment hit tracker
type Ship struct {
	X          int
	Y          int
	Length     int
	Horizontal bool
	hits       []bool
}

// NewShip creates a ship with no segments hit
func NewShip(x, y, length int, horizontal bool) *Ship {
	if length < 0 {
		length = 0
	}
	return &Ship{
		X:          x,
		Y:          y,
		Length:     length,
		Horizontal: horizontal,
		hits:       make([]bool, length),
	}
}

// Cells returns the occupied cells in segment order
func (s *Ship) Cells() []Position {
	cells := make([]Position, s.Length)
	for i := 0; i < s.Length; i++ {
		cells[i] = s.segment(i)
	}
	return cells
}

func (s *Ship) segment(i int) Position {
	if s.Horizontal {
		return Position{X: s.X + i, Y: s.Y}
	}
	return Position{X: s.X, Y: s.Y + i}
}

// index returns the segment index at (x, y), or -1
func (s *Ship) index(x, y int) int {
	if s.Horizontal {
		if y == s.Y && x >= s.X && x < s.X+s.Length {
			return x - s.X
		}
		return -1
	}
	if x == s.X && y >= s.Y && y < s.Y+s.Length {
		return y - s.Y
	}
	return -1
}

// Contains reports whether the ship occupies (x, y)
func (s *Ship) Contains(x, y int) bool {
	return s.index(x, y) >= 0
}

// RegisterHit records a hit at (x, y). It returns false when the cell is not
// part of the ship or the segment was already hit.
func (s *Ship) RegisterHit(x, y int) bool {
	i := s.index(x, y)
	if i < 0 || s.hits[i] {
		return false
	}
	s.hits[i] = true
	return true
}

// IsDestroyed reports whether every segment has been hit
func (s *Ship) IsDestroyed() bool {
	if s.Length == 0 {
		return false
	}
	for _, h := range s.hits {
		if !h {
			return false
		}
	}
	return true
}

// HitCount returns the number of hit segments
func (s *Ship) HitCount() int {
	n := 0
	for _, h := range s.hits {
		if h {
			n++
		}
	}
	return n
}

// Overlaps reports whether two ships share a cell
func (s *Ship) Overlaps(other *Ship) bool {
	for _, c := range s.Cells() {
		if other.Contains(c.X, c.Y) {
			return true
		}
	}
	return false
}

// extent returns the inclusive bounding box of the ship
func (s *Ship) extent() (minX, minY, maxX, maxY int) {
	minX, minY = s.X, s.Y
	maxX, maxY = s.X, s.Y
	if s.Length > 0 {
		last := s.segment(s.Length - 1)
		maxX, maxY = last.X, last.Y
	}
	return
}

// Info returns the public description of the ship
func (s *Ship) Info() ShipInfo {
	return ShipInfo{
		X:          s.X,
		Y:          s.Y,
		Length:     s.Length,
		Horizontal: s.Horizontal,
		Hits:       s.HitCount(),
		Destroyed:  s.IsDestroyed(),
	}
}
