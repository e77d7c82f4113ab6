package engine

import "fmt"

// ShipCounts holds the required number of ships per size; index 0 is size 1
type ShipCounts [MaxShipLength]int

// DefaultShipCounts is the table used by the auto-configured secondary mode
var DefaultShipCounts = ShipCounts{2, 2, 2, 1}

// Get returns the count for a ship size, or 0 for an unknown size
func (c ShipCounts) Get(size int) int {
	if size < MinShipLength || size > MaxShipLength {
		return 0
	}
	return c[size-1]
}

// Set changes the count for a ship size
func (c *ShipCounts) Set(size, count int) error {
	if size < MinShipLength || size > MaxShipLength {
		return fmt.Errorf("%w: ship size must be between %d and %d, got %d",
			ErrConfiguration, MinShipLength, MaxShipLength, size)
	}
	if count < 0 || count > MaxShipsPerSize {
		return fmt.Errorf("%w: ship count must be between 0 and %d, got %d",
			ErrConfiguration, MaxShipsPerSize, count)
	}
	c[size-1] = count
	return nil
}

// TotalShips returns the number of ships across all sizes
func (c ShipCounts) TotalShips() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// TotalCells returns the number of cells all ships cover
func (c ShipCounts) TotalCells() int {
	n := 0
	for i, v := range c {
		n += (i + 1) * v
	}
	return n
}

// Largest returns the largest size with a nonzero count, or 0
func (c ShipCounts) Largest() int {
	for size := MaxShipLength; size >= MinShipLength; size-- {
		if c[size-1] > 0 {
			return size
		}
	}
	return 0
}

// Fleet is the set of ships owned by one side
type Fleet struct {
	ships []*Ship
}

// NewFleet creates an empty fleet
func NewFleet() *Fleet {
	return &Fleet{}
}

// Ships returns the ships in placement order
func (f *Fleet) Ships() []*Ship {
	return f.ships
}

// Len returns the number of ships
func (f *Fleet) Len() int {
	return len(f.ships)
}

func (f *Fleet) add(s *Ship) {
	f.ships = append(f.ships, s)
}

// ShipAt returns the ship occupying (x, y), or nil
func (f *Fleet) ShipAt(x, y int) *Ship {
	for _, s := range f.ships {
		if s.Contains(x, y) {
			return s
		}
	}
	return nil
}

// Counts returns how many ships of each size the fleet holds
func (f *Fleet) Counts() ShipCounts {
	var c ShipCounts
	for _, s := range f.ships {
		if s.Length >= MinShipLength && s.Length <= MaxShipLength {
			c[s.Length-1]++
		}
	}
	return c
}

// Remaining returns how many ships of each size are still to be placed
func (f *Fleet) Remaining(required ShipCounts) ShipCounts {
	have := f.Counts()
	var r ShipCounts
	for i := range required {
		if d := required[i] - have[i]; d > 0 {
			r[i] = d
		}
	}
	return r
}

// Infos returns the public description of every ship
func (f *Fleet) Infos() []ShipInfo {
	infos := make([]ShipInfo, 0, len(f.ships))
	for _, s := range f.ships {
		infos = append(infos, s.Info())
	}
	return infos
}
