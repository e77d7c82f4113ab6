package engine

import (
	"math/rand/v2"

	"github.com/dolthub/swiss"
)

// Targeter picks the cells the engine-controlled side fires at.
// Implementations keep their search state between calls; Reset clears it
// when a new match enters combat.
type Targeter interface {
	// NextShot returns the next cell to fire at on the observed board
	NextShot(view BoardView) Position
	// Observe reports the outcome of the shot at p
	Observe(p Position, result ShotResult)
	// Reset clears all persistent search state
	Reset()
	// Strategy names the algorithm
	Strategy() Strategy
}

// NewTargeter creates the targeter for a strategy
func NewTargeter(s Strategy, rng *rand.Rand) Targeter {
	if s == StrategyHunt {
		return NewHuntTarget(rng)
	}
	return NewOrderedSweep()
}

// OrderedSweep scans the board row by row from a persistent cursor
type OrderedSweep struct {
	nextX, nextY int
}

// NewOrderedSweep creates a sweep starting at (0,0)
func NewOrderedSweep() *OrderedSweep {
	return &OrderedSweep{}
}

// NextShot returns the first Empty cell at or after the cursor, wrapping to
// (0,0) once if the end of the board is reached.
func (o *OrderedSweep) NextShot(view BoardView) Position {
	w, h := view.Width(), view.Height()
	for pass := 0; pass < 2; pass++ {
		for o.nextY < h {
			for o.nextX < w {
				x := o.nextX
				o.nextX++
				if view.At(x, o.nextY) == Empty {
					return Position{X: x, Y: o.nextY}
				}
			}
			o.nextX = 0
			o.nextY++
		}
		o.nextX, o.nextY = 0, 0
	}
	return Position{}
}

// Observe is a no-op; the sweep only depends on the board
func (o *OrderedSweep) Observe(Position, ShotResult) {}

// Reset moves the cursor back to (0,0)
func (o *OrderedSweep) Reset() {
	o.nextX, o.nextY = 0, 0
}

// Strategy returns StrategyOrdered
func (o *OrderedSweep) Strategy() Strategy { return StrategyOrdered }

// huntDirections is the probe order around a hit: south, east, north, west
var huntDirections = [4]Position{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// HuntTarget searches on a checkerboard parity and, after a hit, probes the
// four orthogonal neighbors of the most recent hit before moving on.
type HuntTarget struct {
	rng     *rand.Rand
	hits    []Position
	visited *swiss.Map[int, struct{}]
	width   int
}

// NewHuntTarget creates a hunt/target strategy
func NewHuntTarget(rng *rand.Rand) *HuntTarget {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &HuntTarget{rng: rng}
}

func (t *HuntTarget) ensure(view BoardView) {
	if t.visited == nil || t.width != view.Width() {
		t.width = view.Width()
		t.visited = swiss.NewMap[int, struct{}](uint32(max(1, view.Width()*view.Height())))
	}
}

func (t *HuntTarget) key(x, y int) int { return y*t.width + x }

func (t *HuntTarget) isVisited(x, y int) bool {
	return t.visited.Has(t.key(x, y))
}

func (t *HuntTarget) visit(x, y int) {
	t.visited.Put(t.key(x, y), struct{}{})
}

// NextShot follows up the newest hit if any neighbor is left, otherwise it
// falls back to a parity search.
func (t *HuntTarget) NextShot(view BoardView) Position {
	t.ensure(view)

	for len(t.hits) > 0 {
		top := t.hits[len(t.hits)-1]
		for _, d := range huntDirections {
			x, y := top.X+d.X, top.Y+d.Y
			if x < 0 || y < 0 || x >= view.Width() || y >= view.Height() || t.isVisited(x, y) {
				continue
			}
			t.visit(x, y)
			if view.At(x, y) != Empty {
				continue
			}
			return Position{X: x, Y: y}
		}
		t.hits = t.hits[:len(t.hits)-1]
	}

	return t.search(view)
}

// search samples random even-parity cells. A sampled cell that already shows
// a hit is pushed so its neighbors are explored next.
func (t *HuntTarget) search(view BoardView) Position {
	w, h := view.Width(), view.Height()
	if w == 0 || h == 0 {
		return Position{}
	}

	for attempt := 0; attempt < 4*w*h; attempt++ {
		x, y := t.rng.IntN(w), t.rng.IntN(h)
		if (x+y)%2 != 0 || t.isVisited(x, y) {
			continue
		}
		t.visit(x, y)
		switch view.At(x, y) {
		case Empty:
			return Position{X: x, Y: y}
		case Hit:
			t.hits = append(t.hits, Position{X: x, Y: y})
			return t.NextShot(view)
		}
	}

	// Parity cells may be exhausted while odd cells still hide ships.
	var fallback *Position
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if view.At(x, y) != Empty {
				continue
			}
			if !t.isVisited(x, y) {
				t.visit(x, y)
				return Position{X: x, Y: y}
			}
			if fallback == nil {
				fallback = &Position{X: x, Y: y}
			}
		}
	}
	if fallback != nil {
		return *fallback
	}
	return Position{}
}

// Observe pushes hits so the next calls probe around them
func (t *HuntTarget) Observe(p Position, result ShotResult) {
	if t.visited != nil {
		t.visit(p.X, p.Y)
	}
	if result == ShotHit {
		t.hits = append(t.hits, p)
	}
}

// Reset clears the hit stack and the visited set
func (t *HuntTarget) Reset() {
	t.hits = nil
	t.visited = nil
	t.width = 0
}

// Strategy returns StrategyHunt
func (t *HuntTarget) Strategy() Strategy { return StrategyHunt }

// Pending returns a copy of the hit stack, newest last
func (t *HuntTarget) Pending() []Position {
	out := make([]Position, len(t.hits))
	copy(out, t.hits)
	return out
}
