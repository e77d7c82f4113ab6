package engine

import (
	"fmt"
	"strings"
)

// CellState represents the state of a single board cell.
// The integer values are the codes used by the save format.
type CellState uint8

const (
	Empty CellState = iota
	ShipPresent
	Hit
	Miss
	Destroyed
)

const (
	// Validation constants
	MinBoardSize    = 1
	MaxBoardSize    = 100
	DefaultSize     = 10
	MinShipLength   = 1
	MaxShipLength   = 4
	MaxShipsPerSize = 10

	// Retry budgets
	MaxPlacementAttempts = 100
	MaxStartAttempts     = 100
)

func (c CellState) String() string {
	switch c {
	case Empty:
		return "empty"
	case ShipPresent:
		return "ship"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Resolved reports whether the cell has already been fired at.
func (c CellState) Resolved() bool {
	return c == Hit || c == Miss || c == Destroyed
}

// Mode selects who moves first and whether ship counts are preconfigured
type Mode string

const (
	ModePrimary   Mode = "primary"
	ModeSecondary Mode = "secondary"
)

// ParseMode accepts the canonical names plus the legacy master/slave aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "master":
		return ModePrimary, nil
	case "secondary", "slave":
		return ModeSecondary, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// Strategy names an AI targeting algorithm
type Strategy string

const (
	StrategyOrdered Strategy = "ordered"
	StrategyHunt    Strategy = "hunt"
)

// ParseStrategy accepts "ordered", "hunt" and the legacy "custom" alias.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordered":
		return StrategyOrdered, nil
	case "hunt", "custom":
		return StrategyHunt, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, s)
}

// code returns the persisted integer code for the strategy
func (s Strategy) code() int {
	if s == StrategyHunt {
		return 1
	}
	return 0
}

func strategyFromCode(code int) (Strategy, error) {
	switch code {
	case 0:
		return StrategyOrdered, nil
	case 1:
		return StrategyHunt, nil
	}
	return "", fmt.Errorf("%w: unknown strategy code %d", ErrPersistence, code)
}

// ShotResult is the outcome of a single shot
type ShotResult int

const (
	ShotMiss ShotResult = iota
	ShotHit
	ShotDestroyed
	ShotInvalid
)

func (r ShotResult) String() string {
	switch r {
	case ShotMiss:
		return "miss"
	case ShotHit:
		return "hit"
	case ShotDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// MarshalText encodes the result by name for JSON payloads
func (r ShotResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a result name
func (r *ShotResult) UnmarshalText(b []byte) error {
	switch string(b) {
	case "miss":
		*r = ShotMiss
	case "hit":
		*r = ShotHit
	case "destroyed":
		*r = ShotDestroyed
	default:
		*r = ShotInvalid
	}
	return nil
}

// Phase is the match lifecycle state
type Phase string

const (
	PhaseConfiguring Phase = "configuring"
	PhasePlacing     Phase = "placing"
	PhaseInCombat    Phase = "in_combat"
	PhaseFinished    Phase = "finished"
	PhaseStopped     Phase = "stopped"
)

// Side identifies one of the two players
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ShipInfo is the public description of a ship
type ShipInfo struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Length     int  `json:"length"`
	Horizontal bool `json:"horizontal"`
	Hits       int  `json:"hits"`
	Destroyed  bool `json:"destroyed"`
}

// ShotRecord is one resolved shot
type ShotRecord struct {
	Side   Side       `json:"side"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Result ShotResult `json:"result"`
}

// GameState represents the complete observable game state
type GameState struct {
	Phase      Phase        `json:"phase"`
	Mode       Mode         `json:"mode"`
	Strategy   Strategy     `json:"strategy"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	ShipCounts ShipCounts   `json:"ship_counts"`
	Remaining  ShipCounts   `json:"remaining_to_place"`
	ActiveSide Side         `json:"active_side,omitempty"`
	PlayerTurn bool         `json:"player_turn"`
	Finished   bool         `json:"finished"`
	Won        bool         `json:"won"`
	Lost       bool         `json:"lost"`
	PlayerGrid [][]int      `json:"player_board"`
	EnemyGrid  [][]int      `json:"enemy_board"`
	Ships      []ShipInfo   `json:"ships"`
	Shots      []ShotRecord `json:"shots"`
	Message    string       `json:"message,omitempty"`

	// Fair-play commitment to the enemy layout, set by the service layer
	Commitment string `json:"commitment,omitempty"`
}
