package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// GameConfig is a named match preset loaded from JSON
type GameConfig struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Mode        Mode        `json:"mode"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Strategy    Strategy    `json:"strategy"`
	Ships       map[int]int `json:"ships,omitempty"`
}

// Counts converts the ships map into a ShipCounts table. A secondary-mode
// preset without an explicit table gets the default counts.
func (c *GameConfig) Counts() ShipCounts {
	if len(c.Ships) == 0 && c.Mode == ModeSecondary {
		return DefaultShipCounts
	}
	var counts ShipCounts
	for size, n := range c.Ships {
		if size >= MinShipLength && size <= MaxShipLength {
			counts[size-1] = n
		}
	}
	return counts
}

// ValidateGameConfig validates a preset for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrConfiguration)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrConfiguration)
	}
	if _, err := ParseMode(string(config.Mode)); err != nil {
		return err
	}
	if config.Strategy != "" {
		if _, err := ParseStrategy(string(config.Strategy)); err != nil {
			return err
		}
	}
	if config.Width < MinBoardSize || config.Width > MaxBoardSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrConfiguration, MinBoardSize, MaxBoardSize, config.Width)
	}
	if config.Height < MinBoardSize || config.Height > MaxBoardSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrConfiguration, MinBoardSize, MaxBoardSize, config.Height)
	}

	sizes := make([]int, 0, len(config.Ships))
	for size := range config.Ships {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	var counts ShipCounts
	for _, size := range sizes {
		if err := counts.Set(size, config.Ships[size]); err != nil {
			return err
		}
	}

	return ValidateSetup(config.Width, config.Height, config.Counts())
}

// ValidateSetup checks the rules a match must satisfy before combat starts
func ValidateSetup(width, height int, counts ShipCounts) error {
	if width < MinBoardSize || height < MinBoardSize {
		return ErrNoBoard
	}
	if counts.TotalShips() == 0 {
		return ErrNoShips
	}
	if largest := counts.Largest(); largest > width || largest > height {
		return fmt.Errorf("%w (size %d on %dx%d)", ErrShipTooLarge, largest, width, height)
	}
	if cells := counts.TotalCells(); cells > (width*height)/2 {
		return fmt.Errorf("%w (%d cells on %dx%d)", ErrFleetTooDense, cells, width, height)
	}
	return nil
}

// LoadGameConfig loads a preset from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Strategy == "" {
		config.Strategy = StrategyOrdered
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns the classic 10x10 secondary-mode preset
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Classic 10x10 sea battle, you fire first",
		Mode:        ModeSecondary,
		Width:       DefaultSize,
		Height:      DefaultSize,
		Strategy:    StrategyHunt,
		Ships:       map[int]int{1: 2, 2: 2, 3: 2, 4: 1},
	}
}

// Apply configures an engine from the preset by replaying the setup calls
func (c *GameConfig) Apply(e *GameEngine) error {
	if err := e.CreateGame(c.Mode); err != nil {
		return err
	}
	if err := e.SetWidth(c.Width); err != nil {
		return err
	}
	if err := e.SetHeight(c.Height); err != nil {
		return err
	}
	counts := c.Counts()
	for size := MinShipLength; size <= MaxShipLength; size++ {
		if err := e.SetShipCount(size, counts.Get(size)); err != nil {
			return err
		}
	}
	strategy := c.Strategy
	if strategy == "" {
		strategy = StrategyOrdered
	}
	return e.SetStrategy(strategy)
}
