// Command validate provides a small CLI that validates game configuration JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure and required fields
//   - Mode and strategy names
//   - Board dimensions and ship table ranges
//   - The setup rules a match must pass before combat
//   - Placement feasibility: fleets are generated for several seeds
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/seabattle/game/engine"
)

// feasibilityTrials is how many seeded fleets are generated per preset
const feasibilityTrials = 20

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if config.Name == "" {
		result.fail("Missing required field: name")
	}
	if _, err := engine.ParseMode(string(config.Mode)); err != nil {
		result.fail("Invalid mode %q (use primary or secondary)", config.Mode)
	}
	if config.Strategy != "" {
		if _, err := engine.ParseStrategy(string(config.Strategy)); err != nil {
			result.fail("Invalid strategy %q (use ordered or hunt)", config.Strategy)
		}
	}
	for _, dim := range []struct {
		name  string
		value int
	}{{"width", config.Width}, {"height", config.Height}} {
		if dim.value < engine.MinBoardSize || dim.value > engine.MaxBoardSize {
			result.fail("%s must be between %d and %d, got %d", dim.name, engine.MinBoardSize, engine.MaxBoardSize, dim.value)
		}
	}
	for size, count := range config.Ships {
		if size < engine.MinShipLength || size > engine.MaxShipLength {
			result.fail("Ship size %d out of range %d..%d", size, engine.MinShipLength, engine.MaxShipLength)
		}
		if count < 0 || count > engine.MaxShipsPerSize {
			result.fail("Ship count %d for size %d out of range 0..%d", count, size, engine.MaxShipsPerSize)
		}
	}

	// Setup rules only make sense once the fields are individually sane
	if result.Valid {
		if err := engine.ValidateGameConfig(&config); err != nil {
			result.fail("Setup rejected: %v", err)
		}
	}

	if result.Valid {
		feasibility := validateFeasibility(&config, feasibilityTrials)
		if !feasibility.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, feasibility.Errors...)
	}

	// Add informational data
	if result.Valid {
		counts := config.Counts()
		result.info("Name: %s", config.Name)
		result.info("Mode: %s", config.Mode)
		result.info("Board: %dx%d", config.Width, config.Height)
		result.info("Ships: %d (%d cells, %.0f%% of board)", counts.TotalShips(), counts.TotalCells(),
			100*float64(counts.TotalCells())/float64(config.Width*config.Height))
		if config.Strategy == "" {
			result.info("Strategy: ordered (default)")
		} else {
			result.info("Strategy: %s", config.Strategy)
		}
	}

	return result
}

// validateFeasibility starts the preset with several seeds. Dense fleets can
// pass the setup rules and still fail to generate a layout.
func validateFeasibility(config *engine.GameConfig, trials int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	placed := 0
	var lastErr error
	for seed := 1; seed <= trials; seed++ {
		eng, err := engine.NewEngine(config, engine.WithSeed(uint64(seed)))
		if err != nil {
			lastErr = err
			continue
		}
		if err := eng.StartGame(); err != nil {
			lastErr = err
			continue
		}
		placed++
	}

	switch {
	case placed == 0:
		result.fail("Feasibility failure: no fleet could be generated in %d attempts (%v)", trials, lastErr)
	case placed < trials:
		result.info("Feasibility: %d/%d seeds produced a fleet (crowded board)", placed, trials)
	default:
		result.info("Feasibility: all %d seeds produced a fleet", trials)
	}
	return result
}

// main scans the configs directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
