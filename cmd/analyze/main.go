// Command analyze plays simulated matches for every preset in the configs
// directory and prints how each enemy strategy performs. The human side is
// driven by a hunt-and-target bot, so the numbers compare the enemy
// strategies against a fixed, reasonable opponent.
//
// Usage:
//
//	go run ./cmd/analyze [configs-dir] [matches-per-strategy]
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wricardo/seabattle/game/engine"
)

// maxTurns bounds a simulated match
const maxTurns = 100000

// MatchStats summarizes simulated matches for one preset and strategy
type MatchStats struct {
	Preset      string
	Strategy    engine.Strategy
	Matches     int
	EnemyWins   int
	EnemyShots  int
	PlayerShots int
	Failures    int
}

// EnemyWinRate is the share of matches the enemy won
func (s MatchStats) EnemyWinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.EnemyWins) / float64(s.Matches)
}

// AvgEnemyShots is the mean number of enemy shots per match
func (s MatchStats) AvgEnemyShots() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.EnemyShots) / float64(s.Matches)
}

// AvgPlayerShots is the mean number of human-bot shots per match
func (s MatchStats) AvgPlayerShots() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.PlayerShots) / float64(s.Matches)
}

// maskedView hides intact enemy ships from the human bot
type maskedView struct {
	board *engine.Board
}

func (v maskedView) Width() int  { return v.board.Width() }
func (v maskedView) Height() int { return v.board.Height() }

func (v maskedView) At(x, y int) engine.CellState {
	if s := v.board.At(x, y); s != engine.ShipPresent {
		return s
	}
	return engine.Empty
}

// simulate plays one seeded match to the end and returns the finished engine.
func simulate(config *engine.GameConfig, seed uint64) (*engine.GameEngine, error) {
	eng, err := engine.NewEngine(config, engine.WithSeed(seed))
	if err != nil {
		return nil, err
	}
	if err := eng.StartGame(); err != nil {
		return nil, err
	}

	bot := engine.NewTargeter(engine.StrategyHunt, rand.New(rand.NewPCG(seed, ^seed)))
	view := maskedView{board: eng.EnemyBoard()}

	for turn := 0; turn < maxTurns && !eng.IsFinished(); turn++ {
		if !eng.IsPlayerTurn() {
			if _, err := eng.PlayEnemyTurn(); err != nil {
				return nil, err
			}
			continue
		}

		p := bot.NextShot(view)
		result, err := eng.Shoot(p.X, p.Y)
		if err != nil {
			return nil, err
		}
		if result != engine.ShotInvalid {
			bot.Observe(p, result)
		}
	}

	if !eng.IsFinished() {
		return nil, fmt.Errorf("match did not finish in %d turns", maxTurns)
	}
	return eng, nil
}

// analyzeConfig runs matches for one preset under both enemy strategies.
func analyzeConfig(name string, config *engine.GameConfig, matches int) []MatchStats {
	var out []MatchStats
	for _, strategy := range []engine.Strategy{engine.StrategyOrdered, engine.StrategyHunt} {
		cfg := *config
		cfg.Strategy = strategy

		stats := MatchStats{Preset: name, Strategy: strategy}
		for seed := 1; seed <= matches; seed++ {
			eng, err := simulate(&cfg, uint64(seed))
			if err != nil {
				stats.Failures++
				continue
			}
			stats.Matches++
			stats.EnemyShots += eng.ShotCount(engine.SideEnemy)
			stats.PlayerShots += eng.ShotCount(engine.SidePlayer)
			if eng.IsLost() {
				stats.EnemyWins++
			}
		}
		out = append(out, stats)
	}
	return out
}

func main() {
	configDir := "configs"
	matches := 200
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			fmt.Printf("Invalid match count %q\n", os.Args[2])
			os.Exit(1)
		}
		matches = n
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}
	sort.Strings(files)

	fmt.Printf("%-10s %-8s %7s %9s %11s %11s\n", "preset", "enemy", "matches", "enemy win", "enemy shots", "your shots")
	for _, file := range files {
		config, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Printf("%-10s error: %v\n", filepath.Base(file), err)
			continue
		}

		name := filepath.Base(file[:len(file)-len(filepath.Ext(file))])
		for _, s := range analyzeConfig(name, config, matches) {
			fmt.Printf("%-10s %-8s %7d %8.1f%% %11.1f %11.1f\n",
				s.Preset, s.Strategy, s.Matches, 100*s.EnemyWinRate(), s.AvgEnemyShots(), s.AvgPlayerShots())
			if s.Failures > 0 {
				fmt.Printf("⚠️  %d simulated matches failed\n", s.Failures)
			}
		}
	}
}
