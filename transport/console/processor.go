package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/seabattle/game/engine"
)

// Reply is the text produced by one command line
type Reply struct {
	Text string `json:"reply"`
	Quit bool   `json:"quit,omitempty"`
}

// Processor turns command lines into engine calls and formatted replies
type Processor struct {
	eng     *engine.GameEngine
	resolve func(name string) (string, error)
}

// Option configures a Processor
type Option func(*Processor)

// WithPathResolver maps the file argument of save and load to a real path.
// Servers use it to keep saves inside their own directory.
func WithPathResolver(resolve func(name string) (string, error)) Option {
	return func(p *Processor) { p.resolve = resolve }
}

// NewProcessor creates a processor bound to an engine
func NewProcessor(eng *engine.GameEngine, opts ...Option) *Processor {
	p := &Processor{eng: eng}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolve == nil {
		p.resolve = func(name string) (string, error) { return name, nil }
	}
	return p
}

// Engine returns the engine the processor drives
func (p *Processor) Engine() *engine.GameEngine {
	return p.eng
}

// Execute runs a single command line
func (p *Processor) Execute(line string) Reply {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "create":
		return text(p.create(args))
	case "set":
		return text(p.set(args))
	case "place":
		return text(p.place(args))
	case "start":
		return text(p.start())
	case "shot", "shoot":
		return text(p.shot(args))
	case "stop":
		if p.eng.Phase() != engine.PhaseInCombat {
			return text("Failed to stop game")
		}
		p.eng.StopGame()
		return text("Game stopped")
	case "display":
		return text(RenderGame(p.eng, false))
	case "reveal":
		return text(RenderGame(p.eng, true))
	case "save":
		if len(args) != 1 {
			return text("Usage: save <file>")
		}
		path, err := p.resolve(args[0])
		if err != nil || p.eng.Save(path) != nil {
			return text("Failed to save game")
		}
		return text("Game saved")
	case "load":
		if len(args) != 1 {
			return text("Usage: load <file>")
		}
		path, err := p.resolve(args[0])
		if err != nil || p.eng.Load(path) != nil {
			return text("Failed to load game")
		}
		return text("Game loaded")
	case "help":
		return text(Help)
	case "exit", "quit":
		return Reply{Text: "Goodbye!", Quit: true}
	}
	return text("Unknown command")
}

func text(s string) Reply { return Reply{Text: s} }

// Help lists the available commands
const Help = `Available commands:
- create primary|secondary     : Create a game (master/slave also accepted)
- set size <width> <height>    : Set board size (example: set size 10 10)
- set ships <size> <count>     : Set number of ships (example: set ships 4 1)
- set strategy ordered|hunt    : Set the enemy targeting strategy
- place <x> <y> <size> <h|v>   : Place one of your ships
- start                        : Start the game
- shot <x> <y>                 : Fire at the enemy board
- stop                         : Stop the current game
- display                      : Show both boards
- reveal                       : Show both boards with enemy ships
- save <file> / load <file>    : Save or load the game
- exit                         : Quit`

func (p *Processor) create(args []string) string {
	if len(args) != 1 {
		return "Usage: create primary|secondary"
	}
	mode, err := engine.ParseMode(args[0])
	if err != nil {
		return "Failed to set game mode"
	}
	// a new game may follow a finished or stopped one
	if phase := p.eng.Phase(); phase == engine.PhaseFinished || phase == engine.PhaseStopped {
		p.eng.Reset()
	}
	if err := p.eng.CreateGame(mode); err != nil {
		return "Failed to set game mode"
	}
	return "Game mode set to " + args[0]
}

func (p *Processor) set(args []string) string {
	if len(args) == 0 {
		return "Invalid set command"
	}

	switch strings.ToLower(args[0]) {
	case "strategy":
		if len(args) != 2 {
			return "Usage: set strategy ordered|hunt"
		}
		strategy, err := engine.ParseStrategy(args[1])
		if err != nil {
			return "Failed to set strategy"
		}
		if err := p.eng.SetStrategy(strategy); err != nil {
			return "Failed to set strategy"
		}
		return "Strategy set"

	case "size":
		nums, ok := ints(args[1:], 2)
		if !ok {
			return "Invalid size format. Use: set size <width> <height>"
		}
		width, height := nums[0], nums[1]
		if width < engine.MinBoardSize || height < engine.MinBoardSize {
			return "Width and height must be greater than 0"
		}
		if width > engine.MaxBoardSize || height > engine.MaxBoardSize {
			return fmt.Sprintf("Width and height must be less than or equal to %d", engine.MaxBoardSize)
		}
		if err := p.eng.SetWidth(width); err != nil {
			return "Failed to set width"
		}
		if err := p.eng.SetHeight(height); err != nil {
			return "Failed to set height"
		}
		return fmt.Sprintf("Board size set to %dx%d", width, height)

	case "ships":
		nums, ok := ints(args[1:], 2)
		if !ok {
			return "Invalid ships format. Use: set ships <size> <count>"
		}
		size, count := nums[0], nums[1]
		if size < engine.MinShipLength || size > engine.MaxShipLength {
			return fmt.Sprintf("Ship size must be between %d and %d", engine.MinShipLength, engine.MaxShipLength)
		}
		if count < 0 || count > engine.MaxShipsPerSize {
			return fmt.Sprintf("Too many ships of one type (max %d)", engine.MaxShipsPerSize)
		}
		if err := p.eng.SetShipCount(size, count); err != nil {
			return "Failed to set ship count. Game might have already started."
		}
		return fmt.Sprintf("Set %d ships of size %d", count, size)
	}
	return "Invalid set command"
}

func (p *Processor) place(args []string) string {
	if len(args) != 4 {
		return "Usage: place x y size direction(h/v)"
	}
	nums, ok := ints(args[:3], 3)
	if !ok {
		return "Usage: place x y size direction(h/v)"
	}
	x, y, size := nums[0], nums[1], nums[2]
	if x < 0 || y < 0 || x >= p.eng.Width() || y >= p.eng.Height() {
		return fmt.Sprintf("Invalid coordinates. Must be between 0 and %d", max(p.eng.Width(), p.eng.Height())-1)
	}
	if size < engine.MinShipLength || size > engine.MaxShipLength {
		return fmt.Sprintf("Invalid ship size. Must be between %d and %d", engine.MinShipLength, engine.MaxShipLength)
	}
	horizontal := strings.EqualFold(args[3], "h")

	if err := p.eng.PlaceShip(x, y, size, horizontal); err != nil {
		if errors.Is(err, engine.ErrNoShipsLeft) {
			return fmt.Sprintf("No ships of size %d left to place", size)
		}
		return "Cannot place ship here. Check size and overlapping"
	}
	return "Ship placed successfully"
}

func (p *Processor) start() string {
	if err := p.eng.StartGame(); err != nil {
		return "Failed to start game: " + err.Error()
	}
	if p.eng.IsPlayerTurn() {
		return "Your turn! Make a shot (shot x y)"
	}
	shots, err := p.eng.PlayEnemyTurn()
	return "Enemy's turn!\n" + turnReply(shots, p.eng.IsLost(), err)
}

func (p *Processor) shot(args []string) string {
	switch p.eng.Phase() {
	case engine.PhaseInCombat:
	case engine.PhaseFinished:
		return "Game is over"
	default:
		return "Game is not in progress"
	}
	if !p.eng.IsPlayerTurn() {
		return "Not your turn!"
	}
	nums, ok := ints(args, 2)
	if !ok {
		return "Invalid shot format. Use: shot x y"
	}
	x, y := nums[0], nums[1]
	if x < 0 || y < 0 || x >= p.eng.Width() || y >= p.eng.Height() {
		return "Invalid coordinates"
	}

	result, err := p.eng.Shoot(x, y)
	if err != nil {
		return err.Error()
	}
	if result != engine.ShotMiss {
		return PlayerShotMessage(result, p.eng.IsWon())
	}
	shots, err := p.eng.PlayEnemyTurn()
	return PlayerShotMessage(result, false) + turnReply(shots, p.eng.IsLost(), err)
}

// PlayerShotMessage describes the outcome of the human's shot
func PlayerShotMessage(result engine.ShotResult, won bool) string {
	switch result {
	case engine.ShotMiss:
		return "Miss! "
	case engine.ShotHit:
		return "Hit! Your turn again."
	case engine.ShotDestroyed:
		if won {
			return "Ship destroyed! Game Over - You won!"
		}
		return "Ship destroyed! Your turn again."
	}
	return "Invalid shot"
}

// EnemyShotMessage describes one engine shot
func EnemyShotMessage(rec engine.ShotRecord, lost bool) string {
	prefix := fmt.Sprintf("Enemy shot at (%d,%d): ", rec.X, rec.Y)
	switch rec.Result {
	case engine.ShotMiss:
		return prefix + "Miss! Your turn!"
	case engine.ShotHit:
		return prefix + "Hit!"
	case engine.ShotDestroyed:
		if lost {
			return prefix + "Ship destroyed! Game Over - Enemy won!"
		}
		return prefix + "Ship destroyed!"
	}
	return prefix + "Error in shot processing"
}

// EnemyTurnMessage describes a whole engine turn, one shot per line
func EnemyTurnMessage(shots []engine.ShotRecord, lost bool) string {
	lines := make([]string, len(shots))
	for i, rec := range shots {
		lines[i] = EnemyShotMessage(rec, lost && i == len(shots)-1)
	}
	return strings.Join(lines, "\n")
}

// turnReply appends the reason an engine turn stopped early
func turnReply(shots []engine.ShotRecord, lost bool, err error) string {
	msg := EnemyTurnMessage(shots, lost)
	if err == nil {
		return msg
	}
	if msg != "" {
		msg += "\n"
	}
	return msg + "Enemy turn failed: " + err.Error()
}

// ints parses exactly n integers
func ints(args []string, n int) ([]int, bool) {
	if len(args) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
