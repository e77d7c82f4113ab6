package engine

import (
	"fmt"
	"math/rand/v2"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Setup
	CreateGame(mode Mode) error
	SetStrategy(strategy Strategy) error
	SetWidth(width int) error
	SetHeight(height int) error
	SetShipCount(size, count int) error
	PlaceShip(x, y, size int, horizontal bool) error
	StartGame() error
	StopGame()
	Reset() error

	// Combat
	Shoot(x, y int) (ShotResult, error)
	EngineShoot() (ShotRecord, error)
	PlayEnemyTurn() ([]ShotRecord, error)

	// Queries
	Phase() Phase
	ActiveSide() Side
	IsFinished() bool
	IsWon() bool
	IsLost() bool
	PlayerBoard() *Board
	EnemyBoard() *Board
	PlayerShips() []ShipInfo
	GetState() *GameState
}

// side is the board and fleet owned by one player
type side struct {
	board *Board
	fleet *Fleet
}

func newSide(width, height int) side {
	return side{board: NewBoard(width, height), fleet: NewFleet()}
}

// GameEngine implements the Engine interface
type GameEngine struct {
	mode     Mode
	strategy Strategy
	width    int
	height   int
	counts   ShipCounts

	phase  Phase
	active Side

	player side
	enemy  side

	targeter Targeter
	rng      *rand.Rand
	shots    []ShotRecord
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithRand sets the random source used for fleet generation and targeting
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithSeed seeds a deterministic random source
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithTargeter replaces the targeter built from the strategy until the next
// SetStrategy call
func WithTargeter(t Targeter) Option {
	return func(e *GameEngine) {
		e.targeter = t
		e.strategy = t.Strategy()
	}
}

// New creates an engine in the Configuring phase with empty zero-sized boards
func New(opts ...Option) *GameEngine {
	e := &GameEngine{
		mode:     ModeSecondary,
		strategy: StrategyOrdered,
		phase:    PhaseConfiguring,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.targeter == nil {
		e.targeter = NewTargeter(e.strategy, e.rng)
	}
	e.resetBoards()
	return e
}

// NewEngine creates an engine configured from a preset
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	e := New(opts...)
	if err := config.Apply(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *GameEngine) resetBoards() {
	e.player = newSide(e.width, e.height)
	e.enemy = newSide(e.width, e.height)
	e.shots = nil
}

// guardSetup admits setup calls only before the first shot of a match
func (e *GameEngine) guardSetup() error {
	switch e.phase {
	case PhaseInCombat:
		return ErrCombatStarted
	case PhaseFinished, PhaseStopped:
		return ErrMatchOver
	}
	return nil
}

// invalidate clears both boards and returns the match to Configuring
func (e *GameEngine) invalidate() {
	e.resetBoards()
	e.phase = PhaseConfiguring
	e.active = ""
}

// Reset returns a finished or stopped match to Configuring with the same mode,
// size, ship table and strategy. Before combat it discards manual placements.
func (e *GameEngine) Reset() error {
	if e.phase == PhaseInCombat {
		return ErrCombatStarted
	}
	e.invalidate()
	return nil
}

// CreateGame fixes the mode and applies the 10x10 defaults. Secondary mode
// also gets the default ship table; primary mode starts with no ships.
func (e *GameEngine) CreateGame(mode Mode) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	m, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	e.mode = m
	e.width, e.height = DefaultSize, DefaultSize
	if m == ModeSecondary {
		e.counts = DefaultShipCounts
	} else {
		e.counts = ShipCounts{}
	}
	e.invalidate()
	return nil
}

// SetStrategy selects the AI targeting algorithm
func (e *GameEngine) SetStrategy(strategy Strategy) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	s, err := ParseStrategy(string(strategy))
	if err != nil {
		return err
	}
	e.strategy = s
	e.targeter = NewTargeter(s, e.rng)
	e.invalidate()
	return nil
}

// SetWidth changes the board width
func (e *GameEngine) SetWidth(width int) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	if width < MinBoardSize || width > MaxBoardSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrConfiguration, MinBoardSize, MaxBoardSize, width)
	}
	e.width = width
	e.invalidate()
	return nil
}

// SetHeight changes the board height
func (e *GameEngine) SetHeight(height int) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	if height < MinBoardSize || height > MaxBoardSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrConfiguration, MinBoardSize, MaxBoardSize, height)
	}
	e.height = height
	e.invalidate()
	return nil
}

// SetShipCount changes how many ships of a size the match requires
func (e *GameEngine) SetShipCount(size, count int) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	counts := e.counts
	if err := counts.Set(size, count); err != nil {
		return err
	}
	e.counts = counts
	e.invalidate()
	return nil
}

// PlaceShip seats a ship on the human board
func (e *GameEngine) PlaceShip(x, y, size int, horizontal bool) error {
	if err := e.guardSetup(); err != nil {
		return err
	}
	if e.phase != PhaseConfiguring && e.phase != PhasePlacing {
		return fmt.Errorf("%w: ships can only be placed before combat", ErrConfiguration)
	}
	if e.width == 0 || e.height == 0 {
		return ErrNoBoard
	}
	if size < MinShipLength || size > MaxShipLength {
		return fmt.Errorf("%w: ship size must be between %d and %d, got %d", ErrPlacement, MinShipLength, MaxShipLength, size)
	}
	if e.player.fleet.Remaining(e.counts).Get(size) == 0 {
		return ErrNoShipsLeft
	}
	if err := placeShip(e.player.board, e.player.fleet, NewShip(x, y, size, horizontal)); err != nil {
		return err
	}
	e.phase = PhasePlacing
	return nil
}

// StartGame validates the setup, generates both fleets with up to
// MaxStartAttempts whole-match retries and enters combat. Manually placed
// ships are replaced by the generated fleet. A finished or stopped match is
// replayed with the same setup. On failure nothing changes.
func (e *GameEngine) StartGame() error {
	if e.phase == PhaseInCombat {
		return ErrCombatStarted
	}
	if err := ValidateSetup(e.width, e.height, e.counts); err != nil {
		return err
	}

	var player, enemy side
	var lastErr error
	ok := false
	for attempt := 0; attempt < MaxStartAttempts; attempt++ {
		pb, pf, err := GenerateFleet(e.rng, e.counts, e.width, e.height)
		if err != nil {
			lastErr = err
			continue
		}
		eb, ef, err := GenerateFleet(e.rng, e.counts, e.width, e.height)
		if err != nil {
			lastErr = err
			continue
		}
		player = side{board: pb, fleet: pf}
		enemy = side{board: eb, fleet: ef}
		ok = true
		break
	}
	if !ok {
		return fmt.Errorf("gave up after %d attempts: %w", MaxStartAttempts, lastErr)
	}

	e.player, e.enemy = player, enemy
	e.shots = nil
	e.targeter.Reset()
	e.phase = PhaseInCombat
	if e.mode == ModeSecondary {
		e.active = SidePlayer
	} else {
		e.active = SideEnemy
	}
	return nil
}

// StopGame leaves combat without clearing boards or fleets
func (e *GameEngine) StopGame() {
	if e.phase == PhaseInCombat {
		e.phase = PhaseStopped
	}
}

func (e *GameEngine) checkTurn(s Side) error {
	if e.phase != PhaseInCombat {
		return ErrNotInCombat
	}
	if e.active != s {
		return ErrNotYourTurn
	}
	return nil
}

// Shoot fires the human's shot at (x, y) on the engine-held board.
// Out-of-bounds and already resolved cells yield ShotInvalid with no error.
func (e *GameEngine) Shoot(x, y int) (ShotResult, error) {
	if err := e.checkTurn(SidePlayer); err != nil {
		return ShotInvalid, err
	}
	result := resolvePlayerShot(e.enemy.board, e.enemy.fleet, x, y)
	if result == ShotInvalid {
		return result, nil
	}
	e.record(SidePlayer, x, y, result)
	return result, nil
}

// EngineShoot fires one AI shot at the human board
func (e *GameEngine) EngineShoot() (ShotRecord, error) {
	if err := e.checkTurn(SideEnemy); err != nil {
		return ShotRecord{Side: SideEnemy, Result: ShotInvalid}, err
	}

	view := hiddenView{board: e.player.board}
	limit := e.width*e.height + 1
	for try := 0; try < limit; try++ {
		p := e.targeter.NextShot(view)
		result := resolveEngineShot(e.player.board, e.player.fleet, p.X, p.Y)
		if result == ShotInvalid {
			continue
		}
		e.targeter.Observe(p, result)
		return e.record(SideEnemy, p.X, p.Y, result), nil
	}
	return ShotRecord{Side: SideEnemy, Result: ShotInvalid}, ErrNoTarget
}

// PlayEnemyTurn fires engine shots until the turn passes or the match ends
func (e *GameEngine) PlayEnemyTurn() ([]ShotRecord, error) {
	var records []ShotRecord
	for e.phase == PhaseInCombat && e.active == SideEnemy {
		rec, err := e.EngineShoot()
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// record stores a resolved shot and advances the turn
func (e *GameEngine) record(s Side, x, y int, result ShotResult) ShotRecord {
	rec := ShotRecord{Side: s, X: x, Y: y, Result: result}
	e.shots = append(e.shots, rec)

	switch result {
	case ShotMiss:
		e.active = opponent(s)
	case ShotDestroyed:
		if e.IsWon() || e.IsLost() {
			e.phase = PhaseFinished
		}
	}
	return rec
}

func opponent(s Side) Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Phase returns the lifecycle phase
func (e *GameEngine) Phase() Phase { return e.phase }

// Mode returns the configured mode
func (e *GameEngine) Mode() Mode { return e.mode }

// Strategy returns the configured AI strategy
func (e *GameEngine) Strategy() Strategy { return e.strategy }

// Width returns the board width
func (e *GameEngine) Width() int { return e.width }

// Height returns the board height
func (e *GameEngine) Height() int { return e.height }

// ShipCounts returns the required ship table
func (e *GameEngine) ShipCounts() ShipCounts { return e.counts }

// Remaining returns the ships still to be placed manually
func (e *GameEngine) Remaining() ShipCounts {
	return e.player.fleet.Remaining(e.counts)
}

// ActiveSide returns whose turn it is, or "" outside combat
func (e *GameEngine) ActiveSide() Side {
	if e.phase != PhaseInCombat {
		return ""
	}
	return e.active
}

// IsPlayerTurn reports whether the human may shoot now
func (e *GameEngine) IsPlayerTurn() bool {
	return e.ActiveSide() == SidePlayer
}

// IsWon reports whether every engine ship cell is hit
func (e *GameEngine) IsWon() bool {
	return fleetSunk(e.enemy.board, e.enemy.fleet)
}

// IsLost reports whether every human ship cell is hit
func (e *GameEngine) IsLost() bool {
	return fleetSunk(e.player.board, e.player.fleet)
}

// IsFinished reports whether either fleet has been sunk
func (e *GameEngine) IsFinished() bool {
	return e.IsWon() || e.IsLost()
}

// PlayerBoard returns the human board
func (e *GameEngine) PlayerBoard() *Board { return e.player.board }

// EnemyBoard returns the engine-held board, including unhit ships
func (e *GameEngine) EnemyBoard() *Board { return e.enemy.board }

// PlayerShips returns the human fleet
func (e *GameEngine) PlayerShips() []ShipInfo { return e.player.fleet.Infos() }

// EnemyShips returns the engine fleet; callers decide when to reveal it
func (e *GameEngine) EnemyShips() []ShipInfo { return e.enemy.fleet.Infos() }

// Shots returns every resolved shot of the current match in order
func (e *GameEngine) Shots() []ShotRecord {
	out := make([]ShotRecord, len(e.shots))
	copy(out, e.shots)
	return out
}

// ShotCount returns how many shots a side has fired this match
func (e *GameEngine) ShotCount(s Side) int {
	n := 0
	for _, rec := range e.shots {
		if rec.Side == s {
			n++
		}
	}
	return n
}

// GetState returns a snapshot. Unhit engine ships stay hidden until the
// match is finished.
func (e *GameEngine) GetState() *GameState {
	enemyRows := e.enemy.board.maskedRows()
	if e.phase == PhaseFinished {
		enemyRows = e.enemy.board.Rows()
	}

	state := &GameState{
		Phase:      e.phase,
		Mode:       e.mode,
		Strategy:   e.strategy,
		Width:      e.width,
		Height:     e.height,
		ShipCounts: e.counts,
		Remaining:  e.Remaining(),
		ActiveSide: e.ActiveSide(),
		PlayerTurn: e.IsPlayerTurn(),
		Finished:   e.IsFinished(),
		Won:        e.IsWon(),
		Lost:       e.IsLost(),
		PlayerGrid: e.player.board.Rows(),
		EnemyGrid:  enemyRows,
		Ships:      e.player.fleet.Infos(),
		Shots:      e.Shots(),
	}
	state.Message = e.statusMessage()
	return state
}

func (e *GameEngine) statusMessage() string {
	switch e.phase {
	case PhaseConfiguring:
		return "Configure the match, then start it"
	case PhasePlacing:
		return "Placing ships"
	case PhaseInCombat:
		if e.active == SidePlayer {
			return "Your turn"
		}
		return "Enemy's turn"
	case PhaseFinished:
		if e.IsWon() {
			return "Game over - you won!"
		}
		return "Game over - enemy won!"
	case PhaseStopped:
		return "Game stopped"
	}
	return ""
}
