package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/fairplay"
	"github.com/wricardo/seabattle/game/history"
	"github.com/wricardo/seabattle/transport/console"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid name")
)

const saveExt = ".sav"

var saveNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// gameServiceImpl implements the GameService interface. mu guards every
// session it hands out, engine and bookkeeping fields alike.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	recorder MatchRecorder
	savesDir string
	logger   *log.Logger
	mu       sync.Mutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithRecorder stores finished matches in a history store
func WithRecorder(r MatchRecorder) Option {
	return func(s *gameServiceImpl) { s.recorder = r }
}

// WithSavesDir sets the directory used by SaveGame and LoadGame
func WithSavesDir(dir string) Option {
	return func(s *gameServiceImpl) { s.savesDir = dir }
}

// WithLogger sets the service logger
func WithLogger(l *log.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = l }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		savesDir: "saves",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default().WithPrefix("service")
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      stateOf(sess),
		GameConfig:     sess.Config,
	}
}

// stateOf snapshots the engine and attaches the published commitment
func stateOf(sess *Session) *engine.GameState {
	state := sess.Engine.GetState()
	if sess.Commitment != nil {
		state.Commitment = sess.Commitment.Root
	}
	return state
}

// session looks up a session and marks it accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	if err := s.sessions.Touch(sess.ID); err != nil {
		s.logger.Debug("failed to touch session", "session", sess.ID, "err", err)
	}
	return sess, nil
}

func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.ID, "err", err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' %w. Available configs: %v", configName, ErrNotFound, configIDs)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("session created", "session", sess.ID, "config", config.Name)

	return s.info(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess, ""), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Configure applies a setup request. The request is validated in full before
// any engine setter runs, so a rejected request changes nothing.
func (s *gameServiceImpl) Configure(ctx context.Context, sessionID string, req SetupRequest) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	if eng.Phase() == engine.PhaseInCombat {
		return nil, engine.ErrCombatStarted
	}

	var mode engine.Mode
	if req.Mode != "" {
		if mode, err = engine.ParseMode(req.Mode); err != nil {
			return nil, err
		}
	}
	var strategy engine.Strategy
	if req.Strategy != "" {
		if strategy, err = engine.ParseStrategy(req.Strategy); err != nil {
			return nil, err
		}
	}
	for _, dim := range []*int{req.Width, req.Height} {
		if dim != nil && (*dim < engine.MinBoardSize || *dim > engine.MaxBoardSize) {
			return nil, fmt.Errorf("%w: board size must be between %d and %d, got %d",
				engine.ErrConfiguration, engine.MinBoardSize, engine.MaxBoardSize, *dim)
		}
	}
	sizes := make([]int, 0, len(req.Ships))
	var check engine.ShipCounts
	for size, count := range req.Ships {
		if err := check.Set(size, count); err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	if phase := eng.Phase(); phase == engine.PhaseFinished || phase == engine.PhaseStopped {
		if err := eng.Reset(); err != nil {
			return nil, err
		}
	}
	if mode != "" {
		if err := eng.CreateGame(mode); err != nil {
			return nil, err
		}
	}
	if req.Width != nil {
		if err := eng.SetWidth(*req.Width); err != nil {
			return nil, err
		}
	}
	if req.Height != nil {
		if err := eng.SetHeight(*req.Height); err != nil {
			return nil, err
		}
	}
	for _, size := range sizes {
		if err := eng.SetShipCount(size, req.Ships[size]); err != nil {
			return nil, err
		}
	}
	if strategy != "" {
		if err := eng.SetStrategy(strategy); err != nil {
			return nil, err
		}
	}
	sess.Commitment = nil

	s.persist(sess)
	return stateOf(sess), nil
}

// PlaceShip places one of the human ships
func (s *gameServiceImpl) PlaceShip(ctx context.Context, sessionID string, req PlaceRequest) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.PlaceShip(req.X, req.Y, req.Size, req.Horizontal); err != nil {
		return nil, err
	}
	s.persist(sess)
	return stateOf(sess), nil
}

// StartGame enters combat. When the engine moves first its opening turn is
// played before returning.
func (s *gameServiceImpl) StartGame(ctx context.Context, sessionID string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	before := eng.Phase()
	if err := eng.StartGame(); err != nil {
		return nil, err
	}

	var shots []ShotEvent
	message := "Your turn! Make a shot (shot x y)"
	if eng.ActiveSide() == engine.SideEnemy {
		records, err := eng.PlayEnemyTurn()
		if err != nil {
			return nil, err
		}
		shots = enemyEvents(records, eng.IsLost())
		message = "Enemy's turn!\n" + console.EnemyTurnMessage(records, eng.IsLost())
	}
	return s.finishTurn(ctx, sess, before, shots, message), nil
}

// StopGame leaves combat without clearing the boards
func (s *gameServiceImpl) StopGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	before := sess.Engine.Phase()
	if before != engine.PhaseInCombat {
		return nil, engine.ErrNotInCombat
	}
	sess.Engine.StopGame()
	s.track(ctx, sess, before)
	s.persist(sess)
	return stateOf(sess), nil
}

// Shoot fires the human shot. A miss hands the turn to the engine, which
// fires until it misses or wins.
func (s *gameServiceImpl) Shoot(ctx context.Context, sessionID string, x, y int) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	before := eng.Phase()

	result, err := eng.Shoot(x, y)
	if err != nil {
		return nil, err
	}
	message := console.PlayerShotMessage(result, eng.IsWon())
	shots := []ShotEvent{{
		Side:      engine.SidePlayer,
		X:         x,
		Y:         y,
		Result:    result,
		Message:   message,
		Timestamp: time.Now(),
	}}

	if result == engine.ShotMiss && eng.ActiveSide() == engine.SideEnemy {
		records, err := eng.PlayEnemyTurn()
		if err != nil {
			return nil, err
		}
		shots = append(shots, enemyEvents(records, eng.IsLost())...)
		message += console.EnemyTurnMessage(records, eng.IsLost())
	}
	return s.finishTurn(ctx, sess, before, shots, message), nil
}

// ExecuteCommand runs one console command line against the session engine
func (s *gameServiceImpl) ExecuteCommand(ctx context.Context, sessionID, line string) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	resolve := func(name string) (string, error) {
		path, err := s.savePath(name)
		if err != nil {
			return "", err
		}
		return path, os.MkdirAll(s.savesDir, 0755)
	}

	before := sess.Engine.Phase()
	reply := console.NewProcessor(sess.Engine, console.WithPathResolver(resolve)).Execute(line)
	s.track(ctx, sess, before)
	s.persist(sess)

	return &CommandResult{Reply: reply, GameState: stateOf(sess)}, nil
}

func (s *gameServiceImpl) finishTurn(ctx context.Context, sess *Session, before engine.Phase, shots []ShotEvent, message string) *TurnResult {
	reveal := s.track(ctx, sess, before)
	s.persist(sess)
	return &TurnResult{
		Shots:     shots,
		Message:   message,
		GameState: stateOf(sess),
		Reveal:    reveal,
	}
}

// track follows phase changes: entering combat publishes a new commitment,
// leaving it records the match. A finished match returns its reveal.
func (s *gameServiceImpl) track(ctx context.Context, sess *Session, before engine.Phase) *Reveal {
	eng := sess.Engine
	after := eng.Phase()

	if before != engine.PhaseInCombat && after == engine.PhaseInCombat {
		sess.StartedAt = time.Now()
		sess.Recorded = false
		c, err := fairplay.Commit(nil, eng.EnemyShips(), eng.Width(), eng.Height())
		if err != nil {
			s.logger.Warn("failed to commit enemy fleet", "session", sess.ID, "err", err)
		}
		sess.Commitment = c
		s.logger.Info("match started", "session", sess.ID, "mode", eng.Mode(), "strategy", eng.Strategy())
	}

	if (after == engine.PhaseFinished || after == engine.PhaseStopped) && !sess.Recorded && !sess.StartedAt.IsZero() {
		s.record(ctx, sess)
	}
	if after != engine.PhaseFinished {
		return nil
	}

	reveal := &Reveal{Commitment: sess.Commitment, EnemyShips: eng.EnemyShips()}
	if sess.Commitment != nil {
		reveal.Verified = fairplay.Verify(sess.Commitment, reveal.EnemyShips) == nil
	}
	return reveal
}

func (s *gameServiceImpl) record(ctx context.Context, sess *Session) {
	sess.Recorded = true
	eng := sess.Engine

	winner := history.WinnerNone
	switch {
	case eng.IsWon():
		winner = history.WinnerPlayer
	case eng.IsLost():
		winner = history.WinnerEnemy
	}
	s.logger.Info("match over", "session", sess.ID, "winner", winner,
		"player_shots", eng.ShotCount(engine.SidePlayer), "enemy_shots", eng.ShotCount(engine.SideEnemy))

	if s.recorder == nil {
		return
	}
	rec := history.MatchRecord{
		SessionID:   sess.ID,
		StartedAt:   sess.StartedAt,
		Width:       eng.Width(),
		Height:      eng.Height(),
		Mode:        string(eng.Mode()),
		Strategy:    string(eng.Strategy()),
		Winner:      winner,
		PlayerShots: eng.ShotCount(engine.SidePlayer),
		EnemyShots:  eng.ShotCount(engine.SideEnemy),
	}
	if sess.Commitment != nil {
		rec.Commitment = sess.Commitment.Root
	}
	if _, err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error("failed to record match", "session", sess.ID, "err", err)
	}
}

func enemyEvents(records []engine.ShotRecord, lost bool) []ShotEvent {
	events := make([]ShotEvent, 0, len(records))
	now := time.Now()
	for i, rec := range records {
		events = append(events, ShotEvent{
			Side:      rec.Side,
			X:         rec.X,
			Y:         rec.Y,
			Result:    rec.Result,
			Message:   console.EnemyShotMessage(rec, lost && i == len(records)-1),
			Timestamp: now,
		})
	}
	return events
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return stateOf(sess), nil
}

// GetShips returns the human fleet
func (s *gameServiceImpl) GetShips(ctx context.Context, sessionID string) ([]engine.ShipInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.PlayerShips(), nil
}

// GetShots returns every shot of the current match
func (s *gameServiceImpl) GetShots(ctx context.Context, sessionID string) ([]engine.ShotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Shots(), nil
}

func (s *gameServiceImpl) savePath(name string) (string, error) {
	name = strings.TrimSuffix(name, saveExt)
	if !saveNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: save names may only contain letters, digits, '-' and '_'", ErrInvalidName)
	}
	return filepath.Join(s.savesDir, name+saveExt), nil
}

// SaveGame writes the session's match to the saves directory
func (s *gameServiceImpl) SaveGame(ctx context.Context, sessionID, name string) (*SaveInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	path, err := s.savePath(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.savesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create saves directory: %w", err)
	}
	if err := sess.Engine.Save(path); err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat save: %w", err)
	}
	s.logger.Info("game saved", "session", sess.ID, "file", path)
	return &SaveInfo{Name: strings.TrimSuffix(fi.Name(), saveExt), Size: fi.Size(), ModifiedAt: fi.ModTime()}, nil
}

// LoadGame restores a saved match into the session
func (s *gameServiceImpl) LoadGame(ctx context.Context, sessionID, name string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	path, err := s.savePath(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("save %q %w", name, ErrNotFound)
	}

	before := sess.Engine.Phase()
	if err := sess.Engine.Load(path); err != nil {
		return nil, err
	}
	sess.Commitment = nil
	sess.StartedAt = time.Time{}
	s.track(ctx, sess, before)
	s.persist(sess)
	return stateOf(sess), nil
}

// ListSaves lists the saved matches, newest first
func (s *gameServiceImpl) ListSaves(ctx context.Context) ([]*SaveInfo, error) {
	entries, err := os.ReadDir(s.savesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*SaveInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read saves directory: %w", err)
	}

	saves := make([]*SaveInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), saveExt) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		saves = append(saves, &SaveInfo{
			Name:       strings.TrimSuffix(entry.Name(), saveExt),
			Size:       fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
	}
	sort.Slice(saves, func(i, j int) bool {
		return saves[i].ModifiedAt.After(saves[j].ModifiedAt)
	})
	return saves, nil
}

// ListConfigs returns all available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListHistory returns recorded matches, newest first
func (s *gameServiceImpl) ListHistory(ctx context.Context, limit int) ([]history.MatchRecord, error) {
	if s.recorder == nil {
		return []history.MatchRecord{}, nil
	}
	return s.recorder.List(ctx, limit)
}
