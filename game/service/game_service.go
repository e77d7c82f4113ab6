package service

import (
	"context"
	"time"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/fairplay"
	"github.com/wricardo/seabattle/game/history"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Setup
	Configure(ctx context.Context, sessionID string, req SetupRequest) (*engine.GameState, error)
	PlaceShip(ctx context.Context, sessionID string, req PlaceRequest) (*engine.GameState, error)
	StartGame(ctx context.Context, sessionID string) (*TurnResult, error)
	StopGame(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Combat
	Shoot(ctx context.Context, sessionID string, x, y int) (*TurnResult, error)
	ExecuteCommand(ctx context.Context, sessionID, line string) (*CommandResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetShips(ctx context.Context, sessionID string) ([]engine.ShipInfo, error)
	GetShots(ctx context.Context, sessionID string) ([]engine.ShotRecord, error)

	// Saves
	SaveGame(ctx context.Context, sessionID, name string) (*SaveInfo, error)
	LoadGame(ctx context.Context, sessionID, name string) (*engine.GameState, error)
	ListSaves(ctx context.Context) ([]*SaveInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// History
	ListHistory(ctx context.Context, limit int) ([]history.MatchRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Touch(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// MatchRecorder stores finished matches
type MatchRecorder interface {
	Record(ctx context.Context, rec history.MatchRecord) (history.MatchRecord, error)
	List(ctx context.Context, limit int) ([]history.MatchRecord, error)
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// Match bookkeeping for the current combat
	StartedAt  time.Time
	Commitment *fairplay.Commitment
	Recorded   bool
}
