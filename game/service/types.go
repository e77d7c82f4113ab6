package service

import (
	"time"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/fairplay"
	"github.com/wricardo/seabattle/transport/console"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// SetupRequest changes the match setup. Nil or empty fields are left alone.
type SetupRequest struct {
	Mode     string      `json:"mode,omitempty"`
	Width    *int        `json:"width,omitempty"`
	Height   *int        `json:"height,omitempty"`
	Ships    map[int]int `json:"ships,omitempty"`
	Strategy string      `json:"strategy,omitempty"`
}

// PlaceRequest places one human ship
type PlaceRequest struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Size       int  `json:"size"`
	Horizontal bool `json:"horizontal"`
}

// ShotEvent is one resolved shot as reported to clients
type ShotEvent struct {
	Side      engine.Side       `json:"side"`
	X         int               `json:"x"`
	Y         int               `json:"y"`
	Result    engine.ShotResult `json:"result"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

// TurnResult is returned by operations that advance combat
type TurnResult struct {
	Shots     []ShotEvent       `json:"shots"`
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`
	Reveal    *Reveal           `json:"reveal,omitempty"`
}

// Reveal opens the fair-play commitment once a match is over
type Reveal struct {
	Commitment *fairplay.Commitment `json:"commitment"`
	EnemyShips []engine.ShipInfo    `json:"enemy_ships"`
	Verified   bool                 `json:"verified"`
}

// SaveInfo describes a saved match file
type SaveInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// CommandResult is the reply to a console command line
type CommandResult struct {
	console.Reply
	GameState *engine.GameState `json:"game_state"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string          `json:"filename"`
	ConfigID    string          `json:"config_id"` // The identifier to use for session creation
	Name        string          `json:"name"`      // Display name
	Description string          `json:"description"`
	Mode        engine.Mode     `json:"mode"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Strategy    engine.Strategy `json:"strategy"`
	TotalShips  int             `json:"total_ships"`
}
