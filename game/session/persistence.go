package session

import (
	"time"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/fairplay"
	"github.com/wricardo/seabattle/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSetup is the match setup at the time the session was saved
type PersistedSetup struct {
	Mode     engine.Mode       `json:"mode"`
	Strategy engine.Strategy   `json:"strategy"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Ships    engine.ShipCounts `json:"ships"`
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Snapshot holds the engine's own save format, so a stopped match comes back
// as placing with both boards intact.
type PersistedSessionData struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Setup          PersistedSetup       `json:"setup"`
	Snapshot       string               `json:"snapshot,omitempty"`
	StartedAt      time.Time            `json:"started_at,omitempty"`
	Recorded       bool                 `json:"recorded,omitempty"`
	Commitment     *fairplay.Commitment `json:"commitment,omitempty"`
}
