package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/fairplay"
	"github.com/wricardo/seabattle/game/history"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/transport/console"
	"github.com/wricardo/seabattle/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Setup
	ConfigureFunc func(ctx context.Context, sessionID string, req service.SetupRequest) (*engine.GameState, error)
	PlaceShipFunc func(ctx context.Context, sessionID string, req service.PlaceRequest) (*engine.GameState, error)
	StartGameFunc func(ctx context.Context, sessionID string) (*service.TurnResult, error)
	StopGameFunc  func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Combat
	ShootFunc          func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error)
	ExecuteCommandFunc func(ctx context.Context, sessionID, line string) (*service.CommandResult, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetShipsFunc     func(ctx context.Context, sessionID string) ([]engine.ShipInfo, error)
	GetShotsFunc     func(ctx context.Context, sessionID string) ([]engine.ShotRecord, error)

	// Saves
	SaveGameFunc  func(ctx context.Context, sessionID, name string) (*service.SaveInfo, error)
	LoadGameFunc  func(ctx context.Context, sessionID, name string) (*engine.GameState, error)
	ListSavesFunc func(ctx context.Context) ([]*service.SaveInfo, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error

	// History
	ListHistoryFunc func(ctx context.Context, limit int) ([]history.MatchRecord, error)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Setup
func (m *MockGameService) Configure(ctx context.Context, sessionID string, req service.SetupRequest) (*engine.GameState, error) {
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(ctx, sessionID, req)
	}
	return &engine.GameState{Phase: engine.PhasePlacing}, nil
}

func (m *MockGameService) PlaceShip(ctx context.Context, sessionID string, req service.PlaceRequest) (*engine.GameState, error) {
	if m.PlaceShipFunc != nil {
		return m.PlaceShipFunc(ctx, sessionID, req)
	}
	return &engine.GameState{Phase: engine.PhasePlacing}, nil
}

func (m *MockGameService) StartGame(ctx context.Context, sessionID string) (*service.TurnResult, error) {
	if m.StartGameFunc != nil {
		return m.StartGameFunc(ctx, sessionID)
	}
	return &service.TurnResult{
		GameState: &engine.GameState{Phase: engine.PhaseInCombat, PlayerTurn: true},
	}, nil
}

func (m *MockGameService) StopGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.StopGameFunc != nil {
		return m.StopGameFunc(ctx, sessionID)
	}
	return &engine.GameState{Phase: engine.PhaseStopped}, nil
}

// Combat
func (m *MockGameService) Shoot(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
	if m.ShootFunc != nil {
		return m.ShootFunc(ctx, sessionID, x, y)
	}
	return &service.TurnResult{
		Shots:     []service.ShotEvent{{Side: engine.SidePlayer, X: x, Y: y, Result: engine.ShotMiss}},
		GameState: &engine.GameState{Phase: engine.PhaseInCombat},
	}, nil
}

func (m *MockGameService) ExecuteCommand(ctx context.Context, sessionID, line string) (*service.CommandResult, error) {
	if m.ExecuteCommandFunc != nil {
		return m.ExecuteCommandFunc(ctx, sessionID, line)
	}
	return &service.CommandResult{
		Reply:     console.Reply{Text: "Unknown command"},
		GameState: &engine.GameState{},
	}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetShips(ctx context.Context, sessionID string) ([]engine.ShipInfo, error) {
	if m.GetShipsFunc != nil {
		return m.GetShipsFunc(ctx, sessionID)
	}
	return []engine.ShipInfo{}, nil
}

func (m *MockGameService) GetShots(ctx context.Context, sessionID string) ([]engine.ShotRecord, error) {
	if m.GetShotsFunc != nil {
		return m.GetShotsFunc(ctx, sessionID)
	}
	return []engine.ShotRecord{}, nil
}

// Saves
func (m *MockGameService) SaveGame(ctx context.Context, sessionID, name string) (*service.SaveInfo, error) {
	if m.SaveGameFunc != nil {
		return m.SaveGameFunc(ctx, sessionID, name)
	}
	return &service.SaveInfo{Name: name, ModifiedAt: time.Now()}, nil
}

func (m *MockGameService) LoadGame(ctx context.Context, sessionID, name string) (*engine.GameState, error) {
	if m.LoadGameFunc != nil {
		return m.LoadGameFunc(ctx, sessionID, name)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) ListSaves(ctx context.Context) ([]*service.SaveInfo, error) {
	if m.ListSavesFunc != nil {
		return m.ListSavesFunc(ctx)
	}
	return []*service.SaveInfo{}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// History
func (m *MockGameService) ListHistory(ctx context.Context, limit int) ([]history.MatchRecord, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, limit)
	}
	return []history.MatchRecord{}, nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub(nil)
	go hub.Run()
	return NewServer(mockService, hub, nil)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func intp(v int) *int { return &v }

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{
						ID:             "a1b2c3d4",
						ConfigName:     "classic",
						CreatedAt:      time.Now(),
						LastAccessedAt: time.Now(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "a1b2c3d4" {
					t.Errorf("Expected session ID a1b2c3d4, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config id",
			requestBody: map[string]string{"config_id": "small"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "s1", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "small" {
					t.Errorf("Expected config name 'small', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Empty object uses the default preset",
			requestBody: map[string]string{},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %q", configName)
					}
					return &service.SessionInfo{ID: "s2", ConfigName: "default"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown configuration",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("configuration %w", service.ErrNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions", tt.requestBody)

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func(ctx context.Context) ([]*service.SessionInfo, error) {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
			{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
			{ID: "mid", CreatedAt: now.Add(-90 * time.Minute), LastAccessedAt: now.Add(-30 * time.Minute)},
		}, nil
	}

	tests := []struct {
		name     string
		query    string
		expected []string
		total    int
	}{
		{name: "Default sorts by last access, newest first", query: "", expected: []string{"old", "mid", "new"}, total: 3},
		{name: "Sort by creation ascending", query: "?sort=created&order=asc", expected: []string{"old", "mid", "new"}, total: 3},
		{name: "Sort by creation descending", query: "?sort=created", expected: []string{"new", "mid", "old"}, total: 3},
		{name: "Limit results", query: "?sort=created&limit=1", expected: []string{"new"}, total: 3},
		{name: "Bad limit is ignored", query: "?limit=abc", expected: []string{"old", "mid", "new"}, total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&MockGameService{ListSessionsFunc: sessions})
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, len(resp.Sessions))
			for i, s := range resp.Sessions {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.expected, ids)
			assert.Equal(t, len(tt.expected), resp.Count)
			assert.Equal(t, tt.total, resp.Total)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	notFound := fmt.Errorf("session %w", service.ErrNotFound)

	tests := []struct {
		name           string
		method         string
		path           string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{name: "Get existing session", method: "GET", path: "/api/sessions/abc", expectedStatus: http.StatusOK},
		{
			name:   "Get missing session",
			method: "GET",
			path:   "/api/sessions/nope",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, notFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{name: "Delete session", method: "DELETE", path: "/api/sessions/abc", expectedStatus: http.StatusOK},
		{
			name:   "Delete missing session",
			method: "DELETE",
			path:   "/api/sessions/nope",
			setupMock: func(m *MockGameService) {
				m.DeleteSessionFunc = func(ctx context.Context, sessionID string) error {
					return notFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

// Setup Tests

func TestSetup(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:        "Apply full setup",
			requestBody: map[string]interface{}{"mode": "primary", "width": 8, "height": 9, "ships": map[string]int{"2": 3}, "strategy": "hunt"},
			setupMock: func(m *MockGameService) {
				m.ConfigureFunc = func(ctx context.Context, sessionID string, req service.SetupRequest) (*engine.GameState, error) {
					assert.Equal(t, "s1", sessionID)
					assert.Equal(t, "primary", req.Mode)
					require.NotNil(t, req.Width)
					assert.Equal(t, 8, *req.Width)
					require.NotNil(t, req.Height)
					assert.Equal(t, 9, *req.Height)
					assert.Equal(t, map[int]int{2: 3}, req.Ships)
					assert.Equal(t, "hunt", req.Strategy)
					return &engine.GameState{Phase: engine.PhasePlacing, Width: 8, Height: 9}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Malformed body",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Rejected configuration",
			requestBody: map[string]interface{}{"width": 0},
			setupMock: func(m *MockGameService) {
				m.ConfigureFunc = func(ctx context.Context, sessionID string, req service.SetupRequest) (*engine.GameState, error) {
					return nil, engine.ErrNoBoard
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Combat already running",
			requestBody: map[string]interface{}{"strategy": "ordered"},
			setupMock: func(m *MockGameService) {
				m.ConfigureFunc = func(ctx context.Context, sessionID string, req service.SetupRequest) (*engine.GameState, error) {
					return nil, engine.ErrCombatStarted
				}
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/setup", tt.requestBody))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestPlaceShip(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:        "Place horizontal ship",
			requestBody: map[string]interface{}{"x": 0, "y": 0, "size": 3, "horizontal": true},
			setupMock: func(m *MockGameService) {
				m.PlaceShipFunc = func(ctx context.Context, sessionID string, req service.PlaceRequest) (*engine.GameState, error) {
					assert.Equal(t, service.PlaceRequest{X: 0, Y: 0, Size: 3, Horizontal: true}, req)
					return &engine.GameState{Phase: engine.PhasePlacing}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Direction overrides horizontal flag",
			requestBody: map[string]interface{}{"x": 4, "y": 2, "size": 2, "horizontal": true, "direction": "v"},
			setupMock: func(m *MockGameService) {
				m.PlaceShipFunc = func(ctx context.Context, sessionID string, req service.PlaceRequest) (*engine.GameState, error) {
					assert.False(t, req.Horizontal)
					return &engine.GameState{}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing coordinates",
			requestBody:    map[string]interface{}{"size": 2},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Overlapping ship",
			requestBody: map[string]interface{}{"x": 1, "y": 1, "size": 2},
			setupMock: func(m *MockGameService) {
				m.PlaceShipFunc = func(ctx context.Context, sessionID string, req service.PlaceRequest) (*engine.GameState, error) {
					return nil, engine.ErrOverlap
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/place", tt.requestBody))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestStartAndStop(t *testing.T) {
	t.Run("Start reports enemy opening", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			StartGameFunc: func(ctx context.Context, sessionID string) (*service.TurnResult, error) {
				return &service.TurnResult{
					Shots:     []service.ShotEvent{{Side: engine.SideEnemy, X: 0, Y: 0, Result: engine.ShotMiss}},
					Message:   "Enemy shot at (0,0): Miss! Your turn!",
					GameState: &engine.GameState{Phase: engine.PhaseInCombat, PlayerTurn: true},
				}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/start", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp service.TurnResult
		parseResponse(t, w, &resp)
		require.Len(t, resp.Shots, 1)
		assert.Equal(t, engine.SideEnemy, resp.Shots[0].Side)
		assert.True(t, resp.GameState.PlayerTurn)
	})

	t.Run("Start with too dense fleet", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			StartGameFunc: func(ctx context.Context, sessionID string) (*service.TurnResult, error) {
				return nil, engine.ErrFleetTooDense
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/start", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Stop running match", func(t *testing.T) {
		server := setupTestServer(&MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/stop", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var state engine.GameState
		parseResponse(t, w, &state)
		assert.Equal(t, engine.PhaseStopped, state.Phase)
	})

	t.Run("Stop without match", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			StopGameFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
				return nil, engine.ErrNotInCombat
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/stop", nil))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

// Combat Tests

func TestShoot(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Hit keeps the turn",
			requestBody: map[string]*int{"x": intp(3), "y": intp(4)},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
					assert.Equal(t, 3, x)
					assert.Equal(t, 4, y)
					return &service.TurnResult{
						Shots:     []service.ShotEvent{{Side: engine.SidePlayer, X: x, Y: y, Result: engine.ShotHit}},
						GameState: &engine.GameState{Phase: engine.PhaseInCombat, PlayerTurn: true},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.TurnResult
				parseResponse(t, w, &resp)
				require.Len(t, resp.Shots, 1)
				assert.Equal(t, engine.ShotHit, resp.Shots[0].Result)
			},
		},
		{
			name:        "Zero coordinates are valid",
			requestBody: map[string]int{"x": 0, "y": 0},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
					assert.Zero(t, x)
					assert.Zero(t, y)
					return &service.TurnResult{GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing y",
			requestBody:    map[string]int{"x": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Not your turn",
			requestBody: map[string]int{"x": 1, "y": 1},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
					return nil, engine.ErrNotYourTurn
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "Unknown session",
			requestBody: map[string]int{"x": 1, "y": 1},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
					return nil, fmt.Errorf("session %w", service.ErrNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/shoot", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	t.Run("Runs console line", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			ExecuteCommandFunc: func(ctx context.Context, sessionID, line string) (*service.CommandResult, error) {
				assert.Equal(t, "set size 8 8", line)
				return &service.CommandResult{
					Reply:     console.Reply{Text: "Board size set to 8x8"},
					GameState: &engine.GameState{Width: 8, Height: 8},
				}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/command", map[string]string{"line": "set size 8 8"}))
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		parseResponse(t, w, &resp)
		assert.Equal(t, "Board size set to 8x8", resp["reply"])
		assert.NotNil(t, resp["game_state"])
	})

	t.Run("Blank line", func(t *testing.T) {
		server := setupTestServer(&MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/s1/command", map[string]string{"line": "   "}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestShipsAndShots(t *testing.T) {
	server := setupTestServer(&MockGameService{
		GetShipsFunc: func(ctx context.Context, sessionID string) ([]engine.ShipInfo, error) {
			return []engine.ShipInfo{{X: 1, Y: 2, Length: 3, Horizontal: true}}, nil
		},
		GetShotsFunc: func(ctx context.Context, sessionID string) ([]engine.ShotRecord, error) {
			return []engine.ShotRecord{{Side: engine.SidePlayer, X: 5, Y: 5, Result: engine.ShotMiss}}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/s1/ships", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var ships []engine.ShipInfo
	parseResponse(t, w, &ships)
	require.Len(t, ships, 1)
	assert.Equal(t, 3, ships[0].Length)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/s1/shots", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var shots []engine.ShotRecord
	parseResponse(t, w, &shots)
	require.Len(t, shots, 1)
	assert.Equal(t, 5, shots[0].X)
}

// Save Tests

func TestSaveAndLoad(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{name: "Save game", path: "/api/sessions/s1/save", requestBody: map[string]string{"name": "before-boss"}, expectedStatus: http.StatusCreated},
		{
			name:        "Save with bad name",
			path:        "/api/sessions/s1/save",
			requestBody: map[string]string{"name": "../etc"},
			setupMock: func(m *MockGameService) {
				m.SaveGameFunc = func(ctx context.Context, sessionID, name string) (*service.SaveInfo, error) {
					return nil, fmt.Errorf("%w: %q", service.ErrInvalidName, name)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{name: "Load game", path: "/api/sessions/s1/load", requestBody: map[string]string{"name": "before-boss"}, expectedStatus: http.StatusOK},
		{
			name:        "Load during combat",
			path:        "/api/sessions/s1/load",
			requestBody: map[string]string{"name": "before-boss"},
			setupMock: func(m *MockGameService) {
				m.LoadGameFunc = func(ctx context.Context, sessionID, name string) (*engine.GameState, error) {
					return nil, engine.ErrLoadInCombat
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "Load corrupt save",
			path:        "/api/sessions/s1/load",
			requestBody: map[string]string{"name": "broken"},
			setupMock: func(m *MockGameService) {
				m.LoadGameFunc = func(ctx context.Context, sessionID, name string) (*engine.GameState, error) {
					return nil, engine.ErrCorruptSave
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", tt.path, tt.requestBody))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}

	t.Run("List saves", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			ListSavesFunc: func(ctx context.Context) ([]*service.SaveInfo, error) {
				return []*service.SaveInfo{{Name: "a"}, {Name: "b"}}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/saves", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var saves []*service.SaveInfo
		parseResponse(t, w, &saves)
		assert.Len(t, saves, 2)
	})
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	t.Run("List configs", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
				return []*service.ConfigInfo{{ConfigID: "classic", Width: 10, Height: 10, TotalShips: 7}}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var configs []*service.ConfigInfo
		parseResponse(t, w, &configs)
		require.Len(t, configs, 1)
		assert.Equal(t, 7, configs[0].TotalShips)
	})

	t.Run("Get config strips extension", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
				assert.Equal(t, "classic", configName)
				return &engine.GameConfig{Name: "Classic", Width: 10, Height: 10}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs/classic.json", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var config engine.GameConfig
		parseResponse(t, w, &config)
		assert.Equal(t, "Classic", config.Name)
	})

	t.Run("Get missing config", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
				return nil, fmt.Errorf("configuration %w", service.ErrNotFound)
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Create config", func(t *testing.T) {
		var saved string
		server := setupTestServer(&MockGameService{
			SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
				saved = configName
				assert.Equal(t, 7, config.Width)
				return nil
			},
		})
		w := httptest.NewRecorder()
		body := map[string]interface{}{"config_id": "tiny", "name": "Tiny", "width": 7, "height": 7}
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", body))
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "tiny", saved)
	})

	t.Run("Create config requires name", func(t *testing.T) {
		server := setupTestServer(&MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]int{"width": 7}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create invalid config", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
				return fmt.Errorf("invalid %w", engine.ErrConfiguration)
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]string{"name": "bad"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// History Tests

func TestHistory(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedLimit  int
		expectedStatus int
	}{
		{name: "No limit", query: "", expectedLimit: 0, expectedStatus: http.StatusOK},
		{name: "With limit", query: "?limit=5", expectedLimit: 5, expectedStatus: http.StatusOK},
		{name: "Negative limit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
		{name: "Non numeric limit", query: "?limit=ten", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&MockGameService{
				ListHistoryFunc: func(ctx context.Context, limit int) ([]history.MatchRecord, error) {
					assert.Equal(t, tt.expectedLimit, limit)
					return []history.MatchRecord{{SessionID: "s1", Winner: history.WinnerPlayer}}, nil
				},
			})
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/history"+tt.query, nil))
			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp struct {
				Count   int                   `json:"count"`
				Matches []history.MatchRecord `json:"matches"`
			}
			parseResponse(t, w, &resp)
			assert.Equal(t, 1, resp.Count)
			assert.Equal(t, history.WinnerPlayer, resp.Matches[0].Winner)
		})
	}
}

func TestHealthAndUI(t *testing.T) {
	server := setupTestServer(&MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, strings.ToLower(w.Body.String()), "<html")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{engine.ErrCombatStarted, http.StatusConflict},
		{engine.ErrMatchOver, http.StatusConflict},
		{engine.ErrNotYourTurn, http.StatusConflict},
		{engine.ErrLoadInCombat, http.StatusConflict},
		{fmt.Errorf("session %w", service.ErrNotFound), http.StatusNotFound},
		{engine.ErrShipTooLarge, http.StatusBadRequest},
		{engine.ErrTooClose, http.StatusBadRequest},
		{engine.ErrFleetGeneration, http.StatusBadRequest},
		{engine.ErrCorruptSave, http.StatusBadRequest},
		{service.ErrInvalidName, http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			setupMock:      nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			server.handleWebSocket(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocketMatchOver(t *testing.T) {
	commitment := &fairplay.Commitment{Root: "0x01", Salt: "0x02"}
	hub := websocket.NewHub(nil)
	go hub.Run()
	server := NewServer(&MockGameService{
		ShootFunc: func(ctx context.Context, sessionID string, x, y int) (*service.TurnResult, error) {
			return &service.TurnResult{
				Shots:     []service.ShotEvent{{Side: engine.SidePlayer, X: x, Y: y, Result: engine.ShotDestroyed}},
				GameState: &engine.GameState{Phase: engine.PhaseFinished, Finished: true, Won: true},
				Reveal:    &service.Reveal{Commitment: commitment, Verified: true},
			}, nil
		},
	}, hub, nil)

	ts := httptest.NewServer(server)
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=s1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/sessions/s1/shoot", "application/json", strings.NewReader(`{"x":2,"y":3}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seen := map[string]json.RawMessage{}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(seen) < 3 {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		seen[msg.Event] = msg.Data
	}

	assert.Contains(t, seen, websocket.EventStateUpdate)
	assert.Contains(t, seen, websocket.EventTurn)
	require.Contains(t, seen, websocket.EventMatchOver)

	var reveal service.Reveal
	require.NoError(t, json.Unmarshal(seen[websocket.EventMatchOver], &reveal))
	assert.True(t, reveal.Verified)
	assert.Equal(t, "0x01", reveal.Commitment.Root)
}
