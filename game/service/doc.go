// Package service provides the business logic layer for the sea battle server.
//
// GameService is the one entry point shared by every transport (HTTP,
// WebSocket, MCP and the console). It owns:
//   - session lifecycle through a SessionManager
//   - match presets through a ConfigManager
//   - turn orchestration: a human miss hands the turn to the engine, which
//     keeps firing until it misses or wins
//   - fair play: entering combat publishes a salted commitment to the enemy
//     fleet, a finished match reveals it together with a verification result
//   - match history through an optional MatchRecorder
//   - save files in the engine's text format
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, _ := config.NewManager("configs")
//	store, _ := history.Open("data/history.db")
//	svc := service.NewGameService(sessions, configs,
//		service.WithRecorder(store),
//		service.WithSavesDir("saves"),
//	)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	turn, err := svc.StartGame(ctx, info.ID)
//	turn, err = svc.Shoot(ctx, info.ID, 4, 7)
//
// Lookups of unknown sessions, presets and save files return errors wrapping
// ErrNotFound.
package service
