// Package engine provides the core game logic for the Sea Battle game.
//
// The engine package implements the game mechanics including:
//   - Board representation with monotonic cell state transitions
//   - Ship placement rules (bounds, overlap and the one-cell buffer ring)
//   - Randomized fleet generation with bounded retries
//   - Shot resolution for both sides, including the surround reveal
//   - The AI targeting strategies (ordered sweep and hunt/target)
//   - The match lifecycle and turn alternation
//   - Flat-text save and load
//
// Core Types:
//
// GameEngine owns exactly two boards, two fleets, one GameConfig and the
// turn state. Targeter is the interface implemented by the two AI strategies,
// and GameState is a JSON-friendly snapshot used by transports.
//
// Usage:
//
//	eng := engine.New()
//	if err := eng.CreateGame(engine.ModeSecondary); err != nil {
//		log.Fatal(err)
//	}
//	if err := eng.StartGame(); err != nil {
//		log.Fatal(err)
//	}
//
//	// Fire at the engine-held board
//	result, err := eng.Shoot(3, 4)
//
//	// Let the engine take its turn
//	shots, err := eng.PlayEnemyTurn()
//
//	// Persist and restore between turns
//	if err := eng.Save("match.sav"); err != nil {
//		log.Println(err)
//	}
//
// Game Rules:
//
// Both sides hide a fleet of straight ships sized 1 to 4 on their own board.
// Ships never touch, not even diagonally. A miss passes the turn to the other
// side; a hit or a destroyed ship lets the same side fire again. Destroying a
// ship reveals the empty buffer around it as misses. The match ends when one
// fleet is fully hit.
//
// The engine is synchronous and not safe for concurrent use; callers that
// share an engine across goroutines must serialize access.
package engine
