// Package mcp exposes sea battle to AI agents over the Model Context Protocol.
//
// The Client registers MCP tools and forwards every call to the REST API, so
// agents and browsers share the same sessions and live updates.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - setup_game, place_ship, start_game, stop_game
//   - shoot, game_state, console_command
//   - save_game, load_game
//   - list_configs, match_history, game_instructions
//
// Transport Modes:
//   - Stdio: the mcp command serves the tools on stdin/stdout
//   - HTTP: the serve command answers JSON-RPC on /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
