package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/history"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/transport/console"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sea Battle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sea Battle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Sink every enemy ship before the enemy sinks yours.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- setup_game: Change mode, board size, fleet or enemy strategy
- place_ship: Place one of your ships (primary mode)
- start_game: Start combat
- shoot: Fire at the enemy board - requires intent explanation
- stop_game: Abandon the current match
- game_state: Show both boards
- console_command: Run a raw console command line
- save_game / load_game: Save slots
- list_configs: List available configurations
- match_history: Finished matches
- game_instructions: Rules and strategy tips

NOTE: The 'intent' parameter on shoot serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

func integer(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, e.g. classic, small, big, primary (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Setup
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "setup_game",
		Description: "Change the match setup before combat. Omitted fields keep their value.",
		InputSchema: sessionSchema(map[string]interface{}{
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"primary", "secondary"},
				"description": "primary: you place your ships. secondary: both fleets are generated",
			},
			"width":  integer("Board width"),
			"height": integer("Board height"),
			"ships": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "integer"},
				"description":          `Ship counts by length, e.g. {"4": 1, "3": 2}`,
			},
			"strategy": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"ordered", "hunt"},
				"description": "Enemy targeting strategy",
			},
		}),
	}, c.handleSetup)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_ship",
		Description: "Place one of your ships. Ships may not touch, not even diagonally.",
		InputSchema: sessionSchema(map[string]interface{}{
			"x":    integer("Column of the bow (0-based)"),
			"y":    integer("Row of the bow (0-based)"),
			"size": integer("Ship length, 1 to 4"),
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"h", "v"},
				"description": "h extends right, v extends down",
			},
		}, "x", "y", "size", "direction"),
	}, c.handlePlaceShip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start combat. Missing ships are placed automatically.",
		InputSchema: sessionSchema(nil),
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_game",
		Description: "Abandon the match in progress",
		InputSchema: sessionSchema(nil),
	}, c.handleStopGame)

	// Combat
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "shoot",
		Description: "Fire at a cell of the enemy board. A hit keeps your turn, a miss hands it to the enemy.",
		InputSchema: sessionSchema(map[string]interface{}{
			"x": integer("Column to fire at (0-based)"),
			"y": integer("Row to fire at (0-based)"),
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "Brief explanation of why you chose this cell (serves as a rubber duck to help explain your reasoning)",
			},
		}, "x", "y"),
	}, c.handleShoot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with both boards",
		InputSchema: sessionSchema(nil),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "console_command",
		Description: "Run a console command line such as 'set size 8 8' or 'display'",
		InputSchema: sessionSchema(map[string]interface{}{
			"line": map[string]interface{}{
				"type":        "string",
				"description": "Command line to run",
			},
		}, "line"),
	}, c.handleCommand)

	// Saves
	nameSchema := map[string]interface{}{
		"name": map[string]interface{}{
			"type":        "string",
			"description": "Save slot name (letters, digits, dash, underscore)",
		},
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_game",
		Description: "Save the session's match to a named slot",
		InputSchema: sessionSchema(nameSchema, "name"),
	}, c.handleSaveGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_game",
		Description: "Load a saved match into the session. Not allowed during combat.",
		InputSchema: sessionSchema(nameSchema, "name"),
	}, c.handleLoadGame)

	// Configuration and history
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "match_history",
		Description: "List finished matches, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": integer("Maximum number of matches"),
			},
		},
	}, c.handleMatchHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return fmt.Sprintf("/api/sessions/%s%s", sessionID, suffix), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := "unknown"
		if s.GameState != nil {
			phase = string(s.GameState.Phase)
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Phase: %s, Created: %s)\n",
			s.ID, s.ConfigName, phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall("GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall("GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSetup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/setup")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{}
	for _, key := range []string{"mode", "strategy"} {
		if v, ok := args[key].(string); ok && v != "" {
			body[key] = v
		}
	}
	for _, key := range []string{"width", "height"} {
		if v, ok := intArg(args, key); ok {
			body[key] = v
		}
	}
	if ships, ok := args["ships"].(map[string]interface{}); ok {
		body["ships"] = ships
	}

	var state engine.GameState
	if err := c.apiCall("POST", path, body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Setup updated\n\n" + formatGameState(&state)), nil
}

func (c *Client) handlePlaceShip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/place")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	size, okSize := intArg(args, "size")
	direction, _ := args["direction"].(string)
	if !okX || !okY || !okSize {
		return mcp.NewToolResultError("x, y and size are required"), nil
	}

	body := map[string]interface{}{
		"x":         x,
		"y":         y,
		"size":      size,
		"direction": direction,
	}

	var state engine.GameState
	if err := c.apiCall("POST", path, body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Placed ship of size %d at (%d,%d)\n\n%s", size, x, y, formatGameState(&state))), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var turn service.TurnResult
	if err := c.apiCall("POST", path, nil, &turn); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game started\n" + formatTurnResult(&turn)), nil
}

func (c *Client) handleStopGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/stop")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall("POST", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game stopped\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleShoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/shoot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	// intent is for the caller's own reasoning and is not forwarded

	var turn service.TurnResult
	if err := c.apiCall("POST", path, map[string]int{"x": x, "y": y}, &turn); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResult(&turn)), nil
}

func (c *Client) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, _ := args["line"].(string)

	var result struct {
		Reply string `json:"reply"`
	}
	if err := c.apiCall("POST", path, map[string]string{"line": line}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Reply), nil
}

func (c *Client) handleSaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/save")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["name"].(string)

	var info service.SaveInfo
	if err := c.apiCall("POST", path, map[string]string{"name": name}, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved to slot %s (%d bytes)", info.Name, info.Size)), nil
}

func (c *Client) handleLoadGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/load")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["name"].(string)

	var state engine.GameState
	if err := c.apiCall("POST", path, map[string]string{"name": name}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Loaded slot %s\n\n%s", name, formatGameState(&state))), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall("GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (%s)\n  %s\n  Board: %dx%d, Ships: %d, Mode: %s, Strategy: %s\n\n",
			config.ConfigID, config.Name, config.Description, config.Width, config.Height,
			config.TotalShips, config.Mode, config.Strategy)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleMatchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/history"
	if limit, ok := intArg(arguments(request), "limit"); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count   int                   `json:"count"`
		Matches []history.MatchRecord `json:"matches"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(response.Matches)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Sea Battle - Complete Instructions

GAME OBJECTIVE:
Destroy every enemy ship before the enemy destroys yours.

SETUP:
• primary mode: you choose board size and fleet, then place your own ships
• secondary mode: a classic 10x10 fleet is generated for both sides
• Ships are 1 to 4 cells long and may not touch, not even diagonally
• Ships may cover at most half of the board
• start_game places any ships you have not placed yourself

TURNS:
• A hit or a destroyed ship keeps your turn
• A miss hands the turn to the enemy, who keeps firing until it misses
• Shots at cells you already fired at are rejected and keep your turn

BOARD LEGEND:
  .  water or unknown
  S  your ship
  X  hit
  O  miss
  #  destroyed ship

ENEMY STRATEGIES:
• ordered: sweeps the board row by row
• hunt: fires at random, then finishes off any ship it has hit

STRATEGY TIPS:
• After a hit, probe the four neighbours to find the ship's direction
• Cells around a destroyed ship can never hold another ship
• Spread early shots on a checkerboard pattern

FAIR PLAY:
The enemy fleet is committed before combat starts. The commitment root is
shown in game_state and the salt is revealed when the match ends, so the
layout can be verified.

Good luck, admiral!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGrid(rows [][]int, reveal bool) string {
	var sb strings.Builder
	for _, row := range rows {
		for x, cell := range row {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(console.CellIcon(engine.CellState(cell), 0, reveal))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Phase: %s | Mode: %s | Board: %dx%d | Strategy: %s\n",
		state.Phase, state.Mode, state.Width, state.Height, state.Strategy)

	if state.Phase == engine.PhaseInCombat {
		if state.PlayerTurn {
			result.WriteString("Turn: yours\n")
		} else {
			result.WriteString("Turn: enemy\n")
		}
	}
	if state.Remaining.TotalShips() > 0 {
		result.WriteString("Left to place:")
		for size := engine.MinShipLength; size <= engine.MaxShipLength; size++ {
			if n := state.Remaining.Get(size); n > 0 {
				fmt.Fprintf(&result, " %dx%d", n, size)
			}
		}
		result.WriteString("\n")
	}

	if len(state.PlayerGrid) > 0 {
		result.WriteString("\nYour board:\n")
		result.WriteString(formatGrid(state.PlayerGrid, true))
	}
	if len(state.EnemyGrid) > 0 {
		result.WriteString("\nEnemy board:\n")
		result.WriteString(formatGrid(state.EnemyGrid, false))
	}

	if state.Finished {
		if state.Won {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 DEFEAT")
		}
	}

	if state.Commitment != "" {
		fmt.Fprintf(&result, "\nCommitment: %s", state.Commitment)
	}
	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatTurnResult(turn *service.TurnResult) string {
	var result strings.Builder
	for _, shot := range turn.Shots {
		who := "You"
		if shot.Side == engine.SideEnemy {
			who = "Enemy"
		}
		fmt.Fprintf(&result, "%s fired at (%d,%d): %s\n", who, shot.X, shot.Y, shot.Result)
	}
	if turn.Message != "" {
		result.WriteString(turn.Message + "\n")
	}
	if turn.Reveal != nil {
		if turn.Reveal.Verified {
			result.WriteString("Enemy layout verified against its commitment ✓\n")
		} else {
			result.WriteString("Enemy layout does NOT match its commitment ✗\n")
		}
	}
	result.WriteString("\n")
	result.WriteString(formatGameState(turn.GameState))
	return result.String()
}

func formatHistory(matches []history.MatchRecord) string {
	if len(matches) == 0 {
		return "No matches played yet"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Match History (%d):\n\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&result, "- %s session %s: %dx%d %s/%s, winner %s, shots %d vs %d\n",
			m.EndedAt.Format("2006-01-02 15:04"), m.SessionID, m.Width, m.Height,
			m.Mode, m.Strategy, m.Winner, m.PlayerShots, m.EnemyShots)
	}
	return result.String()
}
