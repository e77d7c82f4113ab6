// Command seabattle runs the sea battle game.
//
// Commands:
//  1. serve (default) runs the HTTP server with the REST API, WebSocket
//     updates, the browser UI and an /mcp HTTP endpoint
//  2. play runs the console game on stdin/stdout
//  3. mcp runs an MCP stdio server and spins up an internal HTTP API if none
//     is available
//  4. history prints recorded matches
//
// Flags control host/port, data directories, debug logging and optional
// ngrok tunneling. Every flag can also be set from the environment or a
// .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/seabattle/api"
	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/history"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/game/session"
	"github.com/wricardo/seabattle/transport/mcp"
	"github.com/wricardo/seabattle/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sea Battle Server"
)

// settings holds the resolved process configuration
type settings struct {
	Host        string
	Port        int
	ConfigDir   string
	SessionsDir string
	SavesDir    string
	HistoryDB   string
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func settingsFrom(cmd *cli.Command) settings {
	return settings{
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		ConfigDir:   cmd.String("config-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		SavesDir:    cmd.String("saves-dir"),
		HistoryDB:   cmd.String("history-db"),
	}
}

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "seabattle",
})

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "seabattle",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "saves-dir", Value: "saves", Usage: "Directory for named save slots", Sources: cli.EnvVars("SAVES_DIR")},
			&cli.StringFlag{Name: "history-db", Value: "data/history.db", Usage: "SQLite file for match history (empty disables history)", Sources: cli.EnvVars("HISTORY_DB")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logger.SetLevel(log.DebugLevel)
				logger.SetReportCaller(true)
			}
			log.SetDefault(logger)
			return ctx, nil
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, web UI and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: runHTTPServer,
			},
			{
				Name:  "play",
				Usage: "Play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Usage: "Start from a named configuration instead of an empty game"},
					&cli.IntFlag{Name: "seed", Usage: "Random seed (0 picks one)"},
				},
				Action: runPlay,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCPWithInternalServer,
			},
			{
				Name:  "history",
				Usage: "Print recorded matches",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of matches to show"},
				},
				Action: runHistory,
			},
		},
	}
}

// main loads .env, parses the command line and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("error loading .env file", "err", err)
		}
	} else {
		logger.Debug("loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logger.Fatal("command failed", "err", err)
	}
}

// services bundles everything a server process owns
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence *session.FilePersistence
	history     *history.Store
}

// Close flushes sessions and closes the history store
func (s *services) Close() {
	if err := s.sessions.Flush(); err != nil {
		logger.Warn("failed to save sessions", "err", err)
	}
	if err := s.history.Close(); err != nil {
		logger.Warn("failed to close history", "err", err)
	}
}

// initializeServices wires config, session, history and game services.
func initializeServices(cfg settings) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManager(
		session.WithPersistence(persistence),
		session.WithLogger(logger.WithPrefix("session")),
	)
	if err := sessionManager.Restore(); err != nil {
		logger.Warn("failed to load persisted sessions", "err", err)
	}

	opts := []service.Option{
		service.WithSavesDir(cfg.SavesDir),
		service.WithLogger(logger.WithPrefix("service")),
	}

	var store *history.Store
	if cfg.HistoryDB != "" {
		store, err = history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open match history: %w", err)
		}
		opts = append(opts, service.WithRecorder(store))
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager, opts...),
		sessions:    sessionManager,
		persistence: persistence,
		history:     store,
	}, nil
}

// mcpHandler answers MCP JSON-RPC messages over plain HTTP POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API server and the /mcp endpoint
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub, logger.WithPrefix("api"))
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	cfg := settingsFrom(cmd)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "serve")

	svc, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go sessionCleanupRoutine(ctx, svc.sessions)
	go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence)

	hub := websocket.NewHub(logger.WithPrefix("ws"))
	go hub.Run()

	addr := cfg.addr()
	mainRouter := newRouter(svc.game, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"ui", "http://"+addr+"/",
			"api", "http://"+addr+"/api",
			"ws", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "err", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL, "mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.Expire(24 * time.Hour)
		}
	}
}

// filesystemSyncRoutine drops in-memory sessions whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if !persistence.Exists(sess.ID) {
				if err := manager.Evict(sess.ID); err == nil {
					pruned++
					logger.Debug("pruned session from memory (file deleted)", "session", sess.ID)
				}
			}
		}

		if pruned > 0 {
			logger.Info("filesystem sync pruned orphaned sessions", "count", pruned)
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on host:port; otherwise it starts an
// internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cmd *cli.Command) error {
	cfg := settingsFrom(cmd)
	externalURL := "http://" + cfg.addr()
	baseURL := externalURL

	logger.Info("checking for external API server", "url", externalURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP")
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		baseURL = "http://" + internalAddr

		hub := websocket.NewHub(logger.WithPrefix("ws"))
		go hub.Run()

		httpServer := &http.Server{
			Handler: api.NewServer(svc.game, hub, logger.WithPrefix("api")),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", "err", err)
			}
		}()

		logger.Info("internal HTTP server started", "addr", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runHistory prints the most recent matches and a win summary
func runHistory(ctx context.Context, cmd *cli.Command) error {
	cfg := settingsFrom(cmd)
	if cfg.HistoryDB == "" {
		return fmt.Errorf("history is disabled (empty --history-db)")
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	return printHistory(ctx, os.Stdout, store, int(cmd.Int("limit")))
}

func printHistory(ctx context.Context, w io.Writer, store *history.Store, limit int) error {
	matches, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	stats, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Matches: %d | Won: %d | Lost: %d\n\n", stats.Total, stats.PlayerWins, stats.EnemyWins)
	for _, m := range matches {
		fmt.Fprintf(w, "%s  %-8s %2dx%-2d %-9s %-7s winner=%-6s shots=%d/%d\n",
			m.EndedAt.Local().Format("2006-01-02 15:04"), m.SessionID, m.Width, m.Height,
			m.Mode, m.Strategy, m.Winner, m.PlayerShots, m.EnemyShots)
	}
	return nil
}
