// Command battlecode hosts Battlecode hackathon games.
//
// It supports two commands:
//  1. "serve" (default) – runs the TCP game server plus an HTTP server exposing
//     the REST API, the websocket transport and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server against a running HTTP API, starting an
//     internal one if none answers
//
// Settings come from an optional YAML file and BATTLECODE_* environment
// variables; flags override both.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/battlecode/battlecode-hackathon-sub000/api"
	"github.com/battlecode/battlecode-hackathon-sub000/game/config"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/game/session"
	"github.com/battlecode/battlecode-hackathon-sub000/transport"
	"github.com/battlecode/battlecode-hackathon-sub000/transport/mcp"
	"github.com/battlecode/battlecode-hackathon-sub000/transport/tcp"
	"github.com/battlecode/battlecode-hackathon-sub000/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Battlecode Hackathon Server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "battlecode",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML settings file", Sources: cli.EnvVars("BATTLECODE_CONFIG")},
			&cli.StringFlag{Name: "http", Usage: "HTTP listen address (REST, websocket, MCP)"},
			&cli.StringFlag{Name: "tcp", Usage: "TCP listen address for bots"},
			&cli.StringFlag{Name: "maps", Usage: "Directory containing map files"},
			&cli.StringFlag{Name: "default-map", Usage: "Map used by pickup lobbies"},
			&cli.DurationFlag{Name: "turn-timeout", Usage: "Time a team has to submit its turn"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging and engine invariant checks"},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the game server",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "Expose the HTTP server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					return runServe(ctx, settings, cmd.Bool("ngrok"))
				},
			},
			{
				Name:  "mcp",
				Usage: "Run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api", Value: "http://localhost:8080", Usage: "Base URL of a running HTTP API"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					return runStdioMCP(ctx, settings, cmd.String("api"))
				},
			},
		},
	}
}

// loadSettings reads the settings file and environment, then applies flags.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("http") {
		settings.HTTPAddr = cmd.String("http")
	}
	if cmd.IsSet("tcp") {
		settings.TCPAddr = cmd.String("tcp")
	}
	if cmd.IsSet("maps") {
		settings.MapDir = cmd.String("maps")
	}
	if cmd.IsSet("default-map") {
		settings.DefaultMap = cmd.String("default-map")
	}
	if cmd.IsSet("turn-timeout") {
		settings.TurnTimeout = cmd.Duration("turn-timeout")
	}
	if cmd.IsSet("debug") {
		settings.Debug = cmd.Bool("debug")
	}

	if settings.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return settings, settings.Validate()
}

// services holds the wired game layers.
type services struct {
	maps     *config.Manager
	sessions *session.Manager
	game     service.GameService
}

// initializeServices wires the map and session managers and the game service.
func initializeServices(settings *config.Settings) (*services, error) {
	maps, err := config.NewManager(settings.MapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create map manager: %w", err)
	}
	if settings.DefaultMap != "" {
		if err := maps.SetDefault(settings.DefaultMap); err != nil {
			return nil, fmt.Errorf("failed to set default map: %w", err)
		}
	}

	sessions := session.NewManager()
	return &services{
		maps:     maps,
		sessions: sessions,
		game:     service.NewGameService(sessions, maps, settings.MatchOptions()),
	}, nil
}

// httpHandler mounts the API server and the /mcp proxy endpoint.
func httpHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runServe starts every listener and blocks until ctx is cancelled.
func runServe(ctx context.Context, settings *config.Settings, ngrokEnabled bool) error {
	svc, err := initializeServices(settings)
	if err != nil {
		return err
	}
	defer svc.sessions.Close()

	log.Printf("Starting %s v%s (maps: %d in %s)", AppName, Version, svc.maps.Count(), settings.MapDir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router := transport.NewRouter(svc.game)
	hub := websocket.NewHub(router)
	go hub.Run(ctx)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	if settings.TCPAddr != "" {
		tcpServer := tcp.NewServer(router)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpServer.ListenAndServe(ctx, settings.TCPAddr); err != nil {
				errs <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}

	var httpServer *http.Server
	if settings.HTTPAddr != "" {
		apiServer := api.NewServer(svc.game, hub)
		mcpClient := mcp.NewClient(baseURL(settings.HTTPAddr))
		handler := httpHandler(apiServer, mcpClient)

		httpServer = &http.Server{
			Addr:         settings.HTTPAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("HTTP server listening on %s", settings.HTTPAddr)
			log.Printf("REST API: http://%s/api", settings.HTTPAddr)
			log.Printf("WebSocket: ws://%s/ws", settings.HTTPAddr)
			log.Printf("MCP endpoint: http://%s/mcp", settings.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errs <- fmt.Errorf("http server: %w", err)
			}
		}()

		if ngrokEnabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runNgrok(ctx, settings, handler)
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanupRoutine(ctx, svc.sessions, settings.CleanupInterval, settings.GameRetention)
	}()

	// SIGHUP reloads map files
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down...")
			break loop
		case err := <-errs:
			runErr = err
			break loop
		case <-hup:
			if err := svc.maps.RefreshCache(); err != nil {
				log.Printf("Map reload failed: %v", err)
			} else {
				log.Printf("Reloaded maps (%d)", svc.maps.Count())
			}
		}
	}
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// baseURL turns a listen address into a loopback URL.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// runNgrok serves handler through a public tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, settings *config.Settings, handler http.Handler) {
	authToken := settings.NgrokAuthtoken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (set BATTLECODE_NGROK_AUTHTOKEN or NGROK_AUTHTOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", settings.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// cleanupRoutine periodically drops games that ended more than retention ago.
func cleanupRoutine(ctx context.Context, sessions *session.Manager, interval, retention time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.CleanupFinished(retention); removed > 0 {
				log.Printf("Cleaned up %d finished games", removed)
			}
		}
	}
}

// runStdioMCP runs an MCP stdio server. It reuses the API at apiURL when it
// answers; otherwise it starts an internal HTTP API on a loopback port.
func runStdioMCP(ctx context.Context, settings *config.Settings, apiURL string) error {
	// stdout carries the MCP stream
	log.SetOutput(os.Stderr)

	target := apiURL
	if !apiAvailable(apiURL) {
		log.Printf("No API server at %s, starting internal HTTP server", apiURL)

		svc, err := initializeServices(settings)
		if err != nil {
			return err
		}
		defer svc.sessions.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(transport.NewRouter(svc.game))
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		target = "http://" + listener.Addr().String()
	}

	log.Printf("MCP stdio server ready (API: %s)", target)
	return server.ServeStdio(mcp.NewClient(target).GetMCPServer())
}

func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
