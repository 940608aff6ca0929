package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/battlecode/battlecode-hackathon-sub000/game/config"
	"github.com/battlecode/battlecode-hackathon-sub000/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Battlecode Hackathon Server" {
		t.Errorf("Expected app name Battlecode Hackathon Server, got %s", AppName)
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	if app.DefaultCommand != "serve" {
		t.Errorf("Expected default command serve, got %s", app.DefaultCommand)
	}
	names := map[string]bool{}
	for _, c := range app.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"serve", "mcp"} {
		if !names[want] {
			t.Errorf("Expected command %s", want)
		}
	}
}

func TestLoadSettings_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	settingsFile := filepath.Join(dir, "battlecode.yaml")
	os.WriteFile(settingsFile, []byte("tcp_addr: \":7000\"\nmax_turns: 50\n"), 0644)

	app := newApp()
	var got *config.Settings
	for _, c := range app.Commands {
		if c.Name == "serve" {
			c.Action = func(ctx context.Context, cmd *cli.Command) error {
				var err error
				got, err = loadSettings(cmd)
				return err
			}
		}
	}

	err := app.Run(context.Background(), []string{
		"battlecode", "--config", settingsFile, "--maps", dir, "--turn-timeout", "3s", "serve",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected settings to be loaded")
	}
	if got.TCPAddr != ":7000" {
		t.Errorf("Expected tcp addr from file, got %s", got.TCPAddr)
	}
	if got.MaxTurns != 50 {
		t.Errorf("Expected max turns 50, got %d", got.MaxTurns)
	}
	if got.MapDir != dir {
		t.Errorf("Expected map dir %s, got %s", dir, got.MapDir)
	}
	if got.TurnTimeout != 3*time.Second {
		t.Errorf("Expected turn timeout 3s, got %v", got.TurnTimeout)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("Expected default http addr, got %s", got.HTTPAddr)
	}
}

func TestInitializeServices(t *testing.T) {
	settings := config.DefaultSettings()
	settings.MapDir = t.TempDir()

	svc, err := initializeServices(settings)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.sessions.Close()
	if svc.game == nil || svc.maps.GetDefault() == nil {
		t.Fatal("Expected game service and default map")
	}

	settings.MapDir = "/non/existent/path"
	if _, err := initializeServices(settings); err == nil {
		t.Error("Expected error for non-existent map directory")
	}

	settings.MapDir = t.TempDir()
	settings.DefaultMap = "nope"
	if _, err := initializeServices(settings); err == nil {
		t.Error("Expected error for unknown default map")
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080"},
		{"0.0.0.0:9000", "http://localhost:9000"},
		{"127.0.0.1:80", "http://127.0.0.1:80"},
		{"[::]:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		if got := baseURL(tt.addr); got != tt.want {
			t.Errorf("baseURL(%q) = %s, want %s", tt.addr, got, tt.want)
		}
	}
}

func TestHTTPHandler_MCPEndpoint(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := httpHandler(api, mcp.NewClient("http://127.0.0.1:1"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/mcp", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"jsonrpc":"2.0"`) {
		t.Errorf("Expected JSON-RPC response, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected API handler to serve /api, got %d", rr.Code)
	}
}

func TestRunServe_Shutdown(t *testing.T) {
	settings := config.DefaultSettings()
	settings.MapDir = t.TempDir()
	settings.HTTPAddr = "127.0.0.1:0"
	settings.TCPAddr = "127.0.0.1:0"
	settings.CleanupInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, settings, false) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}

func TestCleanupRoutine_Disabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		cleanupRoutine(context.Background(), nil, 0, time.Minute)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected cleanup routine to return when disabled")
	}
}
