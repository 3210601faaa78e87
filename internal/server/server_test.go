package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sevir/botshell/internal/backend"
	"github.com/sevir/botshell/internal/config"
	"github.com/sevir/botshell/internal/history"
	"github.com/sevir/botshell/internal/locate"
)

// setupTestServer wires a server around a supervisor whose only launch
// candidate does not exist, and a probe pointing at an unbound port.
func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "botshell-server-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	journal, err := history.Open(filepath.Join(tmpDir, "launches.json"), 10)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open journal: %v", err)
	}

	loc := locate.New(config.LaunchConfig{
		Mode:    config.ModeSidecar,
		Sidecar: filepath.Join(tmpDir, "missing-sidecar"),
	})

	sup := backend.NewSupervisor(backend.Options{
		Locator: loc,
		Journal: journal,
	})

	srv := New(Config{
		Addr:       ":0",
		Supervisor: sup,
		Probe:      backend.NewProbe(unboundAddr(t)),
		Locator:    loc,
		Journal:    journal,
		Version:    "test",
		Commit:     "none",
	})

	cleanup := func() {
		sup.Stop()
		os.RemoveAll(tmpDir)
	}

	return srv, cleanup
}

// unboundAddr returns a loopback address that nothing listens on.
func unboundAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to bind listener: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func doRequest(t *testing.T, srv *Server, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w, body := doRequest(t, srv, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%v'", body["status"])
	}
}

func TestStatusNotRunning(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w, body := doRequest(t, srv, "GET", "/api/status")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["running"] != false {
		t.Errorf("Expected running=false, got %v", body["running"])
	}
}

func TestStatusRunning(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to bind listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	srv.probe = backend.NewProbe(ln.Addr().String())

	_, body := doRequest(t, srv, "GET", "/api/status")
	if body["running"] != true {
		t.Errorf("Expected running=true with a bound listener, got %v", body["running"])
	}
}

func TestRestartFailsWithoutSpawnPath(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	start := time.Now()
	w, body := doRequest(t, srv, "POST", "/api/restart")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["ok"] != false {
		t.Errorf("Expected ok=false when no spawn path exists, got %v", body["ok"])
	}
	// Restart still observes the port-release delay between stop and start.
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("restart returned in %v, expected the 500ms delay", elapsed)
	}
}

func TestInfoEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w, body := doRequest(t, srv, "GET", "/api/info")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	info, ok := body["info"].(string)
	if !ok {
		t.Fatalf("Expected info string, got %T", body["info"])
	}
	if !strings.Contains(info, "backend: not running") {
		t.Errorf("Expected 'backend: not running' in info, got:\n%s", info)
	}
	if !strings.Contains(info, "platform: ") {
		t.Errorf("Expected platform line in info, got:\n%s", info)
	}
}

func TestLaunchesEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	now := time.Now()
	srv.journal.Started(history.Record{LaunchID: "x", Strategy: "sidecar", PID: 7, StartedAt: now})

	w, body := doRequest(t, srv, "GET", "/api/launches")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	launches, ok := body["launches"].([]interface{})
	if !ok || len(launches) != 1 {
		t.Fatalf("Expected one launch record, got %v", body["launches"])
	}
}

func TestShutdownEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w, body := doRequest(t, srv, "POST", "/api/shutdown")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["ok"] != true {
		t.Errorf("Expected ok=true, got %v", body["ok"])
	}

	select {
	case <-srv.ShutdownRequested():
	default:
		t.Fatal("expected shutdown channel to be closed")
	}

	// A second shutdown request is harmless.
	doRequest(t, srv, "POST", "/api/shutdown")
}

func TestVersionEndpoint(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	_, body := doRequest(t, srv, "GET", "/api/version")
	if body["version"] != "test" {
		t.Errorf("Expected version 'test', got %v", body["version"])
	}
}

func TestUIServed(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/ui", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "botshell") {
		t.Error("Expected embedded UI page")
	}
}
