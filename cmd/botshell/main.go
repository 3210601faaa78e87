// Package main is the entry point for the botshell backend supervisor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sevir/botshell/internal/backend"
	"github.com/sevir/botshell/internal/config"
	"github.com/sevir/botshell/internal/history"
	"github.com/sevir/botshell/internal/locate"
	"github.com/sevir/botshell/internal/server"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Parse flags
	var (
		configPath  = flag.String("config", "", "Path to config file")
		backendHost = flag.String("host", "", "Backend host (default: 127.0.0.1)")
		backendPort = flag.Int("port", 0, "Backend port (default: 3721)")
		listen      = flag.String("listen", "", "Control server address (default: 127.0.0.1:8790)")
		sidecar     = flag.String("sidecar", "", "Path to a bundled sidecar backend (enables sidecar mode)")
		showVersion = flag.Bool("version", false, "Show version and exit")
		initConfig  = flag.Bool("init", false, "Initialize default config and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("botshell %s (%s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with flags
	if *backendHost != "" {
		cfg.Backend.Host = *backendHost
	}
	if *backendPort != 0 {
		cfg.Backend.Port = *backendPort
	}
	if *listen != "" {
		host, port, err := splitHostPort(*listen)
		if err != nil {
			log.Fatalf("Invalid -listen address: %v", err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if *sidecar != "" {
		cfg.Launch.Mode = config.ModeSidecar
		cfg.Launch.Sidecar = *sidecar
	}

	if *initConfig {
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Println("Configuration initialized")
		os.Exit(0)
	}

	journal, err := history.Open(cfg.History.Path, cfg.History.Limit)
	if err != nil {
		log.Printf("launch journal unavailable: %v", err)
		journal = nil
	}

	locator := locate.New(cfg.Launch)
	probe := backend.NewProbe(cfg.BackendAddr())

	sup := backend.NewSupervisor(backend.Options{
		Locator: locator,
		Journal: journal,
		BackendArgs: []string{
			"--port", strconv.Itoa(cfg.Backend.Port),
			"--host", cfg.Backend.Host,
		},
	})

	// Backend failure is not fatal: the shell stays usable and the UI shows
	// the degraded state.
	sup.Start()

	srv := server.New(server.Config{
		Addr:       cfg.Address(),
		Supervisor: sup,
		Probe:      probe,
		Locator:    locator,
		Journal:    journal,
		Version:    version,
		Commit:     commit,
	})

	exited := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("received %s, shutting down...", sig)
		case <-srv.ShutdownRequested():
			log.Println("window destroyed, shutting down...")
		}

		// Stop the backend first so no child outlives the shell.
		sup.Stop()
		close(exited)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("botshell %s starting", version)
	log.Printf("UI endpoint:     http://%s/ui", cfg.Address())
	log.Printf("Status endpoint: http://%s/api/status", cfg.Address())
	log.Printf("Health check:    http://%s/health", cfg.Address())

	if err := srv.Start(); err != nil {
		select {
		case <-exited:
			// Expected shutdown
		default:
			sup.Stop()
			log.Fatalf("Server error: %v", err)
		}
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port, nil
}
