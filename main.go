package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "SQLite database path for match history (overrides config)")
	envFile := flag.String("env", ".env", "Optional .env file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath, *envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *clientDir != "" {
		cfg.Server.ClientDir = *clientDir
	}
	if cfg.Server.ClientDir == "" {
		exe, _ := os.Executable()
		cfg.Server.ClientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(cfg.Server.ClientDir); os.IsNotExist(err) {
			cfg.Server.ClientDir = "../client"
		}
	}

	var db *DB
	if cfg.Server.DBPath != "" {
		db, err = OpenDB(cfg.Server.DBPath)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		log.Printf("db: match history in %s", cfg.Server.DBPath)
	}
	events := NewEventLog(db)

	admin, err := NewAdminAuth(db, cfg.Server.AdminPassword, bcryptCost)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if admin == nil {
		log.Printf("auth: no admin password set, admin API disabled")
	}

	rooms := NewRoomManager(cfg, db, events)
	hub := NewHub(rooms)
	go hub.Run()

	mux := SetupRoutes(hub, &cfg.Server, admin, db, events)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		log.Printf("Serving client files from %s", cfg.Server.ClientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Close()
	}
	rooms.StopAll()
	events.Stop()
	if err := db.Close(); err != nil {
		log.Printf("db: close: %v", err)
	}
}
