package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartwinnr/chat-server/internal/api"
	"github.com/smartwinnr/chat-server/internal/auth"
	"github.com/smartwinnr/chat-server/internal/files"
	"github.com/smartwinnr/chat-server/internal/server"
	"github.com/smartwinnr/chat-server/internal/store"
)

func main() {
	fmt.Println("Starting chat server...")

	cfg := server.NewConfigFromEnv()
	server.SetConfig(cfg)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	uploads, err := files.NewStorage(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		log.Fatalf("Failed to prepare upload storage: %v", err)
	}

	tokens := auth.NewTokenManager(auth.DefaultTokenConfig(cfg.JWTSecret))

	hub := server.NewHub(server.NewPresenceTable(), server.NewRoomIndex())
	go hub.Run()
	log.Println("Hub started and ready to manage WebSocket connections")

	restHandler := api.NewHandler(db, tokens, uploads, hub)
	mux := server.SetupRoutes(hub, restHandler.Router(), cfg.UploadDir)
	httpServer := server.CreateServer(cfg.Port, mux)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received signal %s, shutting down...", sig)
		if err := server.ShutdownServer(httpServer, 10*time.Second); err != nil {
			log.Printf("HTTP shutdown returned error: %v", err)
		}
		if err := hub.Shutdown(5 * time.Second); err != nil {
			log.Printf("Hub shutdown returned error: %v", err)
		}
	}

	log.Println("Server stopped")
}
