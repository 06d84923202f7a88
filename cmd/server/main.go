// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/auth"
	"github.com/tazjel/baloot-ai-sub002/internal/cache"
	"github.com/tazjel/baloot-ai-sub002/internal/game"
	"github.com/tazjel/baloot-ai-sub002/internal/handlers"
	"github.com/tazjel/baloot-ai-sub002/internal/middleware"
	"github.com/tazjel/baloot-ai-sub002/internal/orchestrator"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	sessions, err := auth.NewSessions()
	if err != nil {
		log.Fatalf("session init failed: %v", err)
	}

	cacheStore, err := cache.Connect()
	if err != nil {
		// Rooms still work without Redis; they just don't survive restarts.
		logger.Warnf("redis unavailable, running without snapshots: %v", err)
		cacheStore = nil
	}

	store := game.NewGameStore()
	rooms := orchestrator.NewRoomContext(store, cacheStore, orchestrator.FallbackProvider{}, logger)
	rooms.Broadcast = handlers.NewBroadcastFunc(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rooms.RunTimerLoop(ctx)

	srv := handlers.NewRoomServer(rooms, sessions, logger)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	recovered := middleware.RecoverMiddleware(logger)

	mux.Handle("/room/ws/", recovered(http.HandlerFunc(
		handlers.RoomWSHandler(logger, srv),
	)))
	mux.Handle("/room/", recovered(logged(srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
