// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quizbuzz/quizbuzz/internal/auth"
	"github.com/quizbuzz/quizbuzz/internal/cache"
	"github.com/quizbuzz/quizbuzz/internal/handlers"
	"github.com/quizbuzz/quizbuzz/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// The action journal is optional; rooms work without Redis.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, room action journal disabled: %v", err)
		cache.Rdb = nil
	}

	coord := handlers.NewCoordinator(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.Handle("/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListRoomsHandler(coord),
	)))
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, coord),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
