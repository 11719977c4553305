package main

import (
	"context"
	"net/http"
	"os"

	"mediashelf/internal/config"
	"mediashelf/internal/container"
	"mediashelf/internal/handlers"
	"mediashelf/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	err := godotenv.Load(".env.local")
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	if os.Getenv("OMDB_API_KEY") == "" {
		log.Fatal("OMDB_API_KEY is required. Set it in .env file or as environment variable")
	}

	c, err := container.New(context.Background())
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	defer c.Close()

	http.HandleFunc("/api/recommendations", handlers.GenerateHandler(c))
	http.HandleFunc("/api/recommendations/refresh", handlers.RefreshHandler(c))
	http.HandleFunc("/api/recommendations/filter", handlers.FilterHandler(c))
	http.HandleFunc("/api/recommendations/stats", handlers.StatsHandler(c))
	http.HandleFunc("/api/actions", handlers.ActionHandler(c))
	http.HandleFunc("/api/actions/acted", handlers.HasActedOnHandler(c))
	http.HandleFunc("/api/actions/conversion", handlers.ConversionHandler(c))
	http.HandleFunc("/api/sessions", handlers.SessionHandler(c))

	port := config.ServerPort()
	log.Infof("Server starting on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
