package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/hyeon/campus-notices/internal/ai"
	"github.com/hyeon/campus-notices/internal/api"
	"github.com/hyeon/campus-notices/internal/calendar"
	"github.com/hyeon/campus-notices/internal/db"
	"github.com/hyeon/campus-notices/internal/ingest"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	storage, err := calendar.NewFileStorage(calendarPath())
	if err != nil {
		log.Fatalf("Calendar storage unavailable: %v", err)
	}
	cal := calendar.NewStore(storage)
	defer cal.Close()

	registry, err := ingest.LoadRegistry()
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	aiClient := ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), os.Getenv("OLLAMA_MODEL"))
	pipeline := ingest.NewPipeline(pool, aiClient, registry)

	srv := api.NewServer(pool, cal, pipeline)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}

func calendarPath() string {
	if path := os.Getenv("CALENDAR_PATH"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "campus-notices", "calendar_events.json")
}
