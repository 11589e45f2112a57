// Command ingest runs a one-shot ingestion for one source (first argument)
// or for every configured source.
package main

import (
	"context"
	"log"
	"os"

	"github.com/hyeon/campus-notices/internal/ai"
	"github.com/hyeon/campus-notices/internal/db"
	"github.com/hyeon/campus-notices/internal/ingest"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatal(err)
	}

	registry, err := ingest.LoadRegistry()
	if err != nil {
		log.Fatal(err)
	}

	aiClient := ai.NewOllamaClient(os.Getenv("OLLAMA_HOST"), os.Getenv("OLLAMA_MODEL"))
	pipeline := ingest.NewPipeline(pool, aiClient, registry)

	if len(os.Args) > 1 {
		stats, err := pipeline.IngestSource(ctx, os.Args[1])
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Done: %d/%d saved, %d errors", stats.Saved, stats.Found, stats.Errors)
		return
	}

	for _, stats := range pipeline.IngestAll(ctx) {
		log.Printf("%s: %d/%d saved, %d errors", stats.SourceID, stats.Saved, stats.Found, stats.Errors)
	}
}
