package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"planbase/internal/api"
	"planbase/internal/chunker"
	"planbase/internal/config"
	"planbase/internal/kb"
	"planbase/internal/pipeline"
	"planbase/internal/providers"
	"planbase/internal/token"
	"planbase/internal/usage"
	"planbase/internal/vectorstore"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}

	codec, err := token.NewTiktoken()
	if err != nil {
		log.Fatalf("tokenizer: %v", err)
	}

	ctx := context.Background()
	store, err := vectorstore.New(ctx, cfg.PostgresURL, pm.EmbedProvider(), cfg.EmbedDim, cfg.CollectionName)
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("vector store schema: %v", err)
	}
	if cfg.ResetOnStart {
		log.Printf("clearing existing collection %q", cfg.CollectionName)
		if err := store.Reset(ctx); err != nil {
			log.Fatalf("vector store reset: %v", err)
		}
	}

	monitor := usage.NewMonitor(cfg.UsageLogFile)
	knowledgeBase := kb.New(
		pipeline.New(),
		chunker.New(codec, cfg.ChunkSize, cfg.ChunkOverlap),
		store,
		pm.LLMProvider(),
		codec,
		monitor,
		cfg.DocumentsDir,
		cfg.SearchLimit,
	)

	// Ingestion blocks until every document has been attempted; the service
	// only starts serving a fully built collection.
	log.Printf("ingesting plan documents from %s", cfg.DocumentsDir)
	results := knowledgeBase.IngestAll(ctx)
	log.Printf("startup ingestion complete: %d plans stored", len(results))

	h := api.NewServer(knowledgeBase)
	log.Printf("planbase api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
