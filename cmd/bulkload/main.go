// Command bulkload ingests a JSON catalog dump directly through the
// pipeline, bypassing the broker. The file holds {"products": [...],
// "services": [...]}; either list may be absent.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/config"
	"github.com/nathe444/Homez-AI-Search/internal/embedding"
	"github.com/nathe444/Homez-AI-Search/internal/ingest"
	"github.com/nathe444/Homez-AI-Search/internal/store"
)

type dump struct {
	Products []catalog.Product `json:"products"`
	Services []catalog.Service `json:"services"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	file := flag.String("file", "", "path to catalog dump JSON")
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.DatabaseURL, cfg.Embedding.Dimension)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(cfg.MigrationsPath); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := st.CheckDimension(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}
	orchestrator := ingest.New(st, embedder)

	var ok, failed int
	for _, p := range d.Products {
		if err := orchestrator.IngestProduct(ctx, p); err != nil {
			log.Printf("product %s: %v", p.ID, err)
			failed++
			continue
		}
		ok++
	}
	for _, s := range d.Services {
		if err := orchestrator.IngestService(ctx, s); err != nil {
			log.Printf("service %s: %v", s.ID, err)
			failed++
			continue
		}
		ok++
	}
	log.Printf("bulk load done: %d ingested, %d failed", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
