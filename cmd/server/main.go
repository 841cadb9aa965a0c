package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nathe444/Homez-AI-Search/internal/api"
	"github.com/nathe444/Homez-AI-Search/internal/config"
	"github.com/nathe444/Homez-AI-Search/internal/embedding"
	"github.com/nathe444/Homez-AI-Search/internal/ingest"
	"github.com/nathe444/Homez-AI-Search/internal/search"
	"github.com/nathe444/Homez-AI-Search/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
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
	log.Printf("embedding with model %s", embedder.ModelName())

	orchestrator := ingest.New(st, embedder)
	ranker := search.New(st, embedder, cfg.SearchDefaultLimit)
	router := api.NewRouter(api.NewHandler(orchestrator, ranker, st))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Printf("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
