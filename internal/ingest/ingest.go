// Package ingest drives the ingestion pipeline for one entity: canonical
// text, embedding, then the two store writes. Both the HTTP handlers and the
// queue consumer go through this orchestrator.
package ingest

import (
	"context"
	"log"
	"strings"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/embedding"
)

// DocumentStore is the subset of the catalog store the orchestrator writes to.
type DocumentStore interface {
	UpsertProduct(ctx context.Context, p catalog.Product) error
	UpsertProductEmbedding(ctx context.Context, id string, vector []float32) error
	UpsertService(ctx context.Context, s catalog.Service) error
	UpsertServiceEmbedding(ctx context.Context, id string, vector []float32) error
}

// Orchestrator ingests entities: validate, canonicalize, embed, write
// document, write embedding. The document is written before the embedding so
// a reader never observes an embedding without its document.
type Orchestrator struct {
	store    DocumentStore
	embedder embedding.Embedder
}

// New creates an orchestrator over the given store and embedder.
func New(store DocumentStore, embedder embedding.Embedder) *Orchestrator {
	return &Orchestrator{store: store, embedder: embedder}
}

// IngestProduct validates and ingests one product. The returned error is a
// *ValidationError for entities that can never succeed, or a
// *TransientError for failures that may clear on retry.
func (o *Orchestrator) IngestProduct(ctx context.Context, p catalog.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}

	text := catalog.ProductText(p)
	vector, err := o.embedder.Embed(ctx, text)
	if err != nil {
		return &TransientError{Op: "embed product " + p.ID, Err: err}
	}
	if err := o.store.UpsertProduct(ctx, p); err != nil {
		return &TransientError{Op: "store product document", Err: err}
	}
	if err := o.store.UpsertProductEmbedding(ctx, p.ID, vector); err != nil {
		return &TransientError{Op: "store product embedding", Err: err}
	}
	log.Printf("ingested product %s (model=%s, dim=%d)", p.ID, o.embedder.ModelName(), len(vector))
	return nil
}

// IngestService validates and ingests one service.
func (o *Orchestrator) IngestService(ctx context.Context, s catalog.Service) error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}

	text := catalog.ServiceText(s)
	vector, err := o.embedder.Embed(ctx, text)
	if err != nil {
		return &TransientError{Op: "embed service " + s.ID, Err: err}
	}
	if err := o.store.UpsertService(ctx, s); err != nil {
		return &TransientError{Op: "store service document", Err: err}
	}
	if err := o.store.UpsertServiceEmbedding(ctx, s.ID, vector); err != nil {
		return &TransientError{Op: "store service embedding", Err: err}
	}
	log.Printf("ingested service %s (model=%s, dim=%d)", s.ID, o.embedder.ModelName(), len(vector))
	return nil
}
