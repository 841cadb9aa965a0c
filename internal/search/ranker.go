// Package search answers similarity queries: embed the query text once, rank
// both entity kinds against the resulting vector.
package search

import (
	"context"
	"fmt"
	"log"

	"github.com/nathe444/Homez-AI-Search/internal/embedding"
	"github.com/nathe444/Homez-AI-Search/internal/store"
)

// Store is the similarity-lookup surface the ranker reads from.
type Store interface {
	SearchProducts(ctx context.Context, vector []float32, k int) ([]store.ProductHit, error)
	SearchServices(ctx context.Context, vector []float32, k int) ([]store.ServiceHit, error)
}

// Hit is one ranked result.
type Hit struct {
	ID         string  `json:"id"`
	Similarity float32 `json:"similarity"`
}

// Response carries independently ranked, independently limited result lists.
// The two kinds never trade result slots against each other.
type Response struct {
	Products []Hit `json:"products"`
	Services []Hit `json:"services"`
}

// Ranker embeds queries and merges per-kind lookups into one response.
type Ranker struct {
	store        Store
	embedder     embedding.Embedder
	defaultLimit int
}

// New creates a ranker. defaultLimit applies per kind when the caller passes
// a non-positive limit.
func New(s Store, e embedding.Embedder, defaultLimit int) *Ranker {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Ranker{store: s, embedder: e, defaultLimit: defaultLimit}
}

// Search embeds the query once and looks up both kinds with the same vector.
// A kind whose lookup fails degrades to an empty list instead of failing the
// whole request; the failure is logged, never silently absorbed.
func (r *Ranker) Search(ctx context.Context, query string, limit int) (Response, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("embed query: %w", err)
	}

	resp := Response{Products: []Hit{}, Services: []Hit{}}

	products, err := r.store.SearchProducts(ctx, vector, limit)
	if err != nil {
		log.Printf("search: product lookup degraded to empty: %v", err)
	} else {
		for _, h := range products {
			resp.Products = append(resp.Products, Hit{ID: h.Product.ID, Similarity: h.Similarity})
		}
	}

	services, err := r.store.SearchServices(ctx, vector, limit)
	if err != nil {
		log.Printf("search: service lookup degraded to empty: %v", err)
	} else {
		for _, h := range services {
			resp.Services = append(resp.Services, Hit{ID: h.Service.ID, Similarity: h.Similarity})
		}
	}
	return resp, nil
}
