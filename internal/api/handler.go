// Package api exposes the HTTP surface: synchronous ingestion, semantic
// search, entity reads, and a health probe.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/ingest"
	"github.com/nathe444/Homez-AI-Search/internal/search"
)

// Ingestor accepts entities for the full canonicalize-embed-store pipeline.
type Ingestor interface {
	IngestProduct(ctx context.Context, p catalog.Product) error
	IngestService(ctx context.Context, s catalog.Service) error
}

// Searcher answers similarity queries.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (search.Response, error)
}

// Reader fetches stored entity documents by id. A nil entity with a nil
// error means not found.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
}

// Handler holds the dependencies behind the HTTP routes.
type Handler struct {
	ingestor Ingestor
	searcher Searcher
	reader   Reader
}

// NewHandler creates a handler over the given pipeline components.
func NewHandler(ingestor Ingestor, searcher Searcher, reader Reader) *Handler {
	return &Handler{ingestor: ingestor, searcher: searcher, reader: reader}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())

	r.GET("/health", h.Health)
	r.POST("/product", h.EmbedProduct)
	r.POST("/service", h.EmbedService)
	r.GET("/search", h.Search)
	r.GET("/product/:id", h.GetProduct)
	r.GET("/service/:id", h.GetService)
	return r
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// EmbedProduct ingests one product synchronously.
func (h *Handler) EmbedProduct(c *gin.Context) {
	var p catalog.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid product payload: " + err.Error()})
		return
	}
	if err := h.ingestor.IngestProduct(c.Request.Context(), p); err != nil {
		h.ingestError(c, "product", p.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "embedded", "product_id": p.ID})
}

// EmbedService ingests one service synchronously.
func (h *Handler) EmbedService(c *gin.Context) {
	var s catalog.Service
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid service payload: " + err.Error()})
		return
	}
	if err := h.ingestor.IngestService(c.Request.Context(), s); err != nil {
		h.ingestError(c, "service", s.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "embedded", "service_id": s.ID})
}

func (h *Handler) ingestError(c *gin.Context, kind, id string, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": verr.Error()})
		return
	}
	log.Printf("api: ingest %s %s: %v", kind, id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "ingestion failed, retry later"})
}

// Search runs a similarity query over both entity kinds.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query parameter is required"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	resp, err := h.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		log.Printf("api: search %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "search failed, retry later"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct returns one stored product document.
func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	p, err := h.reader.GetProduct(c.Request.Context(), id)
	if err != nil {
		log.Printf("api: get product %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "lookup failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetService returns one stored service document.
func (h *Handler) GetService(c *gin.Context) {
	id := c.Param("id")
	s, err := h.reader.GetService(c.Request.Context(), id)
	if err != nil {
		log.Printf("api: get service %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "lookup failed"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Service not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// CORSMiddleware adds CORS headers to allow all origins.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
