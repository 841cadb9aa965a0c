package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
)

// ProductHit pairs a hydrated product with its similarity to the query
// vector (1 - cosine distance).
type ProductHit struct {
	Product    catalog.Product
	Similarity float32
}

// ServiceHit pairs a hydrated service with its similarity to the query vector.
type ServiceHit struct {
	Service    catalog.Service
	Similarity float32
}

// SearchProducts returns the k products closest to the query vector by
// cosine distance, ordered by descending similarity with id as a stable
// tiebreak. A row that fails to hydrate is skipped, not fatal.
func (s *Store) SearchProducts(ctx context.Context, vector []float32, k int) ([]ProductHit, error) {
	if k <= 0 {
		k = 10
	}
	lit, err := toVectorLiteral(vector, s.dimension)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT p.id, p.name, p.barcode, p.description, p.base_price, p.category_name, p.brand, p.tags, p.variants, p.attributes,
       1 - (pe.embedding <=> $1::vector) AS score
FROM product_embeddings pe
JOIN products p ON pe.product_id = p.id
ORDER BY pe.embedding <=> $1::vector, p.id
LIMIT $2`, lit, k)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var hits []ProductHit
	for rows.Next() {
		var (
			p                        catalog.Product
			barcode, category, brand sql.NullString
			tags                     pq.StringArray
			variants, attributes     []byte
			score                    float32
		)
		if err := rows.Scan(&p.ID, &p.Name, &barcode, &p.Description, &p.BasePrice,
			&category, &brand, &tags, &variants, &attributes, &score); err != nil {
			log.Printf("search products: skipping row: %v", err)
			continue
		}
		if err := hydrateProduct(&p, barcode, category, brand, tags, variants, attributes); err != nil {
			log.Printf("search products: skipping %s: %v", p.ID, err)
			continue
		}
		hits = append(hits, ProductHit{Product: p, Similarity: score})
	}
	return hits, rows.Err()
}

// SearchServices is the service-kind counterpart of SearchProducts.
func (s *Store) SearchServices(ctx context.Context, vector []float32, k int) ([]ServiceHit, error) {
	if k <= 0 {
		k = 10
	}
	lit, err := toVectorLiteral(vector, s.dimension)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id, s.name, s.description, s.base_price, s.category_name, s.tags, s.packages, s.attributes,
       1 - (se.embedding <=> $1::vector) AS score
FROM service_embeddings se
JOIN services s ON se.service_id = s.id
ORDER BY se.embedding <=> $1::vector, s.id
LIMIT $2`, lit, k)
	if err != nil {
		return nil, fmt.Errorf("search services: %w", err)
	}
	defer rows.Close()

	var hits []ServiceHit
	for rows.Next() {
		var (
			svc                  catalog.Service
			category             sql.NullString
			tags                 pq.StringArray
			packages, attributes []byte
			score                float32
		)
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.BasePrice,
			&category, &tags, &packages, &attributes, &score); err != nil {
			log.Printf("search services: skipping row: %v", err)
			continue
		}
		if err := hydrateService(&svc, category, tags, packages, attributes); err != nil {
			log.Printf("search services: skipping %s: %v", svc.ID, err)
			continue
		}
		hits = append(hits, ServiceHit{Service: svc, Similarity: score})
	}
	return hits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(sc rowScanner) (catalog.Product, error) {
	var (
		p                        catalog.Product
		barcode, category, brand sql.NullString
		tags                     pq.StringArray
		variants, attributes     []byte
	)
	if err := sc.Scan(&p.ID, &p.Name, &barcode, &p.Description, &p.BasePrice,
		&category, &brand, &tags, &variants, &attributes); err != nil {
		return catalog.Product{}, err
	}
	if err := hydrateProduct(&p, barcode, category, brand, tags, variants, attributes); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func scanService(sc rowScanner) (catalog.Service, error) {
	var (
		svc                  catalog.Service
		category             sql.NullString
		tags                 pq.StringArray
		packages, attributes []byte
	)
	if err := sc.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.BasePrice,
		&category, &tags, &packages, &attributes); err != nil {
		return catalog.Service{}, err
	}
	if err := hydrateService(&svc, category, tags, packages, attributes); err != nil {
		return catalog.Service{}, err
	}
	return svc, nil
}

// hydrateProduct decodes the JSON collections and applies read-side
// defaults. Writes require categoryName, but rows that predate that rule are
// read back with a default instead of being rejected; this asymmetry is
// intentional.
func hydrateProduct(p *catalog.Product, barcode, category, brand sql.NullString, tags pq.StringArray, variants, attributes []byte) error {
	p.Barcode = barcode.String
	p.Brand = brand.String
	p.CategoryName = defaultCategory(category)
	p.Tags = tags
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return fmt.Errorf("decode variants: %w", err)
		}
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &p.Attributes); err != nil {
			return fmt.Errorf("decode attributes: %w", err)
		}
	}
	return nil
}

func hydrateService(svc *catalog.Service, category sql.NullString, tags pq.StringArray, packages, attributes []byte) error {
	svc.CategoryName = defaultCategory(category)
	svc.Tags = tags
	if len(packages) > 0 {
		if err := json.Unmarshal(packages, &svc.Packages); err != nil {
			return fmt.Errorf("decode packages: %w", err)
		}
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &svc.Attributes); err != nil {
			return fmt.Errorf("decode attributes: %w", err)
		}
	}
	return nil
}

func defaultCategory(category sql.NullString) string {
	if !category.Valid || category.String == "" {
		return "Unknown"
	}
	return category.String
}
