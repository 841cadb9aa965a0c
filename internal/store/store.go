// Package store persists catalog documents and their embedding vectors in
// Postgres with the pgvector extension, and serves similarity lookups.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
)

// Store provides transactional upserts of entity documents and embedding
// vectors, keyed by entity id, plus similarity search over both kinds.
//
// The document write and the embedding write are two independent idempotent
// full replacements. There is no cross-statement transaction spanning them;
// a reader between the two sees a document with a stale or absent embedding,
// which is transient, not corruption.
type Store struct {
	db        *sql.DB
	dimension int
}

// New connects to Postgres, bounds the session pool and verifies the
// connection before returning. Connection failures surface here, at startup,
// not on the first request.
func New(ctx context.Context, dsn string, dimension int) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewFromDB(db, dimension)
}

// NewFromDB reuses an existing *sql.DB.
func NewFromDB(db *sql.DB, dimension int) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if dimension <= 0 {
		dimension = 1536
	}
	return &Store{db: db, dimension: dimension}, nil
}

// DB returns the underlying handle for custom queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CheckDimension verifies that the embedding columns in the live schema hold
// vectors of the configured dimension. The migrations create vector(1536)
// columns, so a different EMBED_DIM would otherwise pass the client-side
// length check and then fail on every insert, poisoning the queues one retry
// budget at a time. Call after Migrate, before serving.
func (s *Store) CheckDimension(ctx context.Context) error {
	for _, table := range []string{"product_embeddings", "service_embeddings"} {
		var typmod int
		err := s.db.QueryRowContext(ctx, `
SELECT a.atttypmod
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = $1 AND a.attname = 'embedding'`, table).Scan(&typmod)
		if err != nil {
			return fmt.Errorf("check %s dimension: %w", table, err)
		}
		if err := matchDimension(table, typmod, s.dimension); err != nil {
			return err
		}
	}
	return nil
}

// matchDimension compares a vector column's typmod (pgvector stores the
// dimension there, -1 when unconstrained) against the configured dimension.
func matchDimension(table string, typmod, want int) error {
	if typmod > 0 && typmod != want {
		return fmt.Errorf("%s holds vector(%d) but the configured dimension is %d; migrate the column or set EMBED_DIM=%d",
			table, typmod, want, typmod)
	}
	return nil
}

// Migrate applies SQL migrations from the given path.
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// UpsertProduct inserts or fully replaces one product document. Nested
// collections are replaced wholesale; there is no field-level merge.
func (s *Store) UpsertProduct(ctx context.Context, p catalog.Product) error {
	variants, err := json.Marshal(emptyIfNilVariants(p.Variants))
	if err != nil {
		return fmt.Errorf("encode variants: %w", err)
	}
	attributes, err := json.Marshal(emptyIfNilAttributes(p.Attributes))
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO products (id, name, barcode, description, base_price, category_name, brand, tags, variants, attributes, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  barcode=EXCLUDED.barcode,
  description=EXCLUDED.description,
  base_price=EXCLUDED.base_price,
  category_name=EXCLUDED.category_name,
  brand=EXCLUDED.brand,
  tags=EXCLUDED.tags,
  variants=EXCLUDED.variants,
  attributes=EXCLUDED.attributes,
  updated_at=now();
`, p.ID, p.Name, p.Barcode, p.Description, p.BasePrice, p.CategoryName, p.Brand,
		pq.Array(emptyIfNilStrings(p.Tags)), variants, attributes)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// UpsertService inserts or fully replaces one service document.
func (s *Store) UpsertService(ctx context.Context, svc catalog.Service) error {
	packages, err := json.Marshal(emptyIfNilPackages(svc.Packages))
	if err != nil {
		return fmt.Errorf("encode packages: %w", err)
	}
	attributes, err := json.Marshal(emptyIfNilAttributes(svc.Attributes))
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO services (id, name, description, base_price, category_name, tags, packages, attributes, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  description=EXCLUDED.description,
  base_price=EXCLUDED.base_price,
  category_name=EXCLUDED.category_name,
  tags=EXCLUDED.tags,
  packages=EXCLUDED.packages,
  attributes=EXCLUDED.attributes,
  updated_at=now();
`, svc.ID, svc.Name, svc.Description, svc.BasePrice, svc.CategoryName,
		pq.Array(emptyIfNilStrings(svc.Tags)), packages, attributes)
	if err != nil {
		return fmt.Errorf("upsert service %s: %w", svc.ID, err)
	}
	return nil
}

// UpsertProductEmbedding inserts or replaces the embedding for one product.
func (s *Store) UpsertProductEmbedding(ctx context.Context, id string, vector []float32) error {
	lit, err := toVectorLiteral(vector, s.dimension)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO product_embeddings (product_id, embedding, updated_at)
VALUES ($1,$2::vector,now())
ON CONFLICT (product_id) DO UPDATE SET embedding=EXCLUDED.embedding, updated_at=now();
`, id, lit)
	if err != nil {
		return fmt.Errorf("upsert product embedding %s: %w", id, err)
	}
	return nil
}

// UpsertServiceEmbedding inserts or replaces the embedding for one service.
func (s *Store) UpsertServiceEmbedding(ctx context.Context, id string, vector []float32) error {
	lit, err := toVectorLiteral(vector, s.dimension)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO service_embeddings (service_id, embedding, updated_at)
VALUES ($1,$2::vector,now())
ON CONFLICT (service_id) DO UPDATE SET embedding=EXCLUDED.embedding, updated_at=now();
`, id, lit)
	if err != nil {
		return fmt.Errorf("upsert service embedding %s: %w", id, err)
	}
	return nil
}

// GetProduct returns one product document by id, or nil when absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, barcode, description, base_price, category_name, brand, tags, variants, attributes
FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// GetService returns one service document by id, or nil when absent.
func (s *Store) GetService(ctx context.Context, id string) (*catalog.Service, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, description, base_price, category_name, tags, packages, attributes
FROM services WHERE id = $1`, id)
	svc, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	return &svc, nil
}

func toVectorLiteral(vector []float32, dim int) (string, error) {
	if len(vector) == 0 {
		return "", errors.New("embedding is required")
	}
	if dim > 0 && len(vector) != dim {
		return "", fmt.Errorf("embedding length %d does not match dimension %d", len(vector), dim)
	}
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ",")), nil
}

func emptyIfNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyIfNilAttributes(v []catalog.Attribute) []catalog.Attribute {
	if v == nil {
		return []catalog.Attribute{}
	}
	return v
}

func emptyIfNilVariants(v []catalog.Variant) []catalog.Variant {
	if v == nil {
		return []catalog.Variant{}
	}
	return v
}

func emptyIfNilPackages(v []catalog.Package) []catalog.Package {
	if v == nil {
		return []catalog.Package{}
	}
	return v
}
