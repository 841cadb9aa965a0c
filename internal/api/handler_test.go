package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/ingest"
	"github.com/nathe444/Homez-AI-Search/internal/search"
)

type fakeIngestor struct {
	err      error
	products []catalog.Product
	services []catalog.Service
}

func (f *fakeIngestor) IngestProduct(ctx context.Context, p catalog.Product) error {
	f.products = append(f.products, p)
	return f.err
}

func (f *fakeIngestor) IngestService(ctx context.Context, s catalog.Service) error {
	f.services = append(f.services, s)
	return f.err
}

type fakeSearcher struct {
	resp  search.Response
	err   error
	query string
	limit int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) (search.Response, error) {
	f.query = query
	f.limit = limit
	return f.resp, f.err
}

type fakeReader struct {
	product *catalog.Product
	service *catalog.Service
	err     error
}

func (f *fakeReader) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	return f.product, f.err
}

func (f *fakeReader) GetService(ctx context.Context, id string) (*catalog.Service, error) {
	return f.service, f.err
}

func newTestRouter(ing *fakeIngestor, s *fakeSearcher, rd *fakeReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(ing, s, rd))
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEmbedProductOK(t *testing.T) {
	ing := &fakeIngestor{}
	r := newTestRouter(ing, &fakeSearcher{}, &fakeReader{})

	w := do(t, r, http.MethodPost, "/product", `{"id":"p1","name":"Widget","categoryName":"Tools"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "embedded" || resp["product_id"] != "p1" {
		t.Fatalf("resp = %v", resp)
	}
	if len(ing.products) != 1 || ing.products[0].Name != "Widget" {
		t.Fatalf("ingested = %+v", ing.products)
	}
}

func TestEmbedProductValidationIs400(t *testing.T) {
	ing := &fakeIngestor{err: &ingest.ValidationError{Field: "name", Reason: "is required"}}
	r := newTestRouter(ing, &fakeSearcher{}, &fakeReader{})

	w := do(t, r, http.MethodPost, "/product", `{"id":"p1","name":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "detail") {
		t.Fatalf("body = %s, want a detail field", w.Body)
	}
}

func TestEmbedProductTransientIs500(t *testing.T) {
	ing := &fakeIngestor{err: &ingest.TransientError{Op: "embed", Err: errors.New("timeout")}}
	r := newTestRouter(ing, &fakeSearcher{}, &fakeReader{})

	w := do(t, r, http.MethodPost, "/product", `{"id":"p1","name":"Widget"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestEmbedProductMalformedBodyIs400(t *testing.T) {
	ing := &fakeIngestor{}
	r := newTestRouter(ing, &fakeSearcher{}, &fakeReader{})

	w := do(t, r, http.MethodPost, "/product", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(ing.products) != 0 {
		t.Fatal("malformed body must not reach the pipeline")
	}
}

func TestEmbedServiceOK(t *testing.T) {
	ing := &fakeIngestor{}
	r := newTestRouter(ing, &fakeSearcher{}, &fakeReader{})

	w := do(t, r, http.MethodPost, "/service", `{"id":"s1","name":"Cleaning","packages":[{"id":"pk1","name":"Basic","price":10}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"service_id":"s1"`) {
		t.Fatalf("body = %s", w.Body)
	}
	if len(ing.services) != 1 || ing.services[0].Packages[0].Name != "Basic" {
		t.Fatalf("ingested = %+v", ing.services)
	}
}

func TestSearchPassesQueryAndLimit(t *testing.T) {
	s := &fakeSearcher{resp: search.Response{
		Products: []search.Hit{{ID: "p1", Similarity: 0.9}},
		Services: []search.Hit{},
	}}
	r := newTestRouter(&fakeIngestor{}, s, &fakeReader{})

	w := do(t, r, http.MethodGet, "/search?query=drill&limit=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if s.query != "drill" || s.limit != 3 {
		t.Fatalf("searcher got (%q, %d)", s.query, s.limit)
	}
	var resp search.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "p1" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Services == nil {
		t.Fatal("services must serialize as an empty list, not null")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	r := newTestRouter(&fakeIngestor{}, &fakeSearcher{}, &fakeReader{})
	if w := do(t, r, http.MethodGet, "/search", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/search?query=x&limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status for bad limit = %d, want 400", w.Code)
	}
}

func TestSearchFailureIs500(t *testing.T) {
	s := &fakeSearcher{err: errors.New("embed query: connection refused")}
	r := newTestRouter(&fakeIngestor{}, s, &fakeReader{})
	if w := do(t, r, http.MethodGet, "/search?query=x", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestGetProduct(t *testing.T) {
	rd := &fakeReader{product: &catalog.Product{ID: "p1", Name: "Widget", CategoryName: "Tools"}}
	r := newTestRouter(&fakeIngestor{}, &fakeSearcher{}, rd)

	w := do(t, r, http.MethodGet, "/product/p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var p catalog.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != "p1" || p.CategoryName != "Tools" {
		t.Fatalf("product = %+v", p)
	}
}

func TestGetProductNotFound(t *testing.T) {
	r := newTestRouter(&fakeIngestor{}, &fakeSearcher{}, &fakeReader{})
	w := do(t, r, http.MethodGet, "/product/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Product not found") {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestGetServiceNotFound(t *testing.T) {
	r := newTestRouter(&fakeIngestor{}, &fakeSearcher{}, &fakeReader{})
	w := do(t, r, http.MethodGet, "/service/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeIngestor{}, &fakeSearcher{}, &fakeReader{})
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
