package search

import (
	"context"
	"errors"
	"testing"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/store"
)

type fakeSearchStore struct {
	products    []store.ProductHit
	services    []store.ServiceHit
	productsErr error
	servicesErr error

	productK int
	serviceK int
	vectors  [][]float32
}

func (f *fakeSearchStore) SearchProducts(ctx context.Context, vector []float32, k int) ([]store.ProductHit, error) {
	f.productK = k
	f.vectors = append(f.vectors, vector)
	return f.products, f.productsErr
}

func (f *fakeSearchStore) SearchServices(ctx context.Context, vector []float32, k int) ([]store.ServiceHit, error) {
	f.serviceK = k
	f.vectors = append(f.vectors, vector)
	return f.services, f.servicesErr
}

type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding service unreachable")
	}
	return []float32{0.5, 0.5}, nil
}

func (f *fakeEmbedder) Dimension() int    { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake" }

func TestSearchEmbedsQueryOnce(t *testing.T) {
	st := &fakeSearchStore{
		products: []store.ProductHit{{Product: catalog.Product{ID: "p1"}, Similarity: 0.97}},
		services: []store.ServiceHit{{Service: catalog.Service{ID: "s1"}, Similarity: 0.91}},
	}
	emb := &fakeEmbedder{}
	r := New(st, emb, 20)

	resp, err := r.Search(context.Background(), "widget", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("query embedded %d times, want 1", emb.calls)
	}
	if len(st.vectors) != 2 {
		t.Fatalf("expected both kind lookups, got %d", len(st.vectors))
	}
	if st.productK != 5 || st.serviceK != 5 {
		t.Fatalf("limits = (%d, %d), want (5, 5)", st.productK, st.serviceK)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "p1" || resp.Products[0].Similarity != 0.97 {
		t.Fatalf("products = %+v", resp.Products)
	}
	if len(resp.Services) != 1 || resp.Services[0].ID != "s1" {
		t.Fatalf("services = %+v", resp.Services)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	st := &fakeSearchStore{}
	r := New(st, &fakeEmbedder{}, 20)
	if _, err := r.Search(context.Background(), "widget", 0); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if st.productK != 20 || st.serviceK != 20 {
		t.Fatalf("limits = (%d, %d), want default 20", st.productK, st.serviceK)
	}
}

func TestSearchPartialDegradation(t *testing.T) {
	st := &fakeSearchStore{
		productsErr: errors.New(`relation "products" does not exist`),
		services:    []store.ServiceHit{{Service: catalog.Service{ID: "s1"}, Similarity: 0.8}},
	}
	r := New(st, &fakeEmbedder{}, 20)

	resp, err := r.Search(context.Background(), "cleaning", 3)
	if err != nil {
		t.Fatalf("a failing kind must not fail the request: %v", err)
	}
	if resp.Products == nil || len(resp.Products) != 0 {
		t.Fatalf("products = %#v, want empty non-nil list", resp.Products)
	}
	if len(resp.Services) != 1 {
		t.Fatalf("services = %+v", resp.Services)
	}
}

func TestSearchEmbedFailureFailsRequest(t *testing.T) {
	r := New(&fakeSearchStore{}, &fakeEmbedder{fail: true}, 20)
	if _, err := r.Search(context.Background(), "widget", 3); err == nil {
		t.Fatal("query embedding failure must fail the whole request")
	}
}
