// Command sendtest publishes a handful of sample entities to the catalog
// queues so the consumer path can be exercised end to end.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/config"
	"github.com/nathe444/Homez-AI-Search/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pub, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	products := []catalog.Product{
		{
			ID:           "test-product-1",
			Name:         "Cordless Drill 18V",
			Description:  "Compact cordless drill with brushless motor and two batteries.",
			BasePrice:    129.99,
			CategoryName: "Power Tools",
			Brand:        "Makita",
			Tags:         []string{"drill", "cordless", "18v"},
			Variants: []catalog.Variant{
				{ID: "v1", SKU: "DRL-18-STD", Price: 129.99, Stock: 40},
				{ID: "v2", SKU: "DRL-18-KIT", Price: 179.99, Stock: 15},
			},
		},
		{
			ID:           "test-product-2",
			Name:         "Safety Goggles",
			Description:  "Anti-fog safety goggles, scratch resistant.",
			BasePrice:    9.5,
			CategoryName: "Safety Gear",
			Tags:         []string{"safety", "eyewear"},
		},
	}
	services := []catalog.Service{
		{
			ID:           "test-service-1",
			Name:         "Deep Home Cleaning",
			Description:  "Full apartment deep clean including kitchen and bathrooms.",
			BasePrice:    80,
			CategoryName: "Home Services",
			Tags:         []string{"cleaning", "home"},
			Packages: []catalog.Package{
				{ID: "pk1", Name: "Studio", Price: 80},
				{ID: "pk2", Name: "Two Bedroom", Price: 140},
			},
		},
	}

	for _, p := range products {
		if err := pub.Publish(ctx, cfg.Queue.ProductQueue, p); err != nil {
			log.Fatalf("publish product %s: %v", p.ID, err)
		}
		log.Printf("published product %s", p.ID)
	}
	for _, s := range services {
		if err := pub.Publish(ctx, cfg.Queue.ServiceQueue, s); err != nil {
			log.Fatalf("publish service %s: %v", s.ID, err)
		}
		log.Printf("published service %s", s.ID)
	}
	log.Printf("sent %d products and %d services", len(products), len(services))
}
