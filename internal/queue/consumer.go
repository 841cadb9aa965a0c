// Package queue consumes catalog entities from RabbitMQ and feeds them to
// the ingestion orchestrator, converting outcomes into ack/requeue/reject
// decisions.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nathe444/Homez-AI-Search/internal/catalog"
	"github.com/nathe444/Homez-AI-Search/internal/ingest"
)

// Kind discriminates the two entity subscriptions.
type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// Config holds broker connection settings and queue names.
type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	VirtualHost string `yaml:"virtual_host"`
	TLS         bool   `yaml:"tls"`

	ProductQueue string `yaml:"product_queue"`
	ServiceQueue string `yaml:"service_queue"`

	// MaxAttempts bounds requeue-driven redelivery per entity id. Once the
	// budget is spent the message is rejected without requeue, which routes
	// it to the queue's dead-letter exchange when one is configured.
	MaxAttempts int `yaml:"max_attempts"`
}

// URI renders the AMQP connection string. The default vhost "/" is encoded
// as an absent path segment.
func (c Config) URI() string {
	scheme := "amqp"
	if c.TLS {
		scheme = "amqps"
	}
	uri := fmt.Sprintf("%s://%s:%s@%s:%d", scheme,
		url.QueryEscape(c.Username), url.QueryEscape(c.Password), c.Host, c.Port)
	if c.VirtualHost != "" && c.VirtualHost != "/" {
		uri += "/" + url.QueryEscape(c.VirtualHost)
	}
	return uri
}

// Ingestor is the orchestrator surface the consumer delegates to.
type Ingestor interface {
	IngestProduct(ctx context.Context, p catalog.Product) error
	IngestService(ctx context.Context, s catalog.Service) error
}

type verdict int

const (
	ackMessage verdict = iota
	requeueMessage
	dropMessage
)

// Consumer runs one subscription per entity kind. Each subscription is
// single-threaded in delivery order (prefetch 1); the two run concurrently
// and share the store pool and embedding client through the ingestor.
type Consumer struct {
	cfg      Config
	ingestor Ingestor

	mu       sync.Mutex
	attempts map[string]int
}

// NewConsumer creates a consumer over the given broker config and ingestor.
func NewConsumer(cfg Config, ingestor Ingestor) *Consumer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Consumer{
		cfg:      cfg,
		ingestor: ingestor,
		attempts: make(map[string]int),
	}
}

// Run connects to the broker and consumes both queues until the context is
// canceled. Shutdown is a graceful drain: deliveries stop first, the
// in-flight message finishes processing, then the connection closes. One
// subscription failing takes the other down with it so the process never
// keeps running with half its queues dead.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URI())
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("connected to broker at %s:%d", c.cfg.Host, c.cfg.Port)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for kind, queueName := range map[Kind]string{
		KindProduct: c.cfg.ProductQueue,
		KindService: c.cfg.ServiceQueue,
	} {
		wg.Add(1)
		go func(kind Kind, queueName string) {
			defer wg.Done()
			if err := c.consume(runCtx, conn, kind, queueName); err != nil {
				errCh <- fmt.Errorf("%s consumer: %w", kind, err)
				cancel()
			}
		}(kind, queueName)
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, kind Kind, queueName string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Prefetch 1 keeps each subscription single-threaded in delivery order.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	tag := string(kind) + "-" + uuid.NewString()
	deliveries, err := ch.Consume(q.Name, tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	log.Printf("%s consumer started on queue %q", kind, q.Name)

	go func() {
		<-ctx.Done()
		// Canceling the consumer closes the deliveries channel after the
		// in-flight message has been handed over, draining the loop below.
		if err := ch.Cancel(tag, false); err != nil {
			log.Printf("%s consumer: cancel: %v", kind, err)
		}
	}()

	return c.deliveryLoop(ctx, kind, q.Name, deliveries)
}

// deliveryLoop processes deliveries until the channel closes. The channel
// closing is only a clean drain when the context was canceled; otherwise the
// broker tore the subscription down and the caller must treat it as fatal
// rather than run on with a dead queue.
func (c *Consumer) deliveryLoop(ctx context.Context, kind Kind, queueName string, deliveries <-chan amqp.Delivery) error {
	for d := range deliveries {
		switch c.handle(ctx, kind, d.Body) {
		case ackMessage:
			if err := d.Ack(false); err != nil {
				log.Printf("%s consumer: ack: %v", kind, err)
			}
		case requeueMessage:
			if err := d.Nack(false, true); err != nil {
				log.Printf("%s consumer: nack: %v", kind, err)
			}
		case dropMessage:
			if err := d.Reject(false); err != nil {
				log.Printf("%s consumer: reject: %v", kind, err)
			}
		}
	}
	if ctx.Err() == nil {
		return fmt.Errorf("queue %q: deliveries closed unexpectedly", queueName)
	}
	log.Printf("%s consumer stopped", kind)
	return nil
}

// envelope is the current message format; older producers send the bare
// entity instead, so an absent data field falls back to the whole body.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// handle parses one message body and returns the broker decision. Malformed
// payloads and invalid entities are dropped without requeue: a poison
// message would otherwise loop forever.
func (c *Consumer) handle(ctx context.Context, kind Kind, body []byte) verdict {
	payload := body
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Printf("%s consumer: rejecting malformed payload: %v", kind, err)
		return dropMessage
	}
	if len(env.Data) > 0 {
		payload = env.Data
	}

	switch kind {
	case KindProduct:
		var p catalog.Product
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Printf("product consumer: rejecting malformed entity: %v", err)
			return dropMessage
		}
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			log.Printf("product consumer: rejecting entity %q: missing required fields", p.ID)
			return dropMessage
		}
		return c.outcome(string(kind)+":"+p.ID, c.ingestor.IngestProduct(ctx, p))
	case KindService:
		var s catalog.Service
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("service consumer: rejecting malformed entity: %v", err)
			return dropMessage
		}
		if s.ID == "" || strings.TrimSpace(s.Name) == "" {
			log.Printf("service consumer: rejecting entity %q: missing required fields", s.ID)
			return dropMessage
		}
		return c.outcome(string(kind)+":"+s.ID, c.ingestor.IngestService(ctx, s))
	}
	return dropMessage
}

// outcome maps an ingestion result to a broker decision and tracks the
// per-entity retry budget for transient failures.
func (c *Consumer) outcome(key string, err error) verdict {
	if err == nil {
		c.clearAttempts(key)
		return ackMessage
	}
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		log.Printf("rejecting %s permanently: %v", key, err)
		return dropMessage
	}
	attempts := c.bumpAttempts(key)
	if attempts >= c.cfg.MaxAttempts {
		log.Printf("retry budget exhausted for %s after %d attempts, rejecting: %v", key, attempts, err)
		c.clearAttempts(key)
		return dropMessage
	}
	log.Printf("requeueing %s (attempt %d/%d): %v", key, attempts, c.cfg.MaxAttempts, err)
	return requeueMessage
}

func (c *Consumer) bumpAttempts(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[key]++
	return c.attempts[key]
}

func (c *Consumer) clearAttempts(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, key)
}
