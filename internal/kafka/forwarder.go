// Package kafka forwards activity events from the in-process bus to a Kafka
// topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/healthgate/eventbus"
	"github.com/jonwraymond/healthgate/observe"
)

// ErrNoBrokers is returned by NewProducer without broker addresses.
var ErrNoBrokers = errors.New("kafka: no brokers")

const (
	// BatchTimeout caps how long a writer holds a partial batch. Handlers run
	// inside Emit, which activity writes await, so the kafka-go default of 1s
	// would land on every request.
	BatchTimeout = 10 * time.Millisecond

	// DefaultPublishTimeout bounds a single Forwarder.Handle call.
	DefaultPublishTimeout = 2 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Producer lazily manages one writer per topic.
type Producer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewProducer creates a producer for brokers.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return &Producer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}, nil
}

// WriteMessages writes msgs to topic, creating its writer on first use.
func (p *Producer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerFor(topic).WriteMessages(ctx, msgs...)
}

func (p *Producer) writerFor(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Balancer:     &kafka.Hash{},
		BatchTimeout: BatchTimeout,
	}
	p.writers[topic] = w
	return w
}

// Close flushes and releases all writers.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", topic, err))
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}

// envelope is the JSON value written per event.
type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Forwarder is a bus subscriber that publishes events to a single topic.
type Forwarder struct {
	writer  messageWriter
	topic   string
	logger  observe.Logger
	timeout time.Duration
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithPublishTimeout overrides DefaultPublishTimeout. A non-positive value
// leaves only the caller's deadline.
func WithPublishTimeout(d time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		f.timeout = d
	}
}

// NewForwarder creates a forwarder writing to topic through w.
func NewForwarder(w messageWriter, topic string, logger observe.Logger, opts ...ForwarderOption) *Forwarder {
	if logger == nil {
		logger = observe.NewNopLogger()
	}
	f := &Forwarder{writer: w, topic: topic, logger: logger, timeout: DefaultPublishTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handle publishes e. The event ID is the message key, so redeliveries of the
// same event land on the same partition.
func (f *Forwarder) Handle(ctx context.Context, e eventbus.Event) error {
	value, err := json.Marshal(envelope{
		ID:         e.ID.String(),
		Type:       e.Type,
		OccurredAt: e.OccurredAt.UTC(),
		Data:       e.Data,
	})
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.ID.String()),
		Value: value,
		Time:  e.OccurredAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	if err := f.writer.WriteMessages(ctx, f.topic, msg); err != nil {
		f.logger.Warn(ctx, "event not forwarded",
			observe.Field{Key: "topic", Value: f.topic},
			observe.Field{Key: "event_id", Value: e.ID.String()},
			observe.Field{Key: "error", Value: err},
		)
		return fmt.Errorf("kafka: publish %s: %w", e.Type, err)
	}
	return nil
}
