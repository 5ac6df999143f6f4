package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers envelopes keyed by their correlation id.
type Publisher interface {
	Publish(env Envelope)
	Close()
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(Envelope) {}
func (Nop) Close()           {}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues envelopes and writes them from a single goroutine
// so request handlers never wait on the broker. Publish after Close drops the
// event.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, buf int, logger *log.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf, logger)
}

func newKafkaPublisher(w messageWriter, buf int, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.closeCh)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			p.logger.Printf("events: write key=%s error=%v", m.Key, err)
		}
		cancel()
	}
	if err := p.w.Close(); err != nil {
		p.logger.Printf("events: close writer error=%v", err)
	}
}

// Publish enqueues env. Events are dropped, with a log line, when the
// queue is full.
func (p *KafkaPublisher) Publish(env Envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Printf("events: encode %s error=%v", env.EventType, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Printf("events: publisher closed, dropped %s id=%s", env.EventType, env.EventID)
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.logger.Printf("events: queue full, dropped %s id=%s", env.EventType, env.EventID)
	}
}

// Close flushes queued events and waits for the writer to stop. Calling it
// again only waits.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.closeCh
}
