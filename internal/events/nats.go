package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriptionBuffer is how many undelivered payloads a subscription holds
// before new ones are dropped.
const subscriptionBuffer = 64

// msgIDHeader carries the event id so JetStream streams bound to the
// skyrecords subjects can de-duplicate redeliveries.
const msgIDHeader = "Nats-Msg-Id"

func connect(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name(name)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events with the topic as subject.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := connect(url, "skyrecords-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish sends event on topic. Events that embed a Header are published
// with their event id in the Nats-Msg-Id header.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	if e, ok := event.(interface{ eventHeader() Header }); ok && e.eventHeader().EventID != "" {
		msg.Header.Set(msgIDHeader, e.eventHeader().EventID)
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers raw event payloads from NATS subjects. The
// connection reconnects forever; callers can observe it through extra
// nats options such as nats.ReconnectHandler.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to the NATS server at url.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "skyrecords-subscriber",
		append([]nats.Option{nats.MaxReconnects(-1), nats.ReconnectWait(time.Second)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe delivers payloads published on topic, which may use NATS
// wildcards such as TopicAll. The subscription is registered on the server
// before Subscribe returns.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	sub := &subscription{ch: make(chan []byte, subscriptionBuffer)}

	ns, err := s.conn.Subscribe(topic, sub.deliver)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = ns.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	sub.nats = ns
	return sub.ch, sub.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// subscription bridges a NATS callback to a channel. Deliveries that find
// the channel full are dropped so a slow reader never stalls the
// connection.
type subscription struct {
	nats *nats.Subscription
	ch   chan []byte

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func (s *subscription) deliver(msg *nats.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg.Data:
	default:
	}
}

// cancel unsubscribes and closes the channel. It is safe to call more
// than once and concurrently with deliveries.
func (s *subscription) cancel() {
	s.once.Do(func() {
		_ = s.nats.Unsubscribe()
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
