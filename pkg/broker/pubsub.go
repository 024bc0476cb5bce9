package broker

import (
	"context"
	"encoding/json"

	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/redis/go-redis/v9"
)

// PublishJSON marshals payload and publishes it on topic.
func (b *Broker) PublishJSON(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Parse("failed to marshal pubsub payload", err)
	}
	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		return errs.Broker("publish failed", err)
	}
	return nil
}

// Subscription wraps a Redis pub/sub subscription, skipping the
// initial subscription-confirmation message a raw client would
// otherwise hand the caller.
type Subscription struct {
	sub  *redis.PubSub
	ch   chan []byte
	done chan struct{}
}

// Subscribe opens a subscription to topic. Messages arrive on
// Subscription.Messages(); call Unsubscribe when done.
func (b *Broker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	raw := b.client.Subscribe(ctx, topic)
	if _, err := raw.Receive(ctx); err != nil {
		raw.Close()
		return nil, errs.Broker("subscribe failed", err)
	}
	s := &Subscription{
		sub:  raw,
		ch:   make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (s *Subscription) pump() {
	defer close(s.ch)
	ch := s.sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case s.ch <- []byte(msg.Payload):
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

// Messages returns the channel new payloads arrive on.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

// Unsubscribe closes the underlying subscription and stops delivery.
func (s *Subscription) Unsubscribe() error {
	close(s.done)
	return s.sub.Close()
}
