// internal/realtime/hub.go
package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
)

// Hub is the in-process broker. Only subscribers in this process see events.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
	logger *zerolog.Logger
}

func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: 64,
		logger: logger,
	}
}

func (h *Hub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	var sub *Subscription
	sub = NewSubscription(topic, h.buffer, func() { h.unregister(sub) })

	h.mu.Lock()
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.topics[topic] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.SubscriptionOpened()
	sub.closeOnCancel(ctx)
	return sub, nil
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; ok {
		delete(set, sub)
		metrics.SubscriptionClosed()
	}
	if len(set) == 0 {
		delete(h.topics, sub.topic)
	}
}

func (h *Hub) Publish(ctx context.Context, topic string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	metrics.EventPublished(ev.Type)
	for sub := range h.topics[topic] {
		if !sub.Deliver(ev) {
			// full, skip (don't block the publisher)
			metrics.EventDropped()
			h.logger.Warn().Str("topic", topic).Str("type", ev.Type).Msg("subscriber buffer full, event dropped")
		}
	}
	return nil
}

// Subscribers reports the live subscription count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
