package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/config"
	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
)

const channelPrefix = "skilllink:"

// NewRedis creates a new Redis client
func NewRedis(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// RedisBroker fans events out across instances over Redis pub/sub.
type RedisBroker struct {
	rdb    *redis.Client
	buffer int
	logger *zerolog.Logger
}

func NewRedisBroker(rdb *redis.Client, logger *zerolog.Logger) *RedisBroker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisBroker{rdb: rdb, buffer: 64, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	metrics.EventPublished(ev.Type)
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channelPrefix+topic)
	// wait for the subscribe confirmation so no publish after return is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	sub := NewSubscription(topic, b.buffer, func() {
		_ = ps.Close()
		metrics.SubscriptionClosed()
	})
	metrics.SubscriptionOpened()

	ch := ps.Channel()
	go func() {
		for {
			select {
			case <-sub.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					sub.Fail(ErrSubscriptionClosed)
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn().Err(err).Str("topic", topic).Msg("malformed realtime payload")
					continue
				}
				if !sub.Deliver(ev) {
					metrics.EventDropped()
				}
			}
		}
	}()

	sub.closeOnCancel(ctx)
	return sub, nil
}
