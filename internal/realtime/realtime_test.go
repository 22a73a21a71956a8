package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Body string `json:"message"`
}

func mustEvent(t *testing.T, id string) Event {
	t.Helper()
	ev, err := NewEvent(EventInsert, "messages", record{ID: id, Body: "body-" + id})
	require.NoError(t, err)
	return ev
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case err := <-sub.Err():
		t.Fatalf("subscription error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertSilent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// both brokers must satisfy the same contract
func brokerContract(t *testing.T, b Broker) {
	ctx := context.Background()
	topic := ChatTopic(uuid.New())

	t.Run("FanOutInOrder", func(t *testing.T) {
		s1, err := b.Subscribe(ctx, topic)
		require.NoError(t, err)
		defer s1.Close()
		s2, err := b.Subscribe(ctx, topic)
		require.NoError(t, err)
		defer s2.Close()

		require.NoError(t, b.Publish(ctx, topic, mustEvent(t, "m1")))
		require.NoError(t, b.Publish(ctx, topic, mustEvent(t, "m2")))

		for _, sub := range []*Subscription{s1, s2} {
			var got record
			require.NoError(t, receive(t, sub).Decode(&got))
			assert.Equal(t, "m1", got.ID)
			require.NoError(t, receive(t, sub).Decode(&got))
			assert.Equal(t, "m2", got.ID)
		}
	})

	t.Run("TopicsAreIsolated", func(t *testing.T) {
		sub, err := b.Subscribe(ctx, topic)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, b.Publish(ctx, ChatTopic(uuid.New()), mustEvent(t, "other")))
		assertSilent(t, sub)
	})

	t.Run("CloseStopsDelivery", func(t *testing.T) {
		sub, err := b.Subscribe(ctx, topic)
		require.NoError(t, err)
		sub.Close()
		sub.Close()

		select {
		case <-sub.Done():
		default:
			t.Fatal("done not closed")
		}
		require.NoError(t, b.Publish(ctx, topic, mustEvent(t, "late")))
		assertSilent(t, sub)
	})

	t.Run("ContextCancelCloses", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		sub, err := b.Subscribe(cctx, topic)
		require.NoError(t, err)
		cancel()

		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription outlived its context")
		}
	})
}

func TestHub(t *testing.T) {
	hub := NewHub(nil)
	brokerContract(t, hub)

	t.Run("UnsubscribeRemovesTopic", func(t *testing.T) {
		topic := UserTopic(uuid.New())
		sub, err := hub.Subscribe(context.Background(), topic)
		require.NoError(t, err)
		assert.Equal(t, 1, hub.Subscribers(topic))
		sub.Close()
		assert.Equal(t, 0, hub.Subscribers(topic))
	})

	t.Run("FullBufferDropsInsteadOfBlocking", func(t *testing.T) {
		topic := UserTopic(uuid.New())
		sub, err := hub.Subscribe(context.Background(), topic)
		require.NoError(t, err)
		defer sub.Close()

		for i := 0; i < hub.buffer+10; i++ {
			require.NoError(t, hub.Publish(context.Background(), topic, mustEvent(t, "x")))
		}
		assert.Len(t, sub.Events(), hub.buffer)
	})

	t.Run("PublishHonoursCancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, hub.Publish(cctx, "chat:x", Event{}), context.Canceled)
	})
}

func TestRedisBroker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	b := NewRedisBroker(rdb, nil)
	brokerContract(t, b)

	t.Run("MalformedPayloadSkipped", func(t *testing.T) {
		ctx := context.Background()
		topic := ChatTopic(uuid.New())
		sub, err := b.Subscribe(ctx, topic)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, rdb.Publish(ctx, channelPrefix+topic, "{not json").Err())
		require.NoError(t, b.Publish(ctx, topic, mustEvent(t, "ok")))

		var got record
		require.NoError(t, receive(t, sub).Decode(&got))
		assert.Equal(t, "ok", got.ID)
	})

	t.Run("SubscribeFailsWhenServerDown", func(t *testing.T) {
		down := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		down.Close()

		_, err := NewRedisBroker(client, nil).Subscribe(context.Background(), ChatTopic(uuid.New()))
		assert.Error(t, err)
	})
}
