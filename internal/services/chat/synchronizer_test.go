package chat

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
)

type loaderMock struct {
	mock.Mock
}

func (m *loaderMock) History(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func message(chatID uuid.UUID, body string, at time.Time) models.Message {
	return models.Message{ID: uuid.New(), ChatID: chatID, SenderID: uuid.New(), Body: body, CreatedAt: at}
}

func publish(t *testing.T, hub *realtime.Hub, m models.Message) {
	t.Helper()
	ev, err := realtime.NewEvent(realtime.EventInsert, "messages", m)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), realtime.ChatTopic(m.ChatID), ev))
}

type started struct {
	sync     *Synchronizer
	appended chan models.Message
	initial  []models.Message
}

func start(t *testing.T, hub *realtime.Hub, chatID uuid.UUID, history []models.Message) started {
	t.Helper()
	loader := new(loaderMock)
	loader.On("History", mock.Anything, chatID).Return(history, nil)

	s := NewSynchronizer(chatID, loader, hub, nil)
	appended := make(chan models.Message, 16)
	s.OnAppend(func(m models.Message) { appended <- m })

	initial, err := s.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return started{sync: s, appended: appended, initial: initial}
}

func waitAppend(t *testing.T, ch <-chan models.Message) models.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for append")
	}
	return models.Message{}
}

func TestSynchronizerAppliesLiveInserts(t *testing.T) {
	hub := realtime.NewHub(nil)
	chatID := uuid.New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	old := message(chatID, "old", base)

	st := start(t, hub, chatID, []models.Message{old})
	require.Len(t, st.initial, 1)
	assert.Equal(t, 1, hub.Subscribers(realtime.ChatTopic(chatID)), "exactly one subscription")

	fresh := message(chatID, "fresh", base.Add(time.Minute))
	publish(t, hub, fresh)
	assert.Equal(t, fresh.ID, waitAppend(t, st.appended).ID)

	snap := st.sync.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "old", snap[0].Body)
	assert.Equal(t, "fresh", snap[1].Body)
}

func TestSynchronizerDeliveryOrder(t *testing.T) {
	hub := realtime.NewHub(nil)
	chatID := uuid.New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	st := start(t, hub, chatID, nil)

	m1 := message(chatID, "first", base)
	m2 := message(chatID, "second", base.Add(time.Second))
	publish(t, hub, m2)
	waitAppend(t, st.appended)
	publish(t, hub, m1)
	waitAppend(t, st.appended)

	snap := st.sync.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "second", snap[0].Body, "live list keeps arrival order")
	assert.Equal(t, "first", snap[1].Body)
}

func TestSynchronizerDropsDuplicatesAndForeignEvents(t *testing.T) {
	hub := realtime.NewHub(nil)
	chatID := uuid.New()
	known := message(chatID, "known", time.Now())
	st := start(t, hub, chatID, []models.Message{known})

	// the echo of an already-fetched row
	publish(t, hub, known)

	other := message(uuid.New(), "elsewhere", time.Now())
	ev, err := realtime.NewEvent(realtime.EventInsert, "messages", other)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), realtime.ChatTopic(chatID), ev))

	update, err := realtime.NewEvent("UPDATE", "messages", known)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), realtime.ChatTopic(chatID), update))

	marker := message(chatID, "marker", time.Now())
	publish(t, hub, marker)
	assert.Equal(t, marker.ID, waitAppend(t, st.appended).ID)
	assert.Len(t, st.sync.Snapshot(), 2)
}

func TestSynchronizerCloseReleasesSubscription(t *testing.T) {
	hub := realtime.NewHub(nil)
	chatID := uuid.New()
	st := start(t, hub, chatID, nil)

	st.sync.Close()
	select {
	case <-st.sync.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
	}
	assert.Zero(t, hub.Subscribers(realtime.ChatTopic(chatID)))
}

// recordingBroker remembers every subscription it hands out.
type recordingBroker struct {
	*realtime.Hub

	mu   sync.Mutex
	subs []*realtime.Subscription
}

func (b *recordingBroker) Subscribe(ctx context.Context, topic string) (*realtime.Subscription, error) {
	sub, err := b.Hub.Subscribe(ctx, topic)
	if err == nil {
		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
	}
	return sub, err
}

func (b *recordingBroker) subscriptions() []*realtime.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*realtime.Subscription(nil), b.subs...)
}

func TestSynchronizerStopsOnSubscriptionError(t *testing.T) {
	broker := &recordingBroker{Hub: realtime.NewHub(nil)}
	chatID := uuid.New()
	loader := new(loaderMock)
	loader.On("History", mock.Anything, chatID).Return([]models.Message(nil), nil)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := NewSynchronizer(chatID, loader, broker, &logger)
	_, err := s.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	subs := broker.subscriptions()
	require.Len(t, subs, 1)
	subs[0].Fail(errors.New("connection reset"))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running after the subscription failed")
	}
	assert.Contains(t, buf.String(), "chat subscription failed")
	assert.Contains(t, buf.String(), "connection reset")

	// no resubscribe: the topic is left without listeners and later inserts are missed
	assert.Len(t, broker.subscriptions(), 1)
	assert.Zero(t, broker.Subscribers(realtime.ChatTopic(chatID)))
	publish(t, broker.Hub, message(chatID, "missed", time.Now()))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, s.Snapshot())
}

func TestSynchronizerStartErrors(t *testing.T) {
	hub := realtime.NewHub(nil)
	chatID := uuid.New()

	loader := new(loaderMock)
	loader.On("History", mock.Anything, chatID).Return(nil, errors.New("db down"))
	s := NewSynchronizer(chatID, loader, hub, nil)
	_, err := s.Start(context.Background())
	require.Error(t, err)
	assert.Zero(t, hub.Subscribers(realtime.ChatTopic(chatID)), "failed start releases the subscription")

	st := start(t, hub, chatID, nil)
	_, err = st.sync.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestTimeline(t *testing.T) {
	chatID := uuid.New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	a := message(chatID, "a", base.Add(2*time.Second))
	b := message(chatID, "b", base)

	tl := NewTimeline([]models.Message{a})
	assert.True(t, tl.Append(b))
	assert.False(t, tl.Append(a))

	// same content, different id: not a duplicate
	twin := b
	twin.ID = uuid.New()
	assert.True(t, tl.Append(twin))
	assert.Equal(t, 3, tl.Len())

	got := tl.Messages()
	assert.Equal(t, []string{"a", "b", "b"}, []string{got[0].Body, got[1].Body, got[2].Body})

	rec := tl.Reconciled()
	assert.Equal(t, "a", rec[2].Body)
	assert.Equal(t, "a", tl.Messages()[0].Body, "reconciled view leaves delivery order alone")
}
